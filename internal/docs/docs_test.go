package docs

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTopics_Sorted(t *testing.T) {
	want := []string{"config", "items", "keys", "sync"}
	if diff := cmp.Diff(want, Topics()); diff != "" {
		t.Fatalf("topics mismatch (-want +got):\n%s", diff)
	}
}

func TestGet_CaseInsensitive(t *testing.T) {
	body, ok := Get(" Keys ")
	if !ok {
		t.Fatalf("expected keys topic")
	}
	if !strings.Contains(body, "Item deleted.  u: undo") {
		t.Fatalf("keys topic missing snackbar text")
	}
	if _, ok := Get("nope"); ok {
		t.Fatalf("expected unknown topic to be missing")
	}
	if _, ok := Get(""); ok {
		t.Fatalf("expected empty topic to be missing")
	}
}

func TestRender(t *testing.T) {
	out, err := Render("# Title\n\nbody text", 40)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "body") {
		t.Fatalf("rendered output lost the body:\n%s", out)
	}
}
