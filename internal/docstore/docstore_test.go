package docstore

import "testing"

func TestUpdateQueue_KeepsNewest(t *testing.T) {
	q := newUpdateQueue()
	for i := 0; i < 3; i++ {
		q.offer(Update{Snapshot: Snapshot{Docs: make([]Document, i)}})
	}
	u := <-q.ch
	if got := len(u.Snapshot.Docs); got != 2 {
		t.Fatalf("expected newest snapshot (2 docs), got %d", got)
	}
	select {
	case <-q.ch:
		t.Fatalf("expected queue to be empty")
	default:
	}
}

func TestValidName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"name", true},
		{"_x1", true},
		{"", false},
		{"1abc", false},
		{"a.b", false},
		{"a b", false},
	}
	for _, tt := range tests {
		if got := ValidName(tt.in); got != tt.want {
			t.Fatalf("ValidName(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
