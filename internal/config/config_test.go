package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func setConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SHOPLIST_CONFIG_DIR", dir)
	for _, k := range []string{"SHOPLIST_REMOTE", "SHOPLIST_DATA_DIR", "SHOPLIST_COLLECTION", "SHOPLIST_LISTEN", "SHOPLIST_UNDO_WINDOW_MS", "SHOPLIST_LOG_FILE", "SHOPLIST_LOG_LEVEL", "SHOPLIST_GLYPHS", "SHOPLIST_COLOR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	dir := setConfigDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{
		DataDir:      dir,
		Collection:   DefaultCollection,
		Listen:       DefaultListen,
		UndoWindowMs: DefaultUndoWindowMs,
		LogLevel:     "info",
		Glyphs:       "unicode",
		Color:        "auto",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.UndoWindow() != 5*time.Second {
		t.Fatalf("UndoWindow() = %v", cfg.UndoWindow())
	}
	if cfg.DBPath() != filepath.Join(dir, "shoplist.sqlite") {
		t.Fatalf("DBPath() = %q", cfg.DBPath())
	}
}

func TestLoad_FileWithCommentsThenEnv(t *testing.T) {
	dir := setConfigDir(t)
	raw := `{
  // shared list on the home server
  "remote": "http://pantry.local:8765",
  "collection": "groceries",
  "undoWindowMs": 8000,
}
`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SHOPLIST_COLLECTION", "weekend")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Remote != "http://pantry.local:8765" || cfg.UndoWindowMs != 8000 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Collection != "weekend" {
		t.Fatalf("expected env to override file, got %q", cfg.Collection)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{name: "remote scheme", env: "SHOPLIST_REMOTE", val: "ftp://x"},
		{name: "collection", env: "SHOPLIST_COLLECTION", val: "my list"},
		{name: "undo window", env: "SHOPLIST_UNDO_WINDOW_MS", val: "0"},
		{name: "log level", env: "SHOPLIST_LOG_LEVEL", val: "chatty"},
		{name: "glyphs", env: "SHOPLIST_GLYPHS", val: "emoji"},
		{name: "color", env: "SHOPLIST_COLOR", val: "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setConfigDir(t)
			t.Setenv(tt.env, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%q to be rejected", tt.env, tt.val)
			}
		})
	}
}

func TestSet_PreservesCommentsAndTypes(t *testing.T) {
	dir := setConfigDir(t)
	path := filepath.Join(dir, "config.json")
	raw := "{\n  // keep me\n  \"collection\": \"groceries\"\n}\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := Set("undoWindowMs", "7000"); err != nil {
		t.Fatalf("Set undoWindowMs: %v", err)
	}
	if err := Set("collection", "weekend"); err != nil {
		t.Fatalf("Set collection: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(got), "// keep me") {
		t.Fatalf("expected comment to survive:\n%s", got)
	}
	if !strings.Contains(string(got), `"undoWindowMs": 7000`) {
		t.Fatalf("expected numeric undoWindowMs:\n%s", got)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Collection != "weekend" || cfg.UndoWindowMs != 7000 {
		t.Fatalf("unexpected config after Set: %+v", cfg)
	}
}

func TestSet_CreatesFile(t *testing.T) {
	dir := setConfigDir(t)
	if err := Set("glyphs", "ascii"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Glyphs != "ascii" {
		t.Fatalf("Glyphs = %q", cfg.Glyphs)
	}
}

func TestSet_RejectsBadInputWithoutWriting(t *testing.T) {
	dir := setConfigDir(t)
	if err := Set("nope", "1"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
	if err := Set("undoWindowMs", "soon"); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := Set("color", "rainbow"); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no config file to be written, got %v", err)
	}
}

func TestGet_EveryKey(t *testing.T) {
	setConfigDir(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, k := range Keys {
		if _, err := cfg.Get(k); err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
	}
}
