// Package config loads and edits the user's shoplist settings.
//
// Settings live in $SHOPLIST_CONFIG_DIR/config.json (default
// ~/.shoplist/config.json). The file may contain comments and trailing
// commas. Environment variables override the file; command-line flags
// override both and are applied by the caller.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"shoplist-cli/internal/docstore"

	"github.com/caarlos0/env/v11"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

type Config struct {
	// Remote is the base URL of a document server. Empty means a local
	// SQLite store under DataDir.
	Remote     string `json:"remote,omitempty" env:"SHOPLIST_REMOTE"`
	DataDir    string `json:"dataDir,omitempty" env:"SHOPLIST_DATA_DIR"`
	Collection string `json:"collection,omitempty" env:"SHOPLIST_COLLECTION"`
	Listen     string `json:"listen,omitempty" env:"SHOPLIST_LISTEN"`

	UndoWindowMs int `json:"undoWindowMs,omitempty" env:"SHOPLIST_UNDO_WINDOW_MS"`

	LogFile  string `json:"logFile,omitempty" env:"SHOPLIST_LOG_FILE"`
	LogLevel string `json:"logLevel,omitempty" env:"SHOPLIST_LOG_LEVEL"`

	Glyphs string `json:"glyphs,omitempty" env:"SHOPLIST_GLYPHS"`
	Color  string `json:"color,omitempty" env:"SHOPLIST_COLOR"`
}

const (
	DefaultCollection   = "items"
	DefaultListen       = "127.0.0.1:8765"
	DefaultUndoWindowMs = 5000
	dbFileName          = "shoplist.sqlite"
)

// Keys lists every settable key in file order.
var Keys = []string{"remote", "dataDir", "collection", "listen", "undoWindowMs", "logFile", "logLevel", "glyphs", "color"}

var ErrUnknownKey = errors.New("unknown config key")

func Dir() (string, error) {
	// Keeps tests away from the real home directory.
	if v := strings.TrimSpace(os.Getenv("SHOPLIST_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".shoplist"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Defaults returns the built-in settings.
func Defaults() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		DataDir:      dir,
		Collection:   DefaultCollection,
		Listen:       DefaultListen,
		UndoWindowMs: DefaultUndoWindowMs,
		LogLevel:     "info",
		Glyphs:       "unicode",
		Color:        "auto",
	}, nil
}

// Load merges defaults, the config file and the environment, then validates
// the result. A missing file is not an error.
func Load() (Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return Config{}, err
	}
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, err
	default:
		std, err := hujson.Standardize(b)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := json.Unmarshal(std, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Remote != "" {
		u, err := url.Parse(c.Remote)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("remote: expected an http(s) URL, got %q", c.Remote)
		}
	}
	if !docstore.ValidName(c.Collection) {
		return fmt.Errorf("collection: invalid name %q", c.Collection)
	}
	if c.UndoWindowMs <= 0 {
		return fmt.Errorf("undoWindowMs: must be positive, got %d", c.UndoWindowMs)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Glyphs {
	case "", "unicode", "ascii":
	default:
		return fmt.Errorf("glyphs: expected unicode or ascii, got %q", c.Glyphs)
	}
	switch c.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("color: expected auto, always or never, got %q", c.Color)
	}
	return nil
}

func (c Config) UndoWindow() time.Duration {
	return time.Duration(c.UndoWindowMs) * time.Millisecond
}

// DBPath is where the local SQLite store lives.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, dbFileName)
}

func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logLevel: %w", err)
	}
	return lvl, nil
}

// Get returns the value of key as it would be printed.
func (c Config) Get(key string) (string, error) {
	switch key {
	case "remote":
		return c.Remote, nil
	case "dataDir":
		return c.DataDir, nil
	case "collection":
		return c.Collection, nil
	case "listen":
		return c.Listen, nil
	case "undoWindowMs":
		return strconv.Itoa(c.UndoWindowMs), nil
	case "logFile":
		return c.LogFile, nil
	case "logLevel":
		return c.LogLevel, nil
	case "glyphs":
		return c.Glyphs, nil
	case "color":
		return c.Color, nil
	default:
		return "", fmt.Errorf("%w: %q (known: %s)", ErrUnknownKey, key, strings.Join(sortedKeys(), ", "))
	}
}

func sortedKeys() []string {
	ks := append([]string(nil), Keys...)
	sort.Strings(ks)
	return ks
}

// set applies one key to c, parsing value for the key's type.
func (c *Config) set(key, value string) (any, error) {
	switch key {
	case "remote":
		c.Remote = value
	case "dataDir":
		c.DataDir = value
	case "collection":
		c.Collection = value
	case "listen":
		c.Listen = value
	case "undoWindowMs":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("undoWindowMs: %w", err)
		}
		c.UndoWindowMs = n
		return n, nil
	case "logFile":
		c.LogFile = value
	case "logLevel":
		c.LogLevel = value
	case "glyphs":
		c.Glyphs = value
	case "color":
		c.Color = value
	default:
		_, err := c.Get(key)
		return nil, err
	}
	return value, nil
}

// Set writes key=value into the config file, keeping its comments and
// layout. The merged result must validate before anything is written.
func Set(key, value string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	typed, err := cfg.set(key, value)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path, err := Path()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	doc, err := hujson.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	val, err := json.Marshal(typed)
	if err != nil {
		return err
	}
	patch := fmt.Sprintf(`[{"op":"add","path":"/%s","value":%s}]`, key, val)
	if err := doc.Patch([]byte(patch)); err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	doc.Format()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(doc.Pack()))
}
