// Package format writes CLI payloads as JSON or EDN.
package format

import (
	"encoding/json"
	"fmt"
	"io"
)

// Formats lists the accepted --format values.
var Formats = []string{"json", "edn"}

// Validate reports whether name is a known output format. Empty means json.
func Validate(name string) error {
	switch name {
	case "", "json", "edn":
		return nil
	default:
		return fmt.Errorf("unknown format: %q (want json or edn)", name)
	}
}

// Write writes v in the requested format followed by a newline.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "edn":
		return WriteEDN(w, v, pretty)
	default:
		return Validate(format)
	}
}

// WriteJSON writes strict JSON.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
