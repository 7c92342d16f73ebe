package store

import (
	"encoding/json"
	"strings"

	"github.com/jward/jbind/internal/classinfo"
)

// marshalModifiers converts []string to JSON text for storage.
func marshalModifiers(mods []string) string {
	if len(mods) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(mods)
	return string(b)
}

// unmarshalModifiers converts JSON text back to []string.
func unmarshalModifiers(s string) []string {
	if s == "" || s == "null" {
		return nil
	}
	var mods []string
	_ = json.Unmarshal([]byte(s), &mods)
	return mods
}

// renderGenerics returns "<A, B extends C>" or "".
func renderGenerics(gs []classinfo.Generic) string {
	if len(gs) == 0 {
		return ""
	}
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = g.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
