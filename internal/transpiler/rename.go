package transpiler

import (
	"fmt"
	"strings"
)

// jsReserved covers the target scripting environment's reserved words
// that are legal Java identifiers and therefore show up in mod source.
var jsReserved = map[string]bool{
	"await": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true,
	"finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "let": true,
	"new": true, "of": true, "return": true, "static": true,
	"super": true, "switch": true, "this": true, "throw": true,
	"try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true,
}

// RenameTable maps source identifiers to target-safe identifiers. Renames
// are deterministic: the suffix counter advances in first-seen order during
// the single-threaded transpile walk, and every pair is recorded so
// diagnostics can show both names.
type RenameTable struct {
	bySource map[string]string
	taken    map[string]bool
	seq      int
}

func NewRenameTable() *RenameTable {
	return &RenameTable{
		bySource: make(map[string]string),
		taken:    make(map[string]bool),
	}
}

// Rename returns the target-safe name for a source identifier, assigning
// one on first use.
func (t *RenameTable) Rename(source string) string {
	if existing, ok := t.bySource[source]; ok {
		return existing
	}

	name := sanitize(source)
	if jsReserved[name] || name == "" || t.taken[name] {
		t.seq++
		name = fmt.Sprintf("%s_%d", orFallback(name, "renamed"), t.seq)
	}
	t.bySource[source] = name
	t.taken[name] = true
	return name
}

// Pairs returns source->target renames that actually changed the name.
func (t *RenameTable) Pairs() map[string]string {
	out := make(map[string]string)
	for src, dst := range t.bySource {
		if src != dst {
			out[src] = dst
		}
	}
	return out
}

func sanitize(name string) string {
	var b strings.Builder
	for i, r := range name {
		valid := r == '_' || r == '$' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(i > 0 && r >= '0' && r <= '9')
		if valid {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func orFallback(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
