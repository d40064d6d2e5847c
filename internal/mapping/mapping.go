package mapping

import (
	"fmt"
	"sort"
)

// ConversionType classifies how well a source API maps to the target API.
type ConversionType string

const (
	ConversionDirect     ConversionType = "direct"
	ConversionWrapper    ConversionType = "wrapper"
	ConversionComplex    ConversionType = "complex"
	ConversionImpossible ConversionType = "impossible"
)

// Unsupported is the sentinel target for impossible mappings.
const Unsupported = "UNSUPPORTED"

// APIMapping is one row of the versioned conversion table.
type APIMapping struct {
	ID               string         `yaml:"id" json:"id"`
	SourceSignature  string         `yaml:"source_signature" json:"source_signature"`
	TargetEquivalent string         `yaml:"target_equivalent" json:"target_equivalent"`
	ConversionType   ConversionType `yaml:"conversion_type" json:"conversion_type"`
	Version          int            `yaml:"version" json:"version"`
	Notes            string         `yaml:"notes,omitempty" json:"notes,omitempty"`
	ExampleUsage     string         `yaml:"example_usage,omitempty" json:"example_usage,omitempty"`
	// SimplifiedForm is an optional lossy one-call alternative for complex
	// mappings, used only when the run allows simplifications.
	SimplifiedForm string `yaml:"simplified_form,omitempty" json:"simplified_form,omitempty"`
}

// Validate checks the per-row invariants.
func (m APIMapping) Validate() error {
	if m.SourceSignature == "" {
		return fmt.Errorf("mapping %q: empty source signature", m.ID)
	}
	switch m.ConversionType {
	case ConversionDirect, ConversionWrapper, ConversionComplex:
		if m.TargetEquivalent == Unsupported || m.TargetEquivalent == "" {
			return fmt.Errorf("mapping %q: %s conversion requires a real target equivalent", m.ID, m.ConversionType)
		}
	case ConversionImpossible:
		if m.TargetEquivalent != Unsupported {
			return fmt.Errorf("mapping %q: impossible conversion must target %s", m.ID, Unsupported)
		}
	default:
		return fmt.Errorf("mapping %q: unknown conversion type %q", m.ID, m.ConversionType)
	}
	if m.Version < 1 {
		return fmt.Errorf("mapping %q: version must be >= 1", m.ID)
	}
	return nil
}

// Resolver answers signature lookups against a preloaded, read-only table.
// It does no I/O per call; a NotFound result is a signal for the
// transpiler's compromise strategies, not an error.
type Resolver struct {
	bySignature map[string][]APIMapping // sorted by Version ascending
}

// NewResolver builds a resolver, enforcing the one-mapping-per
// (signature, version) invariant.
func NewResolver(table []APIMapping) (*Resolver, error) {
	r := &Resolver{bySignature: make(map[string][]APIMapping)}
	seen := make(map[string]bool)
	for _, m := range table {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		key := fmt.Sprintf("%s@%d", m.SourceSignature, m.Version)
		if seen[key] {
			return nil, fmt.Errorf("duplicate mapping for %s version %d", m.SourceSignature, m.Version)
		}
		seen[key] = true
		r.bySignature[m.SourceSignature] = append(r.bySignature[m.SourceSignature], m)
	}
	for sig := range r.bySignature {
		sort.Slice(r.bySignature[sig], func(i, j int) bool {
			return r.bySignature[sig][i].Version < r.bySignature[sig][j].Version
		})
	}
	return r, nil
}

// Resolve returns the mapping with the greatest version <= the requested
// version, degrading to the nearest older table entry. ok is false when no
// entry qualifies.
func (r *Resolver) Resolve(signature string, version int) (APIMapping, bool) {
	candidates := r.bySignature[signature]
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].Version <= version {
			return candidates[i], true
		}
	}
	return APIMapping{}, false
}

// Len reports how many mapping rows the resolver holds.
func (r *Resolver) Len() int {
	n := 0
	for _, ms := range r.bySignature {
		n += len(ms)
	}
	return n
}
