package diag

import "sync"

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Stage identifies which pipeline stage produced a note.
type Stage string

const (
	StageParser     Stage = "parser"
	StageIRBuilder  Stage = "irbuilder"
	StageResolver   Stage = "resolver"
	StageTranspiler Stage = "transpiler"
	StageGenerator  Stage = "generator"
	StagePipeline   Stage = "pipeline"
)

// Note is a single conversion diagnostic. Notes are append-only: once
// emitted they are never mutated, so a reviewer can trust that the list
// reflects exactly what the run observed.
type Note struct {
	Severity       Severity `json:"severity"`
	Stage          Stage    `json:"stage"`
	SourceNodeID   string   `json:"source_node_id,omitempty"`
	File           string   `json:"file,omitempty"`
	Line           int      `json:"line,omitempty"`
	Message        string   `json:"message"`
	RecommendedFix string   `json:"recommended_fix,omitempty"`
}

// Sink collects notes from every pipeline stage. Appends are safe from
// concurrent workers; reads are intended for after the run completes.
type Sink struct {
	mu    sync.Mutex
	notes []Note
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Add(n Note) {
	s.mu.Lock()
	s.notes = append(s.notes, n)
	s.mu.Unlock()
}

// Notes returns a copy of the collected notes in emission order.
func (s *Sink) Notes() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// CountBySeverity tallies notes per severity.
func (s *Sink) CountBySeverity() map[Severity]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[Severity]int)
	for _, n := range s.notes {
		counts[n.Severity]++
	}
	return counts
}

// Success reports whether a run with these notes counts as successful.
// Critical notes always fail the run; error notes fail it only when the
// caller does not tolerate warnings.
func (s *Sink) Success(allowWarnings bool) bool {
	counts := s.CountBySeverity()
	if counts[SeverityCritical] > 0 {
		return false
	}
	if !allowWarnings && counts[SeverityError] > 0 {
		return false
	}
	return true
}
