package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type Signal struct {
	Code     string  `json:"code"`
	Stage    string  `json:"stage"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Value    float64 `json:"value,omitempty"`
}

type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type ReportSummary struct {
	StageCount        int            `json:"stage_count"`
	FailedStages      int            `json:"failed_stages"`
	FilesIn           int            `json:"files_in"`
	FilesOut          int            `json:"files_out"`
	UnmappableCount   int            `json:"unmappable_count"`
	NotesBySeverity   map[string]int `json:"notes_by_severity"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

// Report captures per-stage metrics and severity-tagged signals for one
// conversion run, serialized next to the generated scripts so operators
// can inspect a run without re-executing it.
type Report struct {
	Version     string        `json:"version"`
	ModID       string        `json:"mod_id"`
	GeneratedAt string        `json:"generated_at"`
	Stages      []StageMetric `json:"stages"`
	Signals     []Signal      `json:"signals,omitempty"`
	Summary     ReportSummary `json:"summary"`
}

type StageHandle struct {
	name    string
	started time.Time
}

func NewReport(modID string) *Report {
	return &Report{
		Version: "v1",
		ModID:   modID,
		Stages:  []StageMetric{},
		Signals: []Signal{},
	}
}

func (r *Report) BeginStage(name string) StageHandle {
	return StageHandle{name: strings.TrimSpace(name), started: time.Now().UTC()}
}

func (r *Report) EndStage(h StageHandle, counters map[string]float64, err error) {
	if r == nil || h.name == "" {
		return
	}
	finished := time.Now().UTC()
	m := StageMetric{
		Name:       h.name,
		Status:     "ok",
		StartedAt:  h.started.Format(time.RFC3339Nano),
		FinishedAt: finished.Format(time.RFC3339Nano),
		DurationMS: finished.Sub(h.started).Milliseconds(),
		Counters:   counters,
	}
	if err != nil {
		m.Status = "error"
		m.Error = err.Error()
	}
	r.Stages = append(r.Stages, m)
}

func (r *Report) AddSignal(code, stage, severity, message string, value float64) {
	if r == nil {
		return
	}
	s := Signal{
		Code:     strings.TrimSpace(code),
		Stage:    strings.TrimSpace(stage),
		Severity: strings.ToLower(strings.TrimSpace(severity)),
		Message:  strings.TrimSpace(message),
		Value:    value,
	}
	if s.Code == "" || s.Stage == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

func (r *Report) Finalize(filesIn, filesOut, unmappable int, notesBySeverity map[string]int) {
	if r == nil {
		return
	}
	r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)

	sort.Slice(r.Signals, func(i, j int) bool {
		pi, pj := signalPriority(r.Signals[i].Severity), signalPriority(r.Signals[j].Severity)
		if pi == pj {
			if r.Signals[i].Stage == r.Signals[j].Stage {
				return r.Signals[i].Code < r.Signals[j].Code
			}
			return r.Signals[i].Stage < r.Signals[j].Stage
		}
		return pi > pj
	})

	signalCount := make(map[string]int)
	for _, s := range r.Signals {
		signalCount[s.Severity]++
	}
	failed := 0
	for _, st := range r.Stages {
		if st.Status != "ok" {
			failed++
		}
	}

	r.Summary = ReportSummary{
		StageCount:        len(r.Stages),
		FailedStages:      failed,
		FilesIn:           filesIn,
		FilesOut:          filesOut,
		UnmappableCount:   unmappable,
		NotesBySeverity:   notesBySeverity,
		SignalsBySeverity: signalCount,
	}
}

// Save writes the report as JSON, creating parent directories as needed.
func (r *Report) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func signalPriority(severity string) int {
	switch severity {
	case "critical":
		return 3
	case "error":
		return 2
	case "warning":
		return 1
	default:
		return 0
	}
}
