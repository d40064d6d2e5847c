package diag

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkConcurrentAppend(t *testing.T) {
	sink := NewSink()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sink.Add(Note{Severity: SeverityInfo, Stage: StageIRBuilder, Message: "collected"})
			}
		}()
	}
	wg.Wait()

	require.Len(t, sink.Notes(), 800)
}

func TestSuccessCriteria(t *testing.T) {
	cases := []struct {
		name          string
		severities    []Severity
		allowWarnings bool
		want          bool
	}{
		{"clean run", nil, true, true},
		{"warnings tolerated", []Severity{SeverityWarning}, true, true},
		{"errors tolerated with warnings allowed", []Severity{SeverityError}, true, true},
		{"errors fail strict runs", []Severity{SeverityError}, false, false},
		{"critical always fails", []Severity{SeverityCritical}, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := NewSink()
			for _, sev := range tc.severities {
				sink.Add(Note{Severity: sev, Stage: StageTranspiler, Message: "x"})
			}
			assert.Equal(t, tc.want, sink.Success(tc.allowWarnings))
		})
	}
}

func TestNotesReturnsCopy(t *testing.T) {
	sink := NewSink()
	sink.Add(Note{Severity: SeverityInfo, Stage: StageParser, Message: "one"})

	notes := sink.Notes()
	notes[0].Message = "mutated"

	require.Equal(t, "one", sink.Notes()[0].Message)
}
