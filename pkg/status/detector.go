// Package status derives per-turn completion from merged agent records.
// Only the orchestrator's record moves a turn out of Working: a non-empty
// output with status code 200 succeeds, anything else with a non-empty
// output fails. Terminal states latch; late events keep merging but the
// turn never reopens.
package status

import (
	"net/http"

	"github.com/cortex-on/agentdeck/pkg/transcript"
)

// Advance recomputes the completion state of a system turn from its
// orchestrator record and stores it on the turn. It returns the resulting
// status, which is unchanged when the turn is already terminal.
func Advance(t *transcript.Turn) transcript.TurnStatus {
	if t.Status.Terminal() {
		return t.Status
	}
	rec, ok := t.Record(transcript.OrchestratorAgent)
	if !ok || rec.Output == "" {
		t.Status = transcript.StatusWorking
		return t.Status
	}
	if rec.StatusCode == http.StatusOK {
		t.Status = transcript.StatusSucceeded
	} else {
		t.Status = transcript.StatusFailed
	}
	return t.Status
}

// FailureMessage returns the user-visible failure text for a failed turn:
// the orchestrator's output, which carries the error body on non-200
// terminal updates.
func FailureMessage(t *transcript.Turn) string {
	if t.Status != transcript.StatusFailed {
		return ""
	}
	rec, ok := t.Record(transcript.OrchestratorAgent)
	if !ok {
		return ""
	}
	return rec.Output
}
