package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortex-on/agentdeck/pkg/transcript"
)

func apply(t *testing.T, tr *transcript.Transcript, ev transcript.UpdateEvent) {
	t.Helper()
	_, ok := tr.Apply(ev)
	require.True(t, ok)
}

func TestAdvance_WorkingUntilOrchestratorOutput(t *testing.T) {
	tr := transcript.New()
	tr.Append(transcript.NewSystemTurn())
	turn := tr.Open()

	apply(t, tr, transcript.UpdateEvent{AgentName: "Coder Agent", Output: "print(1)", StatusCode: 200})
	assert.Equal(t, transcript.StatusWorking, Advance(turn))

	// Orchestrator updates without output stay in Working.
	apply(t, tr, transcript.UpdateEvent{AgentName: transcript.OrchestratorAgent, Steps: []string{"Agents initialized successfully"}})
	assert.Equal(t, transcript.StatusWorking, Advance(turn))
}

func TestAdvance_SucceedsOn200(t *testing.T) {
	tr := transcript.New()
	tr.Append(transcript.NewSystemTurn())
	turn := tr.Open()

	apply(t, tr, transcript.UpdateEvent{AgentName: transcript.OrchestratorAgent, Output: "done", StatusCode: 200})
	assert.Equal(t, transcript.StatusSucceeded, Advance(turn))
}

func TestAdvance_FailsOnNon200(t *testing.T) {
	tr := transcript.New()
	tr.Append(transcript.NewSystemTurn())
	turn := tr.Open()

	apply(t, tr, transcript.UpdateEvent{AgentName: transcript.OrchestratorAgent, Output: "failed: timeout", StatusCode: 500})
	assert.Equal(t, transcript.StatusFailed, Advance(turn))
	assert.Equal(t, "failed: timeout", FailureMessage(turn))
}

func TestAdvance_TerminalStateLatches(t *testing.T) {
	tr := transcript.New()
	tr.Append(transcript.NewSystemTurn())
	turn := tr.Open()

	apply(t, tr, transcript.UpdateEvent{AgentName: transcript.OrchestratorAgent, Output: "done", StatusCode: 200})
	require.Equal(t, transcript.StatusSucceeded, Advance(turn))

	// A late orchestrator update merges but cannot reopen the turn.
	apply(t, tr, transcript.UpdateEvent{AgentName: transcript.OrchestratorAgent, Output: "late", StatusCode: 500})
	assert.Equal(t, transcript.StatusSucceeded, Advance(turn))
}

func TestFailureMessage_EmptyUnlessFailed(t *testing.T) {
	tr := transcript.New()
	tr.Append(transcript.NewSystemTurn())
	turn := tr.Open()
	assert.Empty(t, FailureMessage(turn))

	apply(t, tr, transcript.UpdateEvent{AgentName: transcript.OrchestratorAgent, Output: "done", StatusCode: 200})
	Advance(turn)
	assert.Empty(t, FailureMessage(turn))
}
