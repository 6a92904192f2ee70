package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSteps_KeepsPlanAndCurrentLines(t *testing.T) {
	steps := FilterSteps(WebSurferAgent, []string{"Plan: X", "Current: A", "Note: B", "Current: C"})
	assert.Equal(t, []string{"Plan: X", "Current: A", "Current: C"}, steps)
}

func TestFilterSteps_NoPlanKeepsOnlyCurrentLines(t *testing.T) {
	steps := FilterSteps(WebSurferAgent, []string{"Searching", "Current: A", "Current: B", "Done"})
	assert.Equal(t, []string{"Current: A", "Current: B"}, steps)
}

func TestFilterSteps_FirstPlanWins(t *testing.T) {
	steps := FilterSteps(WebSurferAgent, []string{"Current: A", "Plan: one", "Plan: two"})
	assert.Equal(t, []string{"Plan: one", "Current: A"}, steps)
}

func TestFilterSteps_OtherAgentsPassThrough(t *testing.T) {
	in := []string{"Plan: X", "Note: B", "Current: C"}
	assert.Equal(t, in, FilterSteps("Coder Agent", in))
}

func TestApply_UpsertIsIdempotent(t *testing.T) {
	tr := New()
	tr.Append(NewSystemTurn())

	ev := UpdateEvent{AgentName: "Coder Agent", Instructions: "write it", Output: "print(1)"}
	_, ok := tr.Apply(ev)
	require.True(t, ok)

	ev.Output = "print(2)"
	rec, ok := tr.Apply(ev)
	require.True(t, ok)

	open := tr.Open()
	require.Len(t, open.Records(), 1)
	assert.Same(t, open.Records()[0], rec)
	assert.Equal(t, "print(2)", rec.Output)
}

func TestApply_FullFieldReplace(t *testing.T) {
	tr := New()
	tr.Append(NewSystemTurn())

	_, ok := tr.Apply(UpdateEvent{
		AgentName:    "Coder Agent",
		Instructions: "write it",
		Steps:        []string{"thinking"},
		Output:       "print(1)",
		StatusCode:   200,
		LiveURL:      "https://preview",
	})
	require.True(t, ok)

	// A later sparse event replaces every field, including back to empty.
	rec, ok := tr.Apply(UpdateEvent{AgentName: "Coder Agent"})
	require.True(t, ok)
	assert.Empty(t, rec.Instructions)
	assert.Empty(t, rec.Steps)
	assert.Empty(t, rec.Output)
	assert.Zero(t, rec.StatusCode)
	assert.Empty(t, rec.LiveURL)
}

func TestApply_PreservesFirstSeenOrder(t *testing.T) {
	tr := New()
	tr.Append(NewSystemTurn())

	for _, name := range []string{"Planner Agent", "Web Surfer Agent", "Coder Agent", "Planner Agent", "Web Surfer Agent"} {
		_, ok := tr.Apply(UpdateEvent{AgentName: name, Instructions: "latest for " + name})
		require.True(t, ok)
	}

	recs := tr.Open().Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "Planner Agent", recs[0].AgentName)
	assert.Equal(t, "Web Surfer Agent", recs[1].AgentName)
	assert.Equal(t, "Coder Agent", recs[2].AgentName)
	assert.Equal(t, "latest for Planner Agent", recs[0].Instructions)
}

func TestApply_NoOpenTurn(t *testing.T) {
	tr := New()
	_, ok := tr.Apply(UpdateEvent{AgentName: "Coder Agent"})
	assert.False(t, ok)

	// A trailing user turn is not open for mutation either.
	tr.Append(NewUserTurn("do the thing"))
	_, ok = tr.Apply(UpdateEvent{AgentName: "Coder Agent"})
	assert.False(t, ok)
	assert.Nil(t, tr.Open())
}

func TestApply_WebSurferStepsFilteredOnMerge(t *testing.T) {
	tr := New()
	tr.Append(NewSystemTurn())

	rec, ok := tr.Apply(UpdateEvent{
		AgentName: WebSurferAgent,
		Steps:     []string{"Plan: search docs", "Opening page", "Current: reading docs"},
	})
	require.True(t, ok)
	assert.Equal(t, []string{"Plan: search docs", "Current: reading docs"}, rec.Steps)
}
