package transcript

import "strings"

const (
	planStepPrefix    = "Plan"
	currentStepPrefix = "Current"
)

// FilterSteps reduces the browsing agent's continuously growing step log to
// the lines a viewer cares about: the first "Plan"-prefixed entry, if any,
// followed by every "Current"-prefixed entry in original order. Steps from
// all other agents pass through unchanged.
func FilterSteps(agentName string, steps []string) []string {
	if agentName != WebSurferAgent {
		return steps
	}
	var plan string
	havePlan := false
	filtered := make([]string, 0, len(steps))
	for _, s := range steps {
		if !havePlan && strings.HasPrefix(s, planStepPrefix) {
			plan = s
			havePlan = true
			continue
		}
		if strings.HasPrefix(s, currentStepPrefix) {
			filtered = append(filtered, s)
		}
	}
	if havePlan {
		return append([]string{plan}, filtered...)
	}
	return filtered
}

// merge folds one update event into the turn's record list. An existing
// record for the agent is replaced field by field (full replace, not
// merge-by-field); a new agent is appended, preserving first-seen order.
func (t *Turn) merge(ev UpdateEvent) *AgentRecord {
	steps := FilterSteps(ev.AgentName, ev.Steps)
	if t.index == nil {
		t.index = map[string]int{}
	}
	if i, ok := t.index[ev.AgentName]; ok {
		rec := t.records[i]
		rec.Instructions = ev.Instructions
		rec.Steps = steps
		rec.Output = ev.Output
		rec.StatusCode = ev.StatusCode
		rec.LiveURL = ev.LiveURL
		return rec
	}
	rec := &AgentRecord{
		AgentName:    ev.AgentName,
		Instructions: ev.Instructions,
		Steps:        steps,
		Output:       ev.Output,
		StatusCode:   ev.StatusCode,
		LiveURL:      ev.LiveURL,
	}
	t.index[ev.AgentName] = len(t.records)
	t.records = append(t.records, rec)
	return rec
}
