// Package gallery maintains the cross-conversation index of agent outputs
// and the selection used for the detail view. Selection changes run through
// a two-phase transition (deselect, then select after a settle delay) so the
// rendering layer can animate without overlap; the settle step is an explicit
// generation-tagged continuation rather than a timer side effect.
package gallery

// NoSelection is the selected index when no entry is focused.
const NoSelection = -1

// Entry is one agent's latest non-empty output. Unique by agent name,
// insertion-ordered by the first time that agent produced output.
type Entry struct {
	AgentName string
	Output    string
}

// Phase is the state of the two-phase selection transition.
type Phase int

const (
	// PhaseIdle means no transition is in flight.
	PhaseIdle Phase = iota
	// PhaseDeselecting means the old selection has been dropped and the
	// new target is waiting for its settle continuation.
	PhaseDeselecting
)

// Gallery holds the deduplicated output index and the selection machine.
// It is not safe for concurrent use; all mutation is expected to happen on
// a single cooperative event loop.
type Gallery struct {
	orchestrator string

	entries []Entry
	index   map[string]int

	selected int
	pending  int
	phase    Phase
	gen      uint64
}

// New returns an empty gallery. Entries belonging to the given orchestrator
// identity win the auto-select rule.
func New(orchestrator string) *Gallery {
	return &Gallery{
		orchestrator: orchestrator,
		index:        map[string]int{},
		selected:     NoSelection,
		pending:      NoSelection,
	}
}

// Entries returns all entries in insertion order.
func (g *Gallery) Entries() []Entry {
	return g.entries
}

// Len returns the number of entries.
func (g *Gallery) Len() int {
	return len(g.entries)
}

// Entry returns the entry at index i.
func (g *Gallery) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(g.entries) {
		return Entry{}, false
	}
	return g.entries[i], true
}

// Selected returns the focused index, or ok=false when nothing is focused
// or a transition is mid-flight.
func (g *Gallery) Selected() (int, bool) {
	if g.selected == NoSelection {
		return NoSelection, false
	}
	return g.selected, true
}

// Phase returns the current transition phase.
func (g *Gallery) Phase() Phase {
	return g.phase
}

// Upsert folds a non-empty output into the gallery and applies the
// auto-select rule: when the gallery was empty before the upsert, or the
// update belongs to the orchestrator, the orchestrator's entry is selected
// if present, else the entry just upserted. Returns the transition
// generation to settle when a selection change started.
func (g *Gallery) Upsert(agentName, output string) (uint64, bool) {
	if output == "" {
		return 0, false
	}
	wasEmpty := len(g.entries) == 0
	i, ok := g.index[agentName]
	if ok {
		g.entries[i].Output = output
	} else {
		i = len(g.entries)
		g.index[agentName] = i
		g.entries = append(g.entries, Entry{AgentName: agentName, Output: output})
	}
	if !wasEmpty && agentName != g.orchestrator {
		return 0, false
	}
	target := i
	if oi, ok := g.index[g.orchestrator]; ok {
		target = oi
	}
	return g.begin(target)
}

// SelectNext moves the focus one entry forward, clamping at the end.
func (g *Gallery) SelectNext() (uint64, bool) {
	base := g.effective()
	if base == NoSelection || base+1 >= len(g.entries) {
		return 0, false
	}
	return g.begin(base + 1)
}

// SelectPrevious moves the focus one entry back, clamping at the start.
func (g *Gallery) SelectPrevious() (uint64, bool) {
	base := g.effective()
	if base <= 0 {
		return 0, false
	}
	return g.begin(base - 1)
}

// Dismiss clears the selection through the same two-phase transition. The
// selection stays cleared until the next qualifying upsert or navigation.
func (g *Gallery) Dismiss() (uint64, bool) {
	if g.effective() == NoSelection {
		return 0, false
	}
	return g.begin(NoSelection)
}

// Settle completes the transition identified by gen. A stale generation is
// ignored: when a newer transition started during the settle window, the
// later deselect/select pair supersedes the pending one.
func (g *Gallery) Settle(gen uint64) bool {
	if g.phase != PhaseDeselecting || gen != g.gen {
		return false
	}
	g.selected = g.pending
	g.pending = NoSelection
	g.phase = PhaseIdle
	return true
}

// effective is the selection a new transition starts from: the in-flight
// target when one exists, else the settled selection.
func (g *Gallery) effective() int {
	if g.phase == PhaseDeselecting {
		return g.pending
	}
	return g.selected
}

// begin starts a deselect-then-select transition toward target. Reselecting
// the already-focused entry is a no-op so repeated orchestrator updates do
// not flicker the detail view.
func (g *Gallery) begin(target int) (uint64, bool) {
	if target == g.effective() {
		return 0, false
	}
	g.gen++
	g.phase = PhaseDeselecting
	g.pending = target
	g.selected = NoSelection
	return g.gen, true
}
