package transcript

import (
	"time"
)

// Role distinguishes user prompts from system (assistant) response turns.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Designated agent identities the merge, selection and completion rules key on.
// Every other agent goes through the default path.
const (
	OrchestratorAgent = "Orchestrator"
	WebSurferAgent    = "Web Surfer Agent"
)

// UpdateEvent is one inbound message describing the latest state of one
// agent's work. Events are partial and repeatable: any field may be empty,
// and multiple events for the same agent within one turn are expected.
type UpdateEvent struct {
	AgentName    string   `json:"agent_name"`
	Instructions string   `json:"instructions"`
	Steps        []string `json:"steps"`
	Output       string   `json:"output"`
	StatusCode   int      `json:"status_code"`
	LiveURL      string   `json:"live_url"`
}

// AgentRecord is the latest known state of one agent within a turn.
// Fields are replaced wholesale on every merged update, not accumulated.
type AgentRecord struct {
	AgentName    string
	Instructions string
	Steps        []string
	Output       string
	StatusCode   int
	LiveURL      string
}

// TurnStatus is the completion state machine for a system turn. Once a
// terminal state is reached the turn stays there; late events still merge
// into the records but never reopen the turn.
type TurnStatus int

const (
	StatusWorking TurnStatus = iota
	StatusSucceeded
	StatusFailed
)

// Terminal reports whether the status is Succeeded or Failed.
func (s TurnStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

func (s TurnStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "working"
	}
}

// Turn is one unit of the conversation: either a user prompt or a system
// turn holding the per-agent records for one backend run.
type Turn struct {
	Role   Role
	Prompt string
	SentAt time.Time
	Status TurnStatus

	// records are kept in first-seen order of agent names; index maps
	// agent name to its position so merges avoid rescanning.
	records []*AgentRecord
	index   map[string]int
}

// NewUserTurn builds an immutable user prompt turn.
func NewUserTurn(prompt string) *Turn {
	return &Turn{Role: RoleUser, Prompt: prompt, SentAt: time.Now()}
}

// NewSystemTurn builds an empty system placeholder awaiting agent updates.
func NewSystemTurn() *Turn {
	return &Turn{Role: RoleSystem, Status: StatusWorking, index: map[string]int{}}
}

// Records returns the per-agent records in first-seen order.
func (t *Turn) Records() []*AgentRecord {
	return t.records
}

// Record looks up the record for the given agent name.
func (t *Turn) Record(agentName string) (*AgentRecord, bool) {
	if t.index == nil {
		return nil, false
	}
	i, ok := t.index[agentName]
	if !ok {
		return nil, false
	}
	return t.records[i], true
}

// Transcript owns the ordered turn sequence. Exactly one turn is open for
// mutation at a time: the last one, and only when its role is system.
type Transcript struct {
	turns []*Turn
}

// New returns an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Turns returns the full turn sequence, oldest first.
func (tr *Transcript) Turns() []*Turn {
	return tr.turns
}

// Len returns the number of turns.
func (tr *Transcript) Len() int {
	return len(tr.turns)
}

// Append adds a turn to the end of the sequence. No merging happens here.
func (tr *Transcript) Append(t *Turn) {
	tr.turns = append(tr.turns, t)
}

// Open returns the turn currently open for mutation, or nil when the
// transcript is empty or ends in a user turn.
func (tr *Transcript) Open() *Turn {
	if len(tr.turns) == 0 {
		return nil
	}
	last := tr.turns[len(tr.turns)-1]
	if last.Role != RoleSystem {
		return nil
	}
	return last
}

// Apply merges one update event into the open turn. It returns the merged
// record, or ok=false when no turn is open; the store never creates a
// system turn implicitly, so events arriving early are dropped here.
func (tr *Transcript) Apply(ev UpdateEvent) (*AgentRecord, bool) {
	open := tr.Open()
	if open == nil {
		return nil, false
	}
	return open.merge(ev), true
}
