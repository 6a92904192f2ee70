// Package session wires the transcript, gallery and completion detector
// into the per-event apply pipeline. One Session tracks one conversation
// against one event source; a fresh conversation needs a fresh session.
//
// Mutation is single-threaded and cooperative: every write happens inside
// a method called from the owner's event loop, so one applied event is one
// critical section and readers only ever observe pre- or post-update state.
package session

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cortex-on/agentdeck/pkg/gallery"
	"github.com/cortex-on/agentdeck/pkg/status"
	"github.com/cortex-on/agentdeck/pkg/transcript"
)

// Sender is the outbound half of the event source collaborator.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// NopSender discards outbound prompts; used by replay and tests.
type NopSender struct{}

func (NopSender) Send(context.Context, string) error { return nil }

// Session folds inbound update events into the conversation model.
type Session struct {
	transcript *transcript.Transcript
	gallery    *gallery.Gallery
	sender     Sender

	liveURL string
	loading bool
	started bool
}

// New returns an empty session writing outbound prompts to sender.
func New(sender Sender) *Session {
	if sender == nil {
		sender = NopSender{}
	}
	return &Session{
		transcript: transcript.New(),
		gallery:    gallery.New(transcript.OrchestratorAgent),
		sender:     sender,
	}
}

// Transcript exposes the turn sequence for rendering.
func (s *Session) Transcript() *transcript.Transcript { return s.transcript }

// Gallery exposes the output gallery for rendering and navigation.
func (s *Session) Gallery() *gallery.Gallery { return s.gallery }

// LiveURL returns the active external preview URL, if any.
func (s *Session) LiveURL() string { return s.liveURL }

// Loading reports whether the open turn is still working.
func (s *Session) Loading() bool { return s.loading }

// Started reports whether a task has been submitted on this session.
func (s *Session) Started() bool { return s.started }

// StartTask appends the user turn and the system placeholder that will
// receive agent updates, and sends the raw prompt text to the backend when
// this is the conversation's first turn. The backend runs one task per
// connection, so follow-up prompts on the same session are rejected.
func (s *Session) StartTask(ctx context.Context, prompt string) error {
	if s.started {
		return errors.New("task already running on this session")
	}
	first := s.transcript.Len() == 0
	s.transcript.Append(transcript.NewUserTurn(prompt))
	s.transcript.Append(transcript.NewSystemTurn())
	s.started = true
	s.loading = true
	if first {
		if err := s.sender.Send(ctx, prompt); err != nil {
			return errors.Wrap(err, "sending prompt")
		}
	}
	log.Debug().Str("component", "session").Int("prompt_len", len(prompt)).Msg("task started")
	return nil
}

// Apply folds one update event into the conversation: record merge, then
// gallery upsert, then completion detection. It returns the gallery
// transition generation when a selection change started; the caller
// schedules Settle for it after the settle delay.
//
// Events arriving with no open system turn are dropped: the session never
// creates a system turn implicitly.
func (s *Session) Apply(ev transcript.UpdateEvent) (uint64, bool) {
	open := s.transcript.Open()
	if open == nil {
		log.Warn().Str("component", "session").Str("agent", ev.AgentName).Msg("dropping update with no open turn")
		return 0, false
	}
	rec, _ := s.transcript.Apply(ev)

	// The live preview belongs to the browsing agent: any other agent's
	// update without a live_url tears it down, while the browsing agent's
	// own URL-less updates leave the active session alone.
	if ev.LiveURL != "" {
		s.liveURL = ev.LiveURL
	} else if ev.AgentName != transcript.WebSurferAgent {
		s.liveURL = ""
	}

	gen, changed := s.gallery.Upsert(ev.AgentName, ev.Output)

	prev := open.Status
	if st := status.Advance(open); st.Terminal() {
		s.loading = false
		if st != prev {
			log.Info().Str("component", "session").Stringer("status", st).Msg("turn reached terminal state")
		}
	}

	log.Debug().
		Str("component", "session").
		Str("agent", ev.AgentName).
		Int("steps", len(rec.Steps)).
		Int("output_len", len(rec.Output)).
		Int("status_code", ev.StatusCode).
		Msg("update applied")
	return gen, changed
}

// HandleDisconnect reacts to the event source closing: the loading flag is
// forced off and the live preview cleared, while every already-merged
// record stays untouched.
func (s *Session) HandleDisconnect() {
	if s.loading {
		log.Warn().Str("component", "session").Msg("event source closed while loading")
	}
	s.loading = false
	s.liveURL = ""
}
