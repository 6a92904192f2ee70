// Package client implements the event source collaborator: a websocket
// connection to the task-execution backend, decoded into update events.
//
// The source owns its transport entirely: it reconnects on its own up to a
// fixed retry ceiling and the consumer just keeps reading whatever events
// arrive. One source carries one conversation; once closed it is done.
package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cortex-on/agentdeck/pkg/transcript"
)

// State is the connection-state signal exposed alongside the event stream.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// Option configures a Source before dialing.
type Option func(*Source)

// WithMaxRetries sets the reconnection ceiling after a dropped connection.
func WithMaxRetries(n int) Option {
	return func(s *Source) { s.maxRetries = n }
}

// WithRetryDelay sets the pause between reconnection attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Source) { s.retryDelay = d }
}

// Source is a websocket-backed event source.
type Source struct {
	url        string
	maxRetries int
	retryDelay time.Duration
	dialer     *websocket.Dialer

	writeMu sync.Mutex
	conn    *websocket.Conn

	events    chan transcript.UpdateEvent
	states    chan State
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the backend websocket endpoint and starts the read
// pump. The returned source's Events channel is closed once the connection
// is gone for good (explicit Close, or the retry ceiling is exhausted).
func Dial(ctx context.Context, url string, opts ...Option) (*Source, error) {
	s := &Source{
		url:        url,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		dialer:     websocket.DefaultDialer,
		events:     make(chan transcript.UpdateEvent, 64),
		states:     make(chan State, 8),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.pushState(StateConnecting)
	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		s.pushState(StateClosed)
		close(s.events)
		return nil, errors.Wrapf(err, "dialing %s", url)
	}
	s.conn = conn
	s.pushState(StateOpen)
	log.Info().Str("component", "ws_source").Str("url", url).Msg("connected")

	go s.readLoop()
	return s, nil
}

// Events returns the decoded update event stream. The channel is closed
// when the source shuts down.
func (s *Source) Events() <-chan transcript.UpdateEvent {
	return s.events
}

// States returns the connection-state signal. States may be dropped when
// the consumer lags; only the progression matters, not every repetition.
func (s *Source) States() <-chan State {
	return s.states
}

// Send writes the raw prompt text as a single text message.
func (s *Source) Send(_ context.Context, text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn == nil {
		return errors.New("source is not connected")
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return errors.Wrap(err, "writing prompt")
	}
	return nil
}

// Close tears the source down. Idempotent.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.writeMu.Unlock()
	})
	return nil
}

func (s *Source) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// readLoop pumps frames off the connection, reconnecting on failure until
// the retry ceiling is reached.
func (s *Source) readLoop() {
	defer func() {
		s.pushState(StateClosed)
		close(s.events)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed() {
				return
			}
			log.Warn().Str("component", "ws_source").Err(err).Msg("connection lost, reconnecting")
			if !s.reconnect() {
				return
			}
			continue
		}

		var ev transcript.UpdateEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			// Shape problems inside a valid frame are tolerated by the
			// aggregator; frames that are not JSON at all are dropped here.
			log.Warn().Str("component", "ws_source").Err(err).Int("bytes", len(data)).Msg("dropping undecodable frame")
			continue
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// reconnect re-dials up to maxRetries times. Returns false once the source
// should give up.
func (s *Source) reconnect() bool {
	s.pushState(StateConnecting)
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if s.closed() {
			return false
		}
		conn, _, err := s.dialer.Dial(s.url, nil)
		if err == nil {
			s.writeMu.Lock()
			s.conn = conn
			s.writeMu.Unlock()
			s.pushState(StateOpen)
			log.Info().Str("component", "ws_source").Int("attempt", attempt).Msg("reconnected")
			return true
		}
		log.Warn().Str("component", "ws_source").Err(err).Int("attempt", attempt).Int("max", s.maxRetries).Msg("reconnect failed")
		select {
		case <-time.After(s.retryDelay):
		case <-s.done:
			return false
		}
	}
	log.Error().Str("component", "ws_source").Msg("retry ceiling reached, giving up")
	return false
}

// pushState publishes a state change without ever blocking the pump.
func (s *Source) pushState(st State) {
	select {
	case s.states <- st:
	default:
		log.Debug().Str("component", "ws_source").Stringer("state", st).Msg("state signal dropped")
	}
}
