package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/cortex-on/agentdeck/pkg/transcript"
)

// Conversation holds per-conversation runtime state: the bus topic the
// scripted run publishes to and the websocket connections it fans out to.
type Conversation struct {
	ID    string
	RunID string

	mu       sync.Mutex
	running  bool
	reading  bool
	stopRead context.CancelFunc

	sub message.Subscriber

	conns   map[*websocket.Conn]bool
	connsMu sync.RWMutex
}

// convManager keeps track of existing conversations.
type convManager struct {
	mu    sync.Mutex
	convs map[string]*Conversation
}

func (s *Server) topicForConv(convID string) string {
	return "task:" + convID
}

// getOrCreateConv returns an existing conversation or creates a new one
// with a dedicated subscriber and reader.
func (s *Server) getOrCreateConv(ctx context.Context, convID string) (*Conversation, error) {
	s.cm.mu.Lock()
	defer s.cm.mu.Unlock()
	if conv, ok := s.cm.convs[convID]; ok {
		return conv, nil
	}
	conv := &Conversation{
		ID:    convID,
		RunID: uuid.NewString(),
		conns: make(map[*websocket.Conn]bool),
	}
	if s.cfg.Redis.Enabled {
		if err := ensureGroupAtTail(ctx, s.cfg.Redis.Addr, s.topicForConv(convID), s.cfg.Redis.Group); err != nil {
			return nil, err
		}
	}
	sub, err := s.bus.subscribe(convID)
	if err != nil {
		return nil, err
	}
	conv.sub = sub
	if err := s.startReader(conv); err != nil {
		return nil, err
	}
	s.cm.convs[convID] = conv
	return conv, nil
}

// startReader subscribes to the conversation topic and forwards every
// update event to the attached websocket clients.
func (s *Server) startReader(conv *Conversation) error {
	if conv.reading {
		return nil
	}
	topic := s.topicForConv(conv.ID)
	log.Info().Str("conv_id", conv.ID).Str("topic", topic).Msg("starting conversation reader")
	readCtx, readCancel := context.WithCancel(context.Background())
	conv.stopRead = readCancel
	ch, err := conv.sub.Subscribe(readCtx, topic)
	if err != nil {
		readCancel()
		conv.stopRead = nil
		return err
	}
	conv.reading = true
	go func() {
		for msg := range ch {
			var ev transcript.UpdateEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				log.Warn().Str("component", "ws_reader").Err(err).Msg("failed to decode update payload")
				msg.Ack()
				continue
			}
			log.Debug().
				Str("component", "ws_reader").
				Str("conv_id", conv.ID).
				Str("agent", ev.AgentName).
				Int("status_code", ev.StatusCode).
				Msg("forwarding update to clients")
			s.broadcast(conv, msg.Payload)
			msg.Ack()
		}
		conv.mu.Lock()
		conv.reading = false
		conv.stopRead = nil
		conv.mu.Unlock()
		log.Info().Str("conv_id", conv.ID).Msg("conversation reader stopped")
	}()
	return nil
}

// broadcast sends one raw update frame to every attached socket.
func (s *Server) broadcast(conv *Conversation, payload []byte) {
	conv.connsMu.RLock()
	defer conv.connsMu.RUnlock()
	for c := range conv.conns {
		_ = c.WriteMessage(websocket.TextMessage, payload)
	}
}

// addConn attaches a websocket connection to the conversation.
func (s *Server) addConn(conv *Conversation, c *websocket.Conn) {
	conv.connsMu.Lock()
	conv.conns[c] = true
	conv.connsMu.Unlock()
}

// removeConn detaches and closes a websocket connection.
func (s *Server) removeConn(conv *Conversation, c *websocket.Conn) {
	conv.connsMu.Lock()
	delete(conv.conns, c)
	conv.connsMu.Unlock()
	_ = c.Close()
}

// startRun launches the scripted multi-agent run for the given task.
// Only the first task on a conversation starts one; one run per source.
func (s *Server) startRun(ctx context.Context, conv *Conversation, task string) {
	conv.mu.Lock()
	if conv.running {
		conv.mu.Unlock()
		log.Warn().Str("conv_id", conv.ID).Msg("run already in progress, ignoring prompt")
		return
	}
	conv.running = true
	conv.mu.Unlock()

	topic := s.topicForConv(conv.ID)
	liveURL := "https://live.cortex-on.dev/session/" + conv.RunID
	publish := func(ev transcript.UpdateEvent) error {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		return s.bus.pub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload))
	}

	log.Info().Str("conv_id", conv.ID).Str("run_id", conv.RunID).Int("task_len", len(task)).Msg("starting scripted run")
	go func() {
		runScript(ctx, s.cfg.StepDelay(), scriptedRun(task, liveURL), publish)
		conv.mu.Lock()
		conv.running = false
		conv.mu.Unlock()
		log.Info().Str("conv_id", conv.ID).Msg("scripted run finished")
	}()
}
