package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortex-on/agentdeck/pkg/transcript"
)

// fakeBackend upgrades connections and replays canned update events after
// receiving the prompt frame.
func fakeBackend(t *testing.T, replies []transcript.UpdateEvent, prompts chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if prompts != nil {
			prompts <- string(msg)
		}
		for _, ev := range replies {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func nextEvent(t *testing.T, src *Source) transcript.UpdateEvent {
	t.Helper()
	select {
	case ev, ok := <-src.Events():
		require.True(t, ok, "event stream closed early")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return transcript.UpdateEvent{}
	}
}

func waitForState(t *testing.T, src *Source, want State) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case st := <-src.States():
			if st == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func TestDial_SendAndReceive(t *testing.T) {
	replies := []transcript.UpdateEvent{
		{AgentName: "Web Surfer Agent", Steps: []string{"Plan: look it up", "Current: searching"}, LiveURL: "https://x"},
		{AgentName: "Orchestrator", Output: "done", StatusCode: 200},
	}
	prompts := make(chan string, 1)
	srv := fakeBackend(t, replies, prompts)
	defer srv.Close()

	src, err := Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	require.NoError(t, src.Send(context.Background(), "find the answer"))
	assert.Equal(t, "find the answer", <-prompts)

	ev := nextEvent(t, src)
	assert.Equal(t, "Web Surfer Agent", ev.AgentName)
	assert.Equal(t, "https://x", ev.LiveURL)

	ev = nextEvent(t, src)
	assert.Equal(t, "Orchestrator", ev.AgentName)
	assert.Equal(t, 200, ev.StatusCode)
}

func TestDial_PartialFramesDecodeToZeroFields(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		// Incomplete shape: only agent_name present.
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"agent_name":"Coder Agent"}`))
		// Not JSON at all: dropped by the source, not surfaced.
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`garbage`))
		_ = conn.WriteJSON(transcript.UpdateEvent{AgentName: "Orchestrator"})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	src, err := Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	ev := nextEvent(t, src)
	assert.Equal(t, "Coder Agent", ev.AgentName)
	assert.Empty(t, ev.Output)
	assert.Empty(t, ev.Steps)

	ev = nextEvent(t, src)
	assert.Equal(t, "Orchestrator", ev.AgentName)
}

func TestDial_RefusedConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := wsURL(srv)
	srv.Close()

	_, err := Dial(context.Background(), url)
	assert.Error(t, err)
}

func TestReadLoop_GivesUpAfterRetryCeiling(t *testing.T) {
	srv := fakeBackend(t, nil, nil)

	src, err := Dial(context.Background(), wsURL(srv),
		WithMaxRetries(2), WithRetryDelay(10*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()
	waitForState(t, src, StateOpen)

	// Kill the backend entirely so every reconnect attempt fails.
	srv.CloseClientConnections()
	srv.Close()

	waitForState(t, src, StateClosed)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok, "event stream should be closed")
	case <-time.After(5 * time.Second):
		t.Fatal("event stream never closed")
	}
}

func TestClose_Idempotent(t *testing.T) {
	srv := fakeBackend(t, nil, nil)
	defer srv.Close()

	src, err := Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	waitForState(t, src, StateClosed)
}
