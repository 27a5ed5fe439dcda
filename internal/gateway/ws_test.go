// ABOUTME: Tests for the WebSocket chat transport
// ABOUTME: Uses a real httptest server and gorilla/websocket client

package gateway

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/relay-gateway/internal/provider"
	"github.com/2389/relay-gateway/internal/provider/providertest"
	"github.com/2389/relay-gateway/internal/stream"
)

func dialWS(t *testing.T, gw *Gateway, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) stream.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev stream.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

// readUntilTerminal collects events through the next done or error event.
func readUntilTerminal(t *testing.T, conn *websocket.Conn) []stream.Event {
	t.Helper()
	var out []stream.Event
	for {
		ev := readEvent(t, conn)
		out = append(out, ev)
		if ev.Terminal() {
			return out
		}
	}
}

func TestWebSocket_ConnectedNotice(t *testing.T) {
	gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
	defer gw.Shutdown(context.Background())

	conn := dialWS(t, gw, "")
	ev := readEvent(t, conn)
	assert.Equal(t, stream.TypeNotice, ev.Type)
	assert.Equal(t, stream.LevelInfo, ev.Level)
	assert.Equal(t, "Connected to server", ev.Content)
}

func TestWebSocket_ChatQuery(t *testing.T) {
	fake := providertest.New(provider.OpenAI, "", providertest.Text("Paris"))
	gw := newTestGateway(t, testConfig(t), fake)
	defer gw.Shutdown(context.Background())

	conn := dialWS(t, gw, "?session_id=browser-1")
	readEvent(t, conn) // connected notice

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":     MsgChatQuery,
		"query":    "capital of France",
		"use_docs": false,
	}))

	evs := readUntilTerminal(t, conn)
	require.Len(t, evs, 3)
	assert.Equal(t, stream.TypeAck, evs[0].Type)
	assert.Equal(t, stream.TypeStream, evs[1].Type)
	assert.Equal(t, "Paris", evs[1].Content)
	assert.Equal(t, stream.TypeDone, evs[2].Type)
	for _, ev := range evs {
		assert.Equal(t, evs[0].RequestID, ev.RequestID)
	}

	_, ok := gw.hub.Session("browser-1")
	assert.True(t, ok, "session registered under the client's ID")
}

func TestWebSocket_QueriesRunInOrder(t *testing.T) {
	fake := providertest.New(provider.OpenAI, "", providertest.Text("first"), providertest.Text("second"))
	gw := newTestGateway(t, testConfig(t), fake)
	defer gw.Shutdown(context.Background())

	conn := dialWS(t, gw, "")
	readEvent(t, conn)

	for _, q := range []string{"one", "two"} {
		require.NoError(t, conn.WriteJSON(map[string]any{"type": MsgChatQuery, "query": q, "use_docs": false}))
	}

	var tokens []string
	done := 0
	for done < 2 {
		ev := readEvent(t, conn)
		switch ev.Type {
		case stream.TypeStream:
			tokens = append(tokens, ev.Content)
		case stream.TypeDone:
			done++
		case stream.TypeError:
			t.Fatalf("unexpected error event: %s", ev.Content)
		}
	}
	assert.Equal(t, []string{"first", "second"}, tokens)
	assert.Equal(t, []string{"one", "two"}, fake.Prompts())
}

func TestWebSocket_ListModels(t *testing.T) {
	gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
	defer gw.Shutdown(context.Background())

	conn := dialWS(t, gw, "")
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": MsgListModels}))
	ev := readEvent(t, conn)
	assert.Equal(t, stream.TypeMetadata, ev.Type)
	assert.Equal(t, "openai", ev.Metadata["default_provider"])
	models, ok := ev.Metadata["models"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, models, "anthropic")
}

func TestWebSocket_UnknownType(t *testing.T) {
	gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
	defer gw.Shutdown(context.Background())

	conn := dialWS(t, gw, "")
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))
	ev := readEvent(t, conn)
	assert.Equal(t, stream.TypeError, ev.Type)
	assert.Contains(t, ev.Content, "bogus")
}

func TestWebSocket_ReusedSessionIDKeepsFirstConnection(t *testing.T) {
	fake := providertest.New(provider.OpenAI, "", providertest.Text("still here"))
	gw := newTestGateway(t, testConfig(t), fake)
	defer gw.Shutdown(context.Background())

	first := dialWS(t, gw, "?session_id=shared")
	readEvent(t, first)
	second := dialWS(t, gw, "?session_id=shared")
	readEvent(t, second)

	require.Eventually(t, func() bool { return gw.hub.Len() == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, first.WriteJSON(map[string]any{
		"type":     MsgChatQuery,
		"query":    "are you there",
		"use_docs": false,
	}))
	evs := readUntilTerminal(t, first)
	require.Len(t, evs, 3)
	assert.Equal(t, "still here", evs[1].Content)
	assert.Equal(t, stream.TypeDone, evs[2].Type)
}

func TestWebSocket_DisconnectClosesSession(t *testing.T) {
	gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
	defer gw.Shutdown(context.Background())

	conn := dialWS(t, gw, "?session_id=short-lived")
	readEvent(t, conn)
	require.Equal(t, 1, gw.hub.Len())

	conn.Close()
	assert.Eventually(t, func() bool { return gw.hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}
