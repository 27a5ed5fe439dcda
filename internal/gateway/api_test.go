// ABOUTME: Tests for the chat HTTP API handlers
// ABOUTME: Covers SSE query streaming, fallback notices, validation, and catalog endpoints

package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/relay-gateway/internal/catalog"
	"github.com/2389/relay-gateway/internal/provider"
	"github.com/2389/relay-gateway/internal/provider/providertest"
	"github.com/2389/relay-gateway/internal/stream"
)

func doRequest(t *testing.T, gw *Gateway, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, req)
	return rec
}

type sseEvent struct {
	name  string
	event stream.Event
}

// parseSSE splits an SSE body into its events.
func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var (
		out  []sseEvent
		name string
	)
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var ev stream.Event
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
			out = append(out, sseEvent{name: name, event: ev})
		}
	}
	return out
}

func eventTypes(evs []sseEvent) []stream.EventType {
	out := make([]stream.EventType, len(evs))
	for i, e := range evs {
		out[i] = e.event.Type
	}
	return out
}

func TestHandleQuery_StreamsTokensThenDone(t *testing.T) {
	fake := providertest.New(provider.OpenAI, "", providertest.Reply{Chunks: []string{"Pa", "ris"}})
	gw := newTestGateway(t, testConfig(t), fake)
	defer gw.Shutdown(context.Background())

	rec := doRequest(t, gw, http.MethodPost, "/api/chat/query",
		`{"query": "capital of France", "provider": "openai", "use_docs": false}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	evs := parseSSE(t, rec.Body.String())
	require.Equal(t, []stream.EventType{stream.TypeAck, stream.TypeStream, stream.TypeStream, stream.TypeDone}, eventTypes(evs))
	assert.Equal(t, "Pa", evs[1].event.Content)
	assert.Equal(t, "ris", evs[2].event.Content)

	requestID := evs[0].event.RequestID
	require.NotEmpty(t, requestID)
	for _, e := range evs {
		assert.Equal(t, string(e.event.Type), e.name, "SSE event name matches payload type")
		assert.Equal(t, requestID, e.event.RequestID)
	}
	assert.Equal(t, []string{"capital of France"}, fake.Prompts())
}

func TestHandleQuery_DocumentsDefaultOn(t *testing.T) {
	fake := providertest.New(provider.OpenAI, "", providertest.Text("Final Answer: nothing indexed"))
	gw := newTestGateway(t, testConfig(t), fake)
	defer gw.Shutdown(context.Background())

	rec := doRequest(t, gw, http.MethodPost, "/api/chat/query", `{"query": "what is in the docs?"}`)

	evs := parseSSE(t, rec.Body.String())
	require.Equal(t, []stream.EventType{stream.TypeAck, stream.TypeStream, stream.TypeDone}, eventTypes(evs))
	assert.Equal(t, "nothing indexed", evs[1].event.Content)
	assert.Equal(t, "agent", evs[2].event.Metadata["mode"])
	require.Len(t, fake.Prompts(), 1)
	assert.Contains(t, fake.Prompts()[0], "Document Search")
}

func TestHandleQuery_FallbackNotice(t *testing.T) {
	fake := providertest.New(provider.OpenAI, "", providertest.Text("hi"))
	gw := newTestGateway(t, testConfig(t), fake)
	defer gw.Shutdown(context.Background())

	rec := doRequest(t, gw, http.MethodPost, "/api/chat/query",
		`{"query": "hello", "provider": "cohere", "use_rag": false}`)

	evs := parseSSE(t, rec.Body.String())
	require.Equal(t, []stream.EventType{stream.TypeAck, stream.TypeNotice, stream.TypeStream, stream.TypeDone}, eventTypes(evs))
	assert.Equal(t, stream.LevelWarning, evs[1].event.Level)
	assert.Equal(t, "API key missing or invalid for cohere. Falling back to OpenAI.", evs[1].event.Content)
}

func TestHandleQuery_EmptyQuery(t *testing.T) {
	fake := providertest.New(provider.OpenAI, "", providertest.Text("never"))
	gw := newTestGateway(t, testConfig(t), fake)
	defer gw.Shutdown(context.Background())

	rec := doRequest(t, gw, http.MethodPost, "/api/chat/query", `{"query": ""}`)

	evs := parseSSE(t, rec.Body.String())
	require.Equal(t, []stream.EventType{stream.TypeAck, stream.TypeError}, eventTypes(evs))
	assert.Equal(t, "Query is required", evs[1].event.Content)
	assert.Equal(t, 0, fake.Calls())
}

func TestHandleQuery_BackendErrorIsDegraded(t *testing.T) {
	fake := providertest.New(provider.OpenAI, "", providertest.Reply{Err: errors.New("boom")})
	gw := newTestGateway(t, testConfig(t), fake)
	defer gw.Shutdown(context.Background())

	rec := doRequest(t, gw, http.MethodPost, "/api/chat/query", `{"query": "q", "use_docs": false}`)

	evs := parseSSE(t, rec.Body.String())
	require.Equal(t, []stream.EventType{stream.TypeAck, stream.TypeStream, stream.TypeDone}, eventTypes(evs))
	assert.True(t, evs[1].event.Degraded)
	assert.Contains(t, evs[1].event.Content, "boom")
}

func TestHandleQuery_InvalidJSON(t *testing.T) {
	gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
	defer gw.Shutdown(context.Background())

	rec := doRequest(t, gw, http.MethodPost, "/api/chat/query", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestHandleQuery_MethodNotAllowed(t *testing.T) {
	gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
	defer gw.Shutdown(context.Background())

	rec := doRequest(t, gw, http.MethodGet, "/api/chat/query", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleQuery_ClientDisconnectCancels(t *testing.T) {
	gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
	defer gw.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/chat/query",
		strings.NewReader(`{"query": "slow", "use_web": true}`)).WithContext(ctx)
	rec := httptest.NewRecorder()

	// Already gone before the query runs; the agent loop checks ctx before
	// its first model call.
	cancel()
	gw.Handler().ServeHTTP(rec, req)

	evs := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, evs)
	last := evs[len(evs)-1].event
	assert.Equal(t, stream.TypeError, last.Type)
	assert.Equal(t, "request cancelled", last.Content)
}

func TestHandleModels(t *testing.T) {
	gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
	defer gw.Shutdown(context.Background())

	rec := doRequest(t, gw, http.MethodGet, "/api/chat/models", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var models map[string][]catalog.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	assert.Len(t, models, len(provider.AllIDs))
	require.NotEmpty(t, models["openai"])
	assert.Equal(t, "gpt-4o-mini", models["openai"][0].ID)
	assert.NotEmpty(t, models["openai"][0].Name)

	rec = doRequest(t, gw, http.MethodPost, "/api/chat/models", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleChatHealth(t *testing.T) {
	gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
	defer gw.Shutdown(context.Background())

	rec := doRequest(t, gw, http.MethodGet, "/api/chat/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "openai", resp.DefaultProvider)
	assert.True(t, resp.Providers["openai"])
	assert.False(t, resp.Providers["anthropic"])
	assert.Len(t, resp.Providers, len(provider.AllIDs))
}

func TestQueryRequest_ToRouter(t *testing.T) {
	no := false
	yes := true

	r := QueryRequest{Query: "q", ModelID: "m"}.toRouter("s", "r")
	assert.Equal(t, "m", r.Model)
	assert.True(t, r.UseDocs, "documents default on")
	assert.Equal(t, "s", r.SessionID)
	assert.Equal(t, "r", r.RequestID)

	r = QueryRequest{Query: "q", Model: "a", ModelID: "b", UseRAG: &no}.toRouter("", "")
	assert.Equal(t, "a", r.Model)
	assert.False(t, r.UseDocs)

	r = QueryRequest{Query: "q", UseDocs: &yes, UseRAG: &no}.toRouter("", "")
	assert.True(t, r.UseDocs, "use_docs wins over use_rag")
}
