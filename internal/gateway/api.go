// ABOUTME: HTTP API handlers for chat queries, the model catalog, and provider health
// ABOUTME: Streams query events to the client as Server-Sent Events

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/relay-gateway/internal/router"
	"github.com/2389/relay-gateway/internal/stream"
)

// maxRequestBytes bounds a query request body.
const maxRequestBytes = 1 << 20

// QueryRequest is the chat query body for HTTP and WebSocket clients.
// ModelID and UseRAG are accepted as aliases of Model and UseDocs.
type QueryRequest struct {
	Query     string `json:"query"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	ModelID   string `json:"model_id,omitempty"`
	UseWeb    bool   `json:"use_web,omitempty"`
	UseDocs   *bool  `json:"use_docs,omitempty"`
	UseRAG    *bool  `json:"use_rag,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// toRouter converts the request, applying defaults. Document search is on
// unless disabled.
func (q QueryRequest) toRouter(sessionID, requestID string) router.Request {
	model := q.Model
	if model == "" {
		model = q.ModelID
	}
	useDocs := true
	switch {
	case q.UseDocs != nil:
		useDocs = *q.UseDocs
	case q.UseRAG != nil:
		useDocs = *q.UseRAG
	}
	return router.Request{
		Query:     q.Query,
		Provider:  q.Provider,
		Model:     model,
		UseWeb:    q.UseWeb,
		UseDocs:   useDocs,
		SessionID: sessionID,
		RequestID: requestID,
	}
}

// parseQueryRequest decodes a QueryRequest. Empty queries are left to the
// router, which reports them as an error event.
func parseQueryRequest(r io.Reader) (*QueryRequest, error) {
	var req QueryRequest
	if err := json.NewDecoder(io.LimitReader(r, maxRequestBytes)).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return &req, nil
}

// handleQuery handles POST /api/chat/query requests.
// The response is an SSE stream of the request's events, ending with a done
// or error event. Disconnecting cancels the request.
func (g *Gateway) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := parseQueryRequest(r.Body)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Check streaming support before dispatch (fail fast)
	flusher, ok := w.(http.Flusher)
	if !ok {
		g.logger.Error("streaming not supported")
		g.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	requestID := uuid.New().String()
	finished := make(chan struct{})
	var finishOnce sync.Once

	deliver := func(ev stream.Event) error {
		g.writeSSEEvent(w, string(ev.Type), ev)
		flusher.Flush()
		if ev.Terminal() {
			finishOnce.Do(func() { close(finished) })
		}
		return nil
	}

	// An SSE response carries one request, so its session is private to it
	// even when the client names a session ID.
	sess := g.hub.Open(r.Context(), "", deliver)
	defer sess.Close()

	rreq := req.toRouter(sess.ID(), requestID)
	sess.Emit(stream.Ack(requestID))
	if err := sess.Submit(func(ctx context.Context) { _ = g.router.Handle(ctx, rreq) }); err != nil {
		g.logger.Error("failed to submit query", "error", err)
		return
	}

	select {
	case <-finished:
	case <-sess.Context().Done():
	}
}

// handleModels handles GET /api/chat/models requests.
// It returns every provider's ordered model list.
func (g *Gateway) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(g.registry.ListCatalog()); err != nil {
		g.logger.Error("failed to encode models", "error", err)
	}
}

// ChatHealthResponse is the body of GET /api/chat/health.
type ChatHealthResponse struct {
	Status          string          `json:"status"`
	DefaultProvider string          `json:"default_provider"`
	Providers       map[string]bool `json:"providers"`
}

// handleChatHealth handles GET /api/chat/health requests.
// Providers map to whether they have a credential configured.
func (g *Gateway) handleChatHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	resp := ChatHealthResponse{
		Status:          "ok",
		DefaultProvider: string(g.registry.Default()),
		Providers:       make(map[string]bool),
	}
	for _, id := range g.registry.Providers() {
		resp.Providers[string(id)] = g.registry.Ready(id)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.logger.Error("failed to encode health", "error", err)
	}
}

// writeSSEEvent writes a single SSE event to the response writer.
func (g *Gateway) writeSSEEvent(w http.ResponseWriter, event string, data interface{}) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		g.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", dataJSON)
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
