// ABOUTME: WebSocket transport for interactive chat sessions
// ABOUTME: One hub session per connection; queries run in order and are acked on receipt

package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/2389/relay-gateway/internal/stream"
)

// Client message types.
const (
	MsgChatQuery  = "chat_query"
	MsgListModels = "list_models"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsMaxMessage   = 64 << 10
)

// ClientMessage is one message from a WebSocket client. Query fields are
// inlined for chat_query.
type ClientMessage struct {
	Type string `json:"type"`
	QueryRequest
}

// handleWebSocket handles GET /ws upgrades.
// The connection's session ID comes from ?session_id= or is generated. An ID
// held by another open connection is suffixed rather than taken over.
// Closing the connection cancels any in-flight query.
func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessage)

	// The session outlives the upgrade request's context.
	deliver := func(ev stream.Event) error {
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(ev)
	}
	sess := g.hub.Open(context.Background(), r.URL.Query().Get("session_id"), deliver)
	defer sess.Close()

	logger := g.logger.With("session_id", sess.ID(), "remote", r.RemoteAddr)
	logger.Info("websocket client connected")

	// Unblock the read loop when the session is closed from elsewhere.
	go func() {
		<-sess.Context().Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	sess.Emit(stream.Notice("", stream.LevelInfo, "Connected to server"))

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) || sess.Context().Err() != nil {
				logger.Info("websocket client disconnected")
			} else {
				logger.Debug("websocket read failed", "error", err)
			}
			return
		}

		requestID := uuid.New().String()
		switch msg.Type {
		case MsgChatQuery:
			req := msg.toRouter(sess.ID(), requestID)
			sess.Emit(stream.Ack(requestID))
			if err := sess.Submit(func(ctx context.Context) { _ = g.router.Handle(ctx, req) }); err != nil {
				logger.Debug("query not submitted", "error", err)
				return
			}
		case MsgListModels:
			sess.Emit(stream.Metadata(requestID, map[string]any{
				"models":           g.registry.ListCatalog(),
				"default_provider": string(g.registry.Default()),
			}))
		default:
			sess.Emit(stream.Error(requestID, "unknown message type: "+msg.Type))
		}
	}
}
