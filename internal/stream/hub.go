// ABOUTME: Per-session ordered event delivery and request serialization
// ABOUTME: Hub tracks open sessions; each Session pumps events and runs jobs in FIFO order

package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/relay-gateway/internal/metrics"
)

// ErrSessionClosed is returned when submitting work to a closed session.
var ErrSessionClosed = errors.New("session closed")

// DeliverFunc writes one event to the client transport.
type DeliverFunc func(Event) error

// Hub tracks open sessions and routes emitted events to them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewHub creates a hub. Pass nil logger for default.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions: make(map[string]*Session),
		logger:   logger.With("component", "stream-hub"),
	}
}

// Open registers a session. An empty sessionID gets a generated one. A
// sessionID already held by an open session is not taken over: the new
// session gets the requested ID with a random suffix instead. Use ID for the
// assigned value. The session context derives from ctx.
func (h *Hub) Open(ctx context.Context, sessionID string, deliver DeliverFunc) *Session {
	requested := sessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	h.mu.Lock()
	for {
		if _, taken := h.sessions[sessionID]; !taken {
			break
		}
		sessionID = requested + "-" + uuid.New().String()[:8]
	}
	s := newSession(ctx, sessionID, deliver, h.logger)
	s.onClose = func() { h.remove(s) }
	h.sessions[sessionID] = s
	h.mu.Unlock()
	metrics.ActiveSessions.Inc()

	if requested != "" && requested != sessionID {
		h.logger.Debug("session id in use, assigned another", "requested", requested, "session_id", sessionID)
	}
	h.logger.Debug("session opened", "session_id", sessionID)
	return s
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	if h.sessions[s.id] == s {
		delete(h.sessions, s.id)
	}
	h.mu.Unlock()
	metrics.ActiveSessions.Dec()
	h.logger.Debug("session closed", "session_id", s.id)
}

// Emit queues ev for the session. Unknown sessions drop the event.
func (h *Hub) Emit(sessionID string, ev Event) {
	h.mu.RLock()
	s, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		h.logger.Debug("dropped event for unknown session",
			"session_id", sessionID,
			"type", ev.Type)
		return
	}
	s.Emit(ev)
}

// Session returns an open session by ID.
func (h *Hub) Session(sessionID string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[sessionID]
	return s, ok
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close closes every open session.
func (h *Hub) Close() {
	h.mu.RLock()
	open := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		open = append(open, s)
	}
	h.mu.RUnlock()

	for _, s := range open {
		s.Close()
	}
	h.logger.Debug("hub closed")
}

// Session is one client connection's ordered event stream.
type Session struct {
	id      string
	deliver DeliverFunc
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	events   *fifo[Event]
	jobs     *fifo[func(context.Context)]
	pumpDone chan struct{}
	workDone chan struct{}

	closeOnce sync.Once
	onClose   func()
}

func newSession(parent context.Context, id string, deliver DeliverFunc, logger *slog.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		id:       id,
		deliver:  deliver,
		logger:   logger.With("session_id", id),
		ctx:      ctx,
		cancel:   cancel,
		events:   newFIFO[Event](),
		jobs:     newFIFO[func(context.Context)](),
		pumpDone: make(chan struct{}),
		workDone: make(chan struct{}),
	}
	go s.pump()
	go s.work()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Context is canceled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Emit queues ev for delivery. Never blocks.
func (s *Session) Emit(ev Event) {
	if !s.events.push(ev) {
		s.logger.Debug("dropped event for closed session", "type", ev.Type)
	}
}

// Submit queues fn to run after every previously submitted job finishes.
func (s *Session) Submit(fn func(ctx context.Context)) error {
	if !s.jobs.push(fn) {
		return ErrSessionClosed
	}
	return nil
}

// Close cancels in-flight work, flushes queued events, and unregisters the
// session. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.jobs.close()
		s.cancel()
		<-s.workDone
		s.events.close()
		<-s.pumpDone
		if s.onClose != nil {
			s.onClose()
		}
	})
}

func (s *Session) pump() {
	defer close(s.pumpDone)
	broken := false
	for {
		ev, ok := s.events.pop()
		if !ok {
			return
		}
		if broken {
			continue
		}
		if err := s.deliver(ev); err != nil {
			// Keep draining so producers and Close never stall on a dead client.
			broken = true
			s.logger.Debug("delivery failed, discarding further events", "error", err)
			s.cancel()
		}
	}
}

func (s *Session) work() {
	defer close(s.workDone)
	for {
		job, ok := s.jobs.pop()
		if !ok {
			return
		}
		job(s.ctx)
	}
}
