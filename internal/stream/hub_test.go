// ABOUTME: Tests for the session hub and ordered event delivery
// ABOUTME: Covers ordering, request serialization, close draining, and unknown sessions

package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects delivered events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) deliver(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestSession_PreservesEmitOrder(t *testing.T) {
	h := NewHub(nil)
	rec := &recorder{}
	s := h.Open(t.Context(), "sess-1", rec.deliver)

	for i := range 500 {
		h.Emit("sess-1", Token("r1", fmt.Sprintf("t%d", i), false))
	}
	h.Emit("sess-1", Done("r1", nil))
	s.Close()

	got := rec.all()
	require.Len(t, got, 501)
	for i := range 500 {
		assert.Equal(t, fmt.Sprintf("t%d", i), got[i].Content)
	}
	assert.Equal(t, TypeDone, got[500].Type)
}

func TestSession_EmitDoesNotBlockOnSlowClient(t *testing.T) {
	h := NewHub(nil)
	release := make(chan struct{})
	var delivered atomic.Int32
	s := h.Open(t.Context(), "slow", func(Event) error {
		<-release
		delivered.Add(1)
		return nil
	})

	start := time.Now()
	for range 1000 {
		s.Emit(Token("r", "x", false))
	}
	assert.Less(t, time.Since(start), time.Second, "emit must not block on delivery")

	close(release)
	s.Close()
	assert.Equal(t, int32(1000), delivered.Load(), "no events dropped")
}

func TestSession_SubmitSerializesJobs(t *testing.T) {
	h := NewHub(nil)
	rec := &recorder{}
	s := h.Open(t.Context(), "serial", rec.deliver)

	var running atomic.Int32
	var maxRunning atomic.Int32
	var wg sync.WaitGroup
	for i := range 5 {
		wg.Add(1)
		require.NoError(t, s.Submit(func(ctx context.Context) {
			defer wg.Done()
			n := running.Add(1)
			if n > maxRunning.Load() {
				maxRunning.Store(n)
			}
			s.Emit(Token(fmt.Sprintf("r%d", i), "a", false))
			time.Sleep(5 * time.Millisecond)
			s.Emit(Done(fmt.Sprintf("r%d", i), nil))
			running.Add(-1)
		}))
	}
	wg.Wait()
	s.Close()

	assert.Equal(t, int32(1), maxRunning.Load())

	// Each request's events are contiguous and in submission order
	got := rec.all()
	require.Len(t, got, 10)
	for i := range 5 {
		assert.Equal(t, fmt.Sprintf("r%d", i), got[2*i].RequestID)
		assert.Equal(t, TypeStream, got[2*i].Type)
		assert.Equal(t, fmt.Sprintf("r%d", i), got[2*i+1].RequestID)
		assert.Equal(t, TypeDone, got[2*i+1].Type)
	}
}

func TestSessions_RunInParallel(t *testing.T) {
	h := NewHub(nil)
	a := h.Open(t.Context(), "a", (&recorder{}).deliver)
	b := h.Open(t.Context(), "b", (&recorder{}).deliver)
	defer a.Close()
	defer b.Close()

	aStarted := make(chan struct{})
	bStarted := make(chan struct{})

	require.NoError(t, a.Submit(func(ctx context.Context) {
		close(aStarted)
		<-bStarted
	}))
	require.NoError(t, b.Submit(func(ctx context.Context) {
		close(bStarted)
		<-aStarted
	}))

	select {
	case <-aStarted:
	case <-time.After(time.Second):
		t.Fatal("session a job never started")
	}
	select {
	case <-bStarted:
	case <-time.After(time.Second):
		t.Fatal("session b job blocked behind session a")
	}
}

func TestSession_CloseCancelsRunningJob(t *testing.T) {
	h := NewHub(nil)
	rec := &recorder{}
	s := h.Open(t.Context(), "cancel", rec.deliver)

	started := make(chan struct{})
	require.NoError(t, s.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		s.Emit(Error("r1", "request cancelled"))
	}))
	<-started

	s.Close()

	got := rec.all()
	require.Len(t, got, 1, "events emitted before close completes are flushed")
	assert.Equal(t, "request cancelled", got[0].Content)
	assert.ErrorIs(t, s.Submit(func(context.Context) {}), ErrSessionClosed)
}

func TestSession_ParentContextCancels(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(t.Context())
	s := h.Open(ctx, "", (&recorder{}).deliver)
	defer s.Close()

	assert.NotEmpty(t, s.ID())
	cancel()

	select {
	case <-s.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("session context not canceled with parent")
	}
}

func TestSession_DeliveryErrorCancelsAndDrains(t *testing.T) {
	h := NewHub(nil)
	var calls atomic.Int32
	s := h.Open(t.Context(), "broken", func(Event) error {
		calls.Add(1)
		return errors.New("connection reset")
	})

	for range 10 {
		s.Emit(Token("r", "x", false))
	}

	select {
	case <-s.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("delivery failure should cancel the session")
	}
	s.Close()
	assert.Equal(t, int32(1), calls.Load())
}

func TestHub_EmitUnknownSessionIsDropped(t *testing.T) {
	h := NewHub(nil)
	assert.NotPanics(t, func() {
		h.Emit("nobody", Token("r", "x", false))
	})
}

func TestHub_CloseRemovesSession(t *testing.T) {
	h := NewHub(nil)
	s := h.Open(t.Context(), "x", (&recorder{}).deliver)
	assert.Equal(t, 1, h.Len())

	s.Close()
	s.Close()
	assert.Equal(t, 0, h.Len())

	_, ok := h.Session("x")
	assert.False(t, ok)
}

func TestHub_DuplicateIDDoesNotTakeOverSession(t *testing.T) {
	h := NewHub(nil)
	first := h.Open(t.Context(), "dup", (&recorder{}).deliver)
	defer first.Close()
	second := h.Open(t.Context(), "dup", (&recorder{}).deliver)
	defer second.Close()

	assert.NoError(t, first.Context().Err(), "existing session must stay open")
	assert.Equal(t, "dup", first.ID())
	assert.NotEqual(t, "dup", second.ID())
	assert.True(t, strings.HasPrefix(second.ID(), "dup-"))

	got, ok := h.Session("dup")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, 2, h.Len())

	// Once the holder closes, the ID can be opened again.
	first.Close()
	require.Eventually(t, func() bool {
		_, ok := h.Session("dup")
		return !ok
	}, time.Second, time.Millisecond)
	third := h.Open(t.Context(), "dup", (&recorder{}).deliver)
	defer third.Close()
	assert.Equal(t, "dup", third.ID())
}

func TestHub_Close(t *testing.T) {
	h := NewHub(nil)
	h.Open(t.Context(), "a", (&recorder{}).deliver)
	h.Open(t.Context(), "b", (&recorder{}).deliver)

	h.Close()
	assert.Equal(t, 0, h.Len())
}

func TestEvent_Terminal(t *testing.T) {
	assert.True(t, Done("r", nil).Terminal())
	assert.True(t, Error("r", "x").Terminal())
	assert.False(t, Token("r", "x", false).Terminal())
	assert.False(t, Notice("r", LevelWarning, "x").Terminal())
	assert.False(t, Ack("r").Terminal())
}
