// ABOUTME: Query router orchestrating adapter resolution, fallback, and branch selection
// ABOUTME: Emits stream, notice, done, and error events for one request to the session sink

package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/relay-gateway/internal/agent"
	"github.com/2389/relay-gateway/internal/metrics"
	"github.com/2389/relay-gateway/internal/provider"
	"github.com/2389/relay-gateway/internal/stream"
)

// ErrInvalidInput is returned for requests rejected before dispatch.
var ErrInvalidInput = errors.New("invalid input")

// Modes reported in done metadata.
const (
	ModeDirect = "direct"
	ModeAgent  = "agent"
)

// Request is one chat query.
type Request struct {
	Query     string
	Provider  string
	Model     string
	UseWeb    bool
	UseDocs   bool
	SessionID string
	RequestID string
}

// AdapterSource resolves adapters. *provider.Registry satisfies it.
type AdapterSource interface {
	GetAdapter(providerID, modelID string, streaming bool) (provider.Adapter, error)
	Default() provider.ID
}

// ToolSource supplies retrieval tools. *retrieval.Coordinator satisfies it.
type ToolSource interface {
	Tools(useWeb, useDocs bool) []agent.Tool
}

// Router handles chat requests.
type Router struct {
	adapters AdapterSource
	tools    ToolSource
	loop     *agent.Loop
	sink     stream.Sink
	logger   *slog.Logger
}

// New creates a router. A nil loop uses agent defaults.
func New(adapters AdapterSource, tools ToolSource, loop *agent.Loop, sink stream.Sink, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if loop == nil {
		loop = agent.NewLoop(0, logger)
	}
	return &Router{
		adapters: adapters,
		tools:    tools,
		loop:     loop,
		sink:     sink,
		logger:   logger.With("component", "router"),
	}
}

// Handle processes req, emitting its events to the sink. The returned error
// is informational; the client has already been told via an event.
func (r *Router) Handle(ctx context.Context, req Request) error {
	start := time.Now()
	emit := func(ev stream.Event) {
		ev.RequestID = req.RequestID
		r.sink.Emit(req.SessionID, ev)
	}
	logger := r.logger.With("session_id", req.SessionID, "request_id", req.RequestID)

	if strings.TrimSpace(req.Query) == "" {
		emit(stream.Error("", "Query is required"))
		metrics.QueriesTotal.WithLabelValues(providerLabel(req.Provider), "", "invalid").Inc()
		return ErrInvalidInput
	}

	providerID := req.Provider
	if providerID == "" {
		providerID = string(r.adapters.Default())
	}

	adapter, fellBack, err := r.resolve(providerID, req.Model, emit, logger)
	if err != nil {
		emit(stream.Error("", fmt.Sprintf("No language model provider is available: %v", err)))
		metrics.QueriesTotal.WithLabelValues(providerLabel(providerID), "", "error").Inc()
		return err
	}

	mode := ModeDirect
	if req.UseWeb || req.UseDocs {
		mode = ModeAgent
	}
	used := string(adapter.Provider())
	logger.Info("dispatching query",
		"provider", used,
		"model", adapter.Model(),
		"mode", mode,
		"use_web", req.UseWeb,
		"use_docs", req.UseDocs)

	var (
		degraded  bool
		truncated bool
		rounds    int
	)
	if mode == ModeDirect {
		for d := range adapter.Stream(ctx, req.Query) {
			if d.Err != nil {
				degraded = true
			}
			if d.Text != "" {
				emit(stream.Token("", d.Text, d.Err != nil))
			}
		}
	} else {
		res, err := r.loop.Run(ctx, adapter, req.Query, r.tools.Tools(req.UseWeb, req.UseDocs))
		if err == nil {
			emit(stream.Token("", res.Answer, res.Degraded))
			degraded, truncated, rounds = res.Degraded, res.Truncated, res.Rounds
		}
	}

	if ctx.Err() != nil {
		logger.Info("query cancelled", "elapsed", time.Since(start))
		emit(stream.Error("", "request cancelled"))
		metrics.QueriesTotal.WithLabelValues(used, mode, "cancelled").Inc()
		return ctx.Err()
	}

	elapsed := time.Since(start)
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	metrics.QueriesTotal.WithLabelValues(used, mode, outcome).Inc()
	metrics.InferenceLatency.WithLabelValues(used, mode).Observe(elapsed.Seconds())

	emit(stream.Done("", map[string]any{
		"provider":   used,
		"model":      adapter.Model(),
		"mode":       mode,
		"rounds":     rounds,
		"degraded":   degraded,
		"truncated":  truncated,
		"fallback":   fellBack,
		"elapsed_ms": elapsed.Milliseconds(),
	}))
	logger.Info("query complete", "provider", used, "mode", mode, "degraded", degraded, "elapsed", elapsed)
	return nil
}

// resolve returns an adapter for the request, falling back to the default
// provider with a warning notice when a non-default provider is unusable.
func (r *Router) resolve(providerID, modelID string, emit func(stream.Event), logger *slog.Logger) (provider.Adapter, bool, error) {
	adapter, err := r.adapters.GetAdapter(providerID, modelID, true)
	if err == nil {
		return adapter, false, nil
	}

	def := r.adapters.Default()
	if providerID == string(def) {
		logger.Error("default provider unavailable", "provider", providerID, "error", err)
		return nil, false, err
	}

	logger.Warn("provider unavailable, falling back", "provider", providerID, "fallback", def, "error", err)
	metrics.Fallbacks.WithLabelValues(providerLabel(providerID)).Inc()
	emit(stream.Notice("", stream.LevelWarning,
		fmt.Sprintf("API key missing or invalid for %s. Falling back to %s.", providerID, def.DisplayName())))

	adapter, err = r.adapters.GetAdapter(string(def), "", true)
	if err != nil {
		logger.Error("default provider unavailable", "provider", def, "error", err)
		return nil, true, fmt.Errorf("fallback to %s: %w", def, err)
	}
	return adapter, true, nil
}

// providerLabel keeps unrecognized client-supplied provider names out of
// metric labels.
func providerLabel(providerID string) string {
	if _, err := provider.ParseID(providerID); err != nil {
		return "unknown"
	}
	return providerID
}
