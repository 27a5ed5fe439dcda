// ABOUTME: Adapter contract, call options, and backend error taxonomy
// ABOUTME: Every provider family is reached through this uniform interface

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for registry lookups.
var (
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrMissingCredential = errors.New("missing credential")
)

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature = 0.7

// Adapter invokes one model of one provider.
// Implementations are safe for concurrent use.
type Adapter interface {
	Provider() ID
	Model() string
	// Invoke returns the complete response text.
	Invoke(ctx context.Context, prompt string, opts ...CallOption) (string, error)
	// Stream yields non-empty text deltas and closes the channel when done.
	// A failure is reported as a final Delta with Err set.
	Stream(ctx context.Context, prompt string, opts ...CallOption) <-chan Delta
}

// Delta is one increment of streamed output.
type Delta struct {
	Text string
	Err  error
}

// Config holds the settings for one provider.
type Config struct {
	ID                      ID
	APIKey                  string
	DefaultModel            string
	Temperature             float64
	BaseURL                 string
	Timeout                 time.Duration
	SupportsNativeStreaming bool
}

// DefaultConfig returns the built-in configuration for id with no credential.
func DefaultConfig(id ID) Config {
	info := providerTable[id]
	return Config{
		ID:                      id,
		DefaultModel:            info.defaultModel,
		Temperature:             DefaultTemperature,
		BaseURL:                 info.baseURL,
		Timeout:                 2 * time.Minute,
		SupportsNativeStreaming: id.NativeStreaming(),
	}
}

type callOptions struct {
	temperature *float64
	stop        []string
}

// CallOption customizes a single Invoke or Stream call.
type CallOption func(*callOptions)

// WithTemperature overrides the sampling temperature, clamped to [0, 1].
func WithTemperature(t float64) CallOption {
	t = min(max(t, 0), 1)
	return func(o *callOptions) { o.temperature = &t }
}

// WithStop sets stop sequences for backends that accept them.
func WithStop(seq ...string) CallOption {
	return func(o *callOptions) { o.stop = append(o.stop, seq...) }
}

func applyOptions(cfg Config, opts []CallOption) (float64, []string) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	temp := cfg.Temperature
	if o.temperature != nil {
		temp = *o.temperature
	}
	return temp, o.stop
}

// ErrorKind classifies backend failures.
type ErrorKind string

// Backend failure kinds.
const (
	KindAuth       ErrorKind = "auth"
	KindRateLimit  ErrorKind = "rate_limit"
	KindBadRequest ErrorKind = "bad_request"
	KindNotFound   ErrorKind = "not_found"
	KindServer     ErrorKind = "server"
	KindNetwork    ErrorKind = "network"
	KindTimeout    ErrorKind = "timeout"
	KindDecode     ErrorKind = "decode"
	KindCanceled   ErrorKind = "canceled"
)

// BackendError describes a failed backend call.
type BackendError struct {
	Provider ID
	Kind     ErrorKind
	Status   int
	Message  string
	Cause    error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *BackendError) Unwrap() error { return e.Cause }

// Diagnostic renders the error as text fit to show an end user.
func (e *BackendError) Diagnostic() string {
	return fmt.Sprintf("I encountered an error connecting to %s's services. "+
		"Please try another provider or check your API key configuration. Error: %s",
		e.Provider.DisplayName(), e.Message)
}

// Diagnostic renders any error as user-facing text. Non-backend errors are
// attributed to id.
func Diagnostic(id ID, err error) string {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Diagnostic()
	}
	return (&BackendError{Provider: id, Message: err.Error()}).Diagnostic()
}

func classifyHTTP(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindBadRequest
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	default:
		if status >= 500 {
			return KindServer
		}
		return KindBadRequest
	}
}

func transportError(id ID, err error) *BackendError {
	switch {
	case errors.Is(err, context.Canceled):
		return &BackendError{Provider: id, Kind: KindCanceled, Message: "request canceled", Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &BackendError{Provider: id, Kind: KindTimeout, Message: "request deadline exceeded", Cause: err}
	default:
		return &BackendError{Provider: id, Kind: KindNetwork, Message: err.Error(), Cause: err}
	}
}
