// ABOUTME: HTTP adapter shared by every backend family
// ABOUTME: Implements Invoke and Stream on top of a family wire format

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is read for diagnostics.
const maxErrorBody = 64 * 1024

type httpAdapter struct {
	cfg       Config
	model     string
	streaming bool
	wire      wireFormat
	client    *http.Client
	logger    *slog.Logger
}

func newHTTPAdapter(cfg Config, model string, streaming bool, client *http.Client, logger *slog.Logger) *httpAdapter {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &httpAdapter{
		cfg:       cfg,
		model:     model,
		streaming: streaming,
		wire:      wireFor(cfg.ID),
		client:    client,
		logger:    logger.With("provider", string(cfg.ID), "model", model),
	}
}

func (a *httpAdapter) Provider() ID   { return a.cfg.ID }
func (a *httpAdapter) Model() string { return a.model }

func (a *httpAdapter) Invoke(ctx context.Context, prompt string, opts ...CallOption) (string, error) {
	if a.cfg.ID.streamOnly() {
		var sb strings.Builder
		err := a.readSSE(ctx, prompt, opts, func(text string) bool {
			sb.WriteString(text)
			return true
		})
		if err != nil {
			return "", err
		}
		return sb.String(), nil
	}

	temp, stop := applyOptions(a.cfg, opts)
	resp, err := a.do(ctx, a.wire.requestBody(a.model, prompt, temp, stop, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(a.cfg.ID, err)
	}
	text, err := a.wire.parseResponse(data)
	if err != nil {
		return "", &BackendError{Provider: a.cfg.ID, Kind: KindDecode, Message: err.Error(), Cause: err}
	}
	return text, nil
}

func (a *httpAdapter) Stream(ctx context.Context, prompt string, opts ...CallOption) <-chan Delta {
	out := make(chan Delta, 16)
	go func() {
		defer close(out)
		if !a.streaming {
			a.streamOnce(ctx, out, prompt, opts)
			return
		}
		a.streamSSE(ctx, out, prompt, opts)
	}()
	return out
}

// streamOnce serves Stream for providers without native deltas.
func (a *httpAdapter) streamOnce(ctx context.Context, out chan<- Delta, prompt string, opts []CallOption) {
	text, err := a.Invoke(ctx, prompt, opts...)
	if err != nil {
		a.fail(ctx, out, err)
		return
	}
	if text != "" {
		send(ctx, out, Delta{Text: text})
	}
}

func (a *httpAdapter) streamSSE(ctx context.Context, out chan<- Delta, prompt string, opts []CallOption) {
	err := a.readSSE(ctx, prompt, opts, func(text string) bool {
		return send(ctx, out, Delta{Text: text})
	})
	if err != nil {
		a.fail(ctx, out, err)
	}
}

// readSSE requests a streamed completion and hands each non-empty text chunk
// to yield until the stream ends or yield returns false.
func (a *httpAdapter) readSSE(ctx context.Context, prompt string, opts []CallOption, yield func(string) bool) error {
	temp, stop := applyOptions(a.cfg, opts)
	resp, err := a.do(ctx, a.wire.requestBody(a.model, prompt, temp, stop, true))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dec := newSSEDecoder(resp.Body)
	for {
		data, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Some backends close without an explicit terminator.
				return nil
			}
			return transportError(a.cfg.ID, err)
		}
		text, done, err := a.wire.parseChunk(data)
		if err != nil {
			return &BackendError{Provider: a.cfg.ID, Kind: KindDecode, Message: err.Error(), Cause: err}
		}
		if text != "" && !yield(text) {
			return nil
		}
		if done {
			return nil
		}
	}
}

// do sends the request and converts non-2xx responses to *BackendError.
func (a *httpAdapter) do(ctx context.Context, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.wire.endpoint(a.cfg.BaseURL, a.model), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	a.wire.setHeaders(req.Header, a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, transportError(a.cfg.ID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &BackendError{
			Provider: a.cfg.ID,
			Kind:     classifyHTTP(resp.StatusCode),
			Status:   resp.StatusCode,
			Message:  errorMessage(raw),
		}
	}
	return resp, nil
}

func (a *httpAdapter) fail(ctx context.Context, out chan<- Delta, err error) {
	a.logger.Error("backend call failed", "error", err)
	send(ctx, out, Delta{Text: Diagnostic(a.cfg.ID, err), Err: err})
}

// send delivers d unless ctx is done. Returns false when the consumer is gone.
func send(ctx context.Context, out chan<- Delta, d Delta) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}
