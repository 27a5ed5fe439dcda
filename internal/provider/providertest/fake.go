// ABOUTME: Scripted in-memory Adapter for tests of packages that call backends
// ABOUTME: Replays canned responses in order and records every prompt it receives

// Package providertest provides a fake provider.Adapter.
package providertest

import (
	"context"
	"sync"

	"github.com/2389/relay-gateway/internal/provider"
)

// Reply is one canned backend response.
type Reply struct {
	// Chunks are streamed in order; Invoke returns their concatenation.
	Chunks []string
	Err    error
}

// Text builds a single-chunk reply.
func Text(s string) Reply { return Reply{Chunks: []string{s}} }

// Fake is a provider.Adapter that replays Replies. When replies run out the
// last one repeats.
type Fake struct {
	ID      provider.ID
	ModelID string

	mu      sync.Mutex
	replies []Reply
	prompts []string
	opts    [][]provider.CallOption
}

// New creates a Fake for id and model.
func New(id provider.ID, model string, replies ...Reply) *Fake {
	return &Fake{ID: id, ModelID: model, replies: replies}
}

func (f *Fake) Provider() provider.ID { return f.ID }

func (f *Fake) Model() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ModelID
}

func (f *Fake) next(prompt string, opts []provider.CallOption) Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	if len(f.replies) == 0 {
		return Reply{}
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r
}

func (f *Fake) Invoke(ctx context.Context, prompt string, opts ...provider.CallOption) (string, error) {
	r := f.next(prompt, opts)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.Err != nil {
		return "", r.Err
	}
	var out string
	for _, c := range r.Chunks {
		out += c
	}
	return out, nil
}

func (f *Fake) Stream(ctx context.Context, prompt string, opts ...provider.CallOption) <-chan provider.Delta {
	r := f.next(prompt, opts)
	ch := make(chan provider.Delta, len(r.Chunks)+1)
	go func() {
		defer close(ch)
		for _, c := range r.Chunks {
			if c == "" {
				continue
			}
			select {
			case ch <- provider.Delta{Text: c}:
			case <-ctx.Done():
				return
			}
		}
		if r.Err != nil {
			ch <- provider.Delta{Text: provider.Diagnostic(f.ID, r.Err), Err: r.Err}
		}
	}()
	return ch
}

// Prompts returns every prompt received so far.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Calls returns how many times the fake was invoked or streamed.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// Factory returns a provider.Factory that always hands out f.
func (f *Fake) Factory() provider.Factory {
	return func(cfg provider.Config, model string, streaming bool) (provider.Adapter, error) {
		f.mu.Lock()
		f.ModelID = model
		f.mu.Unlock()
		return f, nil
	}
}
