package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/foxseedlab/hatsuon/internal/audio"
)

// Route binds a backend to the representation it speaks.
type Route struct {
	Backend Backend
	Input   InputKind
}

// AttemptObserver is notified after every backend attempt.
type AttemptObserver func(Attempt)

type Router struct {
	routes     []Route
	transcoder audio.Transcoder
	playback   audio.Spec
	observe    AttemptObserver
}

type RouterOption func(*Router)

func WithAttemptObserver(fn AttemptObserver) RouterOption {
	return func(r *Router) {
		r.observe = fn
	}
}

func NewRouter(routes []Route, transcoder audio.Transcoder, playback audio.Spec, opts ...RouterOption) *Router {
	r := &Router{
		routes:     append([]Route(nil), routes...),
		transcoder: transcoder,
		playback:   playback,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Synthesize tries backends strictly in order and returns the first success,
// normalized to the playback spec. No backend after the winner is called.
func (r *Router) Synthesize(ctx context.Context, req Request) (*Result, error) {
	attempts := make([]Attempt, 0, len(r.routes))
	for _, route := range r.routes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := route.Backend.Name()
		text := req.textFor(route.Input)
		if text == "" || !route.Backend.Available(ctx) {
			attempts = r.record(attempts, Attempt{Backend: name, Input: route.Input, Outcome: AttemptSkipped})
			slog.Debug("synthesis backend skipped", "backend", name, "input", route.Input, "has_text", text != "")
			continue
		}

		blob, err := r.attempt(ctx, route.Backend, text)
		if err != nil {
			attempts = r.record(attempts, Attempt{Backend: name, Input: route.Input, Outcome: AttemptFailed, Err: err})
			slog.Warn("synthesis backend failed", "backend", name, "input", route.Input, "error", err)
			continue
		}
		attempts = r.record(attempts, Attempt{Backend: name, Input: route.Input, Outcome: AttemptSucceeded})
		slog.Info("synthesis backend succeeded", "backend", name, "input", route.Input, "bytes", len(blob.Data))
		return &Result{
			Audio:    blob,
			Backend:  name,
			Input:    route.Input,
			Attempts: attempts,
		}, nil
	}
	return nil, &RouterError{Attempts: attempts}
}

func (r *Router) attempt(ctx context.Context, b Backend, text string) (audio.Blob, error) {
	blob, err := b.Synthesize(ctx, text)
	if err != nil {
		if errors.Is(err, ErrEngine) {
			return audio.Blob{}, err
		}
		return audio.Blob{}, fmt.Errorf("%w: %v", ErrEngine, err)
	}
	if blob.Empty() {
		return audio.Blob{}, fmt.Errorf("%w: backend returned no audio", ErrEngine)
	}
	out, err := r.transcoder.Transcode(ctx, blob, r.playback)
	if err != nil {
		return audio.Blob{}, fmt.Errorf("%w: normalize output: %v", ErrEngine, err)
	}
	return out, nil
}

func (r *Router) record(attempts []Attempt, a Attempt) []Attempt {
	if r.observe != nil {
		r.observe(a)
	}
	return append(attempts, a)
}
