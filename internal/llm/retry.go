package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/matclass/internal/metrics"
	"golang.org/x/time/rate"
)

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const DefaultMaxRetries = 3

type RetryOptions struct {
	Provider   string
	Timeout    time.Duration // per attempt; zero means none
	MaxRetries int           // zero disables retries; negative means DefaultMaxRetries
	Limiter    *rate.Limiter // nil means unlimited
	Stats      *Stats
	Log        *slog.Logger
	Backoff    func(attempt int) time.Duration
}

// Retrying wraps a Completer with rate limiting, a per-attempt timeout and
// bounded retries on transient failures.
type Retrying struct {
	next Completer
	opts RetryOptions
}

func NewRetrying(next Completer, opts RetryOptions) *Retrying {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Stats == nil {
		opts.Stats = NewStats(time.Hour)
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Backoff == nil {
		opts.Backoff = Backoff
	}
	return &Retrying{next: next, opts: opts}
}

// Stats returns the latency tracker fed by this client.
func (r *Retrying) Stats() *Stats {
	return r.opts.Stats
}

func (r *Retrying) Complete(ctx context.Context, req Request) (Completion, error) {
	var lastErr error
	for attempt := 0; attempt <= r.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := r.opts.Backoff(attempt - 1)
			r.opts.Log.Warn("retrying llm call",
				"provider", r.opts.Provider,
				"model", req.Model,
				"attempt", attempt,
				"wait", wait,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return Completion{}, ctx.Err()
			case <-time.After(wait):
			}
		}

		if r.opts.Limiter != nil {
			if err := r.opts.Limiter.Wait(ctx); err != nil {
				return Completion{}, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		out, err := r.attempt(ctx, req)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return Completion{}, ctx.Err()
		}
		lastErr = err
		if !IsRetryable(err) {
			return Completion{}, err
		}
	}
	return Completion{}, fmt.Errorf("llm call failed after %d retries: %w", r.opts.MaxRetries, lastErr)
}

func (r *Retrying) attempt(ctx context.Context, req Request) (Completion, error) {
	callCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := r.next.Complete(callCtx, req)
	elapsed := time.Since(start)

	result := "ok"
	switch {
	case err == nil:
		r.opts.Stats.Record(elapsed.Milliseconds())
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		// Only the per-attempt deadline fired.
		err = &RetryableError{StatusCode: 0, Message: fmt.Sprintf("timed out after %s", r.opts.Timeout)}
		result = "retryable"
		r.opts.Stats.RecordError()
	case IsRetryable(err):
		result = "retryable"
		r.opts.Stats.RecordError()
	default:
		result = "error"
		r.opts.Stats.RecordError()
	}
	metrics.ObserveOracleCall(r.opts.Provider, result, elapsed)
	return out, err
}
