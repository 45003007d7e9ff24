package completions

import (
	"context"
	"fmt"
	"time"

	"github.com/m2tx/toolchat/internal/model"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1500 * time.Millisecond

	// maxBackoffShift keeps BaseDelay << attempt inside time.Duration.
	maxBackoffShift = 30
)

// AttemptFunc runs one full request/decode cycle.
type AttemptFunc func(ctx context.Context) (model.Message, error)

// Retrier retries failed attempts with exponential backoff and never fails: when every
// attempt errors it returns an assistant message describing the last error.
type Retrier struct {
	MaxAttempts int
	// BaseDelay is the wait after the first failure; it doubles after each further failure.
	BaseDelay time.Duration
	Sleep     func(ctx context.Context, d time.Duration) error
	// OnRetry is called before waiting for the next attempt. attempt is zero-based.
	OnRetry func(attempt int, wait time.Duration, err error)
}

func NewRetrier(maxAttempts int) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Retrier{
		MaxAttempts: maxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Sleep:       sleepContext,
	}
}

// Backoff returns the wait after the zero-based attempt failed.
func (r *Retrier) Backoff(attempt int) time.Duration {
	attempt = min(max(attempt, 0), maxBackoffShift)
	return r.BaseDelay * time.Duration(1<<attempt)
}

func (r *Retrier) Do(ctx context.Context, attempt AttemptFunc) model.Message {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		msg, err := attempt(ctx)
		if err == nil {
			return msg
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			lastErr = ctxErr
			break
		}
		if i == maxAttempts-1 {
			break
		}
		wait := r.Backoff(i)
		if r.OnRetry != nil {
			r.OnRetry(i, wait, err)
		}
		if err := sleep(ctx, wait); err != nil {
			lastErr = err
			break
		}
	}

	return ErrorMessage(lastErr)
}

// ErrorMessage is the in-band assistant message standing in for a failed model call.
func ErrorMessage(err error) model.Message {
	return model.AssistantMessage(fmt.Sprintf("[Error: %v]", err))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
