package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/atmosdata/metsync/internal/storage"
	"github.com/atmosdata/metsync/pkg/logger"
)

// Policy controls retry behavior for a single object download.
// Backoff is deliberately jitter-free to keep the delay sequence
// deterministic and cheap to reason about.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy returns the standard transfer retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   4 * time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// Backoff returns the delay to wait after the given zero-based attempt:
// the base delay doubled per attempt, capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay << uint(attempt)
	if d <= 0 || d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// FetchError marks an object whose download failed after all retry
// attempts. The final underlying error is preserved.
type FetchError struct {
	Key      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for %s after %d attempts: %v", e.Key, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher downloads single objects from the source store, retrying
// transient failures per its Policy. Retries cover only the download
// call, never downstream validation or placement.
type Fetcher struct {
	src    storage.SourceStore
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
}

// New returns a Fetcher over src with the given policy.
func New(src storage.SourceStore, policy Policy) *Fetcher {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Fetcher{src: src, policy: policy, sleep: sleepCtx}
}

// Fetch downloads the object's bytes, retrying up to MaxAttempts times
// with bounded exponential backoff between attempts.
func (f *Fetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < f.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := f.policy.Backoff(attempt - 1)
			logger.Log.Warn().
				Str("key", key).
				Int("attempt", attempt+1).
				Dur("backoff", delay).
				Err(lastErr).
				Msg("retrying fetch")
			if err := f.sleep(ctx, delay); err != nil {
				return nil, &FetchError{Key: key, Attempts: attempt, Err: err}
			}
		}

		data, err := f.src.Download(ctx, key)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, &FetchError{Key: key, Attempts: f.policy.MaxAttempts, Err: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
