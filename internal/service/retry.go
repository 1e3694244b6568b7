package service

import (
	"context"
	"errors"
	"time"

	apperrors "couponhub/pkg/errors"
)

const (
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 500 * time.Millisecond
	backoffFactor  = 1.5
)

// retryOnConflict runs attempt once, then up to maxRetries more times while
// it keeps failing with ErrVersionConflict, sleeping an exponential backoff
// between attempts. Any other error stops the loop immediately. When every
// attempt conflicts the caller gets ErrConflictExhausted, never the raw
// conflict.
func retryOnConflict(ctx context.Context, attempt func() error) error {
	delay := initialBackoff
	for try := 0; ; try++ {
		err := attempt()
		if !errors.Is(err, apperrors.ErrVersionConflict) {
			return err
		}
		if try == maxRetries {
			return apperrors.ErrConflictExhausted
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = nextBackoff(delay)
	}
}

func nextBackoff(delay time.Duration) time.Duration {
	delay = time.Duration(float64(delay) * backoffFactor)
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}
