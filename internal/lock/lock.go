package lock

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	apperrors "couponhub/pkg/errors"
)

// DistributedLock is a mutual-exclusion primitive coordinated through a
// shared external store, usable across independent processes.
//
// Acquire is a single attempt with no waiting; callers that need to wait
// must loop themselves. Release reports whether a key was actually deleted
// and is safe to call twice.
type DistributedLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) (bool, error)
}

// RunUnderLock acquires key, runs fn while holding it, and releases the lock
// on every exit path. It returns false without running fn when the lock is
// held elsewhere. Release failures are logged, never returned, so they can't
// mask fn's result.
func RunUnderLock(ctx context.Context, l DistributedLock, key string, ttl time.Duration, fn func() error) (bool, error) {
	acquired, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return false, fmt.Errorf("acquire lock %q: %w", key, err)
	}
	if !acquired {
		return false, nil
	}
	defer func() {
		if _, err := l.Release(ctx, key); err != nil {
			log.Printf("Warning: failed to release lock %q: %v", key, err)
		}
	}()
	return true, fn()
}

// LockedFn is an operation guarded by a named lock. Arguments are passed
// through and may be referenced by the key template.
type LockedFn func(ctx context.Context, args ...string) error

// WithLock wraps fn so its body only executes while the lock named by
// keyTemplate is held. The template may reference call arguments as #arg0,
// #arg1, ... (e.g. "coupon:issue:#arg0"). When the lock is already held the
// wrapped call fails with ErrLockNotAcquired without invoking fn.
func WithLock(l DistributedLock, keyTemplate string, ttl time.Duration, fn LockedFn) LockedFn {
	return func(ctx context.Context, args ...string) error {
		key := ResolveKey(keyTemplate, args)
		ran, err := RunUnderLock(ctx, l, key, ttl, func() error {
			return fn(ctx, args...)
		})
		if !ran {
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: %s", apperrors.ErrLockNotAcquired, key)
		}
		return err
	}
}

// ResolveKey substitutes #argN placeholders in template with argument values.
func ResolveKey(template string, args []string) string {
	key := template
	for i := len(args) - 1; i >= 0; i-- {
		key = strings.ReplaceAll(key, "#arg"+strconv.Itoa(i), args[i])
	}
	return key
}
