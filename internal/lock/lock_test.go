package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "couponhub/pkg/errors"
)

// memoryLock is an in-process DistributedLock for exercising the wrapper
// logic without a coordinator.
type memoryLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemoryLock() *memoryLock {
	return &memoryLock{held: make(map[string]bool)}
}

func (m *memoryLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *memoryLock) Release(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.held[key] {
		return false, nil
	}
	delete(m.held, key)
	return true, nil
}

func TestResolveKey(t *testing.T) {
	cases := []struct {
		template string
		args     []string
		want     string
	}{
		{"coupon:issue:#arg0", []string{"GOLDEN"}, "coupon:issue:GOLDEN"},
		{"coupon:use:#arg0:#arg1", []string{"CP_AB12", "order-7"}, "coupon:use:CP_AB12:order-7"},
		{"static-key", []string{"unused"}, "static-key"},
		{"#arg0", nil, "#arg0"},
	}

	for _, tc := range cases {
		if got := ResolveKey(tc.template, tc.args); got != tc.want {
			t.Errorf("ResolveKey(%q, %v) = %q, want %q", tc.template, tc.args, got, tc.want)
		}
	}
}

func TestRunUnderLockReleasesOnSuccess(t *testing.T) {
	l := newMemoryLock()
	ctx := context.Background()

	ran, err := RunUnderLock(ctx, l, "k", time.Second, func() error { return nil })
	if err != nil || !ran {
		t.Fatalf("RunUnderLock = (%v, %v), want (true, nil)", ran, err)
	}

	// the lock must be free again
	acquired, _ := l.Acquire(ctx, "k", time.Second)
	if !acquired {
		t.Error("Expected lock to be released after body returned")
	}
}

func TestRunUnderLockReleasesOnError(t *testing.T) {
	l := newMemoryLock()
	ctx := context.Background()
	bodyErr := errors.New("body failed")

	ran, err := RunUnderLock(ctx, l, "k", time.Second, func() error { return bodyErr })
	if !ran {
		t.Fatal("Expected body to run")
	}
	if !errors.Is(err, bodyErr) {
		t.Fatalf("Expected body error, got %v", err)
	}

	acquired, _ := l.Acquire(ctx, "k", time.Second)
	if !acquired {
		t.Error("Expected lock to be released after body error")
	}
}

func TestRunUnderLockSkipsBodyWhenHeld(t *testing.T) {
	l := newMemoryLock()
	ctx := context.Background()
	l.Acquire(ctx, "k", time.Second)

	bodyRan := false
	ran, err := RunUnderLock(ctx, l, "k", time.Second, func() error {
		bodyRan = true
		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ran || bodyRan {
		t.Error("Expected body to be skipped while lock is held")
	}
}

func TestWithLockResolvesTemplate(t *testing.T) {
	l := newMemoryLock()
	var sawArgs []string
	guarded := WithLock(l, "coupon:issue:#arg0", time.Second, func(ctx context.Context, args ...string) error {
		sawArgs = args
		// the resolved key must be held while the body runs
		if acquired, _ := l.Acquire(ctx, "coupon:issue:GOLDEN", time.Second); acquired {
			t.Error("Expected resolved key to be held during body")
		}
		return nil
	})

	if err := guarded(context.Background(), "GOLDEN"); err != nil {
		t.Fatalf("Guarded call failed: %v", err)
	}
	if len(sawArgs) != 1 || sawArgs[0] != "GOLDEN" {
		t.Errorf("Expected args to pass through, got %v", sawArgs)
	}
}

func TestWithLockFailsWhenHeld(t *testing.T) {
	l := newMemoryLock()
	ctx := context.Background()
	l.Acquire(ctx, "coupon:issue:GOLDEN", time.Second)

	guarded := WithLock(l, "coupon:issue:#arg0", time.Second, func(ctx context.Context, args ...string) error {
		t.Error("Body must not run when the lock is held")
		return nil
	})

	err := guarded(ctx, "GOLDEN")
	if !errors.Is(err, apperrors.ErrLockNotAcquired) {
		t.Fatalf("Expected ErrLockNotAcquired, got %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := newMemoryLock()
	ctx := context.Background()

	l.Acquire(ctx, "k", time.Second)

	first, err := l.Release(ctx, "k")
	if err != nil || !first {
		t.Fatalf("First release = (%v, %v), want (true, nil)", first, err)
	}
	second, err := l.Release(ctx, "k")
	if err != nil || second {
		t.Fatalf("Second release = (%v, %v), want (false, nil)", second, err)
	}
}
