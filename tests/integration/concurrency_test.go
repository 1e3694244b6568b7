package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"couponhub/internal/models"
	apperrors "couponhub/pkg/errors"
)

type issueFn func(ctx context.Context, couponCode string, userID int64) (*models.IssueResponse, error)

type raceResult struct {
	success      int
	soldOut      int
	lockFailed   int
	exhausted    int
	alreadyIssued int
	unexpected   []error
}

// raceIssue fires attempts concurrent issuance requests with distinct users
// and tallies the outcomes.
func raceIssue(t *testing.T, issue issueFn, couponCode string, attempts int) raceResult {
	t.Helper()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result raceResult
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := issue(context.Background(), couponCode, userID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.success++
			case errors.Is(err, apperrors.ErrSoldOut):
				result.soldOut++
			case errors.Is(err, apperrors.ErrLockNotAcquired):
				result.lockFailed++
			case errors.Is(err, apperrors.ErrConflictExhausted):
				result.exhausted++
			case errors.Is(err, apperrors.ErrAlreadyIssued):
				result.alreadyIssued++
			default:
				result.unexpected = append(result.unexpected, err)
			}
		}(int64(1000 + i))
	}
	wg.Wait()

	if len(result.unexpected) > 0 {
		t.Fatalf("Unexpected errors under contention: %v", result.unexpected)
	}
	return result
}

func ledgerCount(t *testing.T, couponID int64) int {
	t.Helper()
	var count int
	if err := testDB.QueryRow(
		"SELECT COUNT(*) FROM coupon_issuances WHERE coupon_id = $1", couponID,
	).Scan(&count); err != nil {
		t.Fatalf("Failed to count ledger rows: %v", err)
	}
	return count
}

// assertNoOversell checks the conservation invariant every strategy must
// uphold: grants never exceed initial stock and the counter never goes
// negative.
func assertNoOversell(t *testing.T, couponCode string, couponID int64, initialStock, successes int) {
	t.Helper()

	remaining, err := testService.GetRemainingQuantity(couponCode)
	if err != nil {
		t.Fatalf("Failed to read stock: %v", err)
	}
	if remaining < 0 {
		t.Errorf("Remaining quantity went negative: %d", remaining)
	}

	granted := ledgerCount(t, couponID)
	if granted != successes {
		t.Errorf("Ledger has %d rows, but %d attempts succeeded", granted, successes)
	}
	if granted > initialStock {
		t.Errorf("Oversold: %d grants for stock of %d", granted, initialStock)
	}
	if remaining != initialStock-granted {
		t.Errorf("Counter drifted: remaining %d, expected %d", remaining, initialStock-granted)
	}
}

func TestNoOversellAtomic(t *testing.T) {
	cleanup := setupTest(t)
	defer cleanup()

	const stock, attempts = 10, 100
	coupon := createTestCoupon(t, "DROP-ATOMIC", stock)

	result := raceIssue(t, testService.IssueWithAtomicOperation, coupon.Code, attempts)

	if result.success != stock {
		t.Errorf("Expected exactly %d successes, got %d", stock, result.success)
	}
	if result.soldOut != attempts-stock {
		t.Errorf("Expected %d sold-out failures, got %d", attempts-stock, result.soldOut)
	}
	assertNoOversell(t, coupon.Code, coupon.ID, stock, result.success)
}

func TestNoOversellPessimistic(t *testing.T) {
	cleanup := setupTest(t)
	defer cleanup()

	const stock, attempts = 10, 100
	coupon := createTestCoupon(t, "DROP-PESSIMISTIC", stock)

	result := raceIssue(t, testService.IssueWithPessimisticLock, coupon.Code, attempts)

	if result.success != stock {
		t.Errorf("Expected exactly %d successes, got %d", stock, result.success)
	}
	if result.soldOut != attempts-stock {
		t.Errorf("Expected %d sold-out failures, got %d", attempts-stock, result.soldOut)
	}
	assertNoOversell(t, coupon.Code, coupon.ID, stock, result.success)
}

func TestNoOversellOptimistic(t *testing.T) {
	cleanup := setupTest(t)
	defer cleanup()

	// Under heavy contention most optimistic attempts exhaust their retries;
	// the safety property is no oversell, not full liveness.
	const stock, attempts = 10, 50
	coupon := createTestCoupon(t, "DROP-OPTIMISTIC", stock)

	result := raceIssue(t, testService.IssueWithOptimisticLock, coupon.Code, attempts)

	if result.success > stock {
		t.Errorf("Oversold: %d successes for stock of %d", result.success, stock)
	}
	if result.success+result.soldOut+result.exhausted != attempts {
		t.Errorf("Outcome counts don't add up: %+v", result)
	}
	assertNoOversell(t, coupon.Code, coupon.ID, stock, result.success)
}

func TestNoOversellRedisLock(t *testing.T) {
	cleanup := setupTest(t)
	defer cleanup()

	// Single-attempt acquisition means most contenders fail fast with
	// LockAcquisitionFailed rather than waiting their turn.
	const stock, attempts = 10, 50
	coupon := createTestCoupon(t, "DROP-REDIS", stock)

	result := raceIssue(t, testService.IssueWithRedisLock, coupon.Code, attempts)

	if result.success > stock {
		t.Errorf("Oversold: %d successes for stock of %d", result.success, stock)
	}
	if result.success+result.soldOut+result.lockFailed != attempts {
		t.Errorf("Outcome counts don't add up: %+v", result)
	}
	assertNoOversell(t, coupon.Code, coupon.ID, stock, result.success)
}

func TestNoDuplicateGrantSameUser(t *testing.T) {
	cleanup := setupTest(t)
	defer cleanup()

	const stock, attempts = 5, 20
	coupon := createTestCoupon(t, "DROP-DUP", stock)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		success int
		dup     int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := testService.Issue(context.Background(), coupon.Code, 777)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, apperrors.ErrAlreadyIssued):
				dup++
			default:
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Errorf("Expected exactly 1 success for the same user, got %d", success)
	}
	if success+dup != attempts {
		t.Errorf("Expected %d duplicate failures, got %d", attempts-1, dup)
	}
	if granted := ledgerCount(t, coupon.ID); granted != 1 {
		t.Errorf("Expected a single ledger row, got %d", granted)
	}

	// failed duplicates must not leak decrements
	remaining, err := testService.GetRemainingQuantity(coupon.Code)
	if err != nil {
		t.Fatalf("Failed to read stock: %v", err)
	}
	if remaining != stock-1 {
		t.Errorf("Expected remaining %d, got %d", stock-1, remaining)
	}
}
