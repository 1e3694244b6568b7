package models

import (
	"errors"
	"testing"
	"time"

	apperrors "couponhub/pkg/errors"
)

func activeIssuance(expiresAt time.Time) CouponIssuance {
	return CouponIssuance{
		ID:        1,
		UserID:    100,
		CouponID:  10,
		Code:      "CP_TEST0001",
		Status:    StatusActive,
		IssuedAt:  time.Now().Add(-time.Hour),
		ExpiresAt: expiresAt,
	}
}

func TestUseActiveIssuance(t *testing.T) {
	issuance := activeIssuance(time.Now().Add(24 * time.Hour))

	if err := issuance.Use("order-42", time.Now()); err != nil {
		t.Fatalf("Use failed: %v", err)
	}

	if issuance.Status != StatusUsed {
		t.Errorf("Expected status USED, got %s", issuance.Status)
	}
	if issuance.UsedAt == nil {
		t.Error("Expected used_at to be set")
	}
	if issuance.OrderReference == nil || *issuance.OrderReference != "order-42" {
		t.Errorf("Expected order reference 'order-42', got %v", issuance.OrderReference)
	}
}

func TestUseExpiredIssuance(t *testing.T) {
	issuance := activeIssuance(time.Now().Add(-time.Minute))

	err := issuance.Use("order-42", time.Now())
	if !errors.Is(err, apperrors.ErrExpired) {
		t.Fatalf("Expected ErrExpired, got %v", err)
	}

	if issuance.Status != StatusExpired {
		t.Errorf("Expected status EXPIRED, got %s", issuance.Status)
	}
	if issuance.UsedAt != nil {
		t.Error("Expected used_at to stay unset")
	}
}

func TestUseNonActiveIssuance(t *testing.T) {
	for _, status := range []IssuanceStatus{StatusUsed, StatusExpired, StatusCancelled} {
		issuance := activeIssuance(time.Now().Add(24 * time.Hour))
		issuance.Status = status

		err := issuance.Use("order-42", time.Now())
		if !errors.Is(err, apperrors.ErrNotActive) {
			t.Errorf("Status %s: expected ErrNotActive, got %v", status, err)
		}
	}
}

func TestCancelUseRestoresActive(t *testing.T) {
	issuance := activeIssuance(time.Now().Add(24 * time.Hour))
	if err := issuance.Use("order-42", time.Now()); err != nil {
		t.Fatalf("Use failed: %v", err)
	}

	if err := issuance.CancelUse(); err != nil {
		t.Fatalf("CancelUse failed: %v", err)
	}

	if issuance.Status != StatusActive {
		t.Errorf("Expected status ACTIVE, got %s", issuance.Status)
	}
	if issuance.UsedAt != nil || issuance.OrderReference != nil {
		t.Error("Expected usage fields to be cleared")
	}
}

func TestCancelUseRequiresUsed(t *testing.T) {
	for _, status := range []IssuanceStatus{StatusActive, StatusExpired, StatusCancelled} {
		issuance := activeIssuance(time.Now().Add(24 * time.Hour))
		issuance.Status = status

		if err := issuance.CancelUse(); !errors.Is(err, apperrors.ErrNotUsed) {
			t.Errorf("Status %s: expected ErrNotUsed, got %v", status, err)
		}
	}
}

func TestExpireOnlyTouchesActive(t *testing.T) {
	issuance := activeIssuance(time.Now().Add(24 * time.Hour))
	issuance.Expire()
	if issuance.Status != StatusExpired {
		t.Errorf("Expected status EXPIRED, got %s", issuance.Status)
	}

	issuance = activeIssuance(time.Now().Add(24 * time.Hour))
	issuance.Status = StatusUsed
	issuance.Expire()
	if issuance.Status != StatusUsed {
		t.Errorf("Expected status USED to be untouched, got %s", issuance.Status)
	}
}
