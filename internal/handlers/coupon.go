package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"couponhub/internal/models"
	"couponhub/internal/service"
	apperrors "couponhub/pkg/errors"
)

type CouponHandler struct {
	service  *service.CouponService
	validate *validator.Validate
}

func NewCouponHandler(svc *service.CouponService) *CouponHandler {
	return &CouponHandler{
		service:  svc,
		validate: validator.New(),
	}
}

// CreateCoupon handles POST /api/coupons
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	coupon, stock, err := h.service.CreateCoupon(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"coupon":             coupon,
		"total_quantity":     stock.TotalQuantity,
		"remaining_quantity": stock.RemainingQuantity,
	})
}

// GetCoupon handles GET /api/coupons/{couponID}
func (h *CouponHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	couponID, err := strconv.ParseInt(chi.URLParam(r, "couponID"), 10, 64)
	if err != nil || couponID <= 0 {
		writeError(w, http.StatusBadRequest, "Valid coupon id is required")
		return
	}

	coupon, err := h.service.GetCouponByID(couponID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if coupon == nil {
		writeError(w, http.StatusNotFound, "Coupon not found")
		return
	}
	writeJSON(w, http.StatusOK, coupon)
}

// GetCouponStock handles GET /api/coupons/{couponID}/stock
func (h *CouponHandler) GetCouponStock(w http.ResponseWriter, r *http.Request) {
	couponID, err := strconv.ParseInt(chi.URLParam(r, "couponID"), 10, 64)
	if err != nil || couponID <= 0 {
		writeError(w, http.StatusBadRequest, "Valid coupon id is required")
		return
	}

	coupon, err := h.service.GetCouponByID(couponID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if coupon == nil {
		writeError(w, http.StatusNotFound, "Coupon not found")
		return
	}

	remaining, err := h.service.GetRemainingQuantity(coupon.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"remaining_quantity": remaining})
}

// Issue handles POST /api/coupons/issue (default strategy)
func (h *CouponHandler) Issue(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.service.Issue)
}

// IssueWithPessimisticLock handles POST /api/coupons/issue/pessimistic
func (h *CouponHandler) IssueWithPessimisticLock(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.service.IssueWithPessimisticLock)
}

// IssueWithOptimisticLock handles POST /api/coupons/issue/optimistic
func (h *CouponHandler) IssueWithOptimisticLock(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.service.IssueWithOptimisticLock)
}

// IssueWithAtomicOperation handles POST /api/coupons/issue/atomic
func (h *CouponHandler) IssueWithAtomicOperation(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.service.IssueWithAtomicOperation)
}

// IssueWithRedisLock handles POST /api/coupons/issue/redis
func (h *CouponHandler) IssueWithRedisLock(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.service.IssueWithRedisLock)
}

type issueFn func(ctx context.Context, couponCode string, userID int64) (*models.IssueResponse, error)

func (h *CouponHandler) issue(w http.ResponseWriter, r *http.Request, issue issueFn) {
	var req models.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := issue(r.Context(), req.CouponCode, req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UseCoupon handles POST /api/coupons/use
func (h *CouponHandler) UseCoupon(w http.ResponseWriter, r *http.Request) {
	var req models.UseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UseCoupon(r.Context(), req.IssuanceCode, req.OrderReference); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "used"})
}

// CancelCoupon handles POST /api/coupons/cancel
func (h *CouponHandler) CancelCoupon(w http.ResponseWriter, r *http.Request) {
	var req models.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.CancelCoupon(r.Context(), req.IssuanceCode); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

// GetUserCoupons handles GET /api/coupons/user/{userID}
func (h *CouponHandler) GetUserCoupons(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "Valid user id is required")
		return
	}

	issuances, err := h.service.GetUserCoupons(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"coupons": issuances,
	})
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrCouponNotFound),
		errors.Is(err, apperrors.ErrIssuanceNotFound),
		errors.Is(err, apperrors.ErrStockNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrAlreadyIssued),
		errors.Is(err, apperrors.ErrSoldOut),
		errors.Is(err, apperrors.ErrCouponExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrNotActive),
		errors.Is(err, apperrors.ErrNotUsed),
		errors.Is(err, apperrors.ErrExpired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrLockNotAcquired),
		errors.Is(err, apperrors.ErrConflictExhausted):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
