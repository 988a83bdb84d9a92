package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ipsacon/registration-service/internal/models"
	"github.com/ipsacon/registration-service/internal/service"
)

// PaymentService is what the handler needs from the registration service.
type PaymentService interface {
	Quote(ctx context.Context, coupon string) service.QuoteResult
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*service.CreateOrderResult, error)
	VerifyPayment(ctx context.Context, in service.VerifyInput) (*service.VerifyResult, error)
}

// --- Request / Response DTOs ---

type CouponRequest struct {
	Coupon string `json:"coupon"`
}

type CreateOrderRequestBody struct {
	Coupon       string               `json:"coupon"`
	Name         string               `json:"name"`
	Phone        string               `json:"phone"`
	Email        string               `json:"email"`
	College      string               `json:"college,omitempty"`
	Type         string               `json:"type,omitempty"`
	GroupMembers []models.GroupMember `json:"group_members,omitempty"`
}

type VerifyRequestBody struct {
	OrderID      string               `json:"order_id"`
	PaymentID    string               `json:"payment_id"`
	Signature    string               `json:"signature"`
	GroupMembers []models.GroupMember `json:"group_members,omitempty"`
}

// --- Handler struct & constructor ---

type PaymentHandler struct {
	svc PaymentService
	log *zap.Logger
}

func NewPaymentHandler(svc PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return false
	}
	return true
}

// --- Handlers ---

// Quote handles POST /payments/quote
func (h *PaymentHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req CouponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	q := h.svc.Quote(r.Context(), req.Coupon)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tier":            q.Tier,
		"base_rupees":     q.BaseRupees,
		"discount_rupees": q.DiscountRupees,
		"final_rupees":    q.FinalRupees,
		"coupon_valid":    q.CouponValid,
	})
}

// ValidateCoupon handles POST /payments/validate-coupon
func (h *PaymentHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req CouponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	q := h.svc.Quote(r.Context(), req.Coupon)
	message := "Invalid coupon"
	if q.CouponValid {
		message = "Coupon applied"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":           q.CouponValid,
		"tier":            q.Tier,
		"base_rupees":     q.BaseRupees,
		"discount_rupees": q.DiscountRupees,
		"final_rupees":    q.FinalRupees,
		"message":         message,
	})
}

// CreateOrder handles POST /payments/create-order
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequestBody
	if !decodeBody(w, r, &req) {
		return
	}

	// registrant identity is required before any external call
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Phone) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, email and phone are required"})
		return
	}

	res, err := h.svc.CreateOrder(r.Context(), service.CreateOrderInput{
		Coupon:  req.Coupon,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		College: req.College,
		Type:    req.Type,
		Members: req.GroupMembers,
	})
	if err != nil {
		h.log.Warn("order creation failed", zap.String("email", req.Email), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if res.Free {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":           "free",
			"payment_required": false,
			"display":          res.Display,
		})
		return
	}

	body := map[string]interface{}{
		"key": res.KeyID,
		"order": map[string]interface{}{
			"id":       res.OrderID,
			"amount":   res.AmountPaise,
			"currency": res.Currency,
		},
		"amount":  res.AmountPaise,
		"display": res.Display,
	}
	if res.GroupSize > 0 {
		body["group_size"] = res.GroupSize
		body["price_per_head"] = res.PerHeadRupees
	}
	writeJSON(w, http.StatusOK, body)
}

// VerifyPayment handles POST /payments/verify-payment
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequestBody
	if !decodeBody(w, r, &req) {
		return
	}

	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_id, payment_id and signature are required"})
		return
	}

	res, err := h.svc.VerifyPayment(r.Context(), service.VerifyInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Members:   req.GroupMembers,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			h.log.Warn("payment signature mismatch", zap.String("order_id", req.OrderID))
		} else {
			h.log.Warn("payment verification failed", zap.String("order_id", req.OrderID), zap.Error(err))
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Verification failed: " + err.Error()})
		return
	}

	if res.GroupSize > 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":         res.Status,
			"group_size":     res.GroupSize,
			"price_per_head": res.PerHeadRupees,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   res.Status,
		"order_id": res.OrderID,
		"notes":    res.Notes,
	})
}
