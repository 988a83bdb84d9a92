package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ipsacon/registration-service/internal/service"
)

type stubService struct {
	quote       service.QuoteResult
	createRes   *service.CreateOrderResult
	createErr   error
	createCalls int
	verifyRes   *service.VerifyResult
	verifyErr   error
}

func (s *stubService) Quote(context.Context, string) service.QuoteResult { return s.quote }

func (s *stubService) CreateOrder(context.Context, service.CreateOrderInput) (*service.CreateOrderResult, error) {
	s.createCalls++
	return s.createRes, s.createErr
}

func (s *stubService) VerifyPayment(context.Context, service.VerifyInput) (*service.VerifyResult, error) {
	return s.verifyRes, s.verifyErr
}

func post(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestQuoteHandler(t *testing.T) {
	stub := &stubService{quote: service.QuoteResult{
		Tier: "Early Bird", BaseRupees: 1000, DiscountRupees: 500, FinalRupees: 500, CouponValid: true,
	}}
	h := NewPaymentHandler(stub, zap.NewNop())

	rec := post(t, h.Quote, `{"coupon":"IPSA2025"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Early Bird", body["tier"])
	assert.Equal(t, float64(500), body["discount_rupees"])
	assert.Equal(t, float64(500), body["final_rupees"])
	assert.Equal(t, true, body["coupon_valid"])
}

func TestQuoteHandlerRejectsGarbage(t *testing.T) {
	h := NewPaymentHandler(&stubService{}, zap.NewNop())
	rec := post(t, h.Quote, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateCouponMessages(t *testing.T) {
	t.Run("valid coupon", func(t *testing.T) {
		stub := &stubService{quote: service.QuoteResult{CouponValid: true, Tier: "Regular", BaseRupees: 1200, DiscountRupees: 600, FinalRupees: 600}}
		rec := post(t, NewPaymentHandler(stub, zap.NewNop()).ValidateCoupon, `{"coupon":"ipsa2025"}`)
		body := decode(t, rec)
		assert.Equal(t, true, body["valid"])
		assert.Equal(t, "Coupon applied", body["message"])
	})

	t.Run("invalid coupon", func(t *testing.T) {
		stub := &stubService{quote: service.QuoteResult{Tier: "Regular", BaseRupees: 1200, FinalRupees: 1200}}
		rec := post(t, NewPaymentHandler(stub, zap.NewNop()).ValidateCoupon, `{"coupon":"NOPE"}`)
		body := decode(t, rec)
		assert.Equal(t, false, body["valid"])
		assert.Equal(t, "Invalid coupon", body["message"])
	})
}

func TestCreateOrderValidation(t *testing.T) {
	stub := &stubService{}
	h := NewPaymentHandler(stub, zap.NewNop())

	for name, body := range map[string]string{
		"missing name":  `{"email":"a@b.c","phone":"9"}`,
		"missing email": `{"name":"A","phone":"9"}`,
		"missing phone": `{"name":"A","email":"a@b.c"}`,
		"blank fields":  `{"name":"  ","email":"a@b.c","phone":"9"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := post(t, h.CreateOrder, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	// the service must never have been reached
	assert.Zero(t, stub.createCalls)
}

func TestCreateOrderPaidResponse(t *testing.T) {
	stub := &stubService{createRes: &service.CreateOrderResult{
		KeyID:       "rzp_test_key",
		OrderID:     "order_9",
		AmountPaise: 50000,
		Currency:    "INR",
		Display:     service.Display{Tier: "Early Bird", BaseRupees: 1000, DiscountRupees: 500, FinalRupees: 500},
	}}
	rec := post(t, NewPaymentHandler(stub, zap.NewNop()).CreateOrder,
		`{"name":"A","email":"a@b.c","phone":"9","coupon":"IPSA2025"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "rzp_test_key", body["key"])
	assert.Equal(t, float64(50000), body["amount"])
	order := body["order"].(map[string]interface{})
	assert.Equal(t, "order_9", order["id"])
}

func TestCreateOrderFreeResponse(t *testing.T) {
	stub := &stubService{createRes: &service.CreateOrderResult{
		Free:    true,
		Display: service.Display{Tier: "Early Bird", BaseRupees: 1000, DiscountRupees: 1000},
	}}
	rec := post(t, NewPaymentHandler(stub, zap.NewNop()).CreateOrder,
		`{"name":"A","email":"a@b.c","phone":"9","coupon":"IPSAFREE"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "free", body["status"])
	assert.Equal(t, false, body["payment_required"])
}

func TestCreateOrderGatewayError(t *testing.T) {
	stub := &stubService{createErr: errors.New("gateway unavailable")}
	rec := post(t, NewPaymentHandler(stub, zap.NewNop()).CreateOrder,
		`{"name":"A","email":"a@b.c","phone":"9"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "gateway unavailable")
}

func TestVerifyPayment(t *testing.T) {
	t.Run("requires payload fields", func(t *testing.T) {
		rec := post(t, NewPaymentHandler(&stubService{}, zap.NewNop()).VerifyPayment,
			`{"order_id":"order_1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("single success echoes notes", func(t *testing.T) {
		stub := &stubService{verifyRes: &service.VerifyResult{
			Status:  "success",
			OrderID: "order_1",
			Notes:   map[string]string{"tier": "Regular", "final_rupees": "600"},
		}}
		rec := post(t, NewPaymentHandler(stub, zap.NewNop()).VerifyPayment,
			`{"order_id":"order_1","payment_id":"pay_1","signature":"s"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "success", body["status"])
		notes := body["notes"].(map[string]interface{})
		assert.Equal(t, "600", notes["final_rupees"])
	})

	t.Run("group success reports fan-out shape", func(t *testing.T) {
		stub := &stubService{verifyRes: &service.VerifyResult{
			Status: "success", OrderID: "order_2", GroupSize: 5, PerHeadRupees: 400,
		}}
		rec := post(t, NewPaymentHandler(stub, zap.NewNop()).VerifyPayment,
			`{"order_id":"order_2","payment_id":"pay_2","signature":"s","group_members":[]}`)
		body := decode(t, rec)
		assert.Equal(t, float64(5), body["group_size"])
		assert.Equal(t, float64(400), body["price_per_head"])
	})

	t.Run("bad signature is a 400", func(t *testing.T) {
		stub := &stubService{verifyErr: service.ErrInvalidSignature}
		rec := post(t, NewPaymentHandler(stub, zap.NewNop()).VerifyPayment,
			`{"order_id":"order_3","payment_id":"pay_3","signature":"forged"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Verification failed")
	})
}
