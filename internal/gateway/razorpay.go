package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	razorpay "github.com/razorpay/razorpay-go"
)

// Order is the slice of a gateway order this service cares about. Notes
// round-trip opaquely: whatever was attached at creation comes back
// verbatim on fetch and is the source of truth for what was charged.
type Order struct {
	ID          string
	AmountPaise int
	Currency    string
	Notes       map[string]string
}

type Razorpay struct {
	client *razorpay.Client
	keyID  string
	secret string
}

func NewRazorpay(keyID, secret string) *Razorpay {
	return &Razorpay{
		client: razorpay.NewClient(keyID, secret),
		keyID:  keyID,
		secret: secret,
	}
}

// KeyID exposes the public key id the frontend needs to open checkout.
func (g *Razorpay) KeyID() string { return g.keyID }

func (g *Razorpay) CreateOrder(ctx context.Context, amountPaise int, currency, receipt string, notes map[string]string) (*Order, error) {
	data := map[string]interface{}{
		"amount":          amountPaise,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
		"notes":           notes,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}
	return orderFromBody(body), nil
}

func (g *Razorpay) FetchOrder(ctx context.Context, id string) (*Order, error) {
	body, err := g.client.Order.Fetch(id, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order fetch: %w", err)
	}
	return orderFromBody(body), nil
}

// VerifySignature checks the checkout callback signature per Razorpay's
// scheme: HMAC-SHA256 over "orderID|paymentID" keyed with the secret,
// hex-encoded, compared in constant time.
func (g *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func orderFromBody(body map[string]interface{}) *Order {
	o := &Order{
		ID:       asString(body["id"]),
		Currency: asString(body["currency"]),
		Notes:    map[string]string{},
	}
	if amount, ok := body["amount"].(float64); ok {
		o.AmountPaise = int(amount)
	}
	if notes, ok := body["notes"].(map[string]interface{}); ok {
		for k, v := range notes {
			o.Notes[k] = asString(v)
		}
	}
	return o
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	default:
		return fmt.Sprint(t)
	}
}
