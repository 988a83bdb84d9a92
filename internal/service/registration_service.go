package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ipsacon/registration-service/internal/concurrency"
	"github.com/ipsacon/registration-service/internal/gateway"
	"github.com/ipsacon/registration-service/internal/models"
	"github.com/ipsacon/registration-service/internal/notifier"
	"github.com/ipsacon/registration-service/internal/pricing"
)

// Collaborators required by the service (interfaces to allow test fakes).

type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amountPaise int, currency, receipt string, notes map[string]string) (*gateway.Order, error)
	FetchOrder(ctx context.Context, id string) (*gateway.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type RegistrationStore interface {
	Insert(ctx context.Context, reg *models.Registration) (bool, error)
	CountByCoupon(ctx context.Context, coupon string) (int, error)
}

type FreeQuota interface {
	Used(ctx context.Context) (int, error)
	Reserve(ctx context.Context) (bool, error)
}

type Notifier interface {
	Send(to, subject, body string) error
}

// ErrInvalidSignature rejects verification payloads whose checkout
// signature does not match the gateway secret.
var ErrInvalidSignature = errors.New("invalid payment signature")

const currencyINR = "INR"

// RegistrationService owns the pricing rules and the order lifecycle:
// quoting, coupon validation, order creation and payment verification.
type RegistrationService struct {
	gateway Gateway
	store   RegistrationStore
	quota   FreeQuota
	mail    Notifier
	log     *zap.Logger

	tiers pricing.TierTable
	codes pricing.Codes
	group pricing.GroupRates

	eventLocation string
	eventDate     string

	now func() time.Time
}

type Params struct {
	Gateway Gateway
	Store   RegistrationStore
	Quota   FreeQuota
	Mail    Notifier
	Log     *zap.Logger

	Tiers pricing.TierTable
	Codes pricing.Codes
	Group pricing.GroupRates

	EventLocation string
	EventDate     string

	// Now is the clock used for tier resolution; defaults to time.Now.
	Now func() time.Time
}

func NewRegistrationService(p Params) *RegistrationService {
	if p.Now == nil {
		p.Now = time.Now
	}
	return &RegistrationService{
		gateway:       p.Gateway,
		store:         p.Store,
		quota:         p.Quota,
		mail:          p.Mail,
		log:           p.Log,
		tiers:         p.Tiers,
		codes:         p.Codes,
		group:         p.Group,
		eventLocation: p.EventLocation,
		eventDate:     p.EventDate,
		now:           p.Now,
	}
}

// --- Quote / validate ---

type QuoteResult struct {
	Tier           string
	BaseRupees     int
	DiscountRupees int
	FinalRupees    int
	CouponValid    bool
	Class          models.CouponClass
}

// Quote prices "if you registered today" with an optional coupon. Never
// fails: a quota-counter outage degrades the free coupon to none.
func (s *RegistrationService) Quote(ctx context.Context, coupon string) QuoteResult {
	tier := pricing.ResolveTier(pricing.TodayIST(s.now()), s.tiers)
	class, err := pricing.Classify(ctx, coupon, s.codes, s.quota.Used)
	if err != nil {
		s.log.Warn("free quota read failed, treating coupon as plain", zap.Error(err))
	}
	q := pricing.Price(tier, class)
	return QuoteResult{
		Tier:           tier.Name,
		BaseRupees:     tier.BaseRupees,
		DiscountRupees: q.DiscountRupees,
		FinalRupees:    q.FinalRupees,
		CouponValid:    class != models.CouponNone,
		Class:          class,
	}
}

// --- Order creation ---

type CreateOrderInput struct {
	Coupon  string
	Name    string
	Email   string
	Phone   string
	College string
	Type    string
	Members []models.GroupMember
}

type Display struct {
	Tier           string `json:"tier"`
	BaseRupees     int    `json:"base_rupees"`
	DiscountRupees int    `json:"discount_rupees"`
	FinalRupees    int    `json:"final_rupees"`
}

type CreateOrderResult struct {
	Free bool

	KeyID       string
	OrderID     string
	AmountPaise int
	Currency    string
	Display     Display

	GroupSize     int
	PerHeadRupees int
}

// CreateOrder is the single decision point for what (if anything) gets
// charged. First match wins: free coupon short-circuits the gateway
// entirely, a group of two or more goes through group pricing, everything
// else is a single paid registration priced server-side.
func (s *RegistrationService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if pricing.Normalize(in.Coupon) == pricing.Normalize(s.codes.Free) {
		ok, err := s.quota.Reserve(ctx)
		if err != nil {
			s.log.Warn("free slot reservation failed, falling back to paid flow", zap.Error(err))
			ok = false
		}
		if ok {
			return s.registerFree(ctx, in)
		}
		// capacity exhausted: the code silently degrades to no coupon
	}

	if len(in.Members) >= 2 {
		return s.createGroupOrder(ctx, in)
	}
	return s.createSingleOrder(ctx, in)
}

func (s *RegistrationService) registerFree(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	tier := pricing.ResolveTier(pricing.TodayIST(s.now()), s.tiers)
	q := pricing.Price(tier, models.CouponFree)

	reg := &models.Registration{
		OrderID:        "FREE-" + uuid.NewString(),
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		Tier:           tier.Name,
		Coupon:         pricing.Normalize(s.codes.Free),
		AmountPaid:     "0",
		Location:       s.eventLocation,
		ConferenceDate: s.eventDate,
		College:        orNA(in.College),
		Type:           orNA(in.Type),
	}
	if _, err := s.store.Insert(ctx, reg); err != nil {
		// the free slot stays consumed; reconciliation is manual
		s.log.Error("free registration insert failed", zap.String("email", in.Email), zap.Error(err))
	}

	body := notifier.FreePassBody(in.Name, tier.Name, s.eventLocation, s.eventDate)
	if err := s.mail.Send(in.Email, notifier.SubjectFree, body); err != nil {
		s.log.Error("free pass email failed", zap.String("to", in.Email), zap.Error(err))
	}

	return &CreateOrderResult{
		Free: true,
		Display: Display{
			Tier:           tier.Name,
			BaseRupees:     tier.BaseRupees,
			DiscountRupees: q.DiscountRupees,
			FinalRupees:    0,
		},
	}, nil
}

func (s *RegistrationService) createGroupOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	size := len(in.Members)
	perHead := pricing.GroupRate(size, s.group)
	totalRupees := perHead * size
	groupTier := fmt.Sprintf("Group(%d)", size)

	phones := make([]string, 0, size)
	for _, m := range in.Members {
		phones = append(phones, m.Phone)
	}

	notes := map[string]string{
		"tier":            groupTier,
		"price_per_head":  strconv.Itoa(perHead),
		"group_size":      strconv.Itoa(size),
		"final_rupees":    strconv.Itoa(totalRupees),
		"name":            in.Name,
		"email":           in.Email,
		"phone":           in.Phone,
		"member_phones":   strings.Join(phones, ","),
		"location":        s.eventLocation,
		"conference_date": s.eventDate,
	}

	order, err := s.gateway.CreateOrder(ctx, totalRupees*100, currencyINR, uuid.NewString(), notes)
	if err != nil {
		return nil, fmt.Errorf("create group order: %w", err)
	}

	return &CreateOrderResult{
		KeyID:       s.gateway.KeyID(),
		OrderID:     order.ID,
		AmountPaise: totalRupees * 100,
		Currency:    currencyINR,
		Display: Display{
			Tier:           groupTier,
			BaseRupees:     totalRupees,
			DiscountRupees: 0,
			FinalRupees:    totalRupees,
		},
		GroupSize:     size,
		PerHeadRupees: perHead,
	}, nil
}

func (s *RegistrationService) createSingleOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	tier := pricing.ResolveTier(pricing.TodayIST(s.now()), s.tiers)
	class, err := pricing.Classify(ctx, in.Coupon, s.codes, s.quota.Used)
	if err != nil {
		s.log.Warn("free quota read failed, treating coupon as plain", zap.Error(err))
	}
	q := pricing.Price(tier, class)

	notes := map[string]string{
		"tier":            tier.Name,
		"base_rupees":     strconv.Itoa(tier.BaseRupees),
		"discount_rupees": strconv.Itoa(q.DiscountRupees),
		"final_rupees":    strconv.Itoa(q.FinalRupees),
		"coupon":          pricing.Normalize(in.Coupon),
		"name":            in.Name,
		"email":           in.Email,
		"phone":           in.Phone,
		"college":         orNA(in.College),
		"type":            orNA(in.Type),
		"location":        s.eventLocation,
		"conference_date": s.eventDate,
	}

	order, err := s.gateway.CreateOrder(ctx, q.FinalRupees*100, currencyINR, uuid.NewString(), notes)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	return &CreateOrderResult{
		KeyID:       s.gateway.KeyID(),
		OrderID:     order.ID,
		AmountPaise: q.FinalRupees * 100,
		Currency:    currencyINR,
		Display: Display{
			Tier:           tier.Name,
			BaseRupees:     tier.BaseRupees,
			DiscountRupees: q.DiscountRupees,
			FinalRupees:    q.FinalRupees,
		},
	}, nil
}

// --- Payment verification ---

type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
	Members   []models.GroupMember
}

type VerifyResult struct {
	Status        string
	OrderID       string
	Notes         map[string]string
	GroupSize     int
	PerHeadRupees int
}

// VerifyPayment confirms a checkout callback. The order's embedded notes
// are the source of truth for what was charged; nothing is re-derived from
// client input past the member list itself.
func (s *RegistrationService) VerifyPayment(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	if !s.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		return nil, ErrInvalidSignature
	}

	order, err := s.gateway.FetchOrder(ctx, in.OrderID)
	if err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}

	if len(in.Members) >= s.group.SmallMin {
		return s.verifyGroup(ctx, order, in)
	}
	return s.verifySingle(ctx, order, in)
}

func (s *RegistrationService) verifyGroup(ctx context.Context, order *gateway.Order, in VerifyInput) (*VerifyResult, error) {
	size := len(in.Members)
	groupTier := order.Notes["tier"]
	if groupTier == "" {
		groupTier = fmt.Sprintf("Group(%d)", size)
	}
	perHead, err := strconv.Atoi(order.Notes["price_per_head"])
	if err != nil {
		perHead = pricing.GroupRate(size, s.group)
	}

	location := noteOr(order.Notes, "location", s.eventLocation)
	date := noteOr(order.Notes, "conference_date", s.eventDate)

	concurrency.ForEach(ctx, 4, size, func(ctx context.Context, i int) {
		m := in.Members[i]
		s.record(ctx, &models.Registration{
			OrderID:        order.ID,
			PaymentID:      in.PaymentID,
			Name:           m.Name,
			Email:          m.Email,
			Phone:          m.Phone,
			Tier:           groupTier,
			AmountPaid:     strconv.Itoa(perHead),
			Location:       location,
			ConferenceDate: date,
			College:        "N/A",
			Type:           "N/A",
		}, notifier.SubjectConfirmation, notifier.GroupMemberBody(m.Name, groupTier, location, date, perHead))
	})

	return &VerifyResult{Status: "success", OrderID: order.ID, GroupSize: size, PerHeadRupees: perHead}, nil
}

func (s *RegistrationService) verifySingle(ctx context.Context, order *gateway.Order, in VerifyInput) (*VerifyResult, error) {
	notes := order.Notes
	location := noteOr(notes, "location", s.eventLocation)
	date := noteOr(notes, "conference_date", s.eventDate)

	body := notifier.ConfirmationBody(
		notes["name"], notes["tier"], location, date,
		notes["coupon"], in.PaymentID,
		notes["base_rupees"], notes["discount_rupees"], notes["final_rupees"],
	)
	s.record(ctx, &models.Registration{
		OrderID:        order.ID,
		PaymentID:      in.PaymentID,
		Name:           notes["name"],
		Email:          notes["email"],
		Phone:          notes["phone"],
		Tier:           notes["tier"],
		Coupon:         notes["coupon"],
		AmountPaid:     notes["final_rupees"],
		Location:       location,
		ConferenceDate: date,
		College:        orNA(notes["college"]),
		Type:           orNA(notes["type"]),
	}, notifier.SubjectConfirmation, body)

	return &VerifyResult{Status: "success", OrderID: order.ID, Notes: notes}, nil
}

// record persists one registration and sends its acknowledgement. A clean
// duplicate (same order id and email already stored) skips the email so a
// re-verified order does not spam the registrant; store and mail failures
// are logged, never escalated.
func (s *RegistrationService) record(ctx context.Context, reg *models.Registration, subject, body string) {
	inserted, err := s.store.Insert(ctx, reg)
	if err != nil {
		s.log.Error("registration insert failed",
			zap.String("order_id", reg.OrderID),
			zap.String("email", reg.Email),
			zap.Error(err),
		)
	}
	if err == nil && !inserted {
		s.log.Info("registration already recorded, skipping acknowledgement",
			zap.String("order_id", reg.OrderID),
			zap.String("email", reg.Email),
		)
		return
	}
	if err := s.mail.Send(reg.Email, subject, body); err != nil {
		s.log.Error("acknowledgement email failed", zap.String("to", reg.Email), zap.Error(err))
	}
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func noteOr(notes map[string]string, key, fallback string) string {
	if v := notes[key]; v != "" {
		return v
	}
	return fallback
}
