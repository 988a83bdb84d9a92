package models

// Tier is a named pricing bracket selected by date.
type Tier struct {
	Name       string
	BaseRupees int
}

type CouponClass string

const (
	CouponNone     CouponClass = "none"
	CouponDiscount CouponClass = "discount"
	CouponFree     CouponClass = "free"
)

// Quote is the server-authoritative price breakdown for one registration.
// Invariant: DiscountRupees + FinalRupees == Tier.BaseRupees.
type Quote struct {
	Tier           Tier
	DiscountRupees int
	FinalRupees    int
	Class          CouponClass
}
