package pricing

import "github.com/ipsacon/registration-service/internal/models"

// Price combines a tier with a coupon class into the final breakdown.
// The discount coupon halves the base with integer floor division, so the
// discount rounds down and the final amount absorbs the odd rupee.
func Price(tier models.Tier, class models.CouponClass) models.Quote {
	q := models.Quote{Tier: tier, Class: class}
	switch class {
	case models.CouponDiscount:
		q.DiscountRupees = tier.BaseRupees / 2
		q.FinalRupees = tier.BaseRupees - q.DiscountRupees
	case models.CouponFree:
		q.DiscountRupees = tier.BaseRupees
		q.FinalRupees = 0
	default:
		q.FinalRupees = tier.BaseRupees
	}
	return q
}

// GroupRates is the bulk-discount curve: groups of LargeMin or more pay
// LargeRupees per head, groups of SmallMin..LargeMin-1 pay SmallRupees,
// anything smaller pays the full base.
type GroupRates struct {
	LargeMin    int
	SmallMin    int
	LargeRupees int
	SmallRupees int
	BaseRupees  int
}

// GroupRate returns the per-head price for a group of the given size.
func GroupRate(size int, rates GroupRates) int {
	switch {
	case size >= rates.LargeMin:
		return rates.LargeRupees
	case size >= rates.SmallMin:
		return rates.SmallRupees
	default:
		return rates.BaseRupees
	}
}
