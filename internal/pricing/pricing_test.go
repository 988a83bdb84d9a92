package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipsacon/registration-service/internal/models"
)

var testTable = TierTable{
	EarlyEnd:         time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC),
	RegularEnd:       time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC),
	EarlyBirdRupees:  1000,
	RegularRupees:    1200,
	LateOnsiteRupees: 1500,
}

var testCodes = Codes{Discount: "IPSA2025", Free: "IPSAFREE", FreeCapacity: 54}

func TestResolveTier(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
		tier string
		base int
	}{
		{"well before early cutoff", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), TierEarlyBird, 1000},
		{"early cutoff day inclusive", time.Date(2025, 9, 9, 0, 0, 0, 0, time.UTC), TierEarlyBird, 1000},
		{"day after early cutoff", time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC), TierRegular, 1200},
		{"regular cutoff day inclusive", time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC), TierRegular, 1200},
		{"day after regular cutoff", time.Date(2025, 9, 19, 0, 0, 0, 0, time.UTC), TierLateOnsite, 1500},
		{"conference day", time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC), TierLateOnsite, 1500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTier(tt.day, testTable)
			assert.Equal(t, tt.tier, got.Name)
			assert.Equal(t, tt.base, got.BaseRupees)
		})
	}
}

func TestResolveTierIgnoresTimeOfDay(t *testing.T) {
	// 23:59 on the cutoff day is still inside the tier.
	lastMinute := time.Date(2025, 9, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, TierEarlyBird, ResolveTier(lastMinute, testTable).Name)
}

func TestClassifyNormalization(t *testing.T) {
	noFree := func(context.Context) (int, error) { return 0, nil }
	for _, raw := range []string{"IPSA2025", "ipsa2025", "  ipsa2025  ", "IpSa2025"} {
		class, err := Classify(context.Background(), raw, testCodes, noFree)
		require.NoError(t, err)
		assert.Equal(t, models.CouponDiscount, class, "raw=%q", raw)
	}
	for _, raw := range []string{"", "   ", "BOGUS", "IPSA2024"} {
		class, err := Classify(context.Background(), raw, testCodes, noFree)
		require.NoError(t, err)
		assert.Equal(t, models.CouponNone, class, "raw=%q", raw)
	}
	for _, raw := range []string{"IPSAFREE", "ipsafree", " IpsaFree "} {
		class, err := Classify(context.Background(), raw, testCodes, noFree)
		require.NoError(t, err)
		assert.Equal(t, models.CouponFree, class, "raw=%q", raw)
	}
}

func TestClassifyFreeCapacity(t *testing.T) {
	used := 0
	counter := func(context.Context) (int, error) { return used, nil }

	// exactly 54 classifications succeed against a monotonic counter
	for i := 0; i < 54; i++ {
		class, err := Classify(context.Background(), "IPSAFREE", testCodes, counter)
		require.NoError(t, err)
		require.Equal(t, models.CouponFree, class, "classification %d", i+1)
		used++
	}

	// the 55th degrades to none, not an error
	class, err := Classify(context.Background(), "IPSAFREE", testCodes, counter)
	require.NoError(t, err)
	assert.Equal(t, models.CouponNone, class)
}

func TestClassifyCounterFailureDegrades(t *testing.T) {
	broken := func(context.Context) (int, error) { return 0, errors.New("store down") }
	class, err := Classify(context.Background(), "IPSAFREE", testCodes, broken)
	assert.Error(t, err)
	assert.Equal(t, models.CouponNone, class)
}

func TestPrice(t *testing.T) {
	tier := models.Tier{Name: TierEarlyBird, BaseRupees: 1000}

	q := Price(tier, models.CouponNone)
	assert.Equal(t, 0, q.DiscountRupees)
	assert.Equal(t, 1000, q.FinalRupees)

	q = Price(tier, models.CouponDiscount)
	assert.Equal(t, 500, q.DiscountRupees)
	assert.Equal(t, 500, q.FinalRupees)

	q = Price(tier, models.CouponFree)
	assert.Equal(t, 1000, q.DiscountRupees)
	assert.Equal(t, 0, q.FinalRupees)
}

func TestPriceOddBaseRoundsDiscountDown(t *testing.T) {
	tier := models.Tier{Name: TierRegular, BaseRupees: 1001}
	q := Price(tier, models.CouponDiscount)
	assert.Equal(t, 500, q.DiscountRupees)
	assert.Equal(t, 501, q.FinalRupees)
	assert.Equal(t, tier.BaseRupees, q.DiscountRupees+q.FinalRupees)
}

func TestGroupRate(t *testing.T) {
	rates := GroupRates{LargeMin: 10, SmallMin: 5, LargeRupees: 300, SmallRupees: 400, BaseRupees: 1000}
	tests := []struct {
		size, want int
	}{
		{1, 1000}, {4, 1000}, {5, 400}, {9, 400}, {10, 300}, {25, 300},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GroupRate(tt.size, rates), "size=%d", tt.size)
	}
}
