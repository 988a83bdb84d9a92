package pricing

import (
	"context"
	"strings"

	"github.com/ipsacon/registration-service/internal/models"
)

// Codes holds the configured coupon codes and the hard cap on how many
// registrants may use the free one.
type Codes struct {
	Discount     string
	Free         string
	FreeCapacity int
}

// Normalize canonicalizes a raw coupon string: trimmed, upper-cased,
// nil/empty collapsing to "".
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Classify maps a raw coupon string to its class. freeUsed reports how many
// free registrations already exist; once it reaches the capacity the free
// code degrades to none rather than erroring. A freeUsed failure also
// degrades to none — the returned error is for logging only, the
// classification stays usable.
func Classify(ctx context.Context, raw string, codes Codes, freeUsed func(context.Context) (int, error)) (models.CouponClass, error) {
	switch Normalize(raw) {
	case "":
		return models.CouponNone, nil
	case Normalize(codes.Free):
		used, err := freeUsed(ctx)
		if err != nil {
			return models.CouponNone, err
		}
		if used >= codes.FreeCapacity {
			return models.CouponNone, nil
		}
		return models.CouponFree, nil
	case Normalize(codes.Discount):
		return models.CouponDiscount, nil
	default:
		return models.CouponNone, nil
	}
}
