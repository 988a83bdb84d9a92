package notifier

import "fmt"

const (
	SubjectConfirmation = "Conference Registration Confirmation"
	SubjectFree         = "Conference Registration Confirmed (Free Pass)"
)

// ConfirmationBody is the post-payment acknowledgement sent to a single
// registrant, mirroring the breakdown embedded in the order notes.
func ConfirmationBody(name, tier, location, date, coupon, paymentID string, baseRupees, discountRupees, finalRupees string) string {
	couponLine := coupon
	if couponLine == "" {
		couponLine = "None"
	}
	return fmt.Sprintf(`Dear %s,

Thank you for registering for the conference.

Location: %s
Date: %s
Tier: %s
Base Price: Rs.%s
Discount: Rs.%s
Final Amount Paid: Rs.%s
Coupon Used: %s
Payment ID: %s

We look forward to seeing you at the event!

Regards,
Conference Team
`, name, location, date, tier, baseRupees, discountRupees, finalRupees, couponLine, paymentID)
}

// FreePassBody acknowledges a zero-cost registration; there is no payment
// id to echo back.
func FreePassBody(name, tier, location, date string) string {
	return fmt.Sprintf(`Dear %s,

Thank you for registering for the conference. Your free pass is confirmed.

Location: %s
Date: %s
Tier: %s
Amount Paid: Rs.0

We look forward to seeing you at the event!

Regards,
Conference Team
`, name, location, date, tier)
}

// GroupMemberBody acknowledges one member of a group registration at the
// group's per-head price.
func GroupMemberBody(name, groupTier, location, date string, perHeadRupees int) string {
	return fmt.Sprintf(`Dear %s,

Thank you for registering for the conference as part of a group.

Location: %s
Date: %s
Tier: %s
Amount Paid (per head): Rs.%d

We look forward to seeing you at the event!

Regards,
Conference Team
`, name, location, date, groupTier, perHeadRupees)
}
