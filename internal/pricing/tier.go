package pricing

import (
	"time"

	"github.com/ipsacon/registration-service/internal/models"
)

// Tier names are fixed; the prices attached to them are deployment
// configuration (they changed between runs of the conference).
const (
	TierEarlyBird  = "Early Bird"
	TierRegular    = "Regular"
	TierLateOnsite = "Late/Onsite"
)

// TierTable holds the date cutoffs (inclusive) and the base price per tier.
type TierTable struct {
	EarlyEnd         time.Time
	RegularEnd       time.Time
	EarlyBirdRupees  int
	RegularRupees    int
	LateOnsiteRupees int
}

// ResolveTier maps a civil date to its pricing tier. Only the calendar day
// matters; callers are expected to pass a time already in conference-local
// time (see TodayIST).
func ResolveTier(today time.Time, table TierTable) models.Tier {
	d := dateOnly(today)
	switch {
	case !d.After(dateOnly(table.EarlyEnd)):
		return models.Tier{Name: TierEarlyBird, BaseRupees: table.EarlyBirdRupees}
	case !d.After(dateOnly(table.RegularEnd)):
		return models.Tier{Name: TierRegular, BaseRupees: table.RegularRupees}
	default:
		return models.Tier{Name: TierLateOnsite, BaseRupees: table.LateOnsiteRupees}
	}
}

// TodayIST returns the current civil date in India Standard Time. The
// cutoffs are announced in IST, so tier boundaries must not drift with
// the server's locale.
func TodayIST(now time.Time) time.Time {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// IST has no DST; the fixed offset is always correct.
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	return now.In(loc)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
