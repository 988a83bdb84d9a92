package models

import "time"

// GroupMember is one named registrant inside a group registration.
type GroupMember struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Registration is the persisted row created once per verified payer
// (or once per group member). AmountPaid is kept as the rupee string
// carried in the order notes so the stored value matches what was
// actually charged, verbatim.
type Registration struct {
	OrderID        string
	PaymentID      string
	Name           string
	Email          string
	Phone          string
	Tier           string
	Coupon         string
	AmountPaid     string
	Location       string
	ConferenceDate string
	College        string
	Type           string
	CreatedAt      time.Time
}
