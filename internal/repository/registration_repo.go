package repository

import (
	"context"
	"database/sql"

	"github.com/ipsacon/registration-service/internal/models"
)

// Schema:
//
//	CREATE TABLE registrations (
//	    id              SERIAL PRIMARY KEY,
//	    order_id        TEXT NOT NULL,
//	    payment_id      TEXT NOT NULL DEFAULT '',
//	    name            TEXT NOT NULL,
//	    email           TEXT NOT NULL,
//	    phone           TEXT NOT NULL DEFAULT '',
//	    tier            TEXT NOT NULL,
//	    coupon          TEXT NOT NULL DEFAULT '',
//	    amount_paid     TEXT NOT NULL,
//	    location        TEXT NOT NULL,
//	    conference_date TEXT NOT NULL,
//	    college         TEXT NOT NULL DEFAULT 'N/A',
//	    type            TEXT NOT NULL DEFAULT 'N/A',
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    UNIQUE (order_id, email)
//	);
//
// The (order_id, email) constraint is the idempotency key: verifying the
// same order twice must not produce a second row.
type RegistrationRepo struct {
	db *sql.DB
}

func NewRegistrationRepo(db *sql.DB) *RegistrationRepo {
	return &RegistrationRepo{db: db}
}

// Insert stores a registration row. Returns false with a nil error when a
// row for the same (order_id, email) already exists.
func (r *RegistrationRepo) Insert(ctx context.Context, reg *models.Registration) (bool, error) {
	query := `
		INSERT INTO registrations
		(order_id, payment_id, name, email, phone, tier, coupon, amount_paid,
		 location, conference_date, college, type, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
		ON CONFLICT (order_id, email) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query,
		reg.OrderID,
		reg.PaymentID,
		reg.Name,
		reg.Email,
		reg.Phone,
		reg.Tier,
		reg.Coupon,
		reg.AmountPaid,
		reg.Location,
		reg.ConferenceDate,
		reg.College,
		reg.Type,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountByCoupon reports how many registrations used the given normalized
// coupon code. Backs the free-coupon capacity check.
func (r *RegistrationRepo) CountByCoupon(ctx context.Context, coupon string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM registrations WHERE coupon = $1`
	if err := r.db.QueryRowContext(ctx, query, coupon).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
