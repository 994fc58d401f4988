package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon mutates (deactivation, usage records) only through the coupon
// service's consume path. MaxUsesTotal of 0 means unlimited.
type Coupon struct {
	ID                 uuid.UUID
	Code               string
	DiscountPercentage decimal.Decimal
	Active             bool
	ValidFrom          *time.Time
	ValidTo            *time.Time
	MaxUsesTotal       int
	MaxUsesPerUser     int
	MinOrderTotal      decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// WithinDates reports whether now falls inside the optional validity window.
func (c *Coupon) WithinDates(now time.Time) bool {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return false
	}
	return true
}

// DiscountAmount is the coupon's cut of total, rounded to 2 decimal places.
func (c *Coupon) DiscountAmount(total decimal.Decimal) decimal.Decimal {
	return total.Mul(c.DiscountPercentage).Div(decimal.NewFromInt(100)).Round(2)
}

// CouponUsage is append-only and is the source of truth for usage counts.
type CouponUsage struct {
	ID       uuid.UUID
	CouponID uuid.UUID
	UserID   *uuid.UUID
	UsedAt   time.Time
}
