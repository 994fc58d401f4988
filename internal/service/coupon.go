package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Lakriii/eshop-platform-main/internal/metrics"
	"github.com/Lakriii/eshop-platform-main/internal/model"
	"github.com/Lakriii/eshop-platform-main/internal/repository"
)

var (
	ErrCouponNotFound  = errors.New("coupon not found or inactive")
	ErrCouponExpired   = errors.New("coupon is outside its validity window")
	ErrCouponBelowMin  = errors.New("order total is below the coupon minimum")
	ErrCouponExhausted = errors.New("coupon has been exhausted")
	ErrCouponNotYours  = errors.New("coupon is not allowed for this account")
	ErrCouponUserLimit = errors.New("per-user limit for this coupon reached")
)

type CouponService struct {
	couponRepo repository.CouponRepository
}

func NewCouponService(couponRepo repository.CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Validate runs the full rule chain against the current usage table without
// consuming anything. Checks short-circuit in a fixed order: existence and
// active flag, validity window, minimum order total, total cap, allow-list,
// per-user cap. A nil tx reads outside any transaction.
func (s *CouponService) Validate(ctx context.Context, tx pgx.Tx, coupon *model.Coupon, userID *uuid.UUID, orderTotal decimal.Decimal) error {
	if coupon == nil || !coupon.Active {
		metrics.RecordCouponValidation("not_found")
		return ErrCouponNotFound
	}
	if !coupon.WithinDates(time.Now()) {
		metrics.RecordCouponValidation("expired")
		return ErrCouponExpired
	}
	if orderTotal.LessThan(coupon.MinOrderTotal) {
		metrics.RecordCouponValidation("below_minimum")
		return fmt.Errorf("%w: minimum is %s", ErrCouponBelowMin, coupon.MinOrderTotal.StringFixed(2))
	}
	if coupon.MaxUsesTotal > 0 {
		uses, err := s.couponRepo.CountUses(ctx, tx, coupon.ID)
		if err != nil {
			return fmt.Errorf("count uses: %w", err)
		}
		if uses >= coupon.MaxUsesTotal {
			metrics.RecordCouponValidation("exhausted")
			return ErrCouponExhausted
		}
	}
	allowed, err := s.couponRepo.AllowedUsers(ctx, tx, coupon.ID)
	if err != nil {
		return fmt.Errorf("get allowed users: %w", err)
	}
	if len(allowed) > 0 {
		if userID == nil || !containsID(allowed, *userID) {
			metrics.RecordCouponValidation("not_allowed")
			return ErrCouponNotYours
		}
	}
	if userID != nil && coupon.MaxUsesPerUser > 0 {
		userUses, err := s.couponRepo.CountUserUses(ctx, tx, coupon.ID, *userID)
		if err != nil {
			return fmt.Errorf("count user uses: %w", err)
		}
		if userUses >= coupon.MaxUsesPerUser {
			metrics.RecordCouponValidation("user_limit")
			return fmt.Errorf("%w: limit is %d", ErrCouponUserLimit, coupon.MaxUsesPerUser)
		}
	}
	metrics.RecordCouponValidation("valid")
	return nil
}

// ValidateCode looks the coupon up by code (case-insensitive) and validates
// it against the given total. Used by the cart preview endpoint.
func (s *CouponService) ValidateCode(ctx context.Context, code string, userID *uuid.UUID, orderTotal decimal.Decimal) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if err := s.Validate(ctx, nil, coupon, userID, orderTotal); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Consume re-validates under the coupon row lock, appends a usage record and
// deactivates the coupon when the total cap is reached. The usage table is
// the authoritative counter, so a fully consumed coupon can never be
// decremented past its cap by a concurrent transaction.
func (s *CouponService) Consume(ctx context.Context, tx pgx.Tx, code string, userID *uuid.UUID, orderTotal decimal.Decimal) (*model.Coupon, error) {
	coupon, err := s.couponRepo.LockByCode(ctx, tx, code)
	if err != nil {
		return nil, fmt.Errorf("lock coupon: %w", err)
	}
	if err := s.Validate(ctx, tx, coupon, userID, orderTotal); err != nil {
		return nil, err
	}

	usage := &model.CouponUsage{CouponID: coupon.ID, UserID: userID}
	if err := s.couponRepo.InsertUsage(ctx, tx, usage); err != nil {
		return nil, fmt.Errorf("insert usage: %w", err)
	}

	if coupon.MaxUsesTotal > 0 {
		uses, err := s.couponRepo.CountUses(ctx, tx, coupon.ID)
		if err != nil {
			return nil, fmt.Errorf("count uses: %w", err)
		}
		if uses >= coupon.MaxUsesTotal {
			if err := s.couponRepo.Deactivate(ctx, tx, coupon.ID); err != nil {
				return nil, fmt.Errorf("deactivate coupon: %w", err)
			}
		}
	}
	return coupon, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
