package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Lakriii/eshop-platform-main/internal/config"
	"github.com/Lakriii/eshop-platform-main/internal/repository"
)

// LoyaltyService applies the point policy: every PointsPerStep points buy
// PercentPerStep percent of discount, capped at MaxDiscountPercent; points
// are consumed only in whole steps, the remainder stays on the balance.
type LoyaltyService struct {
	loyaltyRepo repository.LoyaltyRepository
	cfg         config.LoyaltyConfig
}

func NewLoyaltyService(loyaltyRepo repository.LoyaltyRepository, cfg config.LoyaltyConfig) *LoyaltyService {
	return &LoyaltyService{loyaltyRepo: loyaltyRepo, cfg: cfg}
}

func (s *LoyaltyService) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	profile, err := s.loyaltyRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get loyalty profile: %w", err)
	}
	return profile.Points, nil
}

// RedeemQuote computes the discount a balance buys without touching storage.
func (s *LoyaltyService) RedeemQuote(balance int) (percent decimal.Decimal, consumed int) {
	steps := balance / s.cfg.PointsPerStep
	maxSteps := s.cfg.MaxDiscountPercent / s.cfg.PercentPerStep
	if steps > maxSteps {
		steps = maxSteps
	}
	return decimal.NewFromInt(int64(steps * s.cfg.PercentPerStep)), steps * s.cfg.PointsPerStep
}

// AccruedPoints is floor(total / EarnRate) on the final post-discount total.
func (s *LoyaltyService) AccruedPoints(finalTotal decimal.Decimal) int {
	if finalTotal.Sign() <= 0 {
		return 0
	}
	return int(finalTotal.Div(decimal.NewFromInt(int64(s.cfg.EarnRate))).IntPart())
}

// Redeem locks the balance inside the checkout transaction, computes the
// quote and deducts the consumed points. The deduction can never exceed the
// locked balance.
func (s *LoyaltyService) Redeem(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (percent decimal.Decimal, consumed int, err error) {
	balance, err := s.loyaltyRepo.LockPoints(ctx, tx, userID)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("lock points: %w", err)
	}
	percent, consumed = s.RedeemQuote(balance)
	if consumed == 0 {
		return decimal.Zero, 0, nil
	}
	if err := s.loyaltyRepo.DeductPoints(ctx, tx, userID, consumed); err != nil {
		return decimal.Zero, 0, fmt.Errorf("deduct points: %w", err)
	}
	return percent, consumed, nil
}

// Accrue adds points for a completed order within the same transaction.
func (s *LoyaltyService) Accrue(ctx context.Context, tx pgx.Tx, userID uuid.UUID, finalTotal decimal.Decimal) (int, error) {
	points := s.AccruedPoints(finalTotal)
	if points == 0 {
		return 0, nil
	}
	if err := s.loyaltyRepo.AddPoints(ctx, tx, userID, points); err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}
	return points, nil
}
