package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lakriii/eshop-platform-main/internal/config"
	"github.com/Lakriii/eshop-platform-main/internal/model"
)

var testLoyaltyCfg = config.LoyaltyConfig{
	PointsPerStep:      100,
	PercentPerStep:     10,
	MaxDiscountPercent: 20,
	EarnRate:           10,
}

type mockLoyaltyRepo struct {
	points map[uuid.UUID]int
}

func newMockLoyaltyRepo() *mockLoyaltyRepo {
	return &mockLoyaltyRepo{points: make(map[uuid.UUID]int)}
}

func (m *mockLoyaltyRepo) GetOrCreate(_ context.Context, userID uuid.UUID) (*model.LoyaltyProfile, error) {
	return &model.LoyaltyProfile{UserID: userID, Points: m.points[userID]}, nil
}

func (m *mockLoyaltyRepo) LockPoints(_ context.Context, _ pgx.Tx, userID uuid.UUID) (int, error) {
	return m.points[userID], nil
}

func (m *mockLoyaltyRepo) AddPoints(_ context.Context, _ pgx.Tx, userID uuid.UUID, points int) error {
	m.points[userID] += points
	return nil
}

func (m *mockLoyaltyRepo) DeductPoints(_ context.Context, _ pgx.Tx, userID uuid.UUID, points int) error {
	if remaining := m.points[userID] - points; remaining > 0 {
		m.points[userID] = remaining
	} else {
		m.points[userID] = 0
	}
	return nil
}

func TestLoyaltyService_RedeemQuote(t *testing.T) {
	svc := NewLoyaltyService(newMockLoyaltyRepo(), testLoyaltyCfg)

	tests := []struct {
		balance     int
		wantPercent int64
		wantPoints  int
	}{
		{0, 0, 0},
		{99, 0, 0},
		{100, 10, 100},
		{199, 10, 100},
		{200, 20, 200},
		{250, 20, 200},
		{1000, 20, 200}, // capped at two steps
	}
	for _, tt := range tests {
		percent, consumed := svc.RedeemQuote(tt.balance)
		assert.True(t, percent.Equal(decimal.NewFromInt(tt.wantPercent)), "balance %d: percent %s", tt.balance, percent)
		assert.Equal(t, tt.wantPoints, consumed, "balance %d", tt.balance)
	}
}

func TestLoyaltyService_AccruedPoints(t *testing.T) {
	svc := NewLoyaltyService(newMockLoyaltyRepo(), testLoyaltyCfg)

	assert.Equal(t, 199, svc.AccruedPoints(decimal.NewFromFloat(1998.00)))
	assert.Equal(t, 199, svc.AccruedPoints(decimal.NewFromFloat(1999.99)))
	assert.Equal(t, 0, svc.AccruedPoints(decimal.NewFromFloat(9.99)))
	assert.Equal(t, 0, svc.AccruedPoints(decimal.Zero))
	assert.Equal(t, 0, svc.AccruedPoints(decimal.NewFromInt(-5)))
}

func TestLoyaltyService_Redeem_DeductsWholeStepsOnly(t *testing.T) {
	repo := newMockLoyaltyRepo()
	userID := uuid.New()
	repo.points[userID] = 250
	svc := NewLoyaltyService(repo, testLoyaltyCfg)

	percent, consumed, err := svc.Redeem(context.Background(), nil, userID)
	require.NoError(t, err)
	assert.True(t, percent.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 200, consumed)
	assert.Equal(t, 50, repo.points[userID])
}

func TestLoyaltyService_Redeem_NothingBelowOneStep(t *testing.T) {
	repo := newMockLoyaltyRepo()
	userID := uuid.New()
	repo.points[userID] = 99
	svc := NewLoyaltyService(repo, testLoyaltyCfg)

	percent, consumed, err := svc.Redeem(context.Background(), nil, userID)
	require.NoError(t, err)
	assert.True(t, percent.IsZero())
	assert.Zero(t, consumed)
	assert.Equal(t, 99, repo.points[userID])
}

func TestLoyaltyService_Accrue(t *testing.T) {
	repo := newMockLoyaltyRepo()
	userID := uuid.New()
	svc := NewLoyaltyService(repo, testLoyaltyCfg)

	earned, err := svc.Accrue(context.Background(), nil, userID, decimal.NewFromFloat(1598.40))
	require.NoError(t, err)
	assert.Equal(t, 159, earned)
	assert.Equal(t, 159, repo.points[userID])
}

func TestLoyaltyService_Balance_NewProfileStartsAtZero(t *testing.T) {
	svc := NewLoyaltyService(newMockLoyaltyRepo(), testLoyaltyCfg)
	points, err := svc.Balance(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, points)
}
