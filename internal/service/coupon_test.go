package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lakriii/eshop-platform-main/internal/model"
)

type mockCouponRepo struct {
	coupons map[uuid.UUID]*model.Coupon
	allowed map[uuid.UUID][]uuid.UUID
	usages  []model.CouponUsage
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{
		coupons: make(map[uuid.UUID]*model.Coupon),
		allowed: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mockCouponRepo) Create(_ context.Context, c *model.Coupon, allowedUserIDs []uuid.UUID) error {
	c.ID = uuid.New()
	m.coupons[c.ID] = c
	m.allowed[c.ID] = allowedUserIDs
	return nil
}

func (m *mockCouponRepo) Update(_ context.Context, c *model.Coupon) error {
	m.coupons[c.ID] = c
	return nil
}

func (m *mockCouponRepo) List(_ context.Context) ([]model.Coupon, error) {
	var out []model.Coupon
	for _, c := range m.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCouponRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Coupon, error) {
	return m.coupons[id], nil
}

func (m *mockCouponRepo) GetByCode(_ context.Context, code string) (*model.Coupon, error) {
	for _, c := range m.coupons {
		if strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCouponRepo) LockByCode(ctx context.Context, _ pgx.Tx, code string) (*model.Coupon, error) {
	return m.GetByCode(ctx, code)
}

func (m *mockCouponRepo) CountUses(_ context.Context, _ pgx.Tx, couponID uuid.UUID) (int, error) {
	count := 0
	for _, u := range m.usages {
		if u.CouponID == couponID {
			count++
		}
	}
	return count, nil
}

func (m *mockCouponRepo) CountUserUses(_ context.Context, _ pgx.Tx, couponID, userID uuid.UUID) (int, error) {
	count := 0
	for _, u := range m.usages {
		if u.CouponID == couponID && u.UserID != nil && *u.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockCouponRepo) AllowedUsers(_ context.Context, _ pgx.Tx, couponID uuid.UUID) ([]uuid.UUID, error) {
	return m.allowed[couponID], nil
}

func (m *mockCouponRepo) InsertUsage(_ context.Context, _ pgx.Tx, usage *model.CouponUsage) error {
	usage.ID = uuid.New()
	usage.UsedAt = time.Now()
	m.usages = append(m.usages, *usage)
	return nil
}

func (m *mockCouponRepo) Deactivate(_ context.Context, _ pgx.Tx, couponID uuid.UUID) error {
	if c, ok := m.coupons[couponID]; ok {
		c.Active = false
	}
	return nil
}

func (m *mockCouponRepo) addCoupon(c *model.Coupon) *model.Coupon {
	c.ID = uuid.New()
	m.coupons[c.ID] = c
	return c
}

func (m *mockCouponRepo) addUsage(couponID uuid.UUID, userID *uuid.UUID) {
	m.usages = append(m.usages, model.CouponUsage{
		ID: uuid.New(), CouponID: couponID, UserID: userID, UsedAt: time.Now(),
	})
}

func tenPercent() *model.Coupon {
	return &model.Coupon{
		Code:               "SAVE10",
		DiscountPercentage: decimal.NewFromInt(10),
		Active:             true,
	}
}

func TestCouponService_ValidateCode_UnknownCode(t *testing.T) {
	svc := NewCouponService(newMockCouponRepo())
	_, err := svc.ValidateCode(context.Background(), "NOPE", nil, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestCouponService_Validate_Inactive(t *testing.T) {
	repo := newMockCouponRepo()
	c := tenPercent()
	c.Active = false
	repo.addCoupon(c)
	svc := NewCouponService(repo)

	err := svc.Validate(context.Background(), nil, c, nil, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestCouponService_Validate_OutsideWindow(t *testing.T) {
	repo := newMockCouponRepo()
	svc := NewCouponService(repo)

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	notYet := tenPercent()
	notYet.ValidFrom = &future
	repo.addCoupon(notYet)
	assert.ErrorIs(t, svc.Validate(context.Background(), nil, notYet, nil, decimal.NewFromInt(100)), ErrCouponExpired)

	over := tenPercent()
	over.ValidTo = &past
	repo.addCoupon(over)
	assert.ErrorIs(t, svc.Validate(context.Background(), nil, over, nil, decimal.NewFromInt(100)), ErrCouponExpired)
}

func TestCouponService_Validate_BelowMinimum(t *testing.T) {
	repo := newMockCouponRepo()
	c := tenPercent()
	c.MinOrderTotal = decimal.NewFromInt(50)
	repo.addCoupon(c)
	svc := NewCouponService(repo)

	err := svc.Validate(context.Background(), nil, c, nil, decimal.NewFromFloat(49.99))
	assert.ErrorIs(t, err, ErrCouponBelowMin)

	err = svc.Validate(context.Background(), nil, c, nil, decimal.NewFromInt(50))
	assert.NoError(t, err)
}

func TestCouponService_Validate_TotalCap(t *testing.T) {
	repo := newMockCouponRepo()
	c := tenPercent()
	c.MaxUsesTotal = 2
	repo.addCoupon(c)
	svc := NewCouponService(repo)

	repo.addUsage(c.ID, nil)
	require.NoError(t, svc.Validate(context.Background(), nil, c, nil, decimal.NewFromInt(100)))

	repo.addUsage(c.ID, nil)
	assert.ErrorIs(t, svc.Validate(context.Background(), nil, c, nil, decimal.NewFromInt(100)), ErrCouponExhausted)
}

func TestCouponService_Validate_BelowMinimumChecksFirst(t *testing.T) {
	// An order below the minimum must not even reach the cap check.
	repo := newMockCouponRepo()
	c := tenPercent()
	c.MinOrderTotal = decimal.NewFromInt(100)
	c.MaxUsesTotal = 1
	repo.addCoupon(c)
	repo.addUsage(c.ID, nil)
	svc := NewCouponService(repo)

	err := svc.Validate(context.Background(), nil, c, nil, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrCouponBelowMin)
}

func TestCouponService_Validate_AllowList(t *testing.T) {
	repo := newMockCouponRepo()
	c := tenPercent()
	repo.addCoupon(c)
	insider := uuid.New()
	outsider := uuid.New()
	repo.allowed[c.ID] = []uuid.UUID{insider}
	svc := NewCouponService(repo)

	assert.NoError(t, svc.Validate(context.Background(), nil, c, &insider, decimal.NewFromInt(100)))
	assert.ErrorIs(t, svc.Validate(context.Background(), nil, c, &outsider, decimal.NewFromInt(100)), ErrCouponNotYours)
	// Anonymous shoppers can never use a restricted coupon.
	assert.ErrorIs(t, svc.Validate(context.Background(), nil, c, nil, decimal.NewFromInt(100)), ErrCouponNotYours)
}

func TestCouponService_Validate_PerUserCap(t *testing.T) {
	repo := newMockCouponRepo()
	c := tenPercent()
	c.MaxUsesPerUser = 1
	repo.addCoupon(c)
	svc := NewCouponService(repo)

	alice := uuid.New()
	bob := uuid.New()
	repo.addUsage(c.ID, &alice)

	assert.ErrorIs(t, svc.Validate(context.Background(), nil, c, &alice, decimal.NewFromInt(100)), ErrCouponUserLimit)
	// Other accounts are unaffected by alice's exhausted allowance.
	assert.NoError(t, svc.Validate(context.Background(), nil, c, &bob, decimal.NewFromInt(100)))
}

func TestCouponService_Consume_RecordsUsage(t *testing.T) {
	repo := newMockCouponRepo()
	c := tenPercent()
	repo.addCoupon(c)
	svc := NewCouponService(repo)

	userID := uuid.New()
	got, err := svc.Consume(context.Background(), nil, "save10", &userID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	require.Len(t, repo.usages, 1)
	assert.Equal(t, userID, *repo.usages[0].UserID)
	assert.True(t, c.Active)
}

func TestCouponService_Consume_DeactivatesAtCap(t *testing.T) {
	repo := newMockCouponRepo()
	c := tenPercent()
	c.MaxUsesTotal = 2
	repo.addCoupon(c)
	repo.addUsage(c.ID, nil)
	svc := NewCouponService(repo)

	_, err := svc.Consume(context.Background(), nil, "SAVE10", nil, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Len(t, repo.usages, 2)
	assert.False(t, c.Active)

	_, err = svc.Consume(context.Background(), nil, "SAVE10", nil, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrCouponNotFound)
}
