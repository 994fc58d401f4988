package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lakriii/eshop-platform-main/internal/model"
)

type mockCartRepo struct {
	carts map[uuid.UUID]*model.Cart
	items map[uuid.UUID]*model.CartItem
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{
		carts: make(map[uuid.UUID]*model.Cart),
		items: make(map[uuid.UUID]*model.CartItem),
	}
}

func (m *mockCartRepo) GetOrCreateCart(_ context.Context, owner model.CartOwner) (*model.Cart, error) {
	for _, c := range m.carts {
		if owner.UserID != nil && c.UserID != nil && *c.UserID == *owner.UserID {
			return c, nil
		}
		if owner.UserID == nil && c.SessionKey != nil && *c.SessionKey == owner.SessionKey {
			return c, nil
		}
	}
	cart := &model.Cart{ID: uuid.New(), UserID: owner.UserID}
	if owner.UserID == nil {
		key := owner.SessionKey
		cart.SessionKey = &key
	}
	m.carts[cart.ID] = cart
	return cart, nil
}

func (m *mockCartRepo) GetCartWithItems(_ context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart, ok := m.carts[cartID]
	if !ok {
		return nil, nil
	}
	cart.Items = nil
	for _, item := range m.items {
		if item.CartID == cartID {
			cart.Items = append(cart.Items, *item)
		}
	}
	return cart, nil
}

// AddItem merges on (cart, variant) and keeps the first price snapshot, the
// same way the upsert in the real repository behaves.
func (m *mockCartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	for _, existing := range m.items {
		if existing.CartID == item.CartID && existing.VariantID == item.VariantID {
			existing.Quantity += item.Quantity
			return nil
		}
	}
	item.ID = uuid.New()
	m.items[item.ID] = item
	return nil
}

func (m *mockCartRepo) UpdateItem(_ context.Context, item *model.CartItem) error {
	if existing, ok := m.items[item.ID]; ok {
		existing.Quantity = item.Quantity
	}
	return nil
}

func (m *mockCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	delete(m.items, itemID)
	return nil
}

func (m *mockCartRepo) ClearCart(_ context.Context, _ pgx.Tx, cartID uuid.UUID) error {
	for id, item := range m.items {
		if item.CartID == cartID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *mockCartRepo) SetLastOrder(_ context.Context, _ pgx.Tx, cartID, orderID uuid.UUID) error {
	if cart, ok := m.carts[cartID]; ok {
		oid := orderID
		cart.LastOrderID = &oid
	}
	return nil
}

func userOwner() (model.CartOwner, uuid.UUID) {
	id := uuid.New()
	return model.CartOwner{UserID: &id}, id
}

func TestCartService_AddItem_SnapshotsPrice(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalog := newMockCatalogRepo()
	vid := catalog.addVariant("Laptop", "LP-1", decimal.NewFromFloat(999.00), 10)
	svc := NewCartService(cartRepo, catalog, NewCouponService(newMockCouponRepo()))

	owner, _ := userOwner()
	require.NoError(t, svc.AddItem(context.Background(), owner, vid, 2))

	cart, err := svc.GetCart(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].Price.Equal(decimal.NewFromFloat(999.00)))

	// A later catalog price change must not touch the snapshot.
	catalog.variants[vid].ProductPrice = decimal.NewFromFloat(1299.00)
	cart, _ = svc.GetCart(context.Background(), owner)
	assert.True(t, cart.Items[0].Price.Equal(decimal.NewFromFloat(999.00)))
}

func TestCartService_AddItem_MergesSameVariant(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalog := newMockCatalogRepo()
	vid := catalog.addVariant("Laptop", "LP-1", decimal.NewFromFloat(999.00), 10)
	svc := NewCartService(cartRepo, catalog, NewCouponService(newMockCouponRepo()))

	owner, _ := userOwner()
	require.NoError(t, svc.AddItem(context.Background(), owner, vid, 1))
	require.NoError(t, svc.AddItem(context.Background(), owner, vid, 2))

	cart, err := svc.GetCart(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestCartService_AddItem_VariantNotFound(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), newMockCatalogRepo(), NewCouponService(newMockCouponRepo()))
	owner, _ := userOwner()
	err := svc.AddItem(context.Background(), owner, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestCartService_UpdateItem_NotInOwnCart(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), newMockCatalogRepo(), NewCouponService(newMockCouponRepo()))
	owner, _ := userOwner()
	err := svc.UpdateItem(context.Background(), owner, uuid.New(), 5)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_DeleteItem(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalog := newMockCatalogRepo()
	vid := catalog.addVariant("Laptop", "LP-1", decimal.NewFromFloat(999.00), 10)
	svc := NewCartService(cartRepo, catalog, NewCouponService(newMockCouponRepo()))

	owner, _ := userOwner()
	require.NoError(t, svc.AddItem(context.Background(), owner, vid, 1))
	cart, _ := svc.GetCart(context.Background(), owner)
	require.Len(t, cart.Items, 1)

	require.NoError(t, svc.DeleteItem(context.Background(), owner, cart.Items[0].ID))
	assert.Empty(t, cartRepo.items)
}

func TestCartService_SessionCartIsSeparateFromUserCart(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalog := newMockCatalogRepo()
	vid := catalog.addVariant("Laptop", "LP-1", decimal.NewFromFloat(999.00), 10)
	svc := NewCartService(cartRepo, catalog, NewCouponService(newMockCouponRepo()))

	owner, _ := userOwner()
	guest := model.CartOwner{SessionKey: "sess-abc"}

	require.NoError(t, svc.AddItem(context.Background(), owner, vid, 1))
	require.NoError(t, svc.AddItem(context.Background(), guest, vid, 2))

	userCart, _ := svc.GetCart(context.Background(), owner)
	guestCart, _ := svc.GetCart(context.Background(), guest)
	require.Len(t, userCart.Items, 1)
	require.Len(t, guestCart.Items, 1)
	assert.Equal(t, 1, userCart.Items[0].Quantity)
	assert.Equal(t, 2, guestCart.Items[0].Quantity)
}

func TestCartService_PreviewCoupon(t *testing.T) {
	cartRepo := newMockCartRepo()
	catalog := newMockCatalogRepo()
	vid := catalog.addVariant("Laptop", "LP-1", decimal.NewFromFloat(999.00), 10)
	couponRepo := newMockCouponRepo()
	couponRepo.addCoupon(tenPercent())
	svc := NewCartService(cartRepo, catalog, NewCouponService(couponRepo))

	owner, userID := userOwner()
	require.NoError(t, svc.AddItem(context.Background(), owner, vid, 2))

	preview, err := svc.PreviewCoupon(context.Background(), owner, &userID, "SAVE10")
	require.NoError(t, err)
	assert.True(t, preview.DiscountAmount.Equal(decimal.NewFromFloat(199.80)))
	assert.True(t, preview.TotalAfterDiscount.Equal(decimal.NewFromFloat(1798.20)))
	// Preview never consumes a use.
	assert.Empty(t, couponRepo.usages)
}

func TestCartTotal(t *testing.T) {
	items := []model.CartItem{
		{Quantity: 2, Price: decimal.NewFromFloat(999.00)},
		{Quantity: 1, Price: decimal.NewFromFloat(49.50)},
	}
	assert.True(t, CartTotal(items).Equal(decimal.NewFromFloat(2047.50)))
	assert.True(t, CartTotal(nil).IsZero())
}
