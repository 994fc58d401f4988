package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lakriii/eshop-platform-main/internal/model"
)

var allTables = []string{
	"payment_records", "order_items", "orders",
	"coupon_usages", "coupon_allowed_users", "coupons",
	"cart_items", "carts", "loyalty_profiles",
	"stocks", "product_variants", "products", "users",
}

func createTestUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email: email, Password: "hashed",
		FirstName: "Test", LastName: "User", Role: model.RoleCustomer,
	}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), user))
	return user
}

func createTestVariant(t *testing.T, name, sku string, price decimal.Decimal, stock int) uuid.UUID {
	t.Helper()
	product := &model.Product{Name: name, Slug: sku + "-slug", Price: price, Currency: "EUR", Active: true}
	variants := []model.ProductVariant{{SKU: sku, Stock: model.Stock{Quantity: stock}}}
	require.NoError(t, NewCatalogRepository(testPool).CreateProduct(context.Background(), product, variants))
	return variants[0].ID
}

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "test@example.com")
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCatalogRepo_VariantJoinsProductAndStock(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewCatalogRepository(testPool)
	ctx := context.Background()

	vid := createTestVariant(t, "Laptop", "LP-1", decimal.NewFromFloat(999.00), 10)

	variant, err := repo.GetVariant(ctx, vid)
	require.NoError(t, err)
	require.NotNil(t, variant)
	assert.Equal(t, "Laptop", variant.ProductName)
	assert.Equal(t, "LP-1", variant.SKU)
	assert.True(t, variant.EffectivePrice().Equal(decimal.NewFromFloat(999.00)))
	assert.Equal(t, 10, variant.Stock.Available())
}

func TestCatalogRepo_DecrementStockFloorsAtZero(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewCatalogRepository(testPool)
	ctx := context.Background()

	vid := createTestVariant(t, "Laptop", "LP-1", decimal.NewFromFloat(999.00), 3)

	tx, err := testPool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.DecrementStock(ctx, tx, vid, 5))
	require.NoError(t, tx.Commit(ctx))

	variant, err := repo.GetVariant(ctx, vid)
	require.NoError(t, err)
	assert.Equal(t, 0, variant.Stock.Quantity)
}

func TestCartRepo_UserAndSessionOwners(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewCartRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "cart@example.com")
	userCart, err := repo.GetOrCreateCart(ctx, model.CartOwner{UserID: &user.ID})
	require.NoError(t, err)

	again, err := repo.GetOrCreateCart(ctx, model.CartOwner{UserID: &user.ID})
	require.NoError(t, err)
	assert.Equal(t, userCart.ID, again.ID)

	guestCart, err := repo.GetOrCreateCart(ctx, model.CartOwner{SessionKey: "sess-1"})
	require.NoError(t, err)
	assert.NotEqual(t, userCart.ID, guestCart.ID)

	sameGuest, err := repo.GetOrCreateCart(ctx, model.CartOwner{SessionKey: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, guestCart.ID, sameGuest.ID)
}

func TestCartRepo_AddItemMergesLines(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewCartRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "merge@example.com")
	vid := createTestVariant(t, "Laptop", "LP-1", decimal.NewFromFloat(999.00), 10)

	cart, err := repo.GetOrCreateCart(ctx, model.CartOwner{UserID: &user.ID})
	require.NoError(t, err)

	require.NoError(t, repo.AddItem(ctx, &model.CartItem{
		CartID: cart.ID, VariantID: vid, Quantity: 1, Price: decimal.NewFromFloat(999.00),
	}))
	// Second add merges into the existing line; the original price snapshot wins.
	require.NoError(t, repo.AddItem(ctx, &model.CartItem{
		CartID: cart.ID, VariantID: vid, Quantity: 2, Price: decimal.NewFromFloat(1299.00),
	}))

	withItems, err := repo.GetCartWithItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, withItems.Items, 1)
	assert.Equal(t, 3, withItems.Items[0].Quantity)
	assert.True(t, withItems.Items[0].Price.Equal(decimal.NewFromFloat(999.00)))
}

func TestCouponRepo_UsageCounting(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewCouponRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "coupon@example.com")
	coupon := &model.Coupon{
		Code:               "SAVE10",
		DiscountPercentage: decimal.NewFromInt(10),
		Active:             true,
		MaxUsesTotal:       5,
	}
	require.NoError(t, repo.Create(ctx, coupon, []uuid.UUID{user.ID}))

	found, err := repo.GetByCode(ctx, "save10")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, coupon.ID, found.ID)

	allowed, err := repo.AllowedUsers(ctx, nil, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{user.ID}, allowed)

	tx, err := testPool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.InsertUsage(ctx, tx, &model.CouponUsage{CouponID: coupon.ID, UserID: &user.ID}))
	require.NoError(t, tx.Commit(ctx))

	uses, err := repo.CountUses(ctx, nil, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, uses)

	userUses, err := repo.CountUserUses(ctx, nil, coupon.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, userUses)
}

func TestLoyaltyRepo_PointsFlow(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewLoyaltyRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "points@example.com")

	profile, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, profile.Points)

	tx, err := testPool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.AddPoints(ctx, tx, user.ID, 250))

	balance, err := repo.LockPoints(ctx, tx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 250, balance)

	require.NoError(t, repo.DeductPoints(ctx, tx, user.ID, 200))
	require.NoError(t, tx.Commit(ctx))

	profile, err = repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, profile.Points)
}

func TestOrderRepo_CreateAndStatusCAS(t *testing.T) {
	cleanupTable(t, allTables...)

	repo := NewOrderRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "order@example.com")

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	order := &model.Order{
		UserID:          &user.ID,
		Status:          model.OrderStatusPendingPayment,
		Total:           decimal.NewFromFloat(1998.00),
		BillingName:     "Test User",
		BillingEmail:    "order@example.com",
		BillingPhone:    "+421900123456",
		BillingAddress:  "Hlavná 1, Bratislava 81101, SK",
		ShippingAddress: "Hlavná 1, Bratislava 81101, SK",
	}
	require.NoError(t, repo.Create(ctx, tx, order))
	require.NoError(t, repo.CreateItems(ctx, tx, order.ID, []model.OrderItem{
		{ProductName: "Laptop", SKU: "LP-1", Price: decimal.NewFromFloat(999.00), Quantity: 2},
	}))
	require.NoError(t, tx.Commit(ctx))

	found, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.OrderStatusPendingPayment, found.Status)
	require.Len(t, found.Items, 1)

	ok, err := repo.UpdateStatusFrom(ctx, order.ID, model.OrderStatusPendingPayment, model.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second attempt loses the CAS: the order is no longer pending.
	ok, err = repo.UpdateStatusFrom(ctx, order.ID, model.OrderStatusPendingPayment, model.OrderStatusPaid)
	require.NoError(t, err)
	assert.False(t, ok)
}
