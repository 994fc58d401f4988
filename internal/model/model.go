package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

type Product struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	Currency    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductVariant is a purchasable SKU of a product. Price overrides the
// product price when set.
type ProductVariant struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	SKU       string
	Price     *decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time

	ProductName  string
	ProductPrice decimal.Decimal
	Stock        Stock
}

// EffectivePrice is the variant price, falling back to the product price.
func (v *ProductVariant) EffectivePrice() decimal.Decimal {
	if v.Price != nil {
		return *v.Price
	}
	return v.ProductPrice
}

// Stock is the single stock representation for a variant: one row, one
// lookup path.
type Stock struct {
	VariantID uuid.UUID
	Quantity  int
	Reserved  int
}

// Available is on-hand minus reserved, never negative.
func (s Stock) Available() int {
	if avail := s.Quantity - s.Reserved; avail > 0 {
		return avail
	}
	return 0
}

// CartOwner identifies a cart by authenticated user or by session key,
// mutually exclusive. Resolved by the caller per request; the core never
// reads ambient session state.
type CartOwner struct {
	UserID     *uuid.UUID
	SessionKey string
}

type Cart struct {
	ID          uuid.UUID
	UserID      *uuid.UUID
	SessionKey  *string
	LastOrderID *uuid.UUID
	Items       []CartItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CartItem holds a price snapshot taken at add time; it is not re-read from
// the catalog at checkout.
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	VariantID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type LoyaltyProfile struct {
	UserID    uuid.UUID
	Points    int
	UpdatedAt time.Time
}

type PaymentRecord struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Amount    decimal.Decimal
	Status    string
	CreatedAt time.Time
}
