package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusDraft          OrderStatus = "draft"
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusFulfilled      OrderStatus = "fulfilled"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusDraft:          {OrderStatusPendingPayment: true},
	OrderStatusPendingPayment: {OrderStatusPaid: true, OrderStatusCancelled: true},
	OrderStatusPaid:           {OrderStatusFulfilled: true},
	OrderStatusFulfilled:      {},
	OrderStatusCancelled:      {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// Order is an immutable snapshot of a checkout. Billing/shipping fields and
// item rows are decoupled from later catalog changes.
type Order struct {
	ID                uuid.UUID
	UserID            *uuid.UUID
	Status            OrderStatus
	Total             decimal.Decimal
	BillingName       string
	BillingEmail      string
	BillingPhone      string
	BillingAddress    string
	ShippingAddress   string
	CouponID          *uuid.UUID
	UsedLoyaltyPoints int
	Items             []OrderItem
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductName string
	SKU         string
	Price       decimal.Decimal
	Quantity    int
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderMessage struct {
	OrderID uuid.UUID  `json:"order_id"`
	UserID  *uuid.UUID `json:"user_id,omitempty"`
	Email   string     `json:"email"`
}
