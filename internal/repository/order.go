package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lakriii/eshop-platform-main/internal/model"
)

type OrderRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error
	CreateItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.OrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error)
	CreatePaymentRecord(ctx context.Context, record *model.PaymentRecord) error
	ListPaymentRecords(ctx context.Context, orderID uuid.UUID) ([]model.PaymentRecord, error)
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *pgOrderRepo) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, status, total, billing_name, billing_email, billing_phone,
		                     billing_address, shipping_address, coupon_id, used_loyalty_points, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.Status, order.Total,
		order.BillingName, order.BillingEmail, order.BillingPhone,
		order.BillingAddress, order.ShippingAddress, order.CouponID, order.UsedLoyaltyPoints,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) CreateItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.OrderItem) error {
	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = orderID
		_, err := tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_name, sku, price, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			items[i].ID, orderID, items[i].ProductName, items[i].SKU, items[i].Price, items[i].Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order := &model.Order{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, status, total, billing_name, billing_email, billing_phone,
		        billing_address, shipping_address, coupon_id, used_loyalty_points, created_at, updated_at
		 FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.UserID, &order.Status, &order.Total,
		&order.BillingName, &order.BillingEmail, &order.BillingPhone,
		&order.BillingAddress, &order.ShippingAddress, &order.CouponID, &order.UsedLoyaltyPoints,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, product_name, sku, price, quantity FROM order_items WHERE order_id = $1`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductName, &item.SKU, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, status, total, used_loyalty_points, created_at, updated_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		uid := userID
		o.UserID = &uid
		if err := rows.Scan(&o.ID, &o.Status, &o.Total, &o.UsedLoyaltyPoints, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateStatusFrom is a compare-and-swap on the status column; false means
// the order was no longer in the expected state.
func (r *pgOrderRepo) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *pgOrderRepo) CreatePaymentRecord(ctx context.Context, record *model.PaymentRecord) error {
	record.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payment_records (id, order_id, amount, status, created_at)
		 VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`,
		record.ID, record.OrderID, record.Amount, record.Status,
	).Scan(&record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment record: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) ListPaymentRecords(ctx context.Context, orderID uuid.UUID) ([]model.PaymentRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, amount, status, created_at FROM payment_records
		 WHERE order_id = $1 ORDER BY created_at`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payment records: %w", err)
	}
	defer rows.Close()

	var records []model.PaymentRecord
	for rows.Next() {
		var p model.PaymentRecord
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment record: %w", err)
		}
		records = append(records, p)
	}
	return records, nil
}
