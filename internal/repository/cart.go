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

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	GetCartWithItems(ctx context.Context, cartID uuid.UUID) (*model.Cart, error)
	AddItem(ctx context.Context, item *model.CartItem) error
	UpdateItem(ctx context.Context, item *model.CartItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearCart(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error
	SetLastOrder(ctx context.Context, tx pgx.Tx, cartID, orderID uuid.UUID) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

// GetOrCreateCart resolves the cart for an explicit owner token: the
// authenticated user id when present, the session key otherwise.
func (r *pgCartRepo) GetOrCreateCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	cart := &model.Cart{}
	var err error
	if owner.UserID != nil {
		err = r.pool.QueryRow(ctx,
			`SELECT id, user_id, session_key, last_order_id, created_at, updated_at
			 FROM carts WHERE user_id = $1`, *owner.UserID,
		).Scan(&cart.ID, &cart.UserID, &cart.SessionKey, &cart.LastOrderID, &cart.CreatedAt, &cart.UpdatedAt)
	} else {
		err = r.pool.QueryRow(ctx,
			`SELECT id, user_id, session_key, last_order_id, created_at, updated_at
			 FROM carts WHERE session_key = $1`, owner.SessionKey,
		).Scan(&cart.ID, &cart.UserID, &cart.SessionKey, &cart.LastOrderID, &cart.CreatedAt, &cart.UpdatedAt)
	}
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	cart.ID = uuid.New()
	cart.UserID = owner.UserID
	if owner.UserID == nil {
		cart.SessionKey = &owner.SessionKey
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO carts (id, user_id, session_key, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW()) RETURNING created_at, updated_at`,
		cart.ID, cart.UserID, cart.SessionKey,
	).Scan(&cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) GetCartWithItems(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, session_key, last_order_id, created_at, updated_at FROM carts WHERE id = $1`, cartID,
	).Scan(&cart.ID, &cart.UserID, &cart.SessionKey, &cart.LastOrderID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, cart_id, variant_id, quantity, price, created_at, updated_at
		 FROM cart_items WHERE cart_id = $1 ORDER BY created_at`, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.VariantID, &item.Quantity, &item.Price, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

// AddItem inserts a line or, when the variant is already in the cart, folds
// the quantity into the existing row. The price snapshot of the first add
// wins.
func (r *pgCartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	item.ID = uuid.New()
	query := `INSERT INTO cart_items (id, cart_id, variant_id, quantity, price, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			  ON CONFLICT (cart_id, variant_id) DO UPDATE SET quantity = cart_items.quantity + $4, updated_at = NOW()
			  RETURNING id, quantity, price, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, item.ID, item.CartID, item.VariantID, item.Quantity, item.Price).
		Scan(&item.ID, &item.Quantity, &item.Price, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) UpdateItem(ctx context.Context, item *model.CartItem) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE cart_items SET quantity = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		item.ID, item.Quantity,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) ClearCart(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *pgCartRepo) SetLastOrder(ctx context.Context, tx pgx.Tx, cartID, orderID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE carts SET last_order_id = $2, updated_at = NOW() WHERE id = $1`, cartID, orderID,
	)
	if err != nil {
		return fmt.Errorf("set last order: %w", err)
	}
	return nil
}
