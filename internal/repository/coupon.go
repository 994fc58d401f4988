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

// Methods taking a pgx.Tx run inside the checkout transaction; a nil tx on
// the count/allow methods falls back to the pool for out-of-transaction
// validation.
type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon, allowedUserIDs []uuid.UUID) error
	Update(ctx context.Context, coupon *model.Coupon) error
	List(ctx context.Context) ([]model.Coupon, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	LockByCode(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error)
	CountUses(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (int, error)
	CountUserUses(ctx context.Context, tx pgx.Tx, couponID, userID uuid.UUID) (int, error)
	AllowedUsers(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) ([]uuid.UUID, error)
	InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error
	Deactivate(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) error
}

type pgCouponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepository(pool *pgxpool.Pool) CouponRepository {
	return &pgCouponRepo{pool: pool}
}

const couponColumns = `id, code, discount_percentage, active, valid_from, valid_to,
	max_uses_total, max_uses_per_user, min_order_total, created_at, updated_at`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	c := &model.Coupon{}
	err := row.Scan(&c.ID, &c.Code, &c.DiscountPercentage, &c.Active, &c.ValidFrom, &c.ValidTo,
		&c.MaxUsesTotal, &c.MaxUsesPerUser, &c.MinOrderTotal, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *pgCouponRepo) Create(ctx context.Context, coupon *model.Coupon, allowedUserIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	coupon.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO coupons (id, code, discount_percentage, active, valid_from, valid_to,
		                      max_uses_total, max_uses_per_user, min_order_total, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()) RETURNING created_at, updated_at`,
		coupon.ID, coupon.Code, coupon.DiscountPercentage, coupon.Active, coupon.ValidFrom, coupon.ValidTo,
		coupon.MaxUsesTotal, coupon.MaxUsesPerUser, coupon.MinOrderTotal,
	).Scan(&coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}

	for _, userID := range allowedUserIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO coupon_allowed_users (coupon_id, user_id) VALUES ($1, $2)`,
			coupon.ID, userID,
		); err != nil {
			return fmt.Errorf("insert allowed user: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *pgCouponRepo) Update(ctx context.Context, coupon *model.Coupon) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE coupons SET discount_percentage=$2, active=$3, valid_from=$4, valid_to=$5,
		        max_uses_total=$6, max_uses_per_user=$7, min_order_total=$8, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		coupon.ID, coupon.DiscountPercentage, coupon.Active, coupon.ValidFrom, coupon.ValidTo,
		coupon.MaxUsesTotal, coupon.MaxUsesPerUser, coupon.MinOrderTotal,
	).Scan(&coupon.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update coupon: %w", err)
	}
	return nil
}

func (r *pgCouponRepo) List(ctx context.Context) ([]model.Coupon, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	return coupons, nil
}

func (r *pgCouponRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	c, err := scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return c, nil
}

func (r *pgCouponRepo) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	c, err := scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE LOWER(code) = LOWER($1)`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by code: %w", err)
	}
	return c, nil
}

// LockByCode holds the coupon row for the rest of the transaction so two
// concurrent consumes of the same coupon serialize on the cap check.
func (r *pgCouponRepo) LockByCode(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error) {
	c, err := scanCoupon(tx.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE LOWER(code) = LOWER($1) FOR UPDATE`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock coupon: %w", err)
	}
	return c, nil
}

func (r *pgCouponRepo) CountUses(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1`
	var err error
	if tx != nil {
		err = tx.QueryRow(ctx, query, couponID).Scan(&count)
	} else {
		err = r.pool.QueryRow(ctx, query, couponID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count coupon uses: %w", err)
	}
	return count, nil
}

func (r *pgCouponRepo) CountUserUses(ctx context.Context, tx pgx.Tx, couponID, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2`
	var err error
	if tx != nil {
		err = tx.QueryRow(ctx, query, couponID, userID).Scan(&count)
	} else {
		err = r.pool.QueryRow(ctx, query, couponID, userID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count user coupon uses: %w", err)
	}
	return count, nil
}

func (r *pgCouponRepo) AllowedUsers(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT user_id FROM coupon_allowed_users WHERE coupon_id = $1`
	var rows pgx.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(ctx, query, couponID)
	} else {
		rows, err = r.pool.Query(ctx, query, couponID)
	}
	if err != nil {
		return nil, fmt.Errorf("get allowed users: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan allowed user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *pgCouponRepo) InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error {
	usage.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO coupon_usages (id, coupon_id, user_id, used_at)
		 VALUES ($1, $2, $3, NOW()) RETURNING used_at`,
		usage.ID, usage.CouponID, usage.UserID,
	).Scan(&usage.UsedAt)
	if err != nil {
		return fmt.Errorf("insert coupon usage: %w", err)
	}
	return nil
}

func (r *pgCouponRepo) Deactivate(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE coupons SET active = false, updated_at = NOW() WHERE id = $1`, couponID,
	)
	if err != nil {
		return fmt.Errorf("deactivate coupon: %w", err)
	}
	return nil
}
