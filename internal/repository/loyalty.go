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

type LoyaltyRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.LoyaltyProfile, error)
	LockPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)
	AddPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int) error
	DeductPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int) error
}

type pgLoyaltyRepo struct{ pool *pgxpool.Pool }

func NewLoyaltyRepository(pool *pgxpool.Pool) LoyaltyRepository {
	return &pgLoyaltyRepo{pool: pool}
}

func (r *pgLoyaltyRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.LoyaltyProfile, error) {
	p := &model.LoyaltyProfile{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO loyalty_profiles (user_id, points, updated_at) VALUES ($1, 0, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET user_id = loyalty_profiles.user_id
		 RETURNING points, updated_at`, userID,
	).Scan(&p.Points, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get or create loyalty profile: %w", err)
	}
	return p, nil
}

// LockPoints reads the balance under FOR UPDATE, creating the profile row
// first if the user has never earned points.
func (r *pgLoyaltyRepo) LockPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	var points int
	err := tx.QueryRow(ctx,
		`SELECT points FROM loyalty_profiles WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_, err = tx.Exec(ctx,
				`INSERT INTO loyalty_profiles (user_id, points, updated_at) VALUES ($1, 0, NOW())
				 ON CONFLICT (user_id) DO NOTHING`, userID,
			)
			if err != nil {
				return 0, fmt.Errorf("create loyalty profile: %w", err)
			}
			return 0, nil
		}
		return 0, fmt.Errorf("lock loyalty points: %w", err)
	}
	return points, nil
}

func (r *pgLoyaltyRepo) AddPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO loyalty_profiles (user_id, points, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET points = loyalty_profiles.points + $2, updated_at = NOW()`,
		userID, points,
	)
	if err != nil {
		return fmt.Errorf("add loyalty points: %w", err)
	}
	return nil
}

// DeductPoints floors the balance at zero; callers must have checked the
// balance under LockPoints in the same transaction.
func (r *pgLoyaltyRepo) DeductPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int) error {
	_, err := tx.Exec(ctx,
		`UPDATE loyalty_profiles SET points = GREATEST(points - $2, 0), updated_at = NOW() WHERE user_id = $1`,
		userID, points,
	)
	if err != nil {
		return fmt.Errorf("deduct loyalty points: %w", err)
	}
	return nil
}
