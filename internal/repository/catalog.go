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

type CatalogRepository interface {
	CreateProduct(ctx context.Context, product *model.Product, variants []model.ProductVariant) error
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, limit, offset int, search, sort, order string) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetVariant(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	ListVariants(ctx context.Context, productID uuid.UUID) ([]model.ProductVariant, error)
	LockStock(ctx context.Context, tx pgx.Tx, variantID uuid.UUID) (model.Stock, error)
	DecrementStock(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, quantity int) error
}

type pgCatalogRepo struct{ pool *pgxpool.Pool }

func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &pgCatalogRepo{pool: pool}
}

func (r *pgCatalogRepo) CreateProduct(ctx context.Context, product *model.Product, variants []model.ProductVariant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	product.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO products (id, name, slug, description, price, currency, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING created_at, updated_at`,
		product.ID, product.Name, product.Slug, product.Description, product.Price, product.Currency, product.Active,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	for i := range variants {
		variants[i].ID = uuid.New()
		variants[i].ProductID = product.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO product_variants (id, product_id, sku, price, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())`,
			variants[i].ID, product.ID, variants[i].SKU, variants[i].Price,
		)
		if err != nil {
			return fmt.Errorf("insert variant: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO stocks (variant_id, quantity, reserved) VALUES ($1, $2, 0)`,
			variants[i].ID, variants[i].Stock.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert stock: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *pgCatalogRepo) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p := &model.Product{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, description, price, currency, active, created_at, updated_at
		 FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Currency, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgCatalogRepo) ListProducts(ctx context.Context, limit, offset int, search, sort, order string) ([]model.Product, int, error) {
	allowedSorts := map[string]bool{"name": true, "price": true, "created_at": true}
	if !allowedSorts[sort] {
		sort = "created_at"
	}
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	var total int
	countQ := `SELECT COUNT(*) FROM products
		WHERE active AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')`
	if err := r.pool.QueryRow(ctx, countQ, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, name, slug, description, price, currency, active, created_at, updated_at
		FROM products
		WHERE active AND ($1 = '' OR name ILIKE '%%' || $1 || '%%' OR description ILIKE '%%' || $1 || '%%')
		ORDER BY %s %s LIMIT $2 OFFSET $3`, sort, order)

	rows, err := r.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Currency, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, nil
}

func (r *pgCatalogRepo) UpdateProduct(ctx context.Context, product *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE products SET name=$2, description=$3, price=$4, active=$5, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		product.ID, product.Name, product.Description, product.Price, product.Active,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgCatalogRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCatalogRepo) GetVariant(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	v := &model.ProductVariant{}
	err := r.pool.QueryRow(ctx,
		`SELECT v.id, v.product_id, v.sku, v.price, v.created_at, v.updated_at,
		        p.name, p.price, s.quantity, s.reserved
		 FROM product_variants v
		 JOIN products p ON p.id = v.product_id
		 JOIN stocks s ON s.variant_id = v.id
		 WHERE v.id = $1`, id,
	).Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &v.CreatedAt, &v.UpdatedAt,
		&v.ProductName, &v.ProductPrice, &v.Stock.Quantity, &v.Stock.Reserved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}
	v.Stock.VariantID = v.ID
	return v, nil
}

func (r *pgCatalogRepo) ListVariants(ctx context.Context, productID uuid.UUID) ([]model.ProductVariant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT v.id, v.product_id, v.sku, v.price, v.created_at, v.updated_at,
		        p.name, p.price, s.quantity, s.reserved
		 FROM product_variants v
		 JOIN products p ON p.id = v.product_id
		 JOIN stocks s ON s.variant_id = v.id
		 WHERE v.product_id = $1 ORDER BY v.sku`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []model.ProductVariant
	for rows.Next() {
		var v model.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &v.CreatedAt, &v.UpdatedAt,
			&v.ProductName, &v.ProductPrice, &v.Stock.Quantity, &v.Stock.Reserved); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		v.Stock.VariantID = v.ID
		variants = append(variants, v)
	}
	return variants, nil
}

// LockStock reads the stock row under FOR UPDATE so a concurrent checkout
// cannot sell the same units twice.
func (r *pgCatalogRepo) LockStock(ctx context.Context, tx pgx.Tx, variantID uuid.UUID) (model.Stock, error) {
	s := model.Stock{VariantID: variantID}
	err := tx.QueryRow(ctx,
		`SELECT quantity, reserved FROM stocks WHERE variant_id = $1 FOR UPDATE`, variantID,
	).Scan(&s.Quantity, &s.Reserved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, pgx.ErrNoRows
		}
		return s, fmt.Errorf("lock stock: %w", err)
	}
	return s, nil
}

func (r *pgCatalogRepo) DecrementStock(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, quantity int) error {
	ct, err := tx.Exec(ctx,
		`UPDATE stocks SET quantity = GREATEST(quantity - $2, 0) WHERE variant_id = $1`,
		variantID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("no stock row for variant %s", variantID)
	}
	return nil
}
