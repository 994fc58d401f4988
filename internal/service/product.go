package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Lakriii/eshop-platform-main/internal/dto"
	"github.com/Lakriii/eshop-platform-main/internal/model"
	"github.com/Lakriii/eshop-platform-main/internal/repository"
)

var ErrProductNotFound = errors.New("product not found")

const productCacheTTL = 60 * time.Second

type ProductService struct {
	catalogRepo repository.CatalogRepository
	redisClient *redis.Client
}

func NewProductService(catalogRepo repository.CatalogRepository, redisClient *redis.Client) *ProductService {
	return &ProductService{catalogRepo: catalogRepo, redisClient: redisClient}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	product := &model.Product{
		Name:        req.Name,
		Slug:        slugify(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Currency:    currency,
		Active:      true,
	}
	variants := make([]model.ProductVariant, 0, len(req.Variants))
	for _, v := range req.Variants {
		variants = append(variants, model.ProductVariant{
			SKU:   v.SKU,
			Price: v.Price,
			Stock: model.Stock{Quantity: v.Stock},
		})
	}
	if err := s.catalogRepo.CreateProduct(ctx, product, variants); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductResponse(product, variants)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	cacheKey := "product:" + id.String()

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.catalogRepo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	variants, err := s.catalogRepo.ListVariants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}

	resp := toProductResponse(product, variants)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}

	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	offset := (req.Page - 1) * req.Limit
	products, total, err := s.catalogRepo.ListProducts(ctx, req.Limit, offset, req.Search, req.Sort, req.Order)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	var items []dto.ProductResponse
	for _, p := range products {
		items = append(items, toProductResponse(&p, nil))
	}

	return &dto.ProductListResponse{Products: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.catalogRepo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := s.catalogRepo.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := toProductResponse(product, nil)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.catalogRepo.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, "product:"+id.String())
	}
}

func toProductResponse(p *model.Product, variants []model.ProductVariant) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		Currency:    p.Currency,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for i := range variants {
		v := &variants[i]
		resp.Variants = append(resp.Variants, dto.VariantResponse{
			ID:             v.ID,
			SKU:            v.SKU,
			Price:          v.EffectivePrice(),
			AvailableStock: v.Stock.Available(),
		})
	}
	return resp
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	return strings.Trim(slug, "-")
}
