package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lakriii/eshop-platform-main/internal/dto"
	"github.com/Lakriii/eshop-platform-main/internal/model"
	"github.com/Lakriii/eshop-platform-main/internal/repository"
)

var (
	ErrVariantNotFound  = errors.New("variant not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

type CartService struct {
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
	couponSvc   *CouponService
}

func NewCartService(cartRepo repository.CartRepository, catalogRepo repository.CatalogRepository, couponSvc *CouponService) *CartService {
	return &CartService{cartRepo: cartRepo, catalogRepo: catalogRepo, couponSvc: couponSvc}
}

func (s *CartService) GetCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	return s.cartRepo.GetCartWithItems(ctx, cart.ID)
}

// AddItem snapshots the variant's effective price at add time. Adding a
// variant already in the cart increments the existing line.
func (s *CartService) AddItem(ctx context.Context, owner model.CartOwner, variantID uuid.UUID, quantity int) error {
	variant, err := s.catalogRepo.GetVariant(ctx, variantID)
	if err != nil {
		return fmt.Errorf("get variant: %w", err)
	}
	if variant == nil {
		return ErrVariantNotFound
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, owner)
	if err != nil {
		return fmt.Errorf("get or create cart: %w", err)
	}

	return s.cartRepo.AddItem(ctx, &model.CartItem{
		CartID:    cart.ID,
		VariantID: variantID,
		Quantity:  quantity,
		Price:     variant.EffectivePrice(),
	})
}

func (s *CartService) UpdateItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID, quantity int) error {
	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return err
	}
	if !containsItem(cart.Items, itemID) {
		return ErrCartItemNotFound
	}
	return s.cartRepo.UpdateItem(ctx, &model.CartItem{ID: itemID, Quantity: quantity})
}

func (s *CartService) DeleteItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID) error {
	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return err
	}
	if !containsItem(cart.Items, itemID) {
		return ErrCartItemNotFound
	}
	return s.cartRepo.DeleteItem(ctx, itemID)
}

// PreviewCoupon validates a code against the current cart total without
// consuming a use. Nothing is recorded; consumption happens at checkout.
func (s *CartService) PreviewCoupon(ctx context.Context, owner model.CartOwner, userID *uuid.UUID, code string) (*dto.CouponPreviewResponse, error) {
	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	total := CartTotal(cart.Items)
	coupon, err := s.couponSvc.ValidateCode(ctx, code, userID, total)
	if err != nil {
		return nil, err
	}

	discount := coupon.DiscountAmount(total)
	return &dto.CouponPreviewResponse{
		Code:               coupon.Code,
		DiscountPercentage: coupon.DiscountPercentage,
		DiscountAmount:     discount,
		TotalAfterDiscount: total.Sub(discount),
	}, nil
}

// CartTotal sums the line totals of the price snapshots.
func CartTotal(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func containsItem(items []model.CartItem, id uuid.UUID) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}
