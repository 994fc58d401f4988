package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/Lakriii/eshop-platform-main/internal/dto"
	"github.com/Lakriii/eshop-platform-main/internal/metrics"
	"github.com/Lakriii/eshop-platform-main/internal/model"
	"github.com/Lakriii/eshop-platform-main/internal/repository"
)

var ErrEmptyCart = errors.New("cart is empty")

// ValidationError carries field-level errors for the checkout form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid checkout fields: %d problems", len(e.Fields))
}

// InsufficientStockError names the offending product and what is left.
type InsufficientStockError struct {
	ProductName string
	SKU         string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): %d available", e.ProductName, e.SKU, e.Available)
}

type CheckoutResult struct {
	Order          *model.Order
	CouponDiscount decimal.Decimal
	PointsDiscount decimal.Decimal
	PointsUsed     int
	PointsEarned   int
}

// CheckoutService runs the whole order-creation pipeline in one database
// transaction: coupon consumption, loyalty redemption, stock verification
// and decrement, order and item snapshots, accrual, cart clearing. Any
// failure past the entry guards rolls everything back.
type CheckoutService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
	couponSvc   *CouponService
	loyaltySvc  *LoyaltyService
	amqpCh      *amqp.Channel
}

func NewCheckoutService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	catalogRepo repository.CatalogRepository,
	couponSvc *CouponService,
	loyaltySvc *LoyaltyService,
	amqpCh *amqp.Channel,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		couponSvc:   couponSvc,
		loyaltySvc:  loyaltySvc,
		amqpCh:      amqpCh,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, owner model.CartOwner, req dto.CheckoutRequest) (*CheckoutResult, error) {
	start := time.Now()
	result, err := s.checkout(ctx, owner, req)
	if err != nil {
		metrics.ObserveCheckout("failed", start)
		return nil, err
	}
	metrics.ObserveCheckout("success", start)
	metrics.OrdersCreated.Inc()
	return result, nil
}

func (s *CheckoutService) checkout(ctx context.Context, owner model.CartOwner, req dto.CheckoutRequest) (*CheckoutResult, error) {
	// Entry guard: no transaction for an empty cart.
	cart, err := s.cartRepo.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	cart, err = s.cartRepo.GetCartWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if fieldErrs := req.FieldErrors(); len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	total := CartTotal(cart.Items)

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	res := &CheckoutResult{
		CouponDiscount: decimal.Zero,
		PointsDiscount: decimal.Zero,
	}

	// Coupon first, against the pre-discount cart total. Consumption happens
	// here; a rollback below also rolls the usage record back.
	var coupon *model.Coupon
	if req.CouponCode != "" {
		coupon, err = s.couponSvc.Consume(ctx, tx, req.CouponCode, owner.UserID, total)
		if err != nil {
			return nil, err
		}
		res.CouponDiscount = coupon.DiscountAmount(total)
		total = total.Sub(res.CouponDiscount)
	}

	// Loyalty redemption next, so the order row is written with a total that
	// already reflects it.
	if req.UseLoyaltyPoints && owner.UserID != nil {
		percent, consumed, err := s.loyaltySvc.Redeem(ctx, tx, *owner.UserID)
		if err != nil {
			return nil, err
		}
		if consumed > 0 {
			res.PointsDiscount = total.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
			total = total.Sub(res.PointsDiscount)
			res.PointsUsed = consumed
		}
	}
	if total.Sign() < 0 {
		total = decimal.Zero
	}

	// Stock verification under row locks; the first shortage aborts the
	// whole checkout before anything is written.
	items := make([]model.OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		variant, err := s.catalogRepo.GetVariant(ctx, ci.VariantID)
		if err != nil {
			return nil, fmt.Errorf("get variant: %w", err)
		}
		if variant == nil {
			return nil, ErrVariantNotFound
		}
		stock, err := s.catalogRepo.LockStock(ctx, tx, ci.VariantID)
		if err != nil {
			return nil, fmt.Errorf("lock stock: %w", err)
		}
		if ci.Quantity > stock.Available() {
			return nil, &InsufficientStockError{
				ProductName: variant.ProductName,
				SKU:         variant.SKU,
				Available:   stock.Available(),
			}
		}
		items = append(items, model.OrderItem{
			ProductName: variant.ProductName,
			SKU:         variant.SKU,
			Price:       ci.Price,
			Quantity:    ci.Quantity,
		})
	}

	order := &model.Order{
		UserID:            owner.UserID,
		Status:            model.OrderStatusPendingPayment,
		Total:             total,
		BillingName:       req.FullName,
		BillingEmail:      req.Email,
		BillingPhone:      req.Phone,
		BillingAddress:    joinAddress(req.BillingStreet, req.BillingCity, req.BillingPostcode, req.BillingCountry),
		ShippingAddress:   joinAddress(req.ShippingStreet, req.ShippingCity, req.ShippingPostcode, req.ShippingCountry),
		UsedLoyaltyPoints: res.PointsUsed,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}
	if err := s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if err := s.orderRepo.CreateItems(ctx, tx, order.ID, items); err != nil {
		return nil, fmt.Errorf("create order items: %w", err)
	}
	order.Items = items

	for _, ci := range cart.Items {
		if err := s.catalogRepo.DecrementStock(ctx, tx, ci.VariantID, ci.Quantity); err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
	}

	// Accrual on the final total, authenticated users only.
	if owner.UserID != nil {
		earned, err := s.loyaltySvc.Accrue(ctx, tx, *owner.UserID, total)
		if err != nil {
			return nil, err
		}
		res.PointsEarned = earned
	}

	if err := s.cartRepo.ClearCart(ctx, tx, cart.ID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	if err := s.cartRepo.SetLastOrder(ctx, tx, cart.ID, order.ID); err != nil {
		return nil, fmt.Errorf("set last order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	s.publishOrderCreated(ctx, order)
	res.Order = order
	return res, nil
}

// publishOrderCreated hands the committed order to the notification worker.
// Best-effort: the order exists regardless of broker availability.
func (s *CheckoutService) publishOrderCreated(ctx context.Context, order *model.Order) {
	if s.amqpCh == nil {
		return
	}
	msg, _ := json.Marshal(model.OrderMessage{
		OrderID: order.ID,
		UserID:  order.UserID,
		Email:   order.BillingEmail,
	})
	_ = s.amqpCh.PublishWithContext(ctx, "", orderQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
}

const orderQueueName = "orders"

func joinAddress(street, city, postcode, country string) string {
	return fmt.Sprintf("%s, %s %s, %s", street, city, postcode, country)
}
