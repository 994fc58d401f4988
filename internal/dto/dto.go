package dto

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lakriii/eshop-platform-main/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
}

// --- Product ---

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Currency    string          `json:"currency"`
	Variants    []VariantInput  `json:"variants" binding:"required,min=1,dive"`
}

type VariantInput struct {
	SKU   string           `json:"sku" binding:"required"`
	Price *decimal.Decimal `json:"price"`
	Stock int              `json:"stock" binding:"min=0"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Active      *bool            `json:"active"`
}

type ListProductsRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search string `form:"search"`
	Sort   string `form:"sort,default=created_at" binding:"oneof=name price created_at"`
	Order  string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type ProductResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price"`
	Currency    string            `json:"currency"`
	Active      bool              `json:"active"`
	Variants    []VariantResponse `json:"variants,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type VariantResponse struct {
	ID             uuid.UUID       `json:"id"`
	SKU            string          `json:"sku"`
	Price          decimal.Decimal `json:"price"`
	AvailableStock int             `json:"available_stock"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Cart ---

type AddCartItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type CartResponse struct {
	ID    uuid.UUID          `json:"id"`
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type CartItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	VariantID uuid.UUID       `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// --- Coupon ---

type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

type CouponPreviewResponse struct {
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	TotalAfterDiscount decimal.Decimal `json:"total_after_discount"`
}

type CreateCouponRequest struct {
	Code               string          `json:"code" binding:"required"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" binding:"required"`
	Active             bool            `json:"active"`
	ValidFrom          *time.Time      `json:"valid_from"`
	ValidTo            *time.Time      `json:"valid_to"`
	MaxUsesTotal       int             `json:"max_uses_total" binding:"min=0"`
	MaxUsesPerUser     int             `json:"max_uses_per_user" binding:"min=0"`
	MinOrderTotal      decimal.Decimal `json:"min_order_total"`
	AllowedUserIDs     []uuid.UUID     `json:"allowed_user_ids"`
}

type UpdateCouponRequest struct {
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	Active             *bool            `json:"active"`
	ValidFrom          *time.Time       `json:"valid_from"`
	ValidTo            *time.Time       `json:"valid_to"`
	MaxUsesTotal       *int             `json:"max_uses_total"`
	MaxUsesPerUser     *int             `json:"max_uses_per_user"`
	MinOrderTotal      *decimal.Decimal `json:"min_order_total"`
}

type CouponResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Active             bool            `json:"active"`
	ValidFrom          *time.Time      `json:"valid_from,omitempty"`
	ValidTo            *time.Time      `json:"valid_to,omitempty"`
	MaxUsesTotal       int             `json:"max_uses_total"`
	MaxUsesPerUser     int             `json:"max_uses_per_user"`
	MinOrderTotal      decimal.Decimal `json:"min_order_total"`
	TotalUses          int             `json:"total_uses"`
}

// --- Checkout ---

var (
	phoneRe    = regexp.MustCompile(`^\+?[0-9][0-9 ()/-]{5,19}$`)
	postcodeRe = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z -]{1,9}$`)
)

type CheckoutRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`

	BillingStreet   string `json:"billing_street" binding:"required"`
	BillingCity     string `json:"billing_city" binding:"required"`
	BillingPostcode string `json:"billing_postcode" binding:"required"`
	BillingCountry  string `json:"billing_country" binding:"required"`

	ShippingStreet   string `json:"shipping_street" binding:"required"`
	ShippingCity     string `json:"shipping_city" binding:"required"`
	ShippingPostcode string `json:"shipping_postcode" binding:"required"`
	ShippingCountry  string `json:"shipping_country" binding:"required"`

	CouponCode       string `json:"coupon_code"`
	UseLoyaltyPoints bool   `json:"use_loyalty_points"`
}

// FieldErrors runs the pattern checks gin's binding tags cannot express.
// An empty map means the request is structurally valid.
func (r *CheckoutRequest) FieldErrors() map[string]string {
	errs := make(map[string]string)
	if !phoneRe.MatchString(r.Phone) {
		errs["phone"] = "invalid phone number"
	}
	if !postcodeRe.MatchString(r.BillingPostcode) {
		errs["billing_postcode"] = "invalid postal code"
	}
	if !postcodeRe.MatchString(r.ShippingPostcode) {
		errs["shipping_postcode"] = "invalid postal code"
	}
	return errs
}

type CheckoutResponse struct {
	Order          OrderResponse   `json:"order"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	PointsDiscount decimal.Decimal `json:"points_discount"`
	PointsUsed     int             `json:"points_used"`
	PointsEarned   int             `json:"points_earned"`
	PaymentURL     string          `json:"payment_url"`
}

// --- Order ---

type OrderResponse struct {
	ID                uuid.UUID           `json:"id"`
	Status            model.OrderStatus   `json:"status"`
	Total             decimal.Decimal     `json:"total"`
	BillingName       string              `json:"billing_name"`
	BillingAddress    string              `json:"billing_address"`
	ShippingAddress   string              `json:"shipping_address"`
	UsedLoyaltyPoints int                 `json:"used_loyalty_points"`
	Items             []OrderItemResponse `json:"items"`
	CreatedAt         time.Time           `json:"created_at"`
}

type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

// --- Loyalty ---

type LoyaltyResponse struct {
	Points int `json:"points"`
}
