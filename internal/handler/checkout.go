package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lakriii/eshop-platform-main/internal/dto"
	"github.com/Lakriii/eshop-platform-main/internal/middleware"
	"github.com/Lakriii/eshop-platform-main/internal/service"
)

type CheckoutHandler struct {
	svc *service.CheckoutService
}

func NewCheckoutHandler(svc *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) Checkout(c *gin.Context) {
	owner, ok := middleware.CartOwner(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session key"})
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Checkout(c.Request.Context(), owner, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CheckoutResponse{
		Order:          toOrderResponse(result.Order),
		CouponDiscount: result.CouponDiscount,
		PointsDiscount: result.PointsDiscount,
		PointsUsed:     result.PointsUsed,
		PointsEarned:   result.PointsEarned,
		PaymentURL:     fmt.Sprintf("/api/v1/orders/%s/pay", result.Order.ID),
	})
}

func (h *CheckoutHandler) writeError(c *gin.Context, err error) {
	var valErr *service.ValidationError
	var stockErr *service.InsufficientStockError

	switch {
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty", "redirect": "/api/v1/cart"})
	case errors.As(err, &valErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid checkout fields", "fields": valErr.Fields})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":         stockErr.Error(),
			"product":       stockErr.ProductName,
			"sku":           stockErr.SKU,
			"max_available": stockErr.Available,
		})
	case errors.Is(err, service.ErrVariantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "variant not found"})
	default:
		if reason, ok := couponReason(err); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
