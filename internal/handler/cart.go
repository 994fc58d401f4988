package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Lakriii/eshop-platform-main/internal/dto"
	"github.com/Lakriii/eshop-platform-main/internal/middleware"
	"github.com/Lakriii/eshop-platform-main/internal/model"
	"github.com/Lakriii/eshop-platform-main/internal/service"
)

type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	owner, ok := middleware.CartOwner(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session key"})
		return
	}
	cart, err := h.svc.GetCart(c.Request.Context(), owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	owner, ok := middleware.CartOwner(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session key"})
		return
	}
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.AddItem(c.Request.Context(), owner, req.VariantID, req.Quantity); err != nil {
		if errors.Is(err, service.ErrVariantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "variant not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "item added"})
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	owner, ok := middleware.CartOwner(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session key"})
		return
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.UpdateItem(c.Request.Context(), owner, itemID, req.Quantity); err != nil {
		if errors.Is(err, service.ErrCartItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item updated"})
}

func (h *CartHandler) DeleteItem(c *gin.Context) {
	owner, ok := middleware.CartOwner(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session key"})
		return
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.DeleteItem(c.Request.Context(), owner, itemID); err != nil {
		if errors.Is(err, service.ErrCartItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// PreviewCoupon checks a code against the current cart without consuming it.
func (h *CartHandler) PreviewCoupon(c *gin.Context) {
	owner, ok := middleware.CartOwner(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session key"})
		return
	}
	var req dto.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	preview, err := h.svc.PreviewCoupon(c.Request.Context(), owner, middleware.UserIDPtr(c), req.Code)
	if err != nil {
		if reason, ok := couponReason(err); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, preview)
}

func toCartResponse(cart *model.Cart) dto.CartResponse {
	items := make([]dto.CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, dto.CartItemResponse{
			ID:        item.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.LineTotal(),
		})
	}
	return dto.CartResponse{ID: cart.ID, Items: items, Total: service.CartTotal(cart.Items)}
}

func couponReason(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, service.ErrCouponExpired),
		errors.Is(err, service.ErrCouponBelowMin),
		errors.Is(err, service.ErrCouponExhausted),
		errors.Is(err, service.ErrCouponNotYours),
		errors.Is(err, service.ErrCouponUserLimit):
		return err.Error(), true
	}
	return "", false
}
