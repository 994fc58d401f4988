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

type OrderHandler struct {
	orderSvc   *service.OrderService
	paymentSvc *service.PaymentService
}

func NewOrderHandler(orderSvc *service.OrderService, paymentSvc *service.PaymentService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, paymentSvc: paymentSvc}
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderSvc.ListByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var items []dto.OrderResponse
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{Orders: items, Total: len(items)})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	staff := middleware.GetUserRole(c) == model.RoleStaff
	order, err := h.orderSvc.GetByID(c.Request.Context(), orderID, middleware.GetUserID(c), staff)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Pay simulates the payment gateway callback: pending orders become paid.
func (h *OrderHandler) Pay(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, record, err := h.paymentSvc.ProcessPayment(c.Request.Context(), orderID)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":   toOrderResponse(order),
		"payment": gin.H{"id": record.ID, "amount": record.Amount, "status": record.Status},
	})
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	staff := middleware.GetUserRole(c) == model.RoleStaff
	order, err := h.orderSvc.Cancel(c.Request.Context(), orderID, middleware.GetUserID(c), staff)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Fulfill is the staff action that closes a paid order.
func (h *OrderHandler) Fulfill(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.orderSvc.Fulfill(c.Request.Context(), orderID)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// ListPayments returns the payment attempts recorded for one of the caller's
// orders.
func (h *OrderHandler) ListPayments(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	staff := middleware.GetUserRole(c) == model.RoleStaff
	if _, err := h.orderSvc.GetByID(c.Request.Context(), orderID, middleware.GetUserID(c), staff); err != nil {
		h.writeOrderError(c, err)
		return
	}

	records, err := h.paymentSvc.ListRecords(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	items := make([]gin.H, 0, len(records))
	for _, r := range records {
		items = append(items, gin.H{"id": r.ID, "amount": r.Amount, "status": r.Status, "created_at": r.CreatedAt})
	}
	c.JSON(http.StatusOK, gin.H{"payments": items})
}

func (h *OrderHandler) writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, service.ErrOrderAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, service.ErrOrderConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "order is not in a state that allows this action"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	var items []dto.OrderItemResponse
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ID:          item.ID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return dto.OrderResponse{
		ID:                order.ID,
		Status:            order.Status,
		Total:             order.Total,
		BillingName:       order.BillingName,
		BillingAddress:    order.BillingAddress,
		ShippingAddress:   order.ShippingAddress,
		UsedLoyaltyPoints: order.UsedLoyaltyPoints,
		Items:             items,
		CreatedAt:         order.CreatedAt,
	}
}
