package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Lakriii/eshop-platform-main/internal/model"
	"github.com/Lakriii/eshop-platform-main/internal/repository"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
	ErrOrderConflict     = errors.New("order is not in a state that allows this transition")
)

type OrderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// GetByID returns the order when requested by its owner or by staff.
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID, userID uuid.UUID, staff bool) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !staff && (order.UserID == nil || *order.UserID != userID) {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.ListByUserID(ctx, userID)
}

// Cancel moves a pending order out of the payment flow. Only the
// pending_payment -> cancelled edge of the status graph is allowed here.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, userID uuid.UUID, staff bool) (*model.Order, error) {
	order, err := s.GetByID(ctx, orderID, userID, staff)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, model.OrderStatusCancelled)
}

// Fulfill marks a paid order fulfilled. Staff only; gated by the handler.
func (s *OrderService) Fulfill(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.transition(ctx, order, model.OrderStatusFulfilled)
}

func (s *OrderService) transition(ctx context.Context, order *model.Order, to model.OrderStatus) (*model.Order, error) {
	if !model.CanTransition(order.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrOrderConflict, order.Status, to)
	}
	ok, err := s.orderRepo.UpdateStatusFrom(ctx, order.ID, order.Status, to)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !ok {
		return nil, ErrOrderConflict
	}
	order.Status = to
	return order, nil
}
