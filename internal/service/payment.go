package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Lakriii/eshop-platform-main/internal/model"
	"github.com/Lakriii/eshop-platform-main/internal/repository"
)

// PaymentService is the simulated gateway: a pending order becomes paid and
// gets a payment record. There is no external call.
type PaymentService struct {
	orderRepo repository.OrderRepository
}

func NewPaymentService(orderRepo repository.OrderRepository) *PaymentService {
	return &PaymentService{orderRepo: orderRepo}
}

// ProcessPayment transitions pending_payment -> paid. Any other starting
// status is a conflict and nothing is written.
func (s *PaymentService) ProcessPayment(ctx context.Context, orderID uuid.UUID) (*model.Order, *model.PaymentRecord, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}
	if order.Status != model.OrderStatusPendingPayment {
		return nil, nil, ErrOrderConflict
	}

	ok, err := s.orderRepo.UpdateStatusFrom(ctx, orderID, model.OrderStatusPendingPayment, model.OrderStatusPaid)
	if err != nil {
		return nil, nil, fmt.Errorf("mark paid: %w", err)
	}
	if !ok {
		// Lost the race with another payment attempt.
		return nil, nil, ErrOrderConflict
	}

	record := &model.PaymentRecord{
		OrderID: order.ID,
		Amount:  order.Total,
		Status:  "success",
	}
	if err := s.orderRepo.CreatePaymentRecord(ctx, record); err != nil {
		return nil, nil, fmt.Errorf("create payment record: %w", err)
	}

	order.Status = model.OrderStatusPaid
	return order, record, nil
}

func (s *PaymentService) ListRecords(ctx context.Context, orderID uuid.UUID) ([]model.PaymentRecord, error) {
	return s.orderRepo.ListPaymentRecords(ctx, orderID)
}
