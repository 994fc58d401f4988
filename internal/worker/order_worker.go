package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/Lakriii/eshop-platform-main/internal/model"
	"github.com/Lakriii/eshop-platform-main/internal/repository"
)

const (
	orderQueueName = "orders"
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.dlq"
	idempotencyTTL = 24 * time.Hour
)

// NotificationWorker consumes order-created events and sends the order
// confirmation. Delivery is at-least-once, so each order is marked in Redis
// after the confirmation goes out and duplicates are skipped.
type NotificationWorker struct {
	channel     *amqp.Channel
	orderRepo   repository.OrderRepository
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewNotificationWorker(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	redisClient *redis.Client,
	log *slog.Logger,
) *NotificationWorker {
	return &NotificationWorker{
		channel:     ch,
		orderRepo:   orderRepo,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(orderQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("notification worker started")
	return nil
}

func (w *NotificationWorker) Stop() { close(w.done) }

func (w *NotificationWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(msg.Body, &orderMsg); err != nil {
		w.log.Error("unmarshal order message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", orderMsg.OrderID, "email", orderMsg.Email)

	// Idempotency check via Redis
	idempotencyKey := "order_notified:" + orderMsg.OrderID.String()
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("order already notified, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.sendConfirmation(ctx, orderMsg); err != nil {
		log.Error("send order confirmation failed", "error", err)
		_ = msg.Nack(false, false) // -> DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("order confirmation sent")
}

func (w *NotificationWorker) sendConfirmation(ctx context.Context, orderMsg model.OrderMessage) error {
	order, err := w.orderRepo.GetByID(ctx, orderMsg.OrderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", orderMsg.OrderID)
	}

	// No SMTP gateway is wired up yet; the confirmation is emitted as a
	// structured log line carrying everything the mail template needs.
	// TODO: plug in the transactional mail provider once credentials exist.
	w.log.Info("order confirmation",
		"order_id", order.ID,
		"email", order.BillingEmail,
		"name", order.BillingName,
		"total", order.Total.StringFixed(2),
		"items", len(order.Items),
		"status", order.Status,
	)
	return nil
}
