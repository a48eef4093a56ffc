package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"storefront/config"
	"storefront/database"
	"storefront/logger"
	"storefront/middlewares"
	"storefront/models"
	"storefront/rabbitmq"
)

// StoreProvider hands out the store once it is ready.
type StoreProvider interface {
	Store() (database.Store, error)
}

type outcome int

const (
	ack outcome = iota
	reject
	requeue
)

// StatusConsumer applies order status updates published by the
// fulfilment system.
type StatusConsumer struct {
	stores StoreProvider
}

func NewStatusConsumer(stores StoreProvider) *StatusConsumer {
	return &StatusConsumer{stores: stores}
}

// StartOrderConsumer consumes the status queue and the dead-letter queue
// until ctx is cancelled or the channel closes.
func StartOrderConsumer(ctx context.Context, ch rabbitmq.Channel, cfg *config.Config, stores StoreProvider) error {
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	msgs, err := ch.Consume(
		cfg.OrderStatusQueue,
		"storefront-status", // consumer tag
		false,               // auto-ack
		false,               // exclusive
		false,               // no-local
		false,               // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", cfg.OrderStatusQueue, err)
	}

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"storefront-dlq", // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,
	)
	if err != nil {
		logger.Log.Warn("Failed to register dead-letter consumer", zap.Error(err))
	}

	consumer := NewStatusConsumer(stores)
	go consumer.run(ctx, msgs)
	if dlqMsgs != nil {
		go drain(ctx, dlqMsgs, processDeadLetterMessage)
	}
	return nil
}

func (s *StatusConsumer) run(ctx context.Context, msgs <-chan amqp.Delivery) {
	drain(ctx, msgs, func(msg amqp.Delivery) { s.handle(ctx, msg) })
}

func drain(ctx context.Context, msgs <-chan amqp.Delivery, fn func(amqp.Delivery)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			fn(msg)
		}
	}
}

func (s *StatusConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("Recovered from panic in status message processing", zap.Any("panic", r))
			_ = msg.Nack(false, false)
		}
	}()

	var err error
	switch s.processStatusMessage(ctx, msg) {
	case ack:
		err = msg.Ack(false)
	case reject:
		err = msg.Nack(false, false)
	case requeue:
		err = msg.Nack(false, true)
	}
	if err != nil {
		logger.Log.Warn("Failed to settle status message", zap.Error(err))
	}
}

// processStatusMessage decides the fate of one status update. Malformed
// messages and illegal transitions are dead-lettered; transient failures
// are retried once.
func (s *StatusConsumer) processStatusMessage(ctx context.Context, msg amqp.Delivery) outcome {
	var update models.OrderStatusUpdate
	if err := json.Unmarshal(msg.Body, &update); err != nil || update.OrderID <= 0 {
		logger.Log.Warn("Invalid status message", zap.ByteString("body", msg.Body))
		return reject
	}
	status, err := models.ParseOrderStatus(string(update.Status))
	if err != nil {
		logger.Log.Warn("Invalid order status", zap.Int64("order_id", update.OrderID), zap.Error(err))
		return reject
	}

	store, err := s.stores.Store()
	if err != nil {
		logger.Log.Warn("Store not ready for status update", zap.Error(err))
		return retry(msg)
	}

	previous, err := store.UpdateOrderStatus(ctx, update.OrderID, status)
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, database.ErrInvalidTransition):
		logger.Log.Warn("Rejected status update",
			zap.Int64("order_id", update.OrderID), zap.String("status", string(status)), zap.Error(err))
		middlewares.RecordOrderOperation("status_update", false)
		return reject
	case err != nil:
		logger.Log.Error("Failed to update order status", zap.Int64("order_id", update.OrderID), zap.Error(err))
		middlewares.RecordOrderOperation("status_update", false)
		return retry(msg)
	}

	logger.Log.Info("Order status updated",
		zap.Int64("order_id", update.OrderID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))
	middlewares.RecordOrderOperation("status_update", true)
	return ack
}

func retry(msg amqp.Delivery) outcome {
	if msg.Redelivered {
		return reject
	}
	return requeue
}

func processDeadLetterMessage(msg amqp.Delivery) {
	logger.Log.Warn("Received dead letter",
		zap.ByteString("body", msg.Body),
		zap.String("routing_key", msg.RoutingKey))
	if err := msg.Ack(false); err != nil {
		logger.Log.Warn("Failed to ack dead letter", zap.Error(err))
	}
}
