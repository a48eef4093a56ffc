package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"storefront/config"
	"storefront/models"
)

// StatusRoutingKey is what the fulfilment system publishes status updates
// under on the order exchange.
const StatusRoutingKey = "order.status"

const (
	defaultPriority = 5
	highPriority    = 9
	maxPriority     = 10
)

var highValueOrder = decimal.NewFromInt(1000)

// Channel is the part of *amqp.Channel the service uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

type RabbitMQ struct {
	conn    *amqp.Connection
	Channel Channel
	cfg     *config.Config
	mu      sync.Mutex
}

func NewRabbitMQ(cfg *config.Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &RabbitMQ{conn: conn, Channel: ch, cfg: cfg}, nil
}

// NewWithChannel wraps an already open channel.
func NewWithChannel(ch Channel, cfg *config.Config) *RabbitMQ {
	return &RabbitMQ{Channel: ch, cfg: cfg}
}

func (r *RabbitMQ) deadLetterExchange() string {
	return r.cfg.DeadLetterQueue + "_exchange"
}

// SetupQueues declares the order exchange, the status queue bound to it,
// and the dead-letter exchange and queue that rejected status messages
// end up in.
func (r *RabbitMQ) SetupQueues() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.Channel.ExchangeDeclare(
		r.deadLetterExchange(),
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare dead-letter exchange: %w", err)
	}

	if _, err := r.Channel.QueueDeclare(
		r.cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return fmt.Errorf("declare dead-letter queue: %w", err)
	}

	if err := r.Channel.QueueBind(r.cfg.DeadLetterQueue, r.cfg.DeadLetterQueue, r.deadLetterExchange(), false, nil); err != nil {
		return fmt.Errorf("bind dead-letter queue: %w", err)
	}

	if err := r.Channel.ExchangeDeclare(
		r.cfg.OrderExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare order exchange: %w", err)
	}

	if _, err := r.Channel.QueueDeclare(
		r.cfg.OrderStatusQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-max-priority":            maxPriority,
			"x-dead-letter-exchange":    r.deadLetterExchange(),
			"x-dead-letter-routing-key": r.cfg.DeadLetterQueue,
		},
	); err != nil {
		return fmt.Errorf("declare status queue: %w", err)
	}

	if err := r.Channel.QueueBind(r.cfg.OrderStatusQueue, StatusRoutingKey, r.cfg.OrderExchange, false, nil); err != nil {
		return fmt.Errorf("bind status queue: %w", err)
	}

	return nil
}

// eventPriority puts large orders ahead of the rest.
func eventPriority(total decimal.Decimal) uint8 {
	if total.GreaterThan(highValueOrder) {
		return highPriority
	}
	return defaultPriority
}

// PublishOrderEvent publishes event as JSON under its type as routing key.
func (r *RabbitMQ) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		MessageId:    fmt.Sprintf("%s-%d", event.Type, event.OrderID),
		Body:         body,
		Priority:     eventPriority(event.Total),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Channel.PublishWithContext(ctx,
		r.cfg.OrderExchange,
		event.Type,
		false, // mandatory
		false, // immediate
		msg,
	)
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		_ = r.Channel.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
