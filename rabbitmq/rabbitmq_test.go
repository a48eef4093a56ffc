package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/config"
	"storefront/models"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type binding struct {
	queue, key, exchange string
}

type fakeChannel struct {
	exchanges map[string]string
	queues    map[string]amqp.Table
	bindings  []binding
	published []published
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{exchanges: map[string]string{}, queues: map[string]amqp.Table{}}
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.exchanges[name] = kind
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, args amqp.Table) (amqp.Queue, error) {
	f.queues[name] = args
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	f.bindings = append(f.bindings, binding{name, key, exchange})
	return nil
}

func (f *fakeChannel) Qos(int, int, bool) error { return nil }

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.published = append(f.published, published{exchange, key, msg})
	return nil
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return make(chan amqp.Delivery), nil
}

func (f *fakeChannel) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		OrderExchange:    "storefront.orders",
		OrderStatusQueue: "storefront.order_status",
		DeadLetterQueue:  "storefront.dead_letter",
	}
}

func TestSetupQueues(t *testing.T) {
	ch := newFakeChannel()
	r := NewWithChannel(ch, testConfig())

	require.NoError(t, r.SetupQueues())

	assert.Equal(t, "topic", ch.exchanges["storefront.orders"])
	assert.Equal(t, "direct", ch.exchanges["storefront.dead_letter_exchange"])
	assert.Equal(t, "storefront.dead_letter_exchange", ch.queues["storefront.order_status"]["x-dead-letter-exchange"])
	assert.Contains(t, ch.bindings, binding{"storefront.order_status", StatusRoutingKey, "storefront.orders"})
	assert.Contains(t, ch.bindings, binding{"storefront.dead_letter", "storefront.dead_letter", "storefront.dead_letter_exchange"})
}

func TestPublishOrderEvent(t *testing.T) {
	ch := newFakeChannel()
	r := NewWithChannel(ch, testConfig())

	event := models.OrderEvent{
		OrderID:  12,
		UserID:   3,
		Type:     models.OrderEventCreated,
		Status:   models.OrderStatusPending,
		Total:    decimal.RequireFromString("1299.50"),
		Occurred: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, r.PublishOrderEvent(context.Background(), event))

	require.Len(t, ch.published, 1)
	p := ch.published[0]
	assert.Equal(t, "storefront.orders", p.exchange)
	assert.Equal(t, "order.created", p.key)
	assert.Equal(t, uint8(highPriority), p.msg.Priority)
	assert.Equal(t, amqp.Persistent, p.msg.DeliveryMode)
	assert.Equal(t, "order.created-12", p.msg.MessageId)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(p.msg.Body, &decoded))
	assert.Equal(t, 12.0, decoded["order_id"])
	assert.Equal(t, 1299.5, decoded["total"])
}

func TestEventPriority(t *testing.T) {
	assert.Equal(t, uint8(defaultPriority), eventPriority(decimal.RequireFromString("1000")))
	assert.Equal(t, uint8(highPriority), eventPriority(decimal.RequireFromString("1000.01")))
}
