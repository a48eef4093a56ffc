package consumers

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/database"
	"storefront/models"
)

type settlement struct {
	acked, nacked, requeued bool
}

func (s *settlement) Ack(uint64, bool) error { s.acked = true; return nil }

func (s *settlement) Nack(_ uint64, _ bool, requeue bool) error {
	s.nacked = true
	s.requeued = requeue
	return nil
}

func (s *settlement) Reject(_ uint64, requeue bool) error {
	s.nacked = true
	s.requeued = requeue
	return nil
}

func delivery(body string, redelivered bool) (amqp.Delivery, *settlement) {
	s := &settlement{}
	return amqp.Delivery{Acknowledger: s, Body: []byte(body), Redelivered: redelivered}, s
}

// orderFixture returns a ready store holding one pending order.
func orderFixture(t *testing.T) (*database.Manager, *database.SQLStore, int64) {
	t.Helper()
	ctx := context.Background()
	store, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "orders.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	_, err = store.SeedSampleProducts(ctx)
	require.NoError(t, err)

	user := &models.User{Email: "fulfil@example.com", PasswordHash: "x"}
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.AddToCart(ctx, user.ID, 1, 1))
	receipt, err := store.CreateOrder(ctx, user.ID, models.CreateOrderRequest{})
	require.NoError(t, err)

	return database.NewReadyManager(store), store, receipt.OrderID
}

func TestStatusMessageApplied(t *testing.T) {
	manager, store, orderID := orderFixture(t)
	c := NewStatusConsumer(manager)

	msg, s := delivery(`{"order_id":`+itoa(orderID)+`,"status":"paid"}`, false)
	c.handle(context.Background(), msg)
	assert.True(t, s.acked)

	var status string
	require.NoError(t, store.DB().QueryRow("SELECT status FROM orders WHERE id = ?", orderID).Scan(&status))
	assert.Equal(t, "paid", status)
}

func TestStatusMessageRejections(t *testing.T) {
	manager, _, orderID := orderFixture(t)
	c := NewStatusConsumer(manager)
	id := itoa(orderID)

	cases := map[string]string{
		"malformed":      `not json`,
		"missing order":  `{"status":"paid"}`,
		"unknown status": `{"order_id":` + id + `,"status":"teleported"}`,
		"illegal move":   `{"order_id":` + id + `,"status":"delivered"}`,
		"no such order":  `{"order_id":9999,"status":"paid"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			msg, s := delivery(body, false)
			c.handle(context.Background(), msg)
			assert.True(t, s.nacked)
			assert.False(t, s.requeued)
			assert.False(t, s.acked)
		})
	}
}

func TestStatusMessageRequeuedWhileStoreNotReady(t *testing.T) {
	c := NewStatusConsumer(database.NewManager())

	msg, s := delivery(`{"order_id":1,"status":"paid"}`, false)
	c.handle(context.Background(), msg)
	assert.True(t, s.nacked)
	assert.True(t, s.requeued)

	msg, s = delivery(`{"order_id":1,"status":"paid"}`, true)
	c.handle(context.Background(), msg)
	assert.True(t, s.nacked)
	assert.False(t, s.requeued)
}

func TestDrainStopsWhenChannelCloses(t *testing.T) {
	msgs := make(chan amqp.Delivery, 2)
	first, s1 := delivery("a", false)
	second, s2 := delivery("b", false)
	msgs <- first
	msgs <- second
	close(msgs)

	done := make(chan struct{})
	go func() {
		drain(context.Background(), msgs, processDeadLetterMessage)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain did not return")
	}
	assert.True(t, s1.acked)
	assert.True(t, s2.acked)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
