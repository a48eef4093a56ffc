package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/config"
	"storefront/models"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewMySQLStore(db), mock
}

var cartLockColumns = []string{"product_id", "quantity", "price", "name", "image", "in_stock"}

func TestMySQLCreateOrderLocksCartAndCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT c\.product_id, c\.quantity, p\.price.*ORDER BY c\.id FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(cartLockColumns).
			AddRow(1, 2, "299.99", "Premium Wireless Headphones", "h.jpg", true).
			AddRow(5, 1, "79.99", "Wireless Gaming Mouse", nil, true))
	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(7, sqlmock.AnyArg(), models.OrderStatusPending, nil, nil).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(42, 1, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(42, 5, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(`DELETE FROM cart WHERE user_id = \?`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	receipt, err := store.CreateOrder(context.Background(), 7, models.CreateOrderRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(42), receipt.OrderID)
	assert.Equal(t, "679.97", receipt.TotalAmount.String())
}

func TestMySQLCreateOrderOutOfStockRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(cartLockColumns).
			AddRow(6, 1, "89.99", "Minimalist Desk Lamp", "l.jpg", false))
	mock.ExpectRollback()

	_, err := store.CreateOrder(context.Background(), 7, models.CreateOrderRequest{})
	var oos *OutOfStockError
	require.True(t, errors.As(err, &oos))
	assert.Equal(t, []string{"Minimalist Desk Lamp"}, oos.Names)
}

func TestMySQLCreateOrderItemFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(cartLockColumns).
			AddRow(1, 1, "299.99", "Premium Wireless Headphones", "h.jpg", true))
	mock.ExpectExec(`INSERT INTO orders`).WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectExec(`INSERT INTO order_items`).WillReturnError(errors.New("deadlock found"))
	mock.ExpectRollback()

	_, err := store.CreateOrder(context.Background(), 7, models.CreateOrderRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order item")
}

func TestMySQLCreateOrderEmptyCart(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(7).WillReturnRows(sqlmock.NewRows(cartLockColumns))
	mock.ExpectRollback()

	_, err := store.CreateOrder(context.Background(), 7, models.CreateOrderRequest{})
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestMySQLUpdateOrderStatusRejectsBackwardsMove(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("shipped"))
	mock.ExpectRollback()

	_, err := store.UpdateOrderStatus(context.Background(), 9, models.OrderStatusPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMySQLAddToCartUsesUpsert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT in_stock FROM products WHERE id = \?`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"in_stock"}).AddRow(true))
	mock.ExpectExec(`ON DUPLICATE KEY UPDATE quantity = quantity \+ VALUES\(quantity\)`).
		WithArgs(7, 3, 2).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.AddToCart(context.Background(), 7, 3, 2))
}

func TestMySQLDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("dup@example.com", "hash", "", "").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := store.CreateUser(context.Background(), &models.User{Email: " Dup@Example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestMySQLConfig(t *testing.T) {
	cfg := &config.Config{DBUser: "shop", DBPassword: "pw", DBHost: "db", DBPort: "3307", DBName: "ecommerce"}

	mc := mysqlConfig(cfg)
	assert.Equal(t, "db:3307", mc.Addr)
	assert.True(t, mc.ParseTime)
	assert.True(t, mc.ClientFoundRows)
	assert.Equal(t, "ecommerce", mc.DBName)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id INT);\n\n CREATE TABLE b (id INT);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"}, stmts)
}
