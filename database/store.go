package database

import (
	"context"

	"storefront/models"
)

// Store is the persistence surface the HTTP layer and the status consumer
// depend on. Both the MySQL and the SQLite backends satisfy it.
type Store interface {
	Driver() string
	Ping(ctx context.Context) error
	Close() error

	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)

	GetCart(ctx context.Context, userID int64) ([]models.CartLine, error)
	AddToCart(ctx context.Context, userID, productID int64, quantity int) error
	UpdateCartItem(ctx context.Context, userID, cartID int64, quantity int) error
	RemoveFromCart(ctx context.Context, userID, productID int64) error
	ClearCart(ctx context.Context, userID int64) error

	CreateOrder(ctx context.Context, userID int64, req models.CreateOrderRequest) (*models.OrderReceipt, error)
	ListOrders(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) (models.OrderStatus, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	SaveContactMessage(ctx context.Context, msg *models.ContactMessage) error
}

var _ Store = (*SQLStore)(nil)
