package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrProductInUse is returned when deleting a product referenced by an order
	ErrProductInUse = errors.New("product has been ordered")
)

// Store is the data access surface used by the API and the user directory
type Store interface {
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)

	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int) (Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (Product, error)
	DeleteProduct(ctx context.Context, id int) (Product, error)

	ListOrders(ctx context.Context) ([]Order, error)
	ListOrdersByUser(ctx context.Context, userID int) ([]Order, error)
	GetOrder(ctx context.Context, id int) (Order, error)
	CreateOrder(ctx context.Context, userID int, items []OrderItem) (Order, error)
	UpdateOrderStatus(ctx context.Context, id int, status OrderStatus) (Order, error)
}
