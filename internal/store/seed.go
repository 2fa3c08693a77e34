package store

import (
	"fmt"
	"time"
)

// PasswordHasher turns a plain password into its stored form
type PasswordHasher func(password string) (string, error)

type seedUser struct {
	id       int
	username string
	email    string
	password string
	role     Role
}

var seedProducts = []Product{
	{ID: 1, Name: "Classic White T-Shirt", Description: "A comfortable cotton t-shirt perfect for everyday wear", Price: 19.99},
	{ID: 2, Name: "Slim Fit Jeans", Description: "Modern slim fit denim jeans with stretch comfort technology", Price: 49.99},
	{ID: 3, Name: "Running Shoes Pro", Description: "Lightweight athletic shoes with enhanced cushioning and support", Price: 89.99},
	{ID: 4, Name: "Leather Wallet", Description: "Genuine leather bifold wallet with RFID protection", Price: 29.99},
	{ID: 5, Name: "Wireless Headphones", Description: "Bluetooth headphones with noise cancellation and 20-hour battery life", Price: 129.99},
	{ID: 6, Name: "Backpack Deluxe", Description: "Water-resistant backpack with laptop compartment and USB charging port", Price: 59.99},
	{ID: 7, Name: "Smart Watch Sport", Description: "Fitness tracker with heart rate monitor and GPS", Price: 199.99},
	{ID: 8, Name: "Sunglasses Classic", Description: "UV protection sunglasses with polarized lenses", Price: 79.99},
	{ID: 9, Name: "Winter Jacket", Description: "Waterproof insulated jacket with removable hood", Price: 149.99},
	{ID: 10, Name: "Canvas Sneakers", Description: "Casual canvas sneakers perfect for any occasion", Price: 39.99},
}

var seedUsers = []seedUser{
	{1, "admin", "admin@example.com", "admin123", RoleAdmin},
	{2, "johndoe", "john.doe@example.com", "password123", RoleUser},
	{3, "sarahs", "sarah.smith@example.com", "userpass456", RoleUser},
	{4, "mikebrown", "michael.brown@example.com", "securepass789", RoleUser},
	{5, "emmaw", "emma.wilson@example.com", "emma2024!", RoleUser},
	{6, "davidm", "david.miller@example.com", "miller#pass", RoleUser},
}

// seedOrder holds day offsets relative to seeding time. A nil updated
// offset leaves UpdatedAt unset.
type seedOrder struct {
	id       int
	userID   int
	items    []OrderItem
	total    float64
	status   OrderStatus
	created  int
	updated  *int
	delivery int
}

func days(n int) *int { return &n }

var seedOrders = []seedOrder{
	{1, 2, []OrderItem{{1, 2}, {4, 1}}, 69.97, StatusDelivered, -30, days(-25), -23},
	{2, 3, []OrderItem{{5, 1}, {7, 1}}, 329.98, StatusShipped, -15, days(-13), -8},
	{3, 4, []OrderItem{{2, 2}, {10, 1}}, 139.97, StatusPending, -1, nil, 6},
	{4, 5, []OrderItem{{9, 1}, {8, 1}}, 229.98, StatusProcessing, -5, days(-4), 2},
	{5, 6, []OrderItem{{3, 1}, {6, 1}}, 149.98, StatusCancelled, -10, days(-9), -3},
	{6, 2, []OrderItem{{7, 1}, {5, 1}}, 329.98, StatusDelivered, -45, days(-40), -38},
	{7, 3, []OrderItem{{10, 2}, {1, 3}}, 139.95, StatusCancelled, -25, days(-20), -18},
	{8, 4, []OrderItem{{8, 1}, {4, 2}}, 139.97, StatusProcessing, -2, days(-1), 5},
	{9, 2, []OrderItem{{3, 1}, {8, 1}}, 169.98, StatusProcessing, -10, days(-8), -3},
}

// NewSeededMemoryStore creates a store holding the mock catalogue, users
// and orders. Order timestamps are placed relative to now.
func NewSeededMemoryStore(hash PasswordHasher, now time.Time) (*MemoryStore, error) {
	s := NewMemoryStore()

	for _, p := range seedProducts {
		s.AddProduct(p)
	}

	for _, u := range seedUsers {
		hashed, err := hash(u.password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", u.username, err)
		}
		s.AddUser(User{
			ID:             u.id,
			Username:       u.username,
			Email:          u.email,
			Role:           u.role,
			HashedPassword: hashed,
		})
	}

	at := func(offset int) time.Time { return now.AddDate(0, 0, offset) }
	for _, o := range seedOrders {
		order := Order{
			ID:         o.id,
			UserID:     o.userID,
			Items:      o.items,
			TotalPrice: o.total,
			Status:     o.status,
			CreatedAt:  at(o.created),
		}
		if o.updated != nil {
			updated := at(*o.updated)
			order.UpdatedAt = &updated
		}
		delivery := at(o.delivery)
		order.DeliveryDate = &delivery
		s.AddOrder(order)
	}

	return s, nil
}
