package store

import "time"

// Role is a user's authorization level
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// User is a shop account
type User struct {
	ID             int    `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	HashedPassword string `json:"-"`
}

// IsAdmin reports whether the user has the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Product is a catalogue entry
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// ProductInput carries the fields of a product to create
type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// OrderItem references a product and a quantity
type OrderItem struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

// Order is a placed order. Products holds the details of the
// ordered products in item order.
type Order struct {
	ID           int         `json:"id"`
	UserID       int         `json:"user_id"`
	Items        []OrderItem `json:"items"`
	TotalPrice   float64     `json:"total_price"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    *time.Time  `json:"updated_at"`
	DeliveryDate *time.Time  `json:"delivery_date"`
	Products     []Product   `json:"products"`
}

// HasProduct reports whether any item of the order references productID
func (o Order) HasProduct(productID int) bool {
	for _, item := range o.Items {
		if item.ID == productID {
			return true
		}
	}
	return false
}
