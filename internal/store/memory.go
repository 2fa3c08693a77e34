package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Records are lost on exit.
type MemoryStore struct {
	mu sync.RWMutex

	users    map[int]User
	products map[int]Product
	orders   map[int]Order

	lastProductID int
	lastOrderID   int

	now func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int]User),
		products: make(map[int]Product),
		orders:   make(map[int]Order),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddUser inserts or replaces a user
func (s *MemoryStore) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// AddProduct inserts or replaces a product and advances the id sequence
func (s *MemoryStore) AddProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	if p.ID > s.lastProductID {
		s.lastProductID = p.ID
	}
}

// AddOrder inserts or replaces an order and advances the id sequence
func (s *MemoryStore) AddOrder(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.Items = append([]OrderItem(nil), o.Items...)
	o.Products = nil
	s.orders[o.ID] = o
	if o.ID > s.lastOrderID {
		s.lastOrderID = o.ID
	}
}

func (s *MemoryStore) GetUser(_ context.Context, id int) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
}

func (s *MemoryStore) ListProducts(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *MemoryStore) GetProduct(_ context.Context, id int) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, in ProductInput) (Product, error) {
	if in.Price <= 0 {
		return Product{}, fmt.Errorf("price must be greater than 0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastProductID++
	p := Product{
		ID:          s.lastProductID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
	}
	s.products[p.ID] = p
	return p, nil
}

// DeleteProduct removes a product that no order references and returns it
func (s *MemoryStore) DeleteProduct(_ context.Context, id int) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	for _, o := range s.orders {
		if o.HasProduct(id) {
			return Product{}, fmt.Errorf("product %d: %w", id, ErrProductInUse)
		}
	}
	delete(s.products, id)
	return p, nil
}

func (s *MemoryStore) ListOrders(_ context.Context) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectOrders(func(Order) bool { return true }), nil
}

func (s *MemoryStore) ListOrdersByUser(_ context.Context, userID int) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectOrders(func(o Order) bool { return o.UserID == userID }), nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id int) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return s.withProducts(o), nil
}

// CreateOrder places a pending order priced at the current product prices
func (s *MemoryStore) CreateOrder(_ context.Context, userID int, items []OrderItem) (Order, error) {
	if len(items) == 0 {
		return Order{}, fmt.Errorf("order must contain at least one item")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, item := range items {
		if item.Quantity <= 0 {
			return Order{}, fmt.Errorf("quantity for product %d must be greater than 0", item.ID)
		}
		p, ok := s.products[item.ID]
		if !ok {
			return Order{}, fmt.Errorf("product %d: %w", item.ID, ErrNotFound)
		}
		total += p.Price * float64(item.Quantity)
	}

	s.lastOrderID++
	o := Order{
		ID:         s.lastOrderID,
		UserID:     userID,
		Items:      append([]OrderItem(nil), items...),
		TotalPrice: roundCents(total),
		Status:     StatusPending,
		CreatedAt:  s.now(),
	}
	s.orders[o.ID] = o
	return s.withProducts(o), nil
}

func (s *MemoryStore) UpdateOrderStatus(_ context.Context, id int, status OrderStatus) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	now := s.now()
	o.Status = status
	o.UpdatedAt = &now
	s.orders[id] = o
	return s.withProducts(o), nil
}

// collectOrders returns matching orders sorted by id. Caller holds the lock.
func (s *MemoryStore) collectOrders(match func(Order) bool) []Order {
	orders := make([]Order, 0)
	for _, o := range s.orders {
		if match(o) {
			orders = append(orders, s.withProducts(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders
}

// withProducts returns a copy of o with product details attached. Caller holds the lock.
func (s *MemoryStore) withProducts(o Order) Order {
	o.Items = append([]OrderItem(nil), o.Items...)
	o.Products = make([]Product, 0, len(o.Items))
	for _, item := range o.Items {
		if p, ok := s.products[item.ID]; ok {
			o.Products = append(o.Products, p)
		}
	}
	return o
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
