package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/corollary/warehouse/internal/core/domain"
)

// Mock Store keeping the same guarded semantics as the SQLite adapter.
type mockStore struct {
	mu        sync.Mutex
	locations map[int64]*domain.StorageLocation
	nextLocID int64
	products  map[string]*domain.Product
	orders    map[string]*domain.Order

	failRestock   bool
	failPlacement bool
}

func newMockStore() *mockStore {
	return &mockStore{
		locations: make(map[int64]*domain.StorageLocation),
		nextLocID: 1,
		products:  make(map[string]*domain.Product),
		orders:    make(map[string]*domain.Order),
	}
}

func (m *mockStore) CreateLocation(ctx context.Context, name string, maxCapacity int) (*domain.StorageLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, loc := range m.locations {
		if strings.EqualFold(loc.Name, name) {
			return nil, domain.ErrDuplicateName
		}
	}
	loc := &domain.StorageLocation{ID: m.nextLocID, Name: name, MaxCapacity: maxCapacity}
	m.nextLocID++
	m.locations[loc.ID] = loc
	return &domain.StorageLocation{ID: loc.ID, Name: loc.Name, MaxCapacity: loc.MaxCapacity}, nil
}

func (m *mockStore) ListLocations(ctx context.Context) ([]domain.StorageLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.StorageLocation, 0, len(m.locations))
	for _, loc := range m.locations {
		out = append(out, *loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) CommitRestock(ctx context.Context, product domain.Product, amount int, created bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failRestock {
		return errors.New("storage unavailable")
	}

	loc, ok := m.locations[product.LocationID]
	if !ok {
		return domain.ErrNotFound
	}
	if loc.UsedCapacity+amount > loc.MaxCapacity {
		return domain.ErrCapacityExceeded
	}

	if created {
		if _, exists := m.products[product.Name]; exists {
			return domain.ErrDuplicateName
		}
		cp := product
		m.products[cp.Name] = &cp
	} else {
		p, exists := m.products[product.Name]
		if !exists {
			return domain.ErrNotFound
		}
		p.Quantity += amount
	}
	loc.UsedCapacity += amount
	return nil
}

func (m *mockStore) CommitPlacement(ctx context.Context, order domain.Order, locationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failPlacement {
		return errors.New("storage unavailable")
	}

	p, ok := m.products[order.Product]
	if !ok || p.Quantity < order.Quantity {
		return domain.ErrInsufficientStock
	}
	if _, exists := m.orders[order.ID]; exists {
		return fmt.Errorf("order %s: %w", order.ID, domain.ErrDuplicateName)
	}

	p.Quantity -= order.Quantity
	if loc, ok := m.locations[locationID]; ok {
		loc.UsedCapacity -= order.Quantity
		if loc.UsedCapacity < 0 {
			loc.UsedCapacity = 0
		}
	}
	cp := order
	m.orders[cp.ID] = &cp
	return nil
}

func (m *mockStore) CommitProductRemoval(ctx context.Context, name string, quantity int, locationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[name]; !ok {
		return domain.ErrNotFound
	}
	delete(m.products, name)
	if loc, ok := m.locations[locationID]; ok {
		loc.UsedCapacity -= quantity
		if loc.UsedCapacity < 0 {
			loc.UsedCapacity = 0
		}
	}
	return nil
}

func (m *mockStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockStore) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Order
	for _, o := range m.orders {
		if o.Status == status {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) ListOrderIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.orders))
	for id := range m.orders {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockStore) UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%s -> %s: %w", from, to, domain.ErrInvalidTransition)
	}
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if o.Status != from {
		return fmt.Errorf("order %s is not %s: %w", id, from, domain.ErrInvalidTransition)
	}
	o.Status = to
	return nil
}

func (m *mockStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.locations = make(map[int64]*domain.StorageLocation)
	m.products = make(map[string]*domain.Product)
	m.orders = make(map[string]*domain.Order)
	m.nextLocID = 1
	return nil
}

// usedCapacity reads a location's durable used capacity.
func (m *mockStore) usedCapacity(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loc, ok := m.locations[id]; ok {
		return loc.UsedCapacity
	}
	return -1
}

// stockSum is the sum of durable product quantities at a location.
func (m *mockStore) stockSum(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := 0
	for _, p := range m.products {
		if p.LocationID == id {
			sum += p.Quantity
		}
	}
	return sum
}

func (m *mockStore) orderStatus(id string) domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		return o.Status
	}
	return ""
}
