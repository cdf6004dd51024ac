package port

import (
	"context"

	"github.com/corollary/warehouse/internal/core/domain"
)

// Store is the durable storage contract consumed by the engine. The engine
// holds the in-memory mirrors; every mutation here must be all-or-nothing
// against concurrent readers.
type Store interface {
	// CreateLocation inserts a new storage location with used capacity zero.
	// Returns domain.ErrDuplicateName if the name is taken.
	CreateLocation(ctx context.Context, name string, maxCapacity int) (*domain.StorageLocation, error)

	// ListLocations returns all locations ordered by id.
	ListLocations(ctx context.Context) ([]domain.StorageLocation, error)

	// ListProducts returns all products ordered by id.
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// CommitRestock applies a product upsert and the paired used_capacity
	// increase in one transaction. When created is true the product row is
	// inserted as given; otherwise its quantity is incremented by amount.
	CommitRestock(ctx context.Context, product domain.Product, amount int, created bool) error

	// CommitPlacement decrements the ordered product's stock, releases the
	// location's used capacity and inserts the pending order row in one
	// transaction. Returns domain.ErrInsufficientStock if the guarded
	// decrement matches no row.
	CommitPlacement(ctx context.Context, order domain.Order, locationID int64) error

	// CommitProductRemoval deletes the product row and releases its full
	// quantity from the location's used capacity in one transaction.
	CommitProductRemoval(ctx context.Context, name string, quantity int, locationID int64) error

	// GetOrder returns the order with the given id, or (nil, nil) when absent.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// ListOrders returns all orders ordered by status then id.
	ListOrders(ctx context.Context) ([]domain.Order, error)

	// ListOrdersByStatus returns orders with the given status in ascending
	// id order.
	ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)

	// ListOrderIDs returns every order identifier ever issued, any status.
	ListOrderIDs(ctx context.Context) ([]string, error)

	// UpdateOrderStatus advances an order from one status to the next with a
	// guarded update. Returns domain.ErrInvalidTransition when the row is not
	// currently in the from status, domain.ErrNotFound when it does not exist.
	UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error

	// Reset deletes all products, orders and locations.
	Reset(ctx context.Context) error
}
