package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corollary/warehouse/internal/core/domain"
	"github.com/corollary/warehouse/internal/port"
)

// Options tunes identifier issuance.
type Options struct {
	IDLength      int
	IDMaxAttempts int
}

// Engine owns the inventory and order lifecycle state: the StockIndex,
// the CapacityLedger, the IdentifierIssuer and the two order queues, all
// mirrored against the durable Store. One mutex serializes every
// check-capacity/adjust-stock/write sequence; the Store call inside is the
// only blocking point, and callers bound it through ctx.
type Engine struct {
	mu       sync.Mutex
	store    port.Store
	logger   *zap.Logger
	stock    *StockIndex
	capacity *CapacityLedger
	issuer   *IdentifierIssuer
	queues   *OrderQueues
}

// NewEngine loads the in-memory mirrors from the store and recovers the
// order queues from the ledger's queued rows.
func NewEngine(ctx context.Context, store port.Store, logger *zap.Logger, opts Options) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		store:    store,
		logger:   logger,
		stock:    NewStockIndex(),
		capacity: NewCapacityLedger(),
		issuer:   NewIdentifierIssuer(opts.IDLength, opts.IDMaxAttempts),
		queues:   NewOrderQueues(),
	}

	locations, err := store.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	e.capacity.Load(locations)

	products, err := store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	e.stock.Load(products)

	ids, err := store.ListOrderIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load order ids: %w", err)
	}
	for _, id := range ids {
		e.issuer.MarkUsed(id)
	}

	if err := e.Recover(ctx); err != nil {
		return nil, err
	}

	logger.Info("engine loaded",
		zap.Int("locations", len(locations)),
		zap.Int("products", len(products)),
		zap.Int("orders", len(ids)),
		zap.Int("queued", e.queues.Len()))
	return e, nil
}

// Recover rebuilds both queues from the ledger's queued rows in ascending
// identifier order. Safe to invoke any number of times.
func (e *Engine) Recover(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.store.ListOrdersByStatus(ctx, domain.OrderStatusQueued)
	if err != nil {
		return fmt.Errorf("recover queued orders: %w", err)
	}
	for _, o := range rows {
		e.queues.Enqueue(o.ID, o.Product, o.Quantity)
	}
	return nil
}

// AddLocation registers a storage location with the given maximum capacity.
func (e *Engine) AddLocation(ctx context.Context, name string, maxCapacity int) (*domain.StorageLocation, error) {
	if maxCapacity <= 0 {
		return nil, fmt.Errorf("max capacity must be positive, got %d", maxCapacity)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.capacity.GetByName(name); ok {
		return nil, fmt.Errorf("location %q: %w", name, domain.ErrDuplicateName)
	}
	loc, err := e.store.CreateLocation(ctx, name, maxCapacity)
	if err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	e.capacity.Add(*loc)

	e.logger.Info("location added",
		zap.String("location", loc.Name),
		zap.Int("max_capacity", loc.MaxCapacity))
	return loc, nil
}

// Restock adds quantity of a product to a location, creating the product on
// first restock. The capacity reservation is the admission check: it runs
// before anything is written, and a CapacityExceeded failure changes nothing.
func (e *Engine) Restock(ctx context.Context, location, product string, quantity int) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("restock quantity must be positive, got %d", quantity)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	loc, ok := e.capacity.GetByName(location)
	if !ok {
		return nil, fmt.Errorf("location %q: %w", location, domain.ErrNotFound)
	}

	name := NormalizeName(product)
	existing, known := e.stock.Lookup(name)
	if known && existing.LocationID != loc.ID {
		return nil, fmt.Errorf("product %q already assigned to another location: %w", name, domain.ErrDuplicateName)
	}

	if err := e.capacity.Reserve(loc.ID, quantity); err != nil {
		return nil, fmt.Errorf("reserve %d at %q: %w", quantity, loc.Name, err)
	}

	// Admission passed; mirror to durable storage before touching the index.
	row := existing
	created := !known
	if created {
		row = domain.Product{ID: e.stock.NextID(), Name: name, Quantity: quantity, LocationID: loc.ID}
	}
	if err := e.store.CommitRestock(ctx, row, quantity, created); err != nil {
		e.capacity.Release(loc.ID, quantity)
		return nil, fmt.Errorf("commit restock: %w", err)
	}

	p, _ := e.stock.Upsert(name, quantity, loc.ID)

	e.logger.Info("restocked",
		zap.String("product", p.Name),
		zap.Int("added", quantity),
		zap.Int("quantity", p.Quantity),
		zap.String("location", loc.Name),
		zap.Bool("created", created))
	return &p, nil
}

// PlaceOrder checks stock, decrements it, issues an order identifier, writes
// the pending ledger row and registers the order in both queues. The whole
// sequence is all-or-nothing: any failure leaves stock and capacity as found.
func (e *Engine) PlaceOrder(ctx context.Context, product string, quantity int, requester string) (*domain.Order, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("order quantity must be positive, got %d", quantity)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	name := NormalizeName(product)

	id, err := e.issuer.Issue(requester)
	if err != nil {
		return nil, fmt.Errorf("issue order id: %w", err)
	}

	// A requester keeps their identifier until the order is terminal, so a
	// retried request is the same order: answer it from the ledger before
	// any stock check, whatever happened to the product since.
	if _, live := e.queues.Get(id); live {
		existing, err := e.store.GetOrder(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load order %s: %w", id, err)
		}
		if existing != nil {
			e.logger.Info("duplicate placement, returning live order",
				zap.String("order_id", id),
				zap.String("requester", requester))
			return existing, nil
		}
	}

	entry, ok := e.stock.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("product %q: %w", name, domain.ErrNotFound)
	}
	if entry.Quantity < quantity {
		return nil, fmt.Errorf("product %q has %d in stock, want %d: %w",
			name, entry.Quantity, quantity, domain.ErrInsufficientStock)
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        id,
		Product:   name,
		Quantity:  quantity,
		Requester: requester,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.store.CommitPlacement(ctx, order, entry.LocationID); err != nil {
		return nil, fmt.Errorf("commit placement: %w", err)
	}

	// Durable row exists; mirror the decrement and the capacity release.
	if _, err := e.stock.Decrement(name, quantity); err != nil {
		return nil, fmt.Errorf("mirror stock decrement: %w", err)
	}
	e.capacity.Release(entry.LocationID, quantity)

	if err := e.store.UpdateOrderStatus(ctx, id, domain.OrderStatusPending, domain.OrderStatusQueued); err != nil {
		return nil, fmt.Errorf("queue order %s: %w", id, err)
	}
	e.queues.Enqueue(id, name, quantity)
	order.Status = domain.OrderStatusQueued

	e.logger.Info("order placed",
		zap.String("order_id", id),
		zap.String("product", name),
		zap.Int("quantity", quantity),
		zap.String("requester", requester))
	return &order, nil
}

// FulfillNext pops the oldest queued order and advances it to processed.
// An empty queue returns (nil, nil): expected, not a fault.
func (e *Engine) FulfillNext(ctx context.Context) (*domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, payload, ok := e.queues.Head()
	if !ok {
		return nil, nil
	}

	if err := e.store.UpdateOrderStatus(ctx, id, domain.OrderStatusQueued, domain.OrderStatusProcessed); err != nil {
		return nil, fmt.Errorf("process order %s: %w", id, err)
	}
	e.queues.Pop()
	e.issuer.Consume(id)

	order, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load processed order %s: %w", id, err)
	}
	if order == nil {
		// Row vanished between the update and the read; reconstruct enough
		// for the caller.
		order = &domain.Order{
			ID:       id,
			Product:  payload.Product,
			Quantity: payload.Quantity,
			Status:   domain.OrderStatusProcessed,
		}
	}

	e.logger.Info("order processed",
		zap.String("order_id", id),
		zap.String("product", payload.Product),
		zap.Int("quantity", payload.Quantity))
	return order, nil
}

// CancelOrder removes a queued order out of band. The ledger row is advanced
// to the terminal status so recovery does not resurrect it; stock is not
// restored — compensation is a new restock, never a queue rollback.
func (e *Engine) CancelOrder(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload, ok := e.queues.Get(id)
	if !ok {
		return fmt.Errorf("order %s not pending: %w", id, domain.ErrNotFound)
	}
	if err := e.store.UpdateOrderStatus(ctx, id, domain.OrderStatusQueued, domain.OrderStatusProcessed); err != nil {
		return fmt.Errorf("cancel order %s: %w", id, err)
	}
	e.queues.Remove(id)
	e.issuer.Consume(id)

	e.logger.Info("order cancelled",
		zap.String("order_id", id),
		zap.String("product", payload.Product),
		zap.Int("quantity", payload.Quantity))
	return nil
}

// RemoveProduct destroys a product entry and releases its capacity.
func (e *Engine) RemoveProduct(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.stock.Lookup(name)
	if !ok {
		return fmt.Errorf("product %q: %w", NormalizeName(name), domain.ErrNotFound)
	}
	if err := e.store.CommitProductRemoval(ctx, entry.Name, entry.Quantity, entry.LocationID); err != nil {
		return fmt.Errorf("remove product: %w", err)
	}
	e.stock.Remove(entry.Name)
	e.capacity.Release(entry.LocationID, entry.Quantity)

	e.logger.Info("product removed",
		zap.String("product", entry.Name),
		zap.Int("quantity", entry.Quantity))
	return nil
}

// Report derives the utilization report for a location.
func (e *Engine) Report(ctx context.Context, location string) (*domain.UtilizationReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	loc, ok := e.capacity.GetByName(location)
	if !ok {
		return nil, fmt.Errorf("location %q: %w", location, domain.ErrNotFound)
	}
	r := domain.Utilization(loc)
	return &r, nil
}

// Snapshot returns the current products ordered by id.
func (e *Engine) Snapshot(ctx context.Context) []domain.Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stock.Products()
}

// Locations returns the current storage locations ordered by id.
func (e *Engine) Locations(ctx context.Context) []domain.StorageLocation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capacity.Locations()
}

// Orders lists the order history, ordered by status then id. An empty
// status lists everything.
func (e *Engine) Orders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if status == "" {
		return e.store.ListOrders(ctx)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, domain.ErrNotFound)
	}
	return e.store.ListOrdersByStatus(ctx, status)
}

// Order returns a single order by identifier.
func (e *Engine) Order(ctx context.Context, id string) (*domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return o, nil
}

// Reset clears all inventory and order state, durable and in-memory.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	e.stock = NewStockIndex()
	e.capacity = NewCapacityLedger()
	e.queues = NewOrderQueues()
	e.logger.Warn("inventory and order history cleared")
	return nil
}
