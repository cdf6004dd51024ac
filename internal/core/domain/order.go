package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusQueued    OrderStatus = "queued"
	OrderStatusProcessed OrderStatus = "processed"
)

// next returns the only status that may follow s. Processed is terminal.
func (s OrderStatus) next() (OrderStatus, bool) {
	switch s {
	case OrderStatusPending:
		return OrderStatusQueued, true
	case OrderStatusQueued:
		return OrderStatusProcessed, true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether moving from s to target follows the
// pending -> queued -> processed sequence. Skipping and reversing are
// both rejected.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	n, ok := s.next()
	return ok && n == target
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusQueued, OrderStatusProcessed:
		return true
	}
	return false
}

type Order struct {
	ID        string
	Product   string
	Quantity  int
	Requester string
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
