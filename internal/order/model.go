package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/ledger"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

// statusRank orders the happy path. Cancelled sits outside the ranking.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// ParseStatus accepts only the defined enum values.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	default:
		return "", apperr.Newf(apperr.KindValidation, "unknown order status %q", s)
	}
}

// Cancellable reports whether an order in this status can still be
// cancelled. Shipped and delivered orders cannot.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// CanTransition reports whether an admin may move an order from one
// status to another: any strictly forward move along the happy path, or
// cancellation while the order is still cancellable.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	if to == StatusCancelled {
		return from.Cancellable()
	}
	if from == StatusCancelled {
		return false
	}
	return statusRank[to] > statusRank[from]
}

// Order is created exactly once per checkout. Everything except Status
// and UpdatedAt is immutable afterwards; TotalPrice is never recomputed.
type Order struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	Status        Status             `json:"status"`
	ShippingPrice decimal.Decimal    `json:"shipping_price"`
	TotalPrice    decimal.Decimal    `json:"total_price"`
	AddressID     uuid.UUID          `json:"address_id"`
	Items         []ledger.OrderItem `json:"items,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ListFilter narrows admin order listings.
type ListFilter struct {
	Status *Status
	UserID *uuid.UUID
}
