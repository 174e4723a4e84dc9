package ledger

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is one order line. Price is the price-at-purchase snapshot
// taken when the owning order was created; it never tracks the live
// catalog price. Subtotal is always price * quantity.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
}

// ItemView is an order item joined with product display fields.
type ItemView struct {
	OrderItem
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image,omitempty"`
}

// NewItem is the input for bulk creation during checkout.
type NewItem struct {
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// Totals aggregates stored rows for one order, independent of the
// order's own total_price field. Used for reconciliation.
type Totals struct {
	ItemCount     int             `json:"item_count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// ProductSales is one row of the sales-statistics report.
type ProductSales struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	OrderCount    int             `json:"order_count"`
	TotalQuantity int             `json:"total_quantity"`
	Revenue       decimal.Decimal `json:"revenue"`
}

// StatsFilter narrows the sales report. ProductID is an optional UUID
// string; From/To bound created_at; Limit caps the number of rows.
type StatsFilter struct {
	ProductID string
	From      *time.Time
	To        *time.Time
	Limit     int
}
