package cart

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Item is one stored cart line: a (user, product) pair with a positive
// quantity. Rows with quantity <= 0 never exist; removal deletes the row.
type Item struct {
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Line is a cart item joined with live product data. LineTotal uses the
// current catalog price; carts are pre-purchase, nothing is frozen yet.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	ImageURL  string          `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Summary struct {
	TotalQuantity int             `json:"total_quantity"`
	TotalLines    int             `json:"total_lines"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type View struct {
	Items   []Line  `json:"items"`
	Summary Summary `json:"summary"`
}
