package cart

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/catalog"
	"github.com/mkuzmin-dev/storefront/internal/db"
	"github.com/mkuzmin-dev/storefront/internal/validate"
)

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// ProductGetter is the slice of the catalog the cart needs: existence,
// price, and stock checks. No stock is mutated here; stock is consumed
// only at checkout.
type ProductGetter interface {
	GetProduct(ctx context.Context, q db.Querier, id uuid.UUID) (*catalog.Product, error)
}

type Service struct {
	db       db.Querier
	repo     Repository
	products ProductGetter
}

func NewService(database db.Querier, repo Repository, products ProductGetter) *Service {
	return &Service{db: database, repo: repo, products: products}
}

// AddItem adds quantity units of a product to the user's cart, summing
// with any quantity already present. The combined quantity is bounded by
// the product's current stock.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, productID string, quantity int) error {
	prodID, err := validate.UUID("product_id", productID)
	if err != nil {
		return err
	}
	if err := validate.Quantity("quantity", quantity); err != nil {
		return err
	}

	product, err := s.products.GetProduct(ctx, s.db, prodID)
	if err != nil {
		return fmt.Errorf("cart: failed to validate product for add: %w", err)
	}

	newQuantity := quantity
	existing, err := s.repo.Get(ctx, s.db, userID, prodID)
	switch {
	case err == nil:
		newQuantity += existing.Quantity
	case apperr.IsKind(err, apperr.KindNotFound):
		// First add for this product.
	default:
		return err
	}

	if newQuantity > product.Stock {
		return apperr.Newf(apperr.KindInsufficientStock,
			"requested quantity %d exceeds available stock %d for product %s", newQuantity, product.Stock, prodID)
	}

	item := &Item{UserID: userID, ProductID: prodID, Quantity: newQuantity}
	if err := s.repo.Upsert(ctx, s.db, item); err != nil {
		return err
	}

	log.Info().Stringer("user_id", userID).Stringer("product_id", prodID).Int("quantity", newQuantity).Msg("Cart item added")
	return nil
}

// UpdateQuantity replaces the stored quantity outright. Zero or negative
// quantity is equivalent to removing the item.
func (s *Service) UpdateQuantity(ctx context.Context, userID uuid.UUID, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	prodID, err := validate.UUID("product_id", productID)
	if err != nil {
		return err
	}

	product, err := s.products.GetProduct(ctx, s.db, prodID)
	if err != nil {
		return fmt.Errorf("cart: failed to validate product for update: %w", err)
	}

	if quantity > product.Stock {
		return apperr.Newf(apperr.KindInsufficientStock,
			"requested quantity %d exceeds available stock %d for product %s", quantity, product.Stock, prodID)
	}

	item := &Item{UserID: userID, ProductID: prodID, Quantity: quantity}
	if err := s.repo.Upsert(ctx, s.db, item); err != nil {
		return err
	}

	log.Info().Stringer("user_id", userID).Stringer("product_id", prodID).Int("quantity", quantity).Msg("Cart item quantity updated")
	return nil
}

// RemoveItem deletes the line if present. Removing an absent line succeeds.
func (s *Service) RemoveItem(ctx context.Context, userID uuid.UUID, productID string) error {
	prodID, err := validate.UUID("product_id", productID)
	if err != nil {
		return err
	}

	return s.repo.Delete(ctx, s.db, userID, prodID)
}

func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	removed, err := s.repo.Clear(ctx, s.db, userID)
	if err != nil {
		return err
	}

	log.Info().Stringer("user_id", userID).Int64("removed", removed).Msg("Cart cleared")
	return nil
}

// GetCart returns the cart joined with live product data plus computed
// totals. TotalAmount uses current catalog prices; the snapshot happens at
// checkout, not here.
func (s *Service) GetCart(ctx context.Context, userID uuid.UUID) (*View, error) {
	lines, err := s.repo.ListLines(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	view := &View{Items: lines, Summary: Summary{TotalAmount: decimal.Zero}}
	for _, line := range lines {
		view.Summary.TotalQuantity += line.Quantity
		view.Summary.TotalLines++
		view.Summary.TotalAmount = view.Summary.TotalAmount.Add(line.LineTotal)
	}

	return view, nil
}
