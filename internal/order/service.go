package order

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mkuzmin-dev/storefront/internal/address"
	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/cart"
	"github.com/mkuzmin-dev/storefront/internal/catalog"
	"github.com/mkuzmin-dev/storefront/internal/db"
	"github.com/mkuzmin-dev/storefront/internal/identity"
	"github.com/mkuzmin-dev/storefront/internal/ledger"
	"github.com/mkuzmin-dev/storefront/internal/validate"
)

// TxRunner runs a function inside a transaction with guaranteed rollback
// on error or panic. Satisfied by *db.Postgres.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type CartReader interface {
	List(ctx context.Context, q db.Querier, userID uuid.UUID) ([]cart.Item, error)
	Clear(ctx context.Context, q db.Querier, userID uuid.UUID) (int64, error)
}

type Catalog interface {
	GetProduct(ctx context.Context, q db.Querier, id uuid.UUID) (*catalog.Product, error)
	DecrementStock(ctx context.Context, q db.Querier, id uuid.UUID, quantity int) error
}

type ItemLedger interface {
	CreateItems(ctx context.Context, q db.Querier, orderID uuid.UUID, items []ledger.NewItem) ([]ledger.OrderItem, error)
	GetItems(ctx context.Context, q db.Querier, orderID string) ([]ledger.ItemView, error)
}

type AddressGetter interface {
	GetAddress(ctx context.Context, q db.Querier, id, userID uuid.UUID) (*address.Address, error)
}

type Service struct {
	tx        TxRunner
	db        db.Querier
	orders    Repository
	carts     CartReader
	products  Catalog
	items     ItemLedger
	addresses AddressGetter
}

func NewService(tx TxRunner, database db.Querier, orders Repository, carts CartReader, products Catalog, items ItemLedger, addresses AddressGetter) *Service {
	return &Service{
		tx:        tx,
		db:        database,
		orders:    orders,
		carts:     carts,
		products:  products,
		items:     items,
		addresses: addresses,
	}
}

// Checkout converts the user's cart into an order inside one transaction.
// The cart is re-read under the transaction, every line is re-validated
// against current stock, prices are snapshotted into the order items, and
// stock is consumed through the conditional decrement. Any failure rolls
// the whole thing back: no order, no items, no stock change, cart intact.
//
// Cancelling an order later does NOT restore this stock.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, shippingPrice decimal.Decimal, addressID string) (*Order, error) {
	if err := validate.NonNegativePrice("shipping_price", shippingPrice); err != nil {
		return nil, err
	}
	addrID, err := validate.UUID("address_id", addressID)
	if err != nil {
		return nil, err
	}

	var created *Order
	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.addresses.GetAddress(ctx, tx, addrID, userID); err != nil {
			return fmt.Errorf("service: failed to resolve shipping address: %w", err)
		}

		cartItems, err := s.carts.List(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("service: failed to load cart: %w", err)
		}
		if len(cartItems) == 0 {
			return apperr.New(apperr.KindEmptyCart, "cart is empty")
		}

		newItems := make([]ledger.NewItem, 0, len(cartItems))
		total := shippingPrice
		for _, line := range cartItems {
			product, err := s.products.GetProduct(ctx, tx, line.ProductID)
			if err != nil {
				return fmt.Errorf("service: failed to re-validate product %s: %w", line.ProductID, err)
			}
			if line.Quantity > product.Stock {
				return apperr.Newf(apperr.KindInsufficientStock,
					"insufficient stock for product %s: requested %d, available %d", product.ID, line.Quantity, product.Stock)
			}

			newItems = append(newItems, ledger.NewItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		orderID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("service: failed to generate order ID: %w", err)
		}

		now := time.Now().UTC()
		o := &Order{
			ID:            orderID,
			UserID:        userID,
			Status:        StatusPending,
			ShippingPrice: shippingPrice,
			TotalPrice:    total,
			AddressID:     addrID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.orders.Insert(ctx, tx, o); err != nil {
			return err
		}

		items, err := s.items.CreateItems(ctx, tx, o.ID, newItems)
		if err != nil {
			return err
		}
		o.Items = items

		// The earlier stock read can be stale by now; the conditional
		// decrement is the enforcement point that fails the transaction
		// instead of letting stock go negative.
		for _, item := range newItems {
			if err := s.products.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if _, err := s.carts.Clear(ctx, tx, userID); err != nil {
			return fmt.Errorf("service: failed to clear cart: %w", err)
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Stringer("order_id", created.ID).
		Stringer("user_id", userID).
		Str("total_price", created.TotalPrice.String()).
		Int("lines", len(created.Items)).
		Msg("Order created")

	return created, nil
}

// GetOrder returns an order with its items. Only the owner or an admin
// may read it.
func (s *Service) GetOrder(ctx context.Context, orderID string, req identity.Requester) (*Order, error) {
	id, err := validate.UUID("order_id", orderID)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(o, req); err != nil {
		return nil, err
	}

	views, err := s.items.GetItems(ctx, s.db, o.ID.String())
	if err != nil {
		return nil, err
	}
	o.Items = make([]ledger.OrderItem, 0, len(views))
	for _, v := range views {
		o.Items = append(o.Items, v.OrderItem)
	}

	return o, nil
}

func (s *Service) ListMyOrders(ctx context.Context, req identity.Requester, page validate.Page) ([]Order, error) {
	return s.orders.ListByUser(ctx, s.db, req.UserID, page)
}

func (s *Service) AdminListOrders(ctx context.Context, req identity.Requester, filter ListFilter, page validate.Page) ([]Order, error) {
	if !req.IsAdmin() {
		return nil, apperr.New(apperr.KindForbidden, "admin privileges required")
	}
	return s.orders.List(ctx, s.db, filter, page)
}

// Cancel moves an order to cancelled. Allowed for the owner or an admin
// while the order is pending or processing. Cancelling an already
// cancelled order is a no-op; cancelling a shipped or delivered order
// fails. Stock is not restored.
func (s *Service) Cancel(ctx context.Context, orderID string, req identity.Requester) (*Order, error) {
	id, err := validate.UUID("order_id", orderID)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(o, req); err != nil {
		return nil, err
	}

	if o.Status == StatusCancelled {
		return o, nil
	}
	if !o.Status.Cancellable() {
		return nil, apperr.Newf(apperr.KindInvalidState, "order in status %s cannot be cancelled", o.Status)
	}

	// The status may have advanced since the read above; the conditional
	// update only fires while the order is still cancellable.
	updated, err := s.orders.UpdateStatus(ctx, s.db, id, StatusCancelled, StatusPending, StatusProcessing)
	if err != nil {
		return nil, err
	}
	if !updated {
		current, err := s.orders.GetByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if current.Status == StatusCancelled {
			return current, nil
		}
		return nil, apperr.Newf(apperr.KindInvalidState, "order in status %s cannot be cancelled", current.Status)
	}

	o.Status = StatusCancelled
	log.Info().Stringer("order_id", o.ID).Stringer("user_id", req.UserID).Msg("Order cancelled")
	return o, nil
}

// SetStatus is the admin transition operation: any forward move along
// pending -> processing -> shipped -> delivered, or cancellation while
// still cancellable. Setting the current status again is a no-op.
func (s *Service) SetStatus(ctx context.Context, orderID, status string, req identity.Requester) (*Order, error) {
	if !req.IsAdmin() {
		return nil, apperr.New(apperr.KindForbidden, "admin privileges required")
	}

	id, err := validate.UUID("order_id", orderID)
	if err != nil {
		return nil, err
	}
	newStatus, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	if o.Status == newStatus {
		return o, nil
	}
	if !CanTransition(o.Status, newStatus) {
		return nil, apperr.Newf(apperr.KindInvalidState, "cannot transition order from %s to %s", o.Status, newStatus)
	}

	updated, err := s.orders.UpdateStatus(ctx, s.db, id, newStatus, o.Status)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperr.New(apperr.KindUnavailable, "order status changed concurrently, retry the request")
	}

	log.Info().Stringer("order_id", o.ID).Stringer("old_status", o.Status).Stringer("new_status", newStatus).Msg("Order status updated")
	o.Status = newStatus
	return o, nil
}

func authorize(o *Order, req identity.Requester) error {
	if req.IsAdmin() || o.UserID == req.UserID {
		return nil
	}
	return apperr.New(apperr.KindForbidden, "not allowed to access this order")
}
