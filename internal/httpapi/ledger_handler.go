package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/db"
	"github.com/mkuzmin-dev/storefront/internal/ledger"
	"github.com/mkuzmin-dev/storefront/internal/validate"
)

// LedgerOps is the admin-facing slice of the order item ledger.
type LedgerOps interface {
	GetItems(ctx context.Context, q db.Querier, orderID string) ([]ledger.ItemView, error)
	GetItemByID(ctx context.Context, q db.Querier, itemID string) (*ledger.OrderItem, error)
	UpdateQuantity(ctx context.Context, q db.Querier, itemID string, quantity int) (*ledger.OrderItem, error)
	DeleteItem(ctx context.Context, q db.Querier, itemID string) (int64, error)
	CalculateOrderTotal(ctx context.Context, q db.Querier, orderID string) (*ledger.Totals, error)
	GetItemsByProduct(ctx context.Context, q db.Querier, productID string, page validate.Page) ([]ledger.OrderItem, error)
	GetSalesStats(ctx context.Context, q db.Querier, filter ledger.StatsFilter) ([]ledger.ProductSales, error)
}

type UpdateItemQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

type LedgerHandler struct {
	db       db.Querier
	ledger   LedgerOps
	validate *validator.Validate
}

func NewLedgerHandler(database db.Querier, ops LedgerOps) *LedgerHandler {
	return &LedgerHandler{db: database, ledger: ops, validate: validator.New()}
}

func (h *LedgerHandler) handleGetOrderItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.ledger.GetItems(r.Context(), h.db, chi.URLParam(r, "orderID"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get order items")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *LedgerHandler) handleGetOrderTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.ledger.CalculateOrderTotal(r.Context(), h.db, chi.URLParam(r, "orderID"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to calculate order totals")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, totals)
}

func (h *LedgerHandler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.ledger.GetItemByID(r.Context(), h.db, chi.URLParam(r, "itemID"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get order item")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (h *LedgerHandler) handleUpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var payload UpdateItemQuantityRequest
	if !decodeAndValidate(w, r, h.validate, &payload) {
		return
	}

	item, err := h.ledger.UpdateQuantity(r.Context(), h.db, chi.URLParam(r, "itemID"), payload.Quantity)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to correct order item quantity")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (h *LedgerHandler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	removed, err := h.ledger.DeleteItem(r.Context(), h.db, chi.URLParam(r, "itemID"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to delete order item")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (h *LedgerHandler) handleGetItemsByProduct(w http.ResponseWriter, r *http.Request) {
	items, err := h.ledger.GetItemsByProduct(r.Context(), h.db, chi.URLParam(r, "productID"), pageFrom(r))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get items by product")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *LedgerHandler) handleGetSalesStats(w http.ResponseWriter, r *http.Request) {
	filter := ledger.StatsFilter{ProductID: r.URL.Query().Get("product_id")}

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(w, apperr.New(apperr.KindValidation, "from must be an RFC3339 timestamp"))
			return
		}
		filter.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(w, apperr.New(apperr.KindValidation, "to must be an RFC3339 timestamp"))
			return
		}
		filter.To = &to
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	stats, err := h.ledger.GetSalesStats(r.Context(), h.db, filter)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get sales stats")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
