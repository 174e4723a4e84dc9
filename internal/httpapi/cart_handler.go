package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mkuzmin-dev/storefront/internal/cart"
)

type CartService interface {
	AddItem(ctx context.Context, userID uuid.UUID, productID string, quantity int) error
	UpdateQuantity(ctx context.Context, userID uuid.UUID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID uuid.UUID, productID string) error
	Clear(ctx context.Context, userID uuid.UUID) error
	GetCart(ctx context.Context, userID uuid.UUID) (*cart.View, error)
}

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

type CartHandler struct {
	service  CartService
	validate *validator.Validate
}

func NewCartHandler(service CartService) *CartHandler {
	return &CartHandler{service: service, validate: validator.New()}
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetCart(r.Context(), requesterFrom(r).UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load cart")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var payload AddItemRequest
	if !decodeAndValidate(w, r, h.validate, &payload) {
		return
	}

	err := h.service.AddItem(r.Context(), requesterFrom(r).UserID, payload.ProductID, payload.Quantity)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to add cart item")
		respondWithError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var payload UpdateItemRequest
	if !decodeAndValidate(w, r, h.validate, &payload) {
		return
	}

	productID := chi.URLParam(r, "productID")
	err := h.service.UpdateQuantity(r.Context(), requesterFrom(r).UserID, productID, payload.Quantity)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to update cart item")
		respondWithError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	err := h.service.RemoveItem(r.Context(), requesterFrom(r).UserID, productID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to remove cart item")
		respondWithError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), requesterFrom(r).UserID); err != nil {
		log.Error().Err(err).Msg("Failed to clear cart")
		respondWithError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
