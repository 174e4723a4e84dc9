package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/identity"
	"github.com/mkuzmin-dev/storefront/internal/order"
	"github.com/mkuzmin-dev/storefront/internal/validate"
)

type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID, shippingPrice decimal.Decimal, addressID string) (*order.Order, error)
	GetOrder(ctx context.Context, orderID string, req identity.Requester) (*order.Order, error)
	ListMyOrders(ctx context.Context, req identity.Requester, page validate.Page) ([]order.Order, error)
	AdminListOrders(ctx context.Context, req identity.Requester, filter order.ListFilter, page validate.Page) ([]order.Order, error)
	Cancel(ctx context.Context, orderID string, req identity.Requester) (*order.Order, error)
	SetStatus(ctx context.Context, orderID, status string, req identity.Requester) (*order.Order, error)
}

type CheckoutRequest struct {
	AddressID     string `json:"address_id" validate:"required"`
	ShippingPrice string `json:"shipping_price" validate:"required"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderHandler struct {
	service  OrderService
	validate *validator.Validate
}

func NewOrderHandler(service OrderService) *OrderHandler {
	return &OrderHandler{service: service, validate: validator.New()}
}

func (h *OrderHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var payload CheckoutRequest
	if !decodeAndValidate(w, r, h.validate, &payload) {
		return
	}

	shipping, err := decimal.NewFromString(payload.ShippingPrice)
	if err != nil {
		respondWithError(w, apperr.New(apperr.KindValidation, "shipping_price must be a decimal number"))
		return
	}

	created, err := h.service.Checkout(r.Context(), requesterFrom(r).UserID, shipping, payload.AddressID)
	if err != nil {
		log.Warn().Err(err).Msg("Checkout failed")
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) handleListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListMyOrders(r.Context(), requesterFrom(r), pageFrom(r))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "orderID"), requesterFrom(r))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get order")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Cancel(r.Context(), chi.URLParam(r, "orderID"), requesterFrom(r))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to cancel order")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleAdminList(w http.ResponseWriter, r *http.Request) {
	var filter order.ListFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			respondWithError(w, err)
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := validate.UUID("user_id", raw)
		if err != nil {
			respondWithError(w, err)
			return
		}
		filter.UserID = &userID
	}

	orders, err := h.service.AdminListOrders(r.Context(), requesterFrom(r), filter, pageFrom(r))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders for admin")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var payload SetStatusRequest
	if !decodeAndValidate(w, r, h.validate, &payload) {
		return
	}

	o, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "orderID"), payload.Status, requesterFrom(r))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to set order status")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func pageFrom(r *http.Request) validate.Page {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	return validate.NormalizePage(limit, offset)
}
