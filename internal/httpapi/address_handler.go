package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mkuzmin-dev/storefront/internal/address"
	"github.com/mkuzmin-dev/storefront/internal/db"
	"github.com/mkuzmin-dev/storefront/internal/validate"
)

type AddressStore interface {
	Create(ctx context.Context, q db.Querier, addr *address.Address) error
	GetAddress(ctx context.Context, q db.Querier, id, userID uuid.UUID) (*address.Address, error)
	ListByUser(ctx context.Context, q db.Querier, userID uuid.UUID) ([]address.Address, error)
	Delete(ctx context.Context, q db.Querier, id, userID uuid.UUID) error
}

type CreateAddressRequest struct {
	Street     string `json:"street" validate:"required"`
	Number     string `json:"number" validate:"required"`
	Complement string `json:"complement"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

type AddressHandler struct {
	db       db.Querier
	store    AddressStore
	validate *validator.Validate
}

func NewAddressHandler(database db.Querier, store AddressStore) *AddressHandler {
	return &AddressHandler{db: database, store: store, validate: validator.New()}
}

func (h *AddressHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload CreateAddressRequest
	if !decodeAndValidate(w, r, h.validate, &payload) {
		return
	}

	addr := &address.Address{
		UserID:     requesterFrom(r).UserID,
		Street:     payload.Street,
		Number:     payload.Number,
		Complement: payload.Complement,
		City:       payload.City,
		State:      payload.State,
		PostalCode: payload.PostalCode,
	}
	if err := h.store.Create(r.Context(), h.db, addr); err != nil {
		log.Error().Err(err).Msg("Failed to create address")
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, addr)
}

func (h *AddressHandler) handleList(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.store.ListByUser(r.Context(), h.db, requesterFrom(r).UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list addresses")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, addresses)
}

func (h *AddressHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := validate.UUID("address_id", chi.URLParam(r, "addressID"))
	if err != nil {
		respondWithError(w, err)
		return
	}

	addr, err := h.store.GetAddress(r.Context(), h.db, id, requesterFrom(r).UserID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get address")
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, addr)
}

func (h *AddressHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := validate.UUID("address_id", chi.URLParam(r, "addressID"))
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.store.Delete(r.Context(), h.db, id, requesterFrom(r).UserID); err != nil {
		log.Warn().Err(err).Msg("Failed to delete address")
		respondWithError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
