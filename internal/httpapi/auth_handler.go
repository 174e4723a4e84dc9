package httpapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/mkuzmin-dev/storefront/internal/identity"
)

type IdentityService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*identity.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,min=2"`
	LastName  string `json:"last_name" validate:"required,min=2"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthHandler struct {
	service  IdentityService
	validate *validator.Validate
}

func NewAuthHandler(service IdentityService) *AuthHandler {
	return &AuthHandler{service: service, validate: validator.New()}
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &payload) {
		return
	}

	user, err := h.service.Register(r.Context(), payload.Email, payload.Password, payload.FirstName, payload.LastName)
	if err != nil {
		log.Error().Err(err).Msg("Failed to register user")
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload LoginRequest
	if !decodeAndValidate(w, r, h.validate, &payload) {
		return
	}

	token, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Msg("Login failed")
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"token": token})
}
