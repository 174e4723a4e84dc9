package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// respondWithError maps the error to its stable status/kind pair. Internal
// causes never reach the client.
func respondWithError(w http.ResponseWriter, err error) {
	respondWithJSON(w, apperr.HTTPStatus(err), map[string]string{
		"kind":  apperr.KindOf(err).String(),
		"error": apperr.Message(err),
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// decodeAndValidate decodes the request body into dst and runs struct
// validation, responding itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, apperr.New(apperr.KindValidation, "invalid request payload"))
		return false
	}

	if err := validate.Struct(dst); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, apperr.Wrap(apperr.KindInternal, "internal validation error", err))
			return false
		}
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "validation failed",
			Details: formatValidationErrors(validationErrors),
		})
		return false
	}

	return true
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
	}
	return details
}
