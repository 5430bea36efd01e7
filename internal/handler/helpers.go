package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nexus-store/storefront/internal/catalog"
	"github.com/nexus-store/storefront/internal/checkout"
	"github.com/nexus-store/storefront/internal/order"
	"github.com/nexus-store/storefront/internal/payment"
	"github.com/nexus-store/storefront/internal/promotion"
)

// SessionHeader carries the client's session id; the server mints one when
// the client arrives without it.
const SessionHeader = "X-Session-ID"

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = fmt.Sprintf("failed on the %q rule", fieldErr.Tag())
	}
	return details
}

func respondWithValidationErrors(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: formatValidationErrors(validationErrors),
		})
		return
	}
	log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
	respondWithError(w, http.StatusInternalServerError, "Internal validation error")
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, promotion.ErrPromotionNotFound),
		errors.Is(err, checkout.ErrNoPendingOrder):
		return http.StatusNotFound
	case errors.Is(err, promotion.ErrCouponNotFound),
		errors.Is(err, promotion.ErrCouponOutOfWindow),
		errors.Is(err, promotion.ErrCouponBelowMinimum),
		errors.Is(err, checkout.ErrUnknownProduct):
		return http.StatusUnprocessableEntity
	case errors.Is(err, checkout.ErrCartEmpty),
		errors.Is(err, checkout.ErrNoPaymentID),
		errors.Is(err, payment.ErrAmountTooSmall),
		errors.Is(err, payment.ErrSignatureMismatch):
		return http.StatusBadRequest
	case errors.Is(err, promotion.ErrCodeExists),
		errors.Is(err, order.ErrInvalidStatusTransition):
		return http.StatusConflict
	case errors.Is(err, payment.ErrGatewayUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// sessionID returns the request's session id, minting one for first-time
// visitors and echoing it back in the response header either way.
func sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	sid := r.Header.Get(SessionHeader)
	if sid == "" {
		genID, err := uuid.NewV4()
		if err != nil {
			return "", fmt.Errorf("failed to mint session id: %w", err)
		}
		sid = genID.String()
	}
	w.Header().Set(SessionHeader, sid)
	return sid, nil
}
