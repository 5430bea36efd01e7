package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/nexus-store/storefront/internal/checkout"
	"github.com/nexus-store/storefront/internal/metrics"
	"github.com/nexus-store/storefront/internal/payment"
)

type PaymentCallbackRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
}

type VerifyPaymentRequest struct {
	OrderID   string  `json:"order_id" validate:"required"`
	PaymentID string  `json:"payment_id" validate:"required"`
	Signature string  `json:"signature" validate:"required"`
	Amount    float64 `json:"amount" validate:"omitempty,gt=0"`
}

// PaymentHandler bridges the hosted gateway: creating gateway orders for
// staged totals, accepting success callbacks and dismissals, and verifying
// callback signatures.
type PaymentHandler struct {
	checkoutSvc checkout.Service
	paymentSvc  payment.Service
	metrics     *metrics.Metrics
	validate    *validator.Validate
}

func NewPaymentHandler(checkoutSvc checkout.Service, paymentSvc payment.Service, m *metrics.Metrics) *PaymentHandler {
	return &PaymentHandler{
		checkoutSvc: checkoutSvc,
		paymentSvc:  paymentSvc,
		metrics:     m,
		validate:    validator.New(),
	}
}

func (h *PaymentHandler) RegisterRoutes(router chi.Router) {
	router.Post("/payments/order", h.handleCreateGatewayOrder)
	router.Post("/payments/callback", h.handleCallback)
	router.Post("/payments/cancel", h.handleCancel)
	router.Post("/payments/failed", h.handleFailed)
	router.Post("/payments/verify", h.handleVerify)
}

func (h *PaymentHandler) handleCreateGatewayOrder(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve session")
		return
	}

	total, shipping, err := h.checkoutSvc.PendingTotal(r.Context(), sid)
	if err != nil {
		if errors.Is(err, checkout.ErrNoPendingOrder) {
			respondWithError(w, http.StatusNotFound, "No pending order for this session")
			return
		}
		respondWithError(w, mapErrorToStatusCode(err), "Failed to load pending order")
		return
	}

	gatewayOrder, err := h.paymentSvc.CreateGatewayOrder(r.Context(), total, sid, map[string]string{
		"address": shipping.Address,
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", sid).Msg("Failed to create gateway order")
		var clientMessage string
		switch {
		case errors.Is(err, payment.ErrAmountTooSmall):
			clientMessage = "Order total is below the gateway minimum"
		case errors.Is(err, payment.ErrGatewayUnavailable):
			clientMessage = "Payment gateway unavailable, please try again"
		default:
			clientMessage = "Failed to initialize payment, please try again"
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, gatewayOrder)
}

func (h *PaymentHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve session")
		return
	}

	var requestPayload PaymentCallbackRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	o, created, err := h.checkoutSvc.Finalize(r.Context(), sid, requestPayload.PaymentID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sid).Str("payment_id", requestPayload.PaymentID).Msg("Order finalization failed")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to finalize order, please retry")
		return
	}

	if created {
		respondWithJSON(w, http.StatusCreated, o)
		return
	}
	h.metrics.DuplicateFinalizes.Inc()
	respondWithJSON(w, http.StatusOK, o)
}

func (h *PaymentHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve session")
		return
	}

	if err := h.checkoutSvc.MarkCancelled(r.Context(), sid); err != nil {
		if errors.Is(err, checkout.ErrNoPendingOrder) {
			respondWithError(w, http.StatusNotFound, "No pending order for this session")
			return
		}
		respondWithError(w, mapErrorToStatusCode(err), "Failed to record cancellation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentHandler) handleFailed(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve session")
		return
	}

	if err := h.checkoutSvc.MarkFailed(r.Context(), sid); err != nil {
		if errors.Is(err, checkout.ErrNoPendingOrder) {
			respondWithError(w, http.StatusNotFound, "No pending order for this session")
			return
		}
		respondWithError(w, mapErrorToStatusCode(err), "Failed to record payment failure")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var requestPayload VerifyPaymentRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	err := h.paymentSvc.VerifyAndRecord(r.Context(),
		requestPayload.OrderID,
		requestPayload.PaymentID,
		requestPayload.Signature,
		requestPayload.Amount,
	)
	if err != nil {
		if errors.Is(err, payment.ErrSignatureMismatch) {
			h.metrics.SignatureMismatches.Inc()
			respondWithError(w, http.StatusBadRequest, "Invalid signature")
			return
		}
		respondWithError(w, mapErrorToStatusCode(err), "Payment verification failed")
		return
	}

	h.metrics.PaymentsVerified.Inc()
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
