package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/nexus-store/storefront/internal/checkout"
	"github.com/nexus-store/storefront/internal/order"
	"github.com/nexus-store/storefront/internal/promotion"
)

type SubmitCheckoutRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	Zip        string `json:"zip" validate:"required"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,min=7"`
	CouponCode string `json:"coupon_code,omitempty"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// CheckoutHandler drives the shipping-form step: staging a pending order and
// pre-validating coupons.
type CheckoutHandler struct {
	svc      checkout.Service
	validate *validator.Validate
}

func NewCheckoutHandler(svc checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, validate: validator.New()}
}

func (h *CheckoutHandler) RegisterRoutes(router chi.Router) {
	router.Post("/checkout", h.handleSubmit)
	router.Post("/checkout/coupon", h.handleApplyCoupon)
	router.Delete("/checkout", h.handleAbandon)
}

func (h *CheckoutHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve session")
		return
	}

	var requestPayload SubmitCheckoutRequest
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

	shipping := order.Shipping{
		Name:    requestPayload.Name,
		Email:   requestPayload.Email,
		Address: requestPayload.Address,
		City:    requestPayload.City,
		Zip:     requestPayload.Zip,
		Phone:   requestPayload.Phone,
	}

	summary, err := h.svc.Submit(r.Context(), sid, shipping, requestPayload.CouponCode)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sid).Msg("Checkout submission failed")
		respondWithError(w, mapErrorToStatusCode(err), couponMessage(err))
		return
	}

	respondWithJSON(w, http.StatusCreated, summary)
}

func (h *CheckoutHandler) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve session")
		return
	}

	var requestPayload ApplyCouponRequest
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

	summary, err := h.svc.ValidateCoupon(r.Context(), sid, requestPayload.Code)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), couponMessage(err))
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

func (h *CheckoutHandler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve session")
		return
	}

	if err := h.svc.Abandon(r.Context(), sid); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "Failed to abandon checkout")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// couponMessage keeps coupon failures user-readable, matching the inline
// messages the storefront shows.
func couponMessage(err error) string {
	switch {
	case errors.Is(err, promotion.ErrCouponNotFound):
		return "Invalid or expired coupon code"
	case errors.Is(err, promotion.ErrCouponOutOfWindow):
		return "This coupon is not valid at this time"
	case errors.Is(err, promotion.ErrCouponBelowMinimum):
		return "Minimum order amount not reached for this coupon"
	case errors.Is(err, checkout.ErrCartEmpty):
		return "Your cart is empty"
	case errors.Is(err, checkout.ErrUnknownProduct):
		return "An item in your cart is no longer available"
	default:
		return "Unable to process checkout, please try again"
	}
}
