package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nexus-store/storefront/internal/promotion"
)

type CreatePromotionRequest struct {
	Code              string    `json:"code" validate:"required,min=3"`
	DiscountType      string    `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue     float64   `json:"discount_value" validate:"required,gt=0"`
	MinOrderAmount    *float64  `json:"min_order_amount,omitempty" validate:"omitempty,gt=0"`
	MaxDiscountAmount *float64  `json:"max_discount_amount,omitempty" validate:"omitempty,gt=0"`
	UsageLimit        *int      `json:"usage_limit,omitempty" validate:"omitempty,gt=0"`
	StartDate         time.Time `json:"start_date" validate:"required"`
	EndDate           time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// PromotionHandler is the admin surface for coupon lifecycle: create, list,
// retire. Retired promotions are deactivated, never deleted.
type PromotionHandler struct {
	svc      promotion.Service
	validate *validator.Validate
}

func NewPromotionHandler(svc promotion.Service) *PromotionHandler {
	return &PromotionHandler{svc: svc, validate: validator.New()}
}

func (h *PromotionHandler) RegisterAdminRoutes(router chi.Router) {
	router.Post("/promotions", h.handleCreate)
	router.Get("/promotions", h.handleList)
	router.Post("/promotions/{id}/deactivate", h.handleDeactivate)
}

func (h *PromotionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreatePromotionRequest
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

	promo := &promotion.Promotion{
		Code:              requestPayload.Code,
		DiscountType:      promotion.DiscountType(requestPayload.DiscountType),
		DiscountValue:     requestPayload.DiscountValue,
		MinOrderAmount:    requestPayload.MinOrderAmount,
		MaxDiscountAmount: requestPayload.MaxDiscountAmount,
		UsageLimit:        requestPayload.UsageLimit,
		StartDate:         requestPayload.StartDate,
		EndDate:           requestPayload.EndDate,
	}

	created, err := h.svc.Create(r.Context(), promo)
	if err != nil {
		log.Warn().Err(err).Str("code", requestPayload.Code).Msg("Failed to create promotion")

		var clientMessage string
		if errors.Is(err, promotion.ErrCodeExists) {
			clientMessage = "Promotion code already exists"
		} else {
			clientMessage = err.Error()
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *PromotionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.svc.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list promotions")
		respondWithError(w, http.StatusInternalServerError, "Failed to list promotions")
		return
	}

	respondWithJSON(w, http.StatusOK, promotions)
}

func (h *PromotionHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, promotion.ErrPromotionNotFound) {
			respondWithError(w, http.StatusNotFound, "Promotion not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to deactivate promotion")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
