package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nexus-store/storefront/internal/checkout"
)

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// CartHandler exposes the session cart.
type CartHandler struct {
	svc      checkout.Service
	validate *validator.Validate
}

func NewCartHandler(svc checkout.Service) *CartHandler {
	return &CartHandler{svc: svc, validate: validator.New()}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Get("/cart", h.handleGetCart)
	router.Post("/cart/items", h.handleAddItem)
	router.Put("/cart/items/{productID}", h.handleUpdateQuantity)
	router.Delete("/cart/items/{productID}", h.handleRemoveItem)
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve session")
		return
	}

	view, err := h.svc.GetCart(r.Context(), sid)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load cart")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to load cart")
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve session")
		return
	}

	var requestPayload AddItemRequest
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

	productID, err := uuid.FromString(requestPayload.ProductID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	view, err := h.svc.AddItem(r.Context(), sid, productID, requestPayload.Quantity)
	if err != nil {
		log.Warn().Err(err).Str("product_id", requestPayload.ProductID).Msg("Failed to add cart item")
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *CartHandler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve session")
		return
	}

	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var requestPayload UpdateQuantityRequest
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

	view, err := h.svc.UpdateQuantity(r.Context(), sid, productID, requestPayload.Quantity)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(w, r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve session")
		return
	}

	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	view, err := h.svc.RemoveItem(r.Context(), sid, productID)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}
