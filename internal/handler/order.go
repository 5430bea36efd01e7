package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nexus-store/storefront/internal/order"
)

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// OrderHandler serves order lookups for customers and order administration.
type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Get("/orders/{orderNumber}", h.handleGetByOrderNumber)
}

func (h *OrderHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/orders", h.handleList)
	router.Patch("/orders/{id}/status", h.handleUpdateStatus)
}

func (h *OrderHandler) handleGetByOrderNumber(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	if orderNumber == "" {
		respondWithError(w, http.StatusBadRequest, "Order number is required")
		return
	}

	o, err := h.svc.GetByOrderNumber(r.Context(), orderNumber)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error().Err(err).Str("order_number", orderNumber).Msg("Failed to fetch order")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders")
		respondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateStatusRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	newStatus := order.Status(requestPayload.Status)
	if _, ok := map[order.Status]bool{
		order.StatusPending:    true,
		order.StatusProcessing: true,
		order.StatusShipped:    true,
		order.StatusDelivered:  true,
		order.StatusCompleted:  true,
		order.StatusCancelled:  true,
	}[newStatus]; !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown status")
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), orderID, newStatus); err != nil {
		statusCode := mapErrorToStatusCode(err)

		var clientMessage string
		if errors.Is(err, order.ErrOrderNotFound) {
			clientMessage = "Order not found"
		} else if errors.Is(err, order.ErrInvalidStatusTransition) {
			clientMessage = err.Error()
		} else {
			clientMessage = "Failed to update order status"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
