package handler_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nexus-store/storefront/internal/handler"
	"github.com/nexus-store/storefront/internal/order"
)

type mockOrderService struct {
	finalizeFunc         func(ctx context.Context, paymentID string, input order.FinalizeInput) (*order.Order, bool, error)
	getByOrderNumberFunc func(ctx context.Context, orderNumber string) (*order.Order, error)
	listFunc             func(ctx context.Context) ([]order.Order, error)
	updateStatusFunc     func(ctx context.Context, orderID uuid.UUID, newStatus order.Status) error
}

func (m *mockOrderService) Finalize(ctx context.Context, paymentID string, input order.FinalizeInput) (*order.Order, bool, error) {
	return m.finalizeFunc(ctx, paymentID, input)
}

func (m *mockOrderService) GetByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	return m.getByOrderNumberFunc(ctx, orderNumber)
}

func (m *mockOrderService) List(ctx context.Context) ([]order.Order, error) {
	return m.listFunc(ctx)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus order.Status) error {
	return m.updateStatusFunc(ctx, orderID, newStatus)
}

func newOrderRouter(svc order.Service) chi.Router {
	router := chi.NewRouter()
	h := handler.NewOrderHandler(svc)
	h.RegisterRoutes(router)
	h.RegisterAdminRoutes(router)
	return router
}

func TestOrderHandler_GetByOrderNumber(t *testing.T) {
	svc := &mockOrderService{
		getByOrderNumberFunc: func(ctx context.Context, orderNumber string) (*order.Order, error) {
			if orderNumber == "150626-000001" {
				return &order.Order{OrderNumber: orderNumber, Status: order.StatusPending}, nil
			}
			return nil, order.ErrOrderNotFound
		},
	}
	router := newOrderRouter(svc)

	tests := []struct {
		name        string
		orderNumber string
		wantStatus  int
	}{
		{name: "found", orderNumber: "150626-000001", wantStatus: http.StatusOK},
		{name: "not_found", orderNumber: "150626-999999", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders/"+tt.orderNumber, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name       string
		id         string
		body       string
		svcErr     error
		wantStatus int
	}{
		{
			name:       "valid_transition",
			id:         orderID.String(),
			body:       `{"status":"processing"}`,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "unknown_status",
			id:         orderID.String(),
			body:       `{"status":"teleported"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid_id",
			id:         "not-a-uuid",
			body:       `{"status":"processing"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "order_not_found",
			id:         orderID.String(),
			body:       `{"status":"processing"}`,
			svcErr:     order.ErrOrderNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "backwards_transition",
			id:         orderID.String(),
			body:       `{"status":"pending"}`,
			svcErr:     fmt.Errorf("%w: shipped -> pending", order.ErrInvalidStatusTransition),
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{
				updateStatusFunc: func(ctx context.Context, id uuid.UUID, newStatus order.Status) error {
					return tt.svcErr
				},
			}
			router := newOrderRouter(svc)

			req := httptest.NewRequest(http.MethodPatch, "/orders/"+tt.id+"/status", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestOrderHandler_List(t *testing.T) {
	svc := &mockOrderService{
		listFunc: func(ctx context.Context) ([]order.Order, error) {
			return []order.Order{
				{OrderNumber: "150626-000001", Status: order.StatusPending},
				{OrderNumber: "150626-000002", Status: order.StatusShipped},
			}, nil
		},
	}
	router := newOrderRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "150626-000001")
	assert.Contains(t, rec.Body.String(), "150626-000002")
}
