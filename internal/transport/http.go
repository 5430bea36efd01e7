package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nexus-store/storefront/internal/catalog"
	"github.com/nexus-store/storefront/internal/checkout"
	"github.com/nexus-store/storefront/internal/handler"
	"github.com/nexus-store/storefront/internal/metrics"
	"github.com/nexus-store/storefront/internal/order"
	"github.com/nexus-store/storefront/internal/payment"
	"github.com/nexus-store/storefront/internal/promotion"
	"github.com/nexus-store/storefront/internal/ws"
)

type Deps struct {
	Catalog    catalog.Repository
	Promotions promotion.Service
	Orders     order.Service
	Checkout   checkout.Service
	Payments   payment.Service
	Hub        *ws.Hub
	Metrics    *metrics.Metrics
}

func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	handler.NewCatalogHandler(deps.Catalog).RegisterRoutes(r)
	handler.NewCartHandler(deps.Checkout).RegisterRoutes(r)
	handler.NewCheckoutHandler(deps.Checkout).RegisterRoutes(r)
	handler.NewPaymentHandler(deps.Checkout, deps.Payments, deps.Metrics).RegisterRoutes(r)

	orderHandler := handler.NewOrderHandler(deps.Orders)
	orderHandler.RegisterRoutes(r)

	r.Route("/admin", func(admin chi.Router) {
		orderHandler.RegisterAdminRoutes(admin)
		handler.NewPromotionHandler(deps.Promotions).RegisterAdminRoutes(admin)
		admin.Get("/orders/live", deps.Hub.ServeHTTP)
	})

	return r
}
