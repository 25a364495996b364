package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rotteck/merchshop/internal/config"
	"github.com/rotteck/merchshop/internal/handler"
	"github.com/rotteck/merchshop/internal/order"
)

// NewRouter wires repository, service and handlers onto the API routes.
// Method filtering happens inside the handlers so that disallowed methods
// get a 405 with an Allow header.
func NewRouter(dbPool *pgxpool.Pool, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	repo := order.NewRepository(dbPool)
	svc := order.NewService(repo)
	orderHandler := handler.NewOrderHandler(svc)
	adminHandler := handler.NewAdminHandler(svc, cfg.Admin.PortalPassword, cfg.Pricing.UnitPriceEUR)

	r.HandleFunc("/api/create-order", orderHandler.CreateOrder)
	r.HandleFunc("/api/order-status", orderHandler.OrderStatus)
	r.HandleFunc("/api/admin-summary", adminHandler.Summary)
	r.HandleFunc("/api/mark-order-paid", adminHandler.MarkOrderPaid)

	return r
}
