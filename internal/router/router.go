package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/auth"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/handlers"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/metrics"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/tracing"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/ws"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *handlers.Handler, hub *ws.Hub, jwtSecret string) *mux.Router {
	r := mux.NewRouter()

	// CORS, tracing and request metrics apply everywhere
	r.Use(corsMiddleware)
	r.Use(tracing.Middleware)
	r.Use(metrics.Middleware)

	authenticated := auth.Middleware(jwtSecret)

	// API routes
	api := r.PathPrefix("/api").Subrouter()

	// Catalog (public)
	api.HandleFunc("/items", h.GetItems).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/items/{id}", h.GetItem).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/search", h.SearchItems).Methods(http.MethodGet, http.MethodOptions)

	// Catalog administration
	admin := api.NewRoute().Subrouter()
	admin.Use(authenticated, auth.RequireAdmin)
	admin.HandleFunc("/items", h.CreateItem).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/items/{id}", h.UpdateItem).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/items/{id}", h.DeleteItem).Methods(http.MethodDelete, http.MethodOptions)

	// Bookings
	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.Use(authenticated)
	bookings.HandleFunc("", h.CreateBooking).Methods(http.MethodPost, http.MethodOptions)
	bookings.HandleFunc("", h.ListBookings).Methods(http.MethodGet, http.MethodOptions)
	bookings.HandleFunc("/{id}/confirm", h.ConfirmBooking).Methods(http.MethodPost, http.MethodOptions)
	bookings.HandleFunc("/{id}", h.CancelBooking).Methods(http.MethodDelete, http.MethodOptions)

	// WebSocket for real-time capacity updates
	api.Handle("/items/{id}/ws", hub)

	// Health check and metrics
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
