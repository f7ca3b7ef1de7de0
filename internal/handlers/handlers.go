package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/auth"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/catalog"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/reservation"
)

// ReservationService is the booking surface the handlers depend on.
type ReservationService interface {
	Reserve(ctx context.Context, req reservation.ReserveRequest) (*models.Booking, error)
	Hold(ctx context.Context, req reservation.ReserveRequest) (*models.Booking, error)
	Confirm(ctx context.Context, bookingID uuid.UUID) error
	Cancel(ctx context.Context, bookingID uuid.UUID) error
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]models.Booking, error)
}

// CatalogService is the inventory surface the handlers depend on.
type CatalogService interface {
	ListItems(ctx context.Context, filter models.ItemFilter) ([]models.InventoryItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	CreateItem(ctx context.Context, req *models.CreateItemRequest) (*models.InventoryItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req *models.CreateItemRequest) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

// Handler contains HTTP handlers for the API.
type Handler struct {
	reservations ReservationService
	catalog      CatalogService
}

// NewHandler creates a new Handler instance.
func NewHandler(reservations ReservationService, catalogService CatalogService) *Handler {
	return &Handler{
		reservations: reservations,
		catalog:      catalogService,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the business error taxonomy to HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reservation.ErrItemNotFound),
		errors.Is(err, reservation.ErrBookingNotFound),
		errors.Is(err, catalog.ErrItemNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reservation.ErrInsufficientCapacity),
		errors.Is(err, reservation.ErrContention),
		errors.Is(err, reservation.ErrBookingNotPending):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, reservation.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, reservation.ErrTimeout):
		respondError(w, http.StatusGatewayTimeout, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// GetItems handles GET /api/items
func (h *Handler) GetItems(w http.ResponseWriter, r *http.Request) {
	filter := models.ItemFilter{
		Type:         models.ItemType(r.URL.Query().Get("type")),
		FeaturedOnly: r.URL.Query().Get("featured") == "true",
	}
	if filter.Type != "" && !filter.Type.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown item type")
		return
	}

	items, err := h.catalog.ListItems(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

// SearchItems handles GET /api/search
func (h *Handler) SearchItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.ItemFilter{
		Type:        models.ItemType(query.Get("type")),
		Origin:      query.Get("from"),
		Destination: query.Get("to"),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown item type")
		return
	}
	if date := query.Get("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		filter.DepartureDay = day
	}

	items, err := h.catalog.ListItems(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

// GetItem handles GET /api/items/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// CreateItem handles POST /api/items (admin)
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Type.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown item type")
		return
	}
	if req.Name == "" || req.Destination == "" {
		respondError(w, http.StatusBadRequest, "Name and destination are required")
		return
	}
	if req.Capacity < 0 {
		respondError(w, http.StatusBadRequest, "Capacity must not be negative")
		return
	}

	item, err := h.catalog.CreateItem(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PUT /api/items/{id} (admin)
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req models.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.catalog.UpdateItem(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/items/{id} (admin)
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := h.catalog.DeleteItem(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Item deleted"})
}

// CreateBooking handles POST /api/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req models.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	if req.Price < 0 {
		respondError(w, http.StatusBadRequest, "Price must not be negative")
		return
	}

	reserveReq := reservation.ReserveRequest{
		ItemID:    itemID,
		UserID:    claims.UserID,
		Quantity:  req.Quantity,
		UnitPrice: req.Price,
	}

	var booking *models.Booking
	if req.Hold {
		booking, err = h.reservations.Hold(r.Context(), reserveReq)
	} else {
		booking, err = h.reservations.Reserve(r.Context(), reserveReq)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

// ListBookings handles GET /api/bookings
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	bookings, err := h.reservations.ListBookings(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	respondJSON(w, http.StatusOK, bookings)
}

// authorizeBooking checks that the booking belongs to the caller. Admins may
// act on any booking.
func (h *Handler) authorizeBooking(w http.ResponseWriter, r *http.Request, id uuid.UUID) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return false
	}
	if claims.IsAdmin {
		return true
	}

	booking, err := h.reservations.GetBooking(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return false
	}
	if booking.UserID != claims.UserID {
		respondError(w, http.StatusForbidden, "Booking belongs to another user")
		return false
	}
	return true
}

// ConfirmBooking handles POST /api/bookings/{id}/confirm
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}
	if !h.authorizeBooking(w, r, id) {
		return
	}

	if err := h.reservations.Confirm(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Booking confirmed"})
}

// CancelBooking handles DELETE /api/bookings/{id}
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}
	if !h.authorizeBooking(w, r, id) {
		return
	}

	if err := h.reservations.Cancel(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Booking cancelled"})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
