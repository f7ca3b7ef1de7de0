package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/auth"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/handlers/mocks"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/reservation"
)

func setupTestRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/items", h.GetItems).Methods(http.MethodGet)
	api.HandleFunc("/items", h.CreateItem).Methods(http.MethodPost)
	api.HandleFunc("/items/{id}", h.GetItem).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}", h.UpdateItem).Methods(http.MethodPut)
	api.HandleFunc("/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
	api.HandleFunc("/search", h.SearchItems).Methods(http.MethodGet)
	api.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings", h.ListBookings).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/confirm", h.ConfirmBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}", h.CancelBooking).Methods(http.MethodDelete)
	return r
}

// authedRequest attaches claims the way the auth middleware would.
func authedRequest(req *http.Request, userID string) *http.Request {
	claims := &auth.Claims{UserID: userID}
	return req.WithContext(auth.NewContext(req.Context(), claims))
}

func adminRequest(req *http.Request) *http.Request {
	claims := &auth.Claims{UserID: "admin-1", IsAdmin: true}
	return req.WithContext(auth.NewContext(req.Context(), claims))
}

func TestHandler_GetItems(t *testing.T) {
	mockCatalog := new(mocks.MockCatalogService)
	handler := NewHandler(new(mocks.MockReservationService), mockCatalog)
	router := setupTestRouter(handler)

	itemID := uuid.New()
	expectedItems := []models.InventoryItem{
		{
			ID:          itemID,
			Type:        models.ItemTypeFlight,
			Name:        "Morning flight",
			Origin:      "Karachi",
			Destination: "Lahore",
			Price:       150.00,
			Capacity:    100,
		},
	}

	mockCatalog.On("ListItems", mock.Anything, models.ItemFilter{Type: models.ItemTypeFlight}).
		Return(expectedItems, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/items?type=flight", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []models.InventoryItem
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Len(t, response, 1)
	assert.Equal(t, itemID, response[0].ID)

	mockCatalog.AssertExpectations(t)
}

func TestHandler_GetItems_UnknownType(t *testing.T) {
	handler := NewHandler(new(mocks.MockReservationService), new(mocks.MockCatalogService))
	router := setupTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/items?type=train", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_SearchItems(t *testing.T) {
	mockCatalog := new(mocks.MockCatalogService)
	handler := NewHandler(new(mocks.MockReservationService), mockCatalog)
	router := setupTestRouter(handler)

	day, _ := time.Parse("2006-01-02", "2026-09-15")
	expectedFilter := models.ItemFilter{
		Type:         models.ItemTypeBus,
		Origin:       "Islamabad",
		Destination:  "Murree",
		DepartureDay: day,
	}
	mockCatalog.On("ListItems", mock.Anything, expectedFilter).
		Return([]models.InventoryItem{}, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/search?type=bus&from=Islamabad&to=Murree&date=2026-09-15", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
	mockCatalog.AssertExpectations(t)
}

func TestHandler_SearchItems_BadDate(t *testing.T) {
	handler := NewHandler(new(mocks.MockReservationService), new(mocks.MockCatalogService))
	router := setupTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/search?date=15-09-2026", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetItem(t *testing.T) {
	itemID := uuid.New()

	tests := []struct {
		name           string
		itemID         string
		mockReturn     *models.InventoryItem
		mockError      error
		expectedStatus int
		shouldCallMock bool
	}{
		{
			name:           "item found",
			itemID:         itemID.String(),
			mockReturn:     &models.InventoryItem{ID: itemID, Type: models.ItemTypeTrip},
			expectedStatus: http.StatusOK,
			shouldCallMock: true,
		},
		{
			name:           "item not found",
			itemID:         uuid.New().String(),
			mockError:      reservation.ErrItemNotFound,
			expectedStatus: http.StatusNotFound,
			shouldCallMock: true,
		},
		{
			name:           "malformed id",
			itemID:         "not-a-uuid",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCatalog := new(mocks.MockCatalogService)
			handler := NewHandler(new(mocks.MockReservationService), mockCatalog)
			router := setupTestRouter(handler)

			if tt.shouldCallMock {
				mockCatalog.On("GetItem", mock.Anything, uuid.MustParse(tt.itemID)).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/items/"+tt.itemID, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockCatalog.AssertExpectations(t)
		})
	}
}

func TestHandler_CreateItem(t *testing.T) {
	itemID := uuid.New()

	tests := []struct {
		name           string
		requestBody    interface{}
		mockReturn     *models.InventoryItem
		expectedStatus int
		shouldCallMock bool
	}{
		{
			name: "valid item",
			requestBody: models.CreateItemRequest{
				Type:        models.ItemTypeFlight,
				Name:        "Evening flight",
				Destination: "Dubai",
				Capacity:    180,
			},
			mockReturn:     &models.InventoryItem{ID: itemID},
			expectedStatus: http.StatusCreated,
			shouldCallMock: true,
		},
		{
			name: "unknown type",
			requestBody: models.CreateItemRequest{
				Type:        "train",
				Name:        "X",
				Destination: "Y",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing name",
			requestBody: models.CreateItemRequest{
				Type:        models.ItemTypeBus,
				Destination: "Y",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "negative capacity",
			requestBody: models.CreateItemRequest{
				Type:        models.ItemTypeBus,
				Name:        "X",
				Destination: "Y",
				Capacity:    -1,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			requestBody:    "not json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCatalog := new(mocks.MockCatalogService)
			handler := NewHandler(new(mocks.MockReservationService), mockCatalog)
			router := setupTestRouter(handler)

			if tt.shouldCallMock {
				mockCatalog.On("CreateItem", mock.Anything, mock.AnythingOfType("*models.CreateItemRequest")).
					Return(tt.mockReturn, nil)
			}

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest(http.MethodPost, "/api/items", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockCatalog.AssertExpectations(t)
		})
	}
}

func TestHandler_CreateBooking(t *testing.T) {
	itemID := uuid.New()
	bookingID := uuid.New()

	tests := []struct {
		name           string
		requestBody    interface{}
		authenticated  bool
		mockMethod     string
		mockReturn     *models.Booking
		mockError      error
		expectedStatus int
	}{
		{
			name: "successful booking",
			requestBody: models.CreateBookingRequest{
				ItemID:   itemID.String(),
				Quantity: 2,
				Price:    100,
			},
			authenticated: true,
			mockMethod:    "Reserve",
			mockReturn: &models.Booking{
				ID:       bookingID,
				ItemID:   itemID,
				Quantity: 2,
				Status:   models.BookingStatusConfirmed,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "hold requested",
			requestBody: models.CreateBookingRequest{
				ItemID:   itemID.String(),
				Quantity: 1,
				Hold:     true,
			},
			authenticated: true,
			mockMethod:    "Hold",
			mockReturn: &models.Booking{
				ID:     bookingID,
				ItemID: itemID,
				Status: models.BookingStatusPending,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "not authenticated",
			requestBody: models.CreateBookingRequest{
				ItemID:   itemID.String(),
				Quantity: 1,
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "item not found",
			requestBody: models.CreateBookingRequest{
				ItemID:   itemID.String(),
				Quantity: 1,
			},
			authenticated:  true,
			mockMethod:     "Reserve",
			mockError:      reservation.ErrItemNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "sold out",
			requestBody: models.CreateBookingRequest{
				ItemID:   itemID.String(),
				Quantity: 5,
			},
			authenticated:  true,
			mockMethod:     "Reserve",
			mockError:      reservation.ErrInsufficientCapacity,
			expectedStatus: http.StatusConflict,
		},
		{
			name: "invalid quantity",
			requestBody: models.CreateBookingRequest{
				ItemID:   itemID.String(),
				Quantity: 0,
			},
			authenticated:  true,
			mockMethod:     "Reserve",
			mockError:      reservation.ErrInvalidQuantity,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "contention exhausted",
			requestBody: models.CreateBookingRequest{
				ItemID:   itemID.String(),
				Quantity: 1,
			},
			authenticated:  true,
			mockMethod:     "Reserve",
			mockError:      reservation.ErrContention,
			expectedStatus: http.StatusConflict,
		},
		{
			name: "malformed item id",
			requestBody: models.CreateBookingRequest{
				ItemID:   "nope",
				Quantity: 1,
			},
			authenticated:  true,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReservations := new(mocks.MockReservationService)
			handler := NewHandler(mockReservations, new(mocks.MockCatalogService))
			router := setupTestRouter(handler)

			if tt.mockMethod != "" && (tt.mockReturn != nil || tt.mockError != nil) {
				mockReservations.On(tt.mockMethod, mock.Anything, mock.AnythingOfType("reservation.ReserveRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(body))
			if tt.authenticated {
				req = authedRequest(req, "user-1")
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockReservations.AssertExpectations(t)
		})
	}
}

func TestHandler_ListBookings(t *testing.T) {
	mockReservations := new(mocks.MockReservationService)
	handler := NewHandler(mockReservations, new(mocks.MockCatalogService))
	router := setupTestRouter(handler)

	expected := []models.Booking{
		{ID: uuid.New(), UserID: "user-1", Status: models.BookingStatusConfirmed},
	}
	mockReservations.On("ListBookings", mock.Anything, "user-1").Return(expected, nil)

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/bookings", nil), "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []models.Booking
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Len(t, response, 1)
	mockReservations.AssertExpectations(t)
}

func TestHandler_ListBookings_Unauthenticated(t *testing.T) {
	handler := NewHandler(new(mocks.MockReservationService), new(mocks.MockCatalogService))
	router := setupTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_ConfirmBooking(t *testing.T) {
	bookingID := uuid.New()
	owned := &models.Booking{ID: bookingID, UserID: "user-1", Status: models.BookingStatusPending}

	tests := []struct {
		name           string
		bookingID      string
		asUser         string
		asAdmin        bool
		booking        *models.Booking
		getError       error
		confirmError   error
		expectedStatus int
		expectConfirm  bool
	}{
		{
			name:           "confirmed by owner",
			bookingID:      bookingID.String(),
			asUser:         "user-1",
			booking:        owned,
			expectedStatus: http.StatusOK,
			expectConfirm:  true,
		},
		{
			name:           "confirmed by admin",
			bookingID:      bookingID.String(),
			asAdmin:        true,
			expectedStatus: http.StatusOK,
			expectConfirm:  true,
		},
		{
			name:           "another user's booking",
			bookingID:      bookingID.String(),
			asUser:         "user-2",
			booking:        owned,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "not found",
			bookingID:      uuid.New().String(),
			asUser:         "user-1",
			getError:       reservation.ErrBookingNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "already cancelled",
			bookingID:      bookingID.String(),
			asUser:         "user-1",
			booking:        owned,
			confirmError:   reservation.ErrBookingNotPending,
			expectedStatus: http.StatusConflict,
			expectConfirm:  true,
		},
		{
			name:           "unauthenticated",
			bookingID:      bookingID.String(),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed id",
			bookingID:      "nope",
			asUser:         "user-1",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReservations := new(mocks.MockReservationService)
			handler := NewHandler(mockReservations, new(mocks.MockCatalogService))
			router := setupTestRouter(handler)

			if tt.booking != nil || tt.getError != nil {
				mockReservations.On("GetBooking", mock.Anything, uuid.MustParse(tt.bookingID)).
					Return(tt.booking, tt.getError)
			}
			if tt.expectConfirm {
				mockReservations.On("Confirm", mock.Anything, uuid.MustParse(tt.bookingID)).
					Return(tt.confirmError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/bookings/"+tt.bookingID+"/confirm", nil)
			switch {
			case tt.asAdmin:
				req = adminRequest(req)
			case tt.asUser != "":
				req = authedRequest(req, tt.asUser)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockReservations.AssertExpectations(t)
		})
	}
}

func TestHandler_CancelBooking(t *testing.T) {
	bookingID := uuid.New()
	owned := &models.Booking{ID: bookingID, UserID: "user-1", Status: models.BookingStatusConfirmed}

	tests := []struct {
		name           string
		bookingID      string
		asUser         string
		asAdmin        bool
		booking        *models.Booking
		getError       error
		expectedStatus int
		expectCancel   bool
	}{
		{
			name:           "cancelled by owner",
			bookingID:      bookingID.String(),
			asUser:         "user-1",
			booking:        owned,
			expectedStatus: http.StatusOK,
			expectCancel:   true,
		},
		{
			name:           "cancelled by admin",
			bookingID:      bookingID.String(),
			asAdmin:        true,
			expectedStatus: http.StatusOK,
			expectCancel:   true,
		},
		{
			name:           "another user's booking",
			bookingID:      bookingID.String(),
			asUser:         "user-2",
			booking:        owned,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "not found",
			bookingID:      uuid.New().String(),
			asUser:         "user-1",
			getError:       reservation.ErrBookingNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "unauthenticated",
			bookingID:      bookingID.String(),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed id",
			bookingID:      "nope",
			asUser:         "user-1",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReservations := new(mocks.MockReservationService)
			handler := NewHandler(mockReservations, new(mocks.MockCatalogService))
			router := setupTestRouter(handler)

			if tt.booking != nil || tt.getError != nil {
				mockReservations.On("GetBooking", mock.Anything, uuid.MustParse(tt.bookingID)).
					Return(tt.booking, tt.getError)
			}
			if tt.expectCancel {
				mockReservations.On("Cancel", mock.Anything, uuid.MustParse(tt.bookingID)).
					Return(nil)
			}

			req := httptest.NewRequest(http.MethodDelete, "/api/bookings/"+tt.bookingID, nil)
			switch {
			case tt.asAdmin:
				req = adminRequest(req)
			case tt.asUser != "":
				req = authedRequest(req, tt.asUser)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			mockReservations.AssertExpectations(t)
		})
	}
}
