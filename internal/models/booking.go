package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a ledger entry recording that a user consumed capacity on an
// inventory item. Bookings are never deleted; cancellation flips the status
// and releases the capacity back to the item.
type Booking struct {
	ID         uuid.UUID     `json:"id"`
	UserID     string        `json:"userId"`
	ItemID     uuid.UUID     `json:"itemId"`
	ItemType   ItemType      `json:"itemType"`
	Quantity   int           `json:"quantity"`
	Status     BookingStatus `json:"status"`
	UnitPrice  float64       `json:"unitPrice"`
	TotalPrice float64       `json:"totalPrice"`
	BookedAt   time.Time     `json:"bookedAt"`
	ExpiresAt  *time.Time    `json:"expiresAt,omitempty"`
}

// CreateBookingRequest is the payload for POST /api/bookings.
type CreateBookingRequest struct {
	ItemID   string  `json:"itemId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Hold     bool    `json:"hold,omitempty"`
}

// CreateItemRequest is the payload for the admin inventory endpoints.
type CreateItemRequest struct {
	Type          ItemType  `json:"type"`
	Name          string    `json:"name"`
	Origin        string    `json:"origin,omitempty"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departureTime"`
	ArrivalTime   time.Time `json:"arrivalTime"`
	Operator      string    `json:"operator,omitempty"`
	Number        string    `json:"number,omitempty"`
	Price         float64   `json:"price"`
	Rating        float64   `json:"rating,omitempty"`
	Featured      bool      `json:"featured"`
	Capacity      int       `json:"capacity"`
}
