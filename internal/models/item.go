package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemType identifies the kind of travel inventory an item represents.
type ItemType string

const (
	ItemTypeFlight ItemType = "flight"
	ItemTypeBus    ItemType = "bus"
	ItemTypeTrip   ItemType = "trip"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeFlight, ItemTypeBus, ItemTypeTrip:
		return true
	}
	return false
}

// InventoryItem is a bookable unit of travel inventory: a flight, a bus
// departure or a trip. Capacity is the number of seats or spots still
// available; Version increases on every capacity mutation and is the
// basis for optimistic concurrency control.
type InventoryItem struct {
	ID            uuid.UUID `json:"id"`
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
	TotalCapacity int       `json:"totalCapacity"`
	Capacity      int       `json:"capacity"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ItemFilter narrows inventory listings and searches.
type ItemFilter struct {
	Type         ItemType
	Origin       string
	Destination  string
	DepartureDay time.Time
	FeaturedOnly bool
}

// Matches reports whether the item satisfies every set filter field.
func (f ItemFilter) Matches(item *InventoryItem) bool {
	if f.Type != "" && item.Type != f.Type {
		return false
	}
	if f.FeaturedOnly && !item.Featured {
		return false
	}
	if f.Origin != "" && !strings.EqualFold(item.Origin, f.Origin) {
		return false
	}
	if f.Destination != "" && !strings.EqualFold(item.Destination, f.Destination) {
		return false
	}
	if !f.DepartureDay.IsZero() {
		y1, m1, d1 := f.DepartureDay.Date()
		y2, m2, d2 := item.DepartureTime.Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			return false
		}
	}
	return true
}
