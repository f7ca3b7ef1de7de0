// Package store defines the persistence contracts the reservation service
// depends on: an inventory store with an atomic, version-checked capacity
// update, and an append-mostly booking ledger with a conditional status
// transition. Implementations live in the subpackages postgres, mongodb
// and memory.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
)

var (
	// ErrNotFound is returned when the requested item or booking does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned by AdjustCapacity when the item was
	// modified since the caller read it.
	ErrVersionConflict = errors.New("version conflict")
	// ErrCapacityExceeded is returned when an adjustment would drive
	// capacity negative or above the item's total.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

// InventoryStore holds travel items and their capacity counters.
type InventoryStore interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context, filter models.ItemFilter) ([]models.InventoryItem, error)
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	UpdateItem(ctx context.Context, item *models.InventoryItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// AdjustCapacity applies delta to the item's capacity if and only if the
	// item's stored version equals version; on success the version is
	// incremented and the updated item returned. ErrVersionConflict signals
	// a concurrent writer won the race; ErrCapacityExceeded signals the
	// adjustment would leave capacity out of the [0, TotalCapacity] range.
	AdjustCapacity(ctx context.Context, id uuid.UUID, delta int, version int64) (*models.InventoryItem, error)
}

// BookingLedger is the durable per-user record of bookings. Entries are
// appended and transitioned, never deleted.
type BookingLedger interface {
	Append(ctx context.Context, booking *models.Booking) error
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)

	// UpdateStatus transitions the booking to the given status if its
	// current status is one of from. It returns true when the transition
	// happened and false when the booking was already outside the from set,
	// which is how callers implement idempotent cancellation.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []models.BookingStatus, to models.BookingStatus) (bool, error)
}
