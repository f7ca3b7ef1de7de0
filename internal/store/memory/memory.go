// Package memory provides mutex-guarded in-memory implementations of the
// store interfaces. It backs the test suite and serves as the default
// backend when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store"
)

// InventoryStore keeps inventory items in a map guarded by a mutex. The
// version check in AdjustCapacity runs under the lock, so it provides the
// same serialization point a conditional database update would.
type InventoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*models.InventoryItem
}

// NewInventoryStore creates an empty in-memory inventory store.
func NewInventoryStore() *InventoryStore {
	return &InventoryStore{items: make(map[uuid.UUID]*models.InventoryItem)}
}

func (s *InventoryStore) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (s *InventoryStore) ListItems(ctx context.Context, filter models.ItemFilter) ([]models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.InventoryItem
	for _, item := range s.items {
		if filter.Matches(item) {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].DepartureTime.Before(items[j].DepartureTime)
	})
	return items, nil
}

func (s *InventoryStore) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	copied := *item
	s.items[item.ID] = &copied
	return nil
}

func (s *InventoryStore) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.ID]
	if !ok {
		return store.ErrNotFound
	}
	// Capacity, total and version belong to the reservation path.
	item.CreatedAt = existing.CreatedAt
	item.Capacity = existing.Capacity
	item.TotalCapacity = existing.TotalCapacity
	item.Version = existing.Version
	item.UpdatedAt = time.Now()
	copied := *item
	s.items[item.ID] = &copied
	return nil
}

func (s *InventoryStore) DeleteItem(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *InventoryStore) AdjustCapacity(ctx context.Context, id uuid.UUID, delta int, version int64) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if item.Version != version {
		return nil, store.ErrVersionConflict
	}
	next := item.Capacity + delta
	if next < 0 || next > item.TotalCapacity {
		return nil, store.ErrCapacityExceeded
	}
	item.Capacity = next
	item.Version++
	item.UpdatedAt = time.Now()
	copied := *item
	return &copied, nil
}

// BookingLedger keeps bookings in a map guarded by a mutex.
type BookingLedger struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*models.Booking
}

// NewBookingLedger creates an empty in-memory booking ledger.
func NewBookingLedger() *BookingLedger {
	return &BookingLedger{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (l *BookingLedger) Append(ctx context.Context, booking *models.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	copied := *booking
	l.bookings[booking.ID] = &copied
	return nil
}

func (l *BookingLedger) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	booking, ok := l.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *booking
	return &copied, nil
}

func (l *BookingLedger) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var bookings []models.Booking
	for _, b := range l.bookings {
		if b.UserID == userID {
			bookings = append(bookings, *b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].BookedAt.After(bookings[j].BookedAt)
	})
	return bookings, nil
}

func (l *BookingLedger) UpdateStatus(ctx context.Context, id uuid.UUID, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	booking, ok := l.bookings[id]
	if !ok {
		return false, store.ErrNotFound
	}
	for _, status := range from {
		if booking.Status == status {
			booking.Status = to
			return true, nil
		}
	}
	return false, nil
}
