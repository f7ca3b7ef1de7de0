// Package postgres implements the store interfaces on PostgreSQL via pgx.
// Capacity adjustments use a single conditional UPDATE so the version check
// and the write are one statement; the ledger status transition works the
// same way.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store"
)

const itemColumns = `id, item_type, name, origin, destination, departure_time, arrival_time,
	       operator, number, price, rating, featured, total_capacity, capacity, version,
	       created_at, updated_at`

// InventoryStore is the PostgreSQL-backed inventory store.
type InventoryStore struct {
	pool *pgxpool.Pool
}

// NewInventoryStore creates an inventory store on the given pool.
func NewInventoryStore(pool *pgxpool.Pool) *InventoryStore {
	return &InventoryStore{pool: pool}
}

func scanItem(row pgx.Row) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := row.Scan(
		&item.ID, &item.Type, &item.Name, &item.Origin, &item.Destination,
		&item.DepartureTime, &item.ArrivalTime, &item.Operator, &item.Number,
		&item.Price, &item.Rating, &item.Featured, &item.TotalCapacity,
		&item.Capacity, &item.Version, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *InventoryStore) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := scanItem(s.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (s *InventoryStore) ListItems(ctx context.Context, filter models.ItemFilter) ([]models.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items
		WHERE ($1 = '' OR item_type = $1)
		  AND (NOT $2 OR featured)
		  AND ($3 = '' OR LOWER(origin) = LOWER($3))
		  AND ($4 = '' OR LOWER(destination) = LOWER($4))
		  AND ($5::date IS NULL OR departure_time::date = $5::date)
		ORDER BY departure_time ASC
	`

	var day any
	if !filter.DepartureDay.IsZero() {
		day = filter.DepartureDay
	}

	rows, err := s.pool.Query(ctx, query,
		string(filter.Type), filter.FeaturedOnly, filter.Origin, filter.Destination, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []models.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *InventoryStore) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO inventory_items (id, item_type, name, origin, destination, departure_time,
			arrival_time, operator, number, price, rating, featured, total_capacity, capacity, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 0)
		RETURNING version, created_at, updated_at
	`,
		item.ID, item.Type, item.Name, item.Origin, item.Destination, item.DepartureTime,
		item.ArrivalTime, item.Operator, item.Number, item.Price, item.Rating, item.Featured,
		item.TotalCapacity, item.Capacity,
	).Scan(&item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (s *InventoryStore) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE inventory_items
		SET name = $2, origin = $3, destination = $4, departure_time = $5, arrival_time = $6,
		    operator = $7, number = $8, price = $9, rating = $10, featured = $11,
		    updated_at = NOW()
		WHERE id = $1
	`,
		item.ID, item.Name, item.Origin, item.Destination, item.DepartureTime,
		item.ArrivalTime, item.Operator, item.Number, item.Price, item.Rating, item.Featured,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *InventoryStore) DeleteItem(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AdjustCapacity performs the compare-and-swap: the UPDATE only matches when
// the stored version equals the caller's and the new capacity stays within
// bounds. A zero row count is classified with a follow-up read.
func (s *InventoryStore) AdjustCapacity(ctx context.Context, id uuid.UUID, delta int, version int64) (*models.InventoryItem, error) {
	item, err := scanItem(s.pool.QueryRow(ctx, `
		UPDATE inventory_items
		SET capacity = capacity + $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
		  AND capacity + $2 >= 0 AND capacity + $2 <= total_capacity
		RETURNING `+itemColumns+`
	`, id, delta, version))
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to adjust capacity: %w", err)
	}

	current, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != version {
		return nil, store.ErrVersionConflict
	}
	return nil, store.ErrCapacityExceeded
}

// BookingLedger is the PostgreSQL-backed booking ledger.
type BookingLedger struct {
	pool *pgxpool.Pool
}

// NewBookingLedger creates a booking ledger on the given pool.
func NewBookingLedger(pool *pgxpool.Pool) *BookingLedger {
	return &BookingLedger{pool: pool}
}

const bookingColumns = `id, user_id, item_id, item_type, quantity, status, unit_price,
	       total_price, booked_at, expires_at`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.ItemID, &b.ItemType, &b.Quantity, &b.Status,
		&b.UnitPrice, &b.TotalPrice, &b.BookedAt, &b.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (l *BookingLedger) Append(ctx context.Context, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	_, err := l.pool.Exec(ctx, `
		INSERT INTO bookings (id, user_id, item_id, item_type, quantity, status,
			unit_price, total_price, booked_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		booking.ID, booking.UserID, booking.ItemID, booking.ItemType, booking.Quantity,
		booking.Status, booking.UnitPrice, booking.TotalPrice, booking.BookedAt, booking.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append booking: %w", err)
	}
	return nil
}

func (l *BookingLedger) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := scanBooking(l.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (l *BookingLedger) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE user_id = $1
		ORDER BY booked_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *booking)
	}
	return bookings, rows.Err()
}

func (l *BookingLedger) UpdateStatus(ctx context.Context, id uuid.UUID, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	states := make([]string, len(from))
	for i, status := range from {
		states[i] = string(status)
	}

	result, err := l.pool.Exec(ctx, `
		UPDATE bookings SET status = $2 WHERE id = $1 AND status = ANY($3)
	`, id, to, states)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.RowsAffected() > 0 {
		return true, nil
	}

	// No transition: distinguish a missing booking from one already settled.
	if _, err := l.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
