// Package reservation implements the one component with real logic in the
// system: atomic, race-free consumption and release of inventory capacity.
// All coordination happens through the store's version-checked capacity
// update; the service itself keeps no state between requests.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/events"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/metrics"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store"
)

const (
	// DefaultMaxAttempts bounds the optimistic retry loop in Reserve.
	DefaultMaxAttempts = 5
	// DefaultHoldTTL is how long a pending booking holds capacity before
	// the expiry workflow releases it.
	DefaultHoldTTL = 15 * time.Minute
)

// CapacityNotifier receives capacity snapshots after every successful
// mutation, for live updates to connected clients.
type CapacityNotifier interface {
	NotifyCapacity(item *models.InventoryItem)
}

// HoldScheduler starts the expiry countdown for a pending booking and stops
// it again once the booking settles.
type HoldScheduler interface {
	ScheduleExpiry(ctx context.Context, booking *models.Booking) error
	CancelExpiry(ctx context.Context, bookingID uuid.UUID) error
}

// ReserveRequest carries everything needed to consume capacity.
type ReserveRequest struct {
	ItemID    uuid.UUID
	UserID    string
	Quantity  int
	UnitPrice float64
}

// Config wires a Service. Inventory, Ledger and Logger are required; the
// rest default to no-ops.
type Config struct {
	Inventory   store.InventoryStore
	Ledger      store.BookingLedger
	Publisher   events.Publisher
	Notifier    CapacityNotifier
	Scheduler   HoldScheduler
	Logger      *zap.Logger
	MaxAttempts int
	HoldTTL     time.Duration
}

// Service is the sole writer of capacity.
type Service struct {
	inventory   store.InventoryStore
	ledger      store.BookingLedger
	publisher   events.Publisher
	notifier    CapacityNotifier
	scheduler   HoldScheduler
	logger      *zap.Logger
	tracer      trace.Tracer
	maxAttempts int
	holdTTL     time.Duration
}

// NewService creates a reservation service.
func NewService(cfg Config) *Service {
	if cfg.Publisher == nil {
		cfg.Publisher = events.NopPublisher{}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = DefaultHoldTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		inventory:   cfg.Inventory,
		ledger:      cfg.Ledger,
		publisher:   cfg.Publisher,
		notifier:    cfg.Notifier,
		scheduler:   cfg.Scheduler,
		logger:      cfg.Logger,
		tracer:      otel.Tracer("reservation"),
		maxAttempts: cfg.MaxAttempts,
		holdTTL:     cfg.HoldTTL,
	}
}

// Reserve atomically checks and decrements capacity on the item and appends
// a confirmed booking. On any failure capacity and ledger are left in their
// pre-call state.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*models.Booking, error) {
	return s.reserve(ctx, req, false)
}

// Hold is Reserve with a pending booking that expires unless confirmed
// within the hold TTL.
func (s *Service) Hold(ctx context.Context, req ReserveRequest) (*models.Booking, error) {
	return s.reserve(ctx, req, true)
}

func (s *Service) reserve(ctx context.Context, req ReserveRequest, hold bool) (*models.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.Reserve",
		trace.WithAttributes(
			attribute.String("item.id", req.ItemID.String()),
			attribute.Int("quantity", req.Quantity),
		))
	defer span.End()

	if req.Quantity < 1 {
		metrics.ReservationsTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, ErrInvalidQuantity
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			// Covers both an expired deadline and caller cancellation.
			metrics.ReservationsTotal.WithLabelValues("timeout").Inc()
			return nil, ErrTimeout
		}

		item, err := s.inventory.GetItem(ctx, req.ItemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				metrics.ReservationsTotal.WithLabelValues("item_not_found").Inc()
				return nil, ErrItemNotFound
			}
			return nil, fmt.Errorf("failed to read item: %w", err)
		}

		if item.Capacity < req.Quantity {
			metrics.ReservationsTotal.WithLabelValues("insufficient_capacity").Inc()
			return nil, ErrInsufficientCapacity
		}

		updated, err := s.inventory.AdjustCapacity(ctx, req.ItemID, -req.Quantity, item.Version)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrVersionConflict):
				metrics.ReservationRetries.Inc()
				continue
			case errors.Is(err, store.ErrCapacityExceeded):
				// A concurrent reservation consumed the remaining capacity
				// between our read and the write.
				metrics.ReservationsTotal.WithLabelValues("insufficient_capacity").Inc()
				return nil, ErrInsufficientCapacity
			case errors.Is(err, store.ErrNotFound):
				metrics.ReservationsTotal.WithLabelValues("item_not_found").Inc()
				return nil, ErrItemNotFound
			default:
				return nil, fmt.Errorf("failed to adjust capacity: %w", err)
			}
		}

		booking := &models.Booking{
			ID:         uuid.New(),
			UserID:     req.UserID,
			ItemID:     item.ID,
			ItemType:   item.Type,
			Quantity:   req.Quantity,
			Status:     models.BookingStatusConfirmed,
			UnitPrice:  req.UnitPrice,
			TotalPrice: float64(req.Quantity) * req.UnitPrice,
			BookedAt:   time.Now(),
		}
		if hold {
			booking.Status = models.BookingStatusPending
			expiry := time.Now().Add(s.holdTTL)
			booking.ExpiresAt = &expiry
		}

		if err := s.ledger.Append(ctx, booking); err != nil {
			// The decrement already happened; undo it so no capacity is
			// consumed without a matching booking.
			s.releaseCapacity(ctx, item.ID, req.Quantity)
			return nil, fmt.Errorf("failed to append booking: %w", err)
		}

		if hold {
			if s.scheduler == nil {
				s.logger.Warn("no hold scheduler configured, hold will never expire on its own",
					zap.String("bookingId", booking.ID.String()),
					zap.Time("expiresAt", *booking.ExpiresAt),
				)
			} else if err := s.scheduler.ScheduleExpiry(ctx, booking); err != nil {
				s.logger.Warn("failed to schedule hold expiry",
					zap.String("bookingId", booking.ID.String()),
					zap.Error(err),
				)
			}
		}

		s.afterChange(ctx, events.EventBookingCreated, booking, updated)
		metrics.ReservationsTotal.WithLabelValues(string(booking.Status)).Inc()
		s.logger.Info("reservation created",
			zap.String("bookingId", booking.ID.String()),
			zap.String("itemId", item.ID.String()),
			zap.Int("quantity", req.Quantity),
			zap.String("status", string(booking.Status)),
			zap.Int("attempt", attempt+1),
		)
		return booking, nil
	}

	metrics.ReservationsTotal.WithLabelValues("contention").Inc()
	return nil, ErrContention
}

// Confirm settles a pending booking. Confirming an already confirmed
// booking is a no-op.
func (s *Service) Confirm(ctx context.Context, bookingID uuid.UUID) error {
	swapped, err := s.ledger.UpdateStatus(ctx, bookingID,
		[]models.BookingStatus{models.BookingStatusPending}, models.BookingStatusConfirmed)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to confirm booking: %w", err)
	}
	if !swapped {
		booking, err := s.ledger.Get(ctx, bookingID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("failed to read booking: %w", err)
		}
		if booking.Status == models.BookingStatusConfirmed {
			return nil
		}
		return ErrBookingNotPending
	}

	s.settleHold(ctx, bookingID)
	booking, err := s.ledger.Get(ctx, bookingID)
	if err == nil {
		s.publishEvent(ctx, events.EventBookingConfirmed, booking)
		s.logger.Info("booking confirmed", zap.String("bookingId", bookingID.String()))
	}
	return nil
}

// Cancel sets the booking to cancelled and releases its capacity back to
// the item. Cancelling an already cancelled booking is a no-op and never
// double-increments capacity: the conditional status transition is the
// serialization point.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "reservation.Cancel",
		trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer span.End()

	booking, err := s.ledger.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.CancellationsTotal.WithLabelValues("not_found").Inc()
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to read booking: %w", err)
	}

	swapped, err := s.ledger.UpdateStatus(ctx, bookingID,
		[]models.BookingStatus{models.BookingStatusConfirmed, models.BookingStatusPending},
		models.BookingStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !swapped {
		metrics.CancellationsTotal.WithLabelValues("noop").Inc()
		return nil
	}

	if booking.Status == models.BookingStatusPending {
		s.settleHold(ctx, bookingID)
	}
	item := s.releaseCapacity(ctx, booking.ItemID, booking.Quantity)
	booking.Status = models.BookingStatusCancelled
	s.afterChange(ctx, events.EventBookingCancelled, booking, item)
	metrics.CancellationsTotal.WithLabelValues("cancelled").Inc()
	s.logger.Info("booking cancelled",
		zap.String("bookingId", bookingID.String()),
		zap.Int("released", booking.Quantity),
	)
	return nil
}

// ExpireHold cancels a pending booking whose hold ran out and releases its
// capacity. A booking that was confirmed or cancelled in the meantime is
// left alone; the conditional status transition makes the expiry and a
// concurrent Confirm race safe. Returns true if the hold was expired.
func (s *Service) ExpireHold(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	booking, err := s.ledger.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrBookingNotFound
		}
		return false, fmt.Errorf("failed to read booking: %w", err)
	}

	swapped, err := s.ledger.UpdateStatus(ctx, bookingID,
		[]models.BookingStatus{models.BookingStatusPending}, models.BookingStatusCancelled)
	if err != nil {
		return false, fmt.Errorf("failed to expire booking: %w", err)
	}
	if !swapped {
		return false, nil
	}

	item := s.releaseCapacity(ctx, booking.ItemID, booking.Quantity)
	booking.Status = models.BookingStatusCancelled
	s.afterChange(ctx, events.EventBookingExpired, booking, item)
	metrics.CancellationsTotal.WithLabelValues("expired").Inc()
	s.logger.Info("hold expired",
		zap.String("bookingId", bookingID.String()),
		zap.Int("released", booking.Quantity),
	)
	return true, nil
}

// GetBooking looks up a single booking.
func (s *Service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.ledger.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to read booking: %w", err)
	}
	return booking, nil
}

// ListBookings returns the user's ledger, most recent first.
func (s *Service) ListBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	bookings, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// releaseCapacity adds quantity back to the item, retrying version
// conflicts until the write lands. It survives caller cancellation: once a
// booking is cancelled its capacity must come back.
func (s *Service) releaseCapacity(ctx context.Context, itemID uuid.UUID, quantity int) *models.InventoryItem {
	ctx = context.WithoutCancel(ctx)
	for {
		item, err := s.inventory.GetItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Item deleted out from under its bookings; nothing to restore.
				return nil
			}
			s.logger.Error("failed to read item for release", zap.Error(err))
			return nil
		}

		delta := quantity
		if item.Capacity+delta > item.TotalCapacity {
			delta = item.TotalCapacity - item.Capacity
		}
		if delta <= 0 {
			return item
		}

		updated, err := s.inventory.AdjustCapacity(ctx, itemID, delta, item.Version)
		if err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			s.logger.Error("failed to release capacity",
				zap.String("itemId", itemID.String()),
				zap.Int("quantity", quantity),
				zap.Error(err),
			)
			return nil
		}
		return updated
	}
}

// settleHold tells the scheduler the booking no longer needs an expiry
// timer. Best effort: an expiry firing for a settled booking is a no-op.
func (s *Service) settleHold(ctx context.Context, bookingID uuid.UUID) {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.CancelExpiry(ctx, bookingID); err != nil {
		s.logger.Debug("failed to stop hold expiry",
			zap.String("bookingId", bookingID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) afterChange(ctx context.Context, eventType events.EventType, booking *models.Booking, item *models.InventoryItem) {
	s.publishEvent(ctx, eventType, booking)
	if s.notifier != nil && item != nil {
		s.notifier.NotifyCapacity(item)
	}
}

func (s *Service) publishEvent(ctx context.Context, eventType events.EventType, booking *models.Booking) {
	if err := s.publisher.Publish(ctx, events.NewBookingEvent(eventType, booking)); err != nil {
		s.logger.Warn("failed to publish booking event",
			zap.String("type", string(eventType)),
			zap.String("bookingId", booking.ID.String()),
			zap.Error(err),
		)
	}
}
