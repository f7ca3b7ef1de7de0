package activities

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/reservation"
)

// ReservationService is the part of the reservation service the worker needs.
type ReservationService interface {
	ExpireHold(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

// Activities holds the worker's activity implementations.
type Activities struct {
	reservations ReservationService
}

// NewActivities creates the activity set backed by the given service.
func NewActivities(reservations ReservationService) *Activities {
	return &Activities{reservations: reservations}
}

// ExpireHoldInput is the input for the ExpireHold activity.
type ExpireHoldInput struct {
	BookingID string `json:"bookingId"`
}

// ExpireHoldResult is the result of the ExpireHold activity.
type ExpireHoldResult struct {
	Released bool `json:"released"`
}

// ExpireHold cancels a still-pending hold and releases its capacity. A
// booking that was confirmed, cancelled or deleted in the meantime leaves
// Released false.
func (a *Activities) ExpireHold(ctx context.Context, input ExpireHoldInput) (*ExpireHoldResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Expiring hold", "bookingId", input.BookingID)

	bookingID, err := uuid.Parse(input.BookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking id %q: %w", input.BookingID, err)
	}

	released, err := a.reservations.ExpireHold(ctx, bookingID)
	if err != nil {
		if errors.Is(err, reservation.ErrBookingNotFound) {
			logger.Warn("Hold vanished before expiry", "bookingId", input.BookingID)
			return &ExpireHoldResult{Released: false}, nil
		}
		return nil, err
	}

	if released {
		logger.Info("Hold expired, capacity released", "bookingId", input.BookingID)
	} else {
		logger.Info("Hold already settled", "bookingId", input.BookingID)
	}
	return &ExpireHoldResult{Released: released}, nil
}
