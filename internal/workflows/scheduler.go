package workflows

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
)

// Scheduler drives hold expiry through Temporal. It implements the
// reservation service's HoldScheduler interface.
type Scheduler struct {
	client    client.Client
	taskQueue string
}

// NewScheduler creates a scheduler on the given Temporal client.
func NewScheduler(c client.Client, taskQueue string) *Scheduler {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Scheduler{client: c, taskQueue: taskQueue}
}

// ScheduleExpiry starts an expiry workflow for the pending booking. The
// workflow ID is derived from the booking ID so a retried schedule call
// never starts a second timer.
func (s *Scheduler) ScheduleExpiry(ctx context.Context, booking *models.Booking) error {
	if booking.ExpiresAt == nil {
		return nil
	}
	opts := client.StartWorkflowOptions{
		ID:        workflowID(booking.ID),
		TaskQueue: s.taskQueue,
	}
	_, err := s.client.ExecuteWorkflow(ctx, opts, HoldExpiryWorkflow, HoldExpiryInput{
		BookingID: booking.ID.String(),
		ExpiresAt: *booking.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to start hold expiry workflow: %w", err)
	}
	return nil
}

// CancelExpiry signals the booking's expiry workflow that the hold settled.
func (s *Scheduler) CancelExpiry(ctx context.Context, bookingID uuid.UUID) error {
	return s.client.SignalWorkflow(ctx, workflowID(bookingID), "", SignalHoldSettled, nil)
}

func workflowID(bookingID uuid.UUID) string {
	return "hold-expiry-" + bookingID.String()
}
