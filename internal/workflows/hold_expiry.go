package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/activities"
)

const (
	// TaskQueue is the queue the hold expiry worker listens on.
	TaskQueue = "hold-expiry"
	// SignalHoldSettled tells a running expiry workflow that the booking
	// was confirmed or cancelled and no expiry is needed.
	SignalHoldSettled = "hold-settled"
)

// HoldExpiryInput is the input for the hold expiry workflow.
type HoldExpiryInput struct {
	BookingID string    `json:"bookingId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HoldExpiryResult is the result of the hold expiry workflow.
type HoldExpiryResult struct {
	Expired bool   `json:"expired"`
	Reason  string `json:"reason"`
}

// HoldExpiryWorkflow waits until the hold deadline and then releases the
// pending booking's capacity. A settle signal ends the wait early; if the
// timer wins, the expiry activity still re-checks the booking status so a
// concurrent confirmation is never clobbered.
func HoldExpiryWorkflow(ctx workflow.Context, input HoldExpiryInput) (*HoldExpiryResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Hold expiry workflow started", "bookingId", input.BookingID, "expiresAt", input.ExpiresAt)

	activityOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOpts)

	settledCh := workflow.GetSignalChannel(ctx, SignalHoldSettled)

	untilExpiry := input.ExpiresAt.Sub(workflow.Now(ctx))
	if untilExpiry < 0 {
		untilExpiry = 0
	}

	var settled bool
	selector := workflow.NewSelector(ctx)
	selector.AddReceive(settledCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, nil)
		settled = true
	})
	selector.AddFuture(workflow.NewTimer(ctx, untilExpiry), func(f workflow.Future) {})
	selector.Select(ctx)

	if settled {
		logger.Info("Hold settled before expiry", "bookingId", input.BookingID)
		return &HoldExpiryResult{Expired: false, Reason: "settled"}, nil
	}

	var result activities.ExpireHoldResult
	err := workflow.ExecuteActivity(ctx, "ExpireHold", activities.ExpireHoldInput{
		BookingID: input.BookingID,
	}).Get(ctx, &result)
	if err != nil {
		logger.Error("Expire hold activity failed", "bookingId", input.BookingID, "error", err)
		return nil, err
	}

	if !result.Released {
		return &HoldExpiryResult{Expired: false, Reason: "already settled"}, nil
	}
	logger.Info("Hold expired", "bookingId", input.BookingID)
	return &HoldExpiryResult{Expired: true, Reason: "expired"}, nil
}
