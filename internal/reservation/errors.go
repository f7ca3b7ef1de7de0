package reservation

import "errors"

// Business errors returned by the reservation service. All of them are
// recoverable by the caller; infrastructure failures are wrapped and
// propagated separately.
var (
	ErrItemNotFound         = errors.New("item not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrContention           = errors.New("too much contention, retries exhausted")
	ErrTimeout              = errors.New("reservation timed out")
	ErrBookingNotPending    = errors.New("booking is not pending")
)
