package activities

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/reservation"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store/memory"
)

func setupTestEnv(t *testing.T) (*testsuite.TestActivityEnvironment, *reservation.Service, *memory.InventoryStore, uuid.UUID) {
	t.Helper()

	inventory := memory.NewInventoryStore()
	ledger := memory.NewBookingLedger()

	item := &models.InventoryItem{
		Type:          models.ItemTypeBus,
		Name:          "Lahore Express",
		Destination:   "Lahore",
		DepartureTime: time.Now().Add(12 * time.Hour),
		TotalCapacity: 40,
		Capacity:      40,
	}
	require.NoError(t, inventory.CreateItem(context.Background(), item))

	svc := reservation.NewService(reservation.Config{
		Inventory: inventory,
		Ledger:    ledger,
	})

	env := (&testsuite.WorkflowTestSuite{}).NewTestActivityEnvironment()
	env.RegisterActivity(NewActivities(svc).ExpireHold)
	return env, svc, inventory, item.ID
}

func TestExpireHold_PendingBooking(t *testing.T) {
	env, svc, inventory, itemID := setupTestEnv(t)

	booking, err := svc.Hold(context.Background(), reservation.ReserveRequest{
		ItemID: itemID, UserID: "u", Quantity: 3, UnitPrice: 25,
	})
	require.NoError(t, err)

	val, err := env.ExecuteActivity("ExpireHold", ExpireHoldInput{BookingID: booking.ID.String()})
	require.NoError(t, err)

	var result ExpireHoldResult
	require.NoError(t, val.Get(&result))
	assert.True(t, result.Released)

	item, err := inventory.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, 40, item.Capacity)
}

func TestExpireHold_ConfirmedBooking(t *testing.T) {
	env, svc, inventory, itemID := setupTestEnv(t)

	booking, err := svc.Hold(context.Background(), reservation.ReserveRequest{
		ItemID: itemID, UserID: "u", Quantity: 2, UnitPrice: 25,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Confirm(context.Background(), booking.ID))

	val, err := env.ExecuteActivity("ExpireHold", ExpireHoldInput{BookingID: booking.ID.String()})
	require.NoError(t, err)

	var result ExpireHoldResult
	require.NoError(t, val.Get(&result))
	assert.False(t, result.Released)

	item, err := inventory.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, 38, item.Capacity)
}

func TestExpireHold_UnknownBooking(t *testing.T) {
	env, _, _, _ := setupTestEnv(t)

	val, err := env.ExecuteActivity("ExpireHold", ExpireHoldInput{BookingID: uuid.New().String()})
	require.NoError(t, err)

	var result ExpireHoldResult
	require.NoError(t, val.Get(&result))
	assert.False(t, result.Released)
}

func TestExpireHold_MalformedID(t *testing.T) {
	env, _, _, _ := setupTestEnv(t)

	_, err := env.ExecuteActivity("ExpireHold", ExpireHoldInput{BookingID: "nope"})
	assert.Error(t, err)
}
