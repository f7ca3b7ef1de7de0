package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/cache"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store/memory"
)

func newTestCatalog(t *testing.T) (*Service, *memory.InventoryStore) {
	t.Helper()
	inventory := memory.NewInventoryStore()
	return NewService(inventory, cache.NewMemoryCache(), time.Minute, nil), inventory
}

func itemRequest(itemType models.ItemType, name string, featured bool) *models.CreateItemRequest {
	return &models.CreateItemRequest{
		Type:          itemType,
		Name:          name,
		Origin:        "Chicago",
		Destination:   "Miami",
		DepartureTime: time.Now().Add(48 * time.Hour),
		ArrivalTime:   time.Now().Add(52 * time.Hour),
		Price:         200,
		Featured:      featured,
		Capacity:      150,
	}
}

func TestCreateAndGetItem(t *testing.T) {
	svc, _ := newTestCatalog(t)

	created, err := svc.CreateItem(context.Background(), itemRequest(models.ItemTypeFlight, "UA456", true))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, 150, created.Capacity)
	assert.Equal(t, 150, created.TotalCapacity)

	got, err := svc.GetItem(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "UA456", got.Name)

	_, err = svc.GetItem(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestListItems_ServesFromCache(t *testing.T) {
	svc, inventory := newTestCatalog(t)

	created, err := svc.CreateItem(context.Background(), itemRequest(models.ItemTypeBus, "Express 7", false))
	require.NoError(t, err)

	first, err := svc.ListItems(context.Background(), models.ItemFilter{Type: models.ItemTypeBus})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Mutate the store behind the catalog's back: the cached listing keeps
	// serving until something invalidates it.
	require.NoError(t, inventory.DeleteItem(context.Background(), created.ID))

	cached, err := svc.ListItems(context.Background(), models.ItemFilter{Type: models.ItemTypeBus})
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

func TestWrites_InvalidateCache(t *testing.T) {
	svc, _ := newTestCatalog(t)

	created, err := svc.CreateItem(context.Background(), itemRequest(models.ItemTypeTrip, "Alps Hike", false))
	require.NoError(t, err)

	listed, err := svc.ListItems(context.Background(), models.ItemFilter{Type: models.ItemTypeTrip})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.DeleteItem(context.Background(), created.ID))

	listed, err = svc.ListItems(context.Background(), models.ItemFilter{Type: models.ItemTypeTrip})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestUpdateItem(t *testing.T) {
	svc, _ := newTestCatalog(t)

	created, err := svc.CreateItem(context.Background(), itemRequest(models.ItemTypeFlight, "AA123", false))
	require.NoError(t, err)

	req := itemRequest(models.ItemTypeFlight, "AA123-renamed", true)
	updated, err := svc.UpdateItem(context.Background(), created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "AA123-renamed", updated.Name)
	assert.True(t, updated.Featured)
	assert.Equal(t, 150, updated.Capacity, "update must not touch capacity")

	_, err = svc.UpdateItem(context.Background(), uuid.New(), req)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestNotifyCapacity_DropsListings(t *testing.T) {
	svc, inventory := newTestCatalog(t)

	created, err := svc.CreateItem(context.Background(), itemRequest(models.ItemTypeFlight, "DL789", false))
	require.NoError(t, err)

	_, err = svc.ListItems(context.Background(), models.ItemFilter{})
	require.NoError(t, err)

	item, err := inventory.AdjustCapacity(context.Background(), created.ID, -10, 0)
	require.NoError(t, err)
	svc.NotifyCapacity(item)

	listed, err := svc.ListItems(context.Background(), models.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 140, listed[0].Capacity, "listing must reflect the capacity change")
}
