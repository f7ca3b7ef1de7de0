// Package catalog is the read side of the inventory: browse, search and
// featured listings, plus the admin CRUD. Reads go through the cache;
// writes invalidate it.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/cache"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store"
)

// ErrItemNotFound is returned for lookups of unknown items.
var ErrItemNotFound = errors.New("item not found")

// DefaultCacheTTL bounds staleness of cached listings.
const DefaultCacheTTL = 5 * time.Minute

const cachePrefix = "catalog:"

// Service serves catalog reads and admin writes.
type Service struct {
	inventory store.InventoryStore
	cache     cache.Cache
	ttl       time.Duration
	logger    *zap.Logger
}

// NewService creates a catalog service. A nil cache disables caching.
func NewService(inventory store.InventoryStore, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{inventory: inventory, cache: c, ttl: ttl, logger: logger}
}

// ListItems returns items matching the filter, cached by filter shape.
func (s *Service) ListItems(ctx context.Context, filter models.ItemFilter) ([]models.InventoryItem, error) {
	key := listCacheKey(filter)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var items []models.InventoryItem
			if err := json.Unmarshal(raw, &items); err == nil {
				return items, nil
			}
		}
	}

	items, err := s.inventory.ListItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				s.logger.Warn("failed to cache listing", zap.Error(err))
			}
		}
	}
	return items, nil
}

// GetItem returns a single item. Item reads are not cached: capacity is the
// field callers look at and it changes with every booking.
func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.inventory.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// CreateItem adds a new inventory item.
func (s *Service) CreateItem(ctx context.Context, req *models.CreateItemRequest) (*models.InventoryItem, error) {
	item := &models.InventoryItem{
		Type:          req.Type,
		Name:          req.Name,
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		Operator:      req.Operator,
		Number:        req.Number,
		Price:         req.Price,
		Rating:        req.Rating,
		Featured:      req.Featured,
		TotalCapacity: req.Capacity,
		Capacity:      req.Capacity,
	}
	if err := s.inventory.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("inventory item created",
		zap.String("itemId", item.ID.String()),
		zap.String("type", string(item.Type)),
	)
	return item, nil
}

// UpdateItem updates an item's descriptive fields. Capacity and version are
// owned by the reservation service and never touched here.
func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, req *models.CreateItemRequest) (*models.InventoryItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = req.Name
	item.Origin = req.Origin
	item.Destination = req.Destination
	item.DepartureTime = req.DepartureTime
	item.ArrivalTime = req.ArrivalTime
	item.Operator = req.Operator
	item.Number = req.Number
	item.Price = req.Price
	item.Rating = req.Rating
	item.Featured = req.Featured

	if err := s.inventory.UpdateItem(ctx, item); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	s.invalidate(ctx)
	return item, nil
}

// DeleteItem removes an item from the catalog. Bookings referencing it stay
// in the ledger for audit history.
func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.inventory.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// NotifyCapacity drops cached listings when a reservation changes capacity,
// so the catalog never serves availability older than the last booking.
func (s *Service) NotifyCapacity(item *models.InventoryItem) {
	s.invalidate(context.Background())
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, cachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}

func listCacheKey(filter models.ItemFilter) string {
	day := ""
	if !filter.DepartureDay.IsZero() {
		day = filter.DepartureDay.Format("2006-01-02")
	}
	return fmt.Sprintf("%slist:%s:%s:%s:%s:%t",
		cachePrefix, filter.Type, filter.Origin, filter.Destination, day, filter.FeaturedOnly)
}
