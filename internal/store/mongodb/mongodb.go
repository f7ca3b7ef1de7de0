// Package mongodb implements the store interfaces on MongoDB. The capacity
// compare-and-swap is a FindOneAndUpdate whose filter pins the version and
// bounds the resulting capacity, so the check and the write are one
// server-side operation.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
	"github.com/Zeeshan-Hamid/Travel-Ease/internal/store"
)

const (
	itemsCollection    = "inventory_items"
	bookingsCollection = "bookings"
)

type itemDoc struct {
	ID            string    `bson:"_id"`
	Type          string    `bson:"type"`
	Name          string    `bson:"name"`
	Origin        string    `bson:"origin,omitempty"`
	Destination   string    `bson:"destination"`
	DepartureTime time.Time `bson:"departureTime"`
	ArrivalTime   time.Time `bson:"arrivalTime"`
	Operator      string    `bson:"operator,omitempty"`
	Number        string    `bson:"number,omitempty"`
	Price         float64   `bson:"price"`
	Rating        float64   `bson:"rating,omitempty"`
	Featured      bool      `bson:"featured"`
	TotalCapacity int       `bson:"totalCapacity"`
	Capacity      int       `bson:"capacity"`
	Version       int64     `bson:"version"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func toItemDoc(item *models.InventoryItem) *itemDoc {
	return &itemDoc{
		ID:            item.ID.String(),
		Type:          string(item.Type),
		Name:          item.Name,
		Origin:        item.Origin,
		Destination:   item.Destination,
		DepartureTime: item.DepartureTime,
		ArrivalTime:   item.ArrivalTime,
		Operator:      item.Operator,
		Number:        item.Number,
		Price:         item.Price,
		Rating:        item.Rating,
		Featured:      item.Featured,
		TotalCapacity: item.TotalCapacity,
		Capacity:      item.Capacity,
		Version:       item.Version,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func (d *itemDoc) toModel() (*models.InventoryItem, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid item id %q: %w", d.ID, err)
	}
	return &models.InventoryItem{
		ID:            id,
		Type:          models.ItemType(d.Type),
		Name:          d.Name,
		Origin:        d.Origin,
		Destination:   d.Destination,
		DepartureTime: d.DepartureTime,
		ArrivalTime:   d.ArrivalTime,
		Operator:      d.Operator,
		Number:        d.Number,
		Price:         d.Price,
		Rating:        d.Rating,
		Featured:      d.Featured,
		TotalCapacity: d.TotalCapacity,
		Capacity:      d.Capacity,
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

// InventoryStore is the MongoDB-backed inventory store.
type InventoryStore struct {
	items *mongo.Collection
}

// NewInventoryStore creates an inventory store on the given database.
func NewInventoryStore(db *mongo.Database) *InventoryStore {
	return &InventoryStore{items: db.Collection(itemsCollection)}
}

func (s *InventoryStore) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var doc itemDoc
	err := s.items.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return doc.toModel()
}

func (s *InventoryStore) ListItems(ctx context.Context, filter models.ItemFilter) ([]models.InventoryItem, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = string(filter.Type)
	}
	if filter.FeaturedOnly {
		query["featured"] = true
	}
	if filter.Origin != "" {
		query["origin"] = bson.M{"$regex": "^" + filter.Origin + "$", "$options": "i"}
	}
	if filter.Destination != "" {
		query["destination"] = bson.M{"$regex": "^" + filter.Destination + "$", "$options": "i"}
	}
	if !filter.DepartureDay.IsZero() {
		dayStart := filter.DepartureDay.Truncate(24 * time.Hour)
		query["departureTime"] = bson.M{"$gte": dayStart, "$lt": dayStart.Add(24 * time.Hour)}
	}

	cursor, err := s.items.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "departureTime", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []models.InventoryItem
	for cursor.Next(ctx) {
		var doc itemDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode item: %w", err)
		}
		item, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, cursor.Err()
}

func (s *InventoryStore) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	item.Version = 0

	if _, err := s.items.InsertOne(ctx, toItemDoc(item)); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (s *InventoryStore) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	update := bson.M{"$set": bson.M{
		"name":          item.Name,
		"origin":        item.Origin,
		"destination":   item.Destination,
		"departureTime": item.DepartureTime,
		"arrivalTime":   item.ArrivalTime,
		"operator":      item.Operator,
		"number":        item.Number,
		"price":         item.Price,
		"rating":        item.Rating,
		"featured":      item.Featured,
		"updatedAt":     time.Now(),
	}}

	result, err := s.items.UpdateOne(ctx, bson.M{"_id": item.ID.String()}, update)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *InventoryStore) DeleteItem(ctx context.Context, id uuid.UUID) error {
	result, err := s.items.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *InventoryStore) AdjustCapacity(ctx context.Context, id uuid.UUID, delta int, version int64) (*models.InventoryItem, error) {
	filter := bson.M{
		"_id":     id.String(),
		"version": version,
		"$expr": bson.M{"$and": bson.A{
			bson.M{"$gte": bson.A{bson.M{"$add": bson.A{"$capacity", delta}}, 0}},
			bson.M{"$lte": bson.A{bson.M{"$add": bson.A{"$capacity", delta}}, "$totalCapacity"}},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"capacity": delta, "version": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	var doc itemDoc
	err := s.items.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err == nil {
		return doc.toModel()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
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

type bookingDoc struct {
	ID         string     `bson:"_id"`
	UserID     string     `bson:"userId"`
	ItemID     string     `bson:"itemId"`
	ItemType   string     `bson:"itemType"`
	Quantity   int        `bson:"quantity"`
	Status     string     `bson:"status"`
	UnitPrice  float64    `bson:"unitPrice"`
	TotalPrice float64    `bson:"totalPrice"`
	BookedAt   time.Time  `bson:"bookedAt"`
	ExpiresAt  *time.Time `bson:"expiresAt,omitempty"`
}

func (d *bookingDoc) toModel() (*models.Booking, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking id %q: %w", d.ID, err)
	}
	itemID, err := uuid.Parse(d.ItemID)
	if err != nil {
		return nil, fmt.Errorf("invalid item id %q: %w", d.ItemID, err)
	}
	return &models.Booking{
		ID:         id,
		UserID:     d.UserID,
		ItemID:     itemID,
		ItemType:   models.ItemType(d.ItemType),
		Quantity:   d.Quantity,
		Status:     models.BookingStatus(d.Status),
		UnitPrice:  d.UnitPrice,
		TotalPrice: d.TotalPrice,
		BookedAt:   d.BookedAt,
		ExpiresAt:  d.ExpiresAt,
	}, nil
}

// BookingLedger is the MongoDB-backed booking ledger.
type BookingLedger struct {
	bookings *mongo.Collection
}

// NewBookingLedger creates a booking ledger on the given database.
func NewBookingLedger(db *mongo.Database) *BookingLedger {
	return &BookingLedger{bookings: db.Collection(bookingsCollection)}
}

func (l *BookingLedger) Append(ctx context.Context, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	doc := bookingDoc{
		ID:         booking.ID.String(),
		UserID:     booking.UserID,
		ItemID:     booking.ItemID.String(),
		ItemType:   string(booking.ItemType),
		Quantity:   booking.Quantity,
		Status:     string(booking.Status),
		UnitPrice:  booking.UnitPrice,
		TotalPrice: booking.TotalPrice,
		BookedAt:   booking.BookedAt,
		ExpiresAt:  booking.ExpiresAt,
	}
	if _, err := l.bookings.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append booking: %w", err)
	}
	return nil
}

func (l *BookingLedger) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var doc bookingDoc
	err := l.bookings.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return doc.toModel()
}

func (l *BookingLedger) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	cursor, err := l.bookings.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "bookedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	for cursor.Next(ctx) {
		var doc bookingDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		booking, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	return bookings, cursor.Err()
}

func (l *BookingLedger) UpdateStatus(ctx context.Context, id uuid.UUID, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	states := make([]string, len(from))
	for i, status := range from {
		states[i] = string(status)
	}

	result, err := l.bookings.UpdateOne(ctx,
		bson.M{"_id": id.String(), "status": bson.M{"$in": states}},
		bson.M{"$set": bson.M{"status": string(to)}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	if _, err := l.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
