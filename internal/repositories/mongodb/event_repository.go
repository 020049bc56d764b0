package mongodb

import (
	"context"
	"time"

	"github.com/lottohq/raffle-backend/internal/models"
	"github.com/lottohq/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventRepository implements the repositories.EventRepository interface
type EventRepository struct {
	collection *mongo.Collection
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *mongo.Database) repositories.EventRepository {
	return &EventRepository{
		collection: db.Collection("events"),
	}
}

// Create appends an event to the audit trail
func (r *EventRepository) Create(ctx context.Context, event *models.RaffleEvent) error {
	event.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return err
	}
	event.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByKind finds events of a given kind, newest first, with pagination
func (r *EventRepository) FindByKind(ctx context.Context, kind string, page, limit int) ([]*models.RaffleEvent, error) {
	return r.find(ctx, bson.M{"kind": kind}, page, limit)
}

// FindAll finds events, newest first, with pagination
func (r *EventRepository) FindAll(ctx context.Context, page, limit int) ([]*models.RaffleEvent, error) {
	return r.find(ctx, bson.M{}, page, limit)
}

func (r *EventRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]*models.RaffleEvent, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.M{"occurredAt": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*models.RaffleEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*models.RaffleEvent{}
	}
	return events, nil
}

// Count returns the total number of events
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
