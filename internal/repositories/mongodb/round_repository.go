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

// RoundRepository implements the repositories.RoundRepository interface
type RoundRepository struct {
	collection *mongo.Collection
}

// NewRoundRepository creates a new RoundRepository
func NewRoundRepository(db *mongo.Database) repositories.RoundRepository {
	return &RoundRepository{
		collection: db.Collection("rounds"),
	}
}

// Create creates a new round record
func (r *RoundRepository) Create(ctx context.Context, round *models.Round) error {
	round.CreatedAt = time.Now()
	round.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, round)
	if err != nil {
		return err
	}
	round.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Update updates a round record
func (r *RoundRepository) Update(ctx context.Context, round *models.Round) error {
	round.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": round.ID}, round)
	return err
}

// FindByID finds a round by ID
func (r *RoundRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Round, error) {
	var round models.Round
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&round)
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// FindByRequestID finds the round issued for a randomness request handle
func (r *RoundRepository) FindByRequestID(ctx context.Context, requestID string) (*models.Round, error) {
	var round models.Round
	err := r.collection.FindOne(ctx, bson.M{"requestId": requestID}).Decode(&round)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &round, nil
}

// FindLatest finds the most recent round by round number
func (r *RoundRepository) FindLatest(ctx context.Context) (*models.Round, error) {
	var round models.Round
	opts := options.FindOne().SetSort(bson.M{"number": -1})
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&round)
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// FindByStatus finds rounds by status
func (r *RoundRepository) FindByStatus(ctx context.Context, status models.RoundStatus) ([]*models.Round, error) {
	opts := options.Find().SetSort(bson.M{"number": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rounds []*models.Round
	if err := cursor.All(ctx, &rounds); err != nil {
		return nil, err
	}
	if rounds == nil {
		rounds = []*models.Round{}
	}
	return rounds, nil
}

// FindAll finds rounds, newest first, with pagination
func (r *RoundRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Round, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.M{"number": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rounds []*models.Round
	if err := cursor.All(ctx, &rounds); err != nil {
		return nil, err
	}
	if rounds == nil {
		rounds = []*models.Round{}
	}
	return rounds, nil
}

// Count returns the total number of rounds
func (r *RoundRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
