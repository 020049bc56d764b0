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

// WinnerRepository implements the repositories.WinnerRepository interface
type WinnerRepository struct {
	collection *mongo.Collection
}

// NewWinnerRepository creates a new WinnerRepository
func NewWinnerRepository(db *mongo.Database) repositories.WinnerRepository {
	return &WinnerRepository{
		collection: db.Collection("winners"),
	}
}

// Create creates a new winner record
func (r *WinnerRepository) Create(ctx context.Context, winner *models.Winner) error {
	winner.CreatedAt = time.Now()
	winner.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, winner)
	if err != nil {
		return err
	}
	winner.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByAccount finds all wins recorded for an account
func (r *WinnerRepository) FindByAccount(ctx context.Context, account string) ([]*models.Winner, error) {
	opts := options.Find().SetSort(bson.M{"winDate": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"account": account}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var winners []*models.Winner
	if err := cursor.All(ctx, &winners); err != nil {
		return nil, err
	}
	if winners == nil {
		winners = []*models.Winner{}
	}
	return winners, nil
}

// FindLatest finds the most recent winner
func (r *WinnerRepository) FindLatest(ctx context.Context) (*models.Winner, error) {
	var winner models.Winner
	opts := options.FindOne().SetSort(bson.M{"winDate": -1})
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&winner)
	if err != nil {
		return nil, err
	}
	return &winner, nil
}

// FindAll finds winners, newest first, with pagination
func (r *WinnerRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Winner, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.M{"winDate": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var winners []*models.Winner
	if err := cursor.All(ctx, &winners); err != nil {
		return nil, err
	}
	if winners == nil {
		winners = []*models.Winner{}
	}
	return winners, nil
}

// Count returns the total number of winner records
func (r *WinnerRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
