package repositories

import (
	"context"

	"github.com/lottohq/raffle-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoundRepository defines the interface for round audit records
type RoundRepository interface {
	Create(ctx context.Context, round *models.Round) error
	Update(ctx context.Context, round *models.Round) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Round, error)
	FindByRequestID(ctx context.Context, requestID string) (*models.Round, error)
	FindLatest(ctx context.Context) (*models.Round, error)
	FindByStatus(ctx context.Context, status models.RoundStatus) ([]*models.Round, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Round, error)
	Count(ctx context.Context) (int64, error)
}

// WinnerRepository defines the interface for winner records
type WinnerRepository interface {
	Create(ctx context.Context, winner *models.Winner) error
	FindByAccount(ctx context.Context, account string) ([]*models.Winner, error)
	FindLatest(ctx context.Context) (*models.Winner, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Winner, error)
	Count(ctx context.Context) (int64, error)
}

// EventRepository defines the interface for the raffle audit trail
type EventRepository interface {
	Create(ctx context.Context, event *models.RaffleEvent) error
	FindByKind(ctx context.Context, kind string, page, limit int) ([]*models.RaffleEvent, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.RaffleEvent, error)
	Count(ctx context.Context) (int64, error)
}

// AdminUserRepository defines the interface for operator accounts
type AdminUserRepository interface {
	Create(ctx context.Context, user *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error)
}
