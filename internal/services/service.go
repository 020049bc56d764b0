package services

import (
	"context"

	"github.com/lottohq/raffle-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleService defines the interface for raffle operations
type RaffleService interface {
	// Enter records an entry contribution for an account
	Enter(ctx context.Context, account string, amount int64) error

	// Exit refunds an account and removes it from the current round
	Exit(ctx context.Context, account string) error

	// Eligibility evaluates the finalization predicate without side effects
	Eligibility(ctx context.Context) (*models.EligibilityReport, error)

	// PerformUpkeep transitions an eligible round to CALCULATING and issues a
	// randomness request, recording the round audit document
	PerformUpkeep(ctx context.Context) (*models.Round, error)

	// HandleFulfillment consumes an oracle fulfillment and settles the round
	HandleFulfillment(ctx context.Context, requestID string, words []uint64) (*models.Round, error)

	// Overview returns the live raffle state and configuration
	Overview(ctx context.Context) (*models.RaffleOverview, error)

	// Participants returns the current round's entrants in order
	Participants(ctx context.Context) []models.Participant

	// ParticipantAt returns the entrant at an ordinal position
	ParticipantAt(ctx context.Context, index int) (*models.Participant, error)

	// ParticipantIndex returns an account's index, or raffle.IndexNotFound
	ParticipantIndex(ctx context.Context, account string) int

	// GetRounds lists round audit records, newest first
	GetRounds(ctx context.Context, page, limit int) ([]*models.Round, error)

	// GetRoundByID retrieves one round audit record
	GetRoundByID(ctx context.Context, id primitive.ObjectID) (*models.Round, error)

	// GetWinners lists winner records, newest first
	GetWinners(ctx context.Context, page, limit int) ([]*models.Winner, error)

	// GetEvents lists the audit trail, newest first
	GetEvents(ctx context.Context, kind string, page, limit int) ([]*models.RaffleEvent, error)
}

// AuthService defines the interface for operator authentication
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AdminUser, error)
	Login(ctx context.Context, req *models.LoginRequest) (string, error) // Returns JWT token
}
