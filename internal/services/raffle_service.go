package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lottohq/raffle-backend/internal/models"
	"github.com/lottohq/raffle-backend/internal/raffle"
	"github.com/lottohq/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure RaffleServiceImpl implements RaffleService
var _ RaffleService = (*RaffleServiceImpl)(nil)

// RaffleServiceImpl orchestrates the raffle engine and persists the audit
// trail: round documents, winner records and engine events. The engine owns
// the protocol; this layer owns the bookkeeping around it.
type RaffleServiceImpl struct {
	engine     *raffle.Engine
	roundRepo  repositories.RoundRepository
	winnerRepo repositories.WinnerRepository
	eventRepo  repositories.EventRepository
}

// NewRaffleService creates a new RaffleServiceImpl.
func NewRaffleService(
	engine *raffle.Engine,
	roundRepo repositories.RoundRepository,
	winnerRepo repositories.WinnerRepository,
	eventRepo repositories.EventRepository,
) *RaffleServiceImpl {
	return &RaffleServiceImpl{
		engine:     engine,
		roundRepo:  roundRepo,
		winnerRepo: winnerRepo,
		eventRepo:  eventRepo,
	}
}

// Notify implements raffle.Notifier: every engine event is logged and
// appended to the audit trail. A storage failure is logged but never fails
// the operation that emitted the event.
func (s *RaffleServiceImpl) Notify(ctx context.Context, event raffle.Event) {
	slog.Info("Raffle event",
		"kind", event.Kind,
		"account", event.Account,
		"requestId", event.RequestID,
		"amount", event.Amount,
	)
	record := &models.RaffleEvent{
		Kind:       string(event.Kind),
		Account:    event.Account,
		RequestID:  event.RequestID,
		Amount:     event.Amount,
		OccurredAt: event.OccurredAt,
	}
	if err := s.eventRepo.Create(ctx, record); err != nil {
		slog.Error("Failed to persist raffle event", "kind", event.Kind, "error", err)
	}
}

// Enter records an entry contribution for an account.
func (s *RaffleServiceImpl) Enter(ctx context.Context, account string, amount int64) error {
	if err := s.engine.Enter(ctx, account, amount); err != nil {
		return err
	}
	slog.Info("Entry accepted", "account", account, "amount", amount, "participants", s.engine.ParticipantCount())
	return nil
}

// Exit refunds an account and removes it from the current round.
func (s *RaffleServiceImpl) Exit(ctx context.Context, account string) error {
	if err := s.engine.Exit(ctx, account); err != nil {
		return err
	}
	slog.Info("Exit refunded", "account", account, "participants", s.engine.ParticipantCount())
	return nil
}

// Eligibility evaluates the finalization predicate without side effects.
func (s *RaffleServiceImpl) Eligibility(ctx context.Context) (*models.EligibilityReport, error) {
	eligible, err := s.engine.CheckEligibility(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.engine.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &models.EligibilityReport{
		Eligible:     eligible,
		State:        string(snapshot.State),
		Participants: snapshot.Participants,
		Balance:      snapshot.Balance,
		LastDrawAt:   snapshot.LastDrawAt,
		Interval:     s.engine.Config().Interval.String(),
	}, nil
}

// PerformUpkeep transitions an eligible round to CALCULATING and records the
// round audit document carrying the request handle and the participant count
// fixed at transition time.
func (s *RaffleServiceImpl) PerformUpkeep(ctx context.Context) (*models.Round, error) {
	requestID, err := s.engine.PerformTransition(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.engine.Snapshot(ctx)
	if err != nil {
		slog.Error("Failed to snapshot engine after transition", "requestId", requestID, "error", err)
		snapshot = &raffle.Snapshot{State: raffle.StateCalculating}
	}

	round := &models.Round{
		Number:       s.nextRoundNumber(ctx),
		Status:       models.RoundStatusCalculating,
		RequestID:    requestID,
		RequestedAt:  time.Now(),
		Participants: snapshot.Participants,
		PoolBalance:  snapshot.Balance,
	}
	if err := s.roundRepo.Create(ctx, round); err != nil {
		// The protocol has already advanced; losing the audit record must not
		// wedge the round. Flag it for operators instead.
		slog.Error("Failed to persist round record", "requestId", requestID, "error", err)
	}
	slog.Info("Round transitioned to CALCULATING", "round", round.Number, "requestId", requestID, "participants", round.Participants)
	return round, nil
}

// HandleFulfillment consumes an oracle fulfillment, settles the round through
// the engine and updates the audit records. A payout failure still settles
// the round (commit-then-transfer); the round document is marked
// PAYOUT_FAILED and the error is surfaced for manual intervention.
func (s *RaffleServiceImpl) HandleFulfillment(ctx context.Context, requestID string, words []uint64) (*models.Round, error) {
	result, err := s.engine.HandleRandomness(ctx, requestID, words)
	payoutFailed := errors.Is(err, raffle.ErrTransferFailed)
	if err != nil && !payoutFailed {
		return nil, err
	}

	round, findErr := s.roundRepo.FindByRequestID(ctx, requestID)
	if findErr != nil {
		if findErr != mongo.ErrNoDocuments {
			slog.Error("Failed to load round for fulfillment", "requestId", requestID, "error", findErr)
		}
		round = &models.Round{RequestID: requestID, Status: models.RoundStatusCalculating}
	}

	round.WinnerAccount = result.Winner
	round.WinnerIndex = result.WinnerIndex
	round.PrizeAmount = result.Prize
	round.SettledAt = result.SettledAt
	if payoutFailed {
		round.Status = models.RoundStatusPayoutFailed
		round.ErrorMessage = err.Error()
	} else {
		round.Status = models.RoundStatusSettled
	}
	if !round.ID.IsZero() {
		if updateErr := s.roundRepo.Update(ctx, round); updateErr != nil {
			slog.Error("Failed to update round record", "requestId", requestID, "error", updateErr)
		}
	}

	payoutStatus := models.PayoutStatusPaid
	if payoutFailed {
		payoutStatus = models.PayoutStatusFailed
	}
	winner := &models.Winner{
		RoundID:      round.ID,
		RoundNumber:  round.Number,
		Account:      result.Winner,
		PrizeAmount:  result.Prize,
		PayoutStatus: payoutStatus,
		WinDate:      result.SettledAt,
	}
	if createErr := s.winnerRepo.Create(ctx, winner); createErr != nil {
		slog.Error("Failed to persist winner record", "requestId", requestID, "error", createErr)
	}

	if payoutFailed {
		slog.Error("Round settled but payout failed", "round", round.Number, "winner", result.Winner, "prize", result.Prize)
		return round, fmt.Errorf("round settled but payout failed: %w", err)
	}
	slog.Info("Round settled", "round", round.Number, "winner", result.Winner, "prize", result.Prize)
	return round, nil
}

// Overview returns the live raffle state and configuration.
func (s *RaffleServiceImpl) Overview(ctx context.Context) (*models.RaffleOverview, error) {
	snapshot, err := s.engine.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	cfg := s.engine.Config()
	return &models.RaffleOverview{
		State:          string(snapshot.State),
		Participants:   snapshot.Participants,
		Balance:        snapshot.Balance,
		LastDrawAt:     snapshot.LastDrawAt,
		PendingRequest: snapshot.PendingRequest,
		RecentWinner:   snapshot.RecentWinner,
		Config: models.RaffleConfigView{
			EntryFee:             cfg.EntryFee,
			Interval:             cfg.Interval.String(),
			MinParticipants:      cfg.MinParticipants,
			RequestConfirmations: cfg.Request.Confirmations,
			CallbackGasLimit:     cfg.Request.CallbackGasLimit,
			NumWords:             cfg.Request.NumWords,
		},
	}, nil
}

// Participants returns the current round's entrants in order.
func (s *RaffleServiceImpl) Participants(_ context.Context) []models.Participant {
	accounts := s.engine.Participants()
	out := make([]models.Participant, 0, len(accounts))
	for i, account := range accounts {
		out = append(out, models.Participant{
			Account: account,
			Amount:  s.engine.ContributionOf(account),
			Index:   i,
		})
	}
	return out
}

// ParticipantAt returns the entrant at an ordinal position.
func (s *RaffleServiceImpl) ParticipantAt(_ context.Context, index int) (*models.Participant, error) {
	account, ok := s.engine.ParticipantAt(index)
	if !ok {
		return nil, fmt.Errorf("no participant at index %d", index)
	}
	return &models.Participant{
		Account: account,
		Amount:  s.engine.ContributionOf(account),
		Index:   index,
	}, nil
}

// ParticipantIndex returns an account's index, or raffle.IndexNotFound.
func (s *RaffleServiceImpl) ParticipantIndex(_ context.Context, account string) int {
	return s.engine.IndexOf(account)
}

// GetRounds lists round audit records, newest first.
func (s *RaffleServiceImpl) GetRounds(ctx context.Context, page, limit int) ([]*models.Round, error) {
	rounds, err := s.roundRepo.FindAll(ctx, page, limit)
	if err != nil {
		slog.Error("Failed to list rounds", "error", err)
		return nil, fmt.Errorf("failed to retrieve rounds: %w", err)
	}
	return rounds, nil
}

// GetRoundByID retrieves one round audit record.
func (s *RaffleServiceImpl) GetRoundByID(ctx context.Context, id primitive.ObjectID) (*models.Round, error) {
	round, err := s.roundRepo.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("round not found")
		}
		slog.Error("Failed to get round", "roundId", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve round: %w", err)
	}
	return round, nil
}

// GetWinners lists winner records, newest first.
func (s *RaffleServiceImpl) GetWinners(ctx context.Context, page, limit int) ([]*models.Winner, error) {
	winners, err := s.winnerRepo.FindAll(ctx, page, limit)
	if err != nil {
		slog.Error("Failed to list winners", "error", err)
		return nil, fmt.Errorf("failed to retrieve winners: %w", err)
	}
	return winners, nil
}

// GetEvents lists the audit trail, newest first. kind may be empty.
func (s *RaffleServiceImpl) GetEvents(ctx context.Context, kind string, page, limit int) ([]*models.RaffleEvent, error) {
	var (
		events []*models.RaffleEvent
		err    error
	)
	if kind == "" {
		events, err = s.eventRepo.FindAll(ctx, page, limit)
	} else {
		events, err = s.eventRepo.FindByKind(ctx, kind, page, limit)
	}
	if err != nil {
		slog.Error("Failed to list events", "kind", kind, "error", err)
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}
	return events, nil
}

// nextRoundNumber derives the next round number from the latest stored round.
func (s *RaffleServiceImpl) nextRoundNumber(ctx context.Context) int64 {
	latest, err := s.roundRepo.FindLatest(ctx)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			slog.Error("Failed to determine next round number", "error", err)
		}
		return 1
	}
	return latest.Number + 1
}
