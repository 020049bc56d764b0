package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/lottohq/raffle-backend/internal/config"
	"github.com/lottohq/raffle-backend/internal/models"
	"github.com/lottohq/raffle-backend/internal/raffle"
	"github.com/lottohq/raffle-backend/internal/services"
	"github.com/lottohq/raffle-backend/pkg/paygate"
	"github.com/lottohq/raffle-backend/pkg/vrf"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Runs one full raffle round locally against the mock coordinator and mock
// payment gateway: three entries, eligibility, transition, fulfillment, payout.
//
//	go run ./cmd/scripts
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	// The simulation never waits for the real interval.
	cfg.Raffle.Interval = time.Second
	cfg.Raffle.EntryFee = 100

	treasury := paygate.NewClient("", "", "", true, 0)
	coordinator := vrf.NewClient("", "", true, 500*time.Millisecond)

	engine := raffle.NewEngine(raffle.Config{
		EntryFee:        cfg.Raffle.EntryFee,
		Interval:        cfg.Raffle.Interval,
		MinParticipants: cfg.Raffle.MinParticipants,
		Request: raffle.RequestParams{
			Confirmations:    cfg.Raffle.RequestConfirmations,
			CallbackGasLimit: cfg.Raffle.CallbackGasLimit,
			NumWords:         cfg.Raffle.NumWords,
		},
	}, coordinator, treasury, nil)

	store := newMemoryStore()
	svc := services.NewRaffleService(engine, store.rounds, store.winners, store.events)
	engine.SetNotifier(svc)

	settled := make(chan struct{})
	coordinator.SetFulfillmentHandler(func(ctx context.Context, requestID string, words []uint64) error {
		_, err := svc.HandleFulfillment(ctx, requestID, words)
		if err == nil {
			close(settled)
		}
		return err
	})

	ctx := context.Background()
	for _, account := range []string{"alice", "bob", "carol"} {
		if err := svc.Enter(ctx, account, cfg.Raffle.EntryFee); err != nil {
			fmt.Fprintf(os.Stderr, "enter %s: %v\n", account, err)
			os.Exit(1)
		}
		fmt.Printf("entered: %s\n", account)
	}

	fmt.Println("waiting for the interval to elapse...")
	time.Sleep(cfg.Raffle.Interval)

	round, err := svc.PerformUpkeep(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "upkeep: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("randomness requested: %s\n", round.RequestID)

	select {
	case <-settled:
	case <-time.After(5 * time.Second):
		fmt.Fprintln(os.Stderr, "fulfillment never arrived")
		os.Exit(1)
	}

	winner, err := store.winners.FindLatest(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read winner: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("winner: %s won %d\n", winner.Account, winner.PrizeAmount)
}

// In-memory repositories so the simulation runs without MongoDB.
type memoryStore struct {
	rounds  *memRoundRepo
	winners *memWinnerRepo
	events  *memEventRepo
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		rounds:  &memRoundRepo{},
		winners: &memWinnerRepo{},
		events:  &memEventRepo{},
	}
}

type memRoundRepo struct {
	mu     sync.Mutex
	rounds []*models.Round
}

func (r *memRoundRepo) Create(_ context.Context, round *models.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	round.ID = primitive.NewObjectID()
	r.rounds = append(r.rounds, round)
	return nil
}

func (r *memRoundRepo) Update(_ context.Context, round *models.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.rounds {
		if existing.ID == round.ID {
			r.rounds[i] = round
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *memRoundRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, round := range r.rounds {
		if round.ID == id {
			return round, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memRoundRepo) FindByRequestID(_ context.Context, requestID string) (*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, round := range r.rounds {
		if round.RequestID == requestID {
			return round, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memRoundRepo) FindLatest(_ context.Context) (*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rounds) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return r.rounds[len(r.rounds)-1], nil
}

func (r *memRoundRepo) FindByStatus(_ context.Context, status models.RoundStatus) ([]*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Round
	for _, round := range r.rounds {
		if round.Status == status {
			out = append(out, round)
		}
	}
	return out, nil
}

func (r *memRoundRepo) FindAll(_ context.Context, _, _ int) ([]*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Round(nil), r.rounds...), nil
}

func (r *memRoundRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rounds)), nil
}

type memWinnerRepo struct {
	mu      sync.Mutex
	winners []*models.Winner
}

func (r *memWinnerRepo) Create(_ context.Context, winner *models.Winner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	winner.ID = primitive.NewObjectID()
	r.winners = append(r.winners, winner)
	return nil
}

func (r *memWinnerRepo) FindByAccount(_ context.Context, account string) ([]*models.Winner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Winner
	for _, winner := range r.winners {
		if winner.Account == account {
			out = append(out, winner)
		}
	}
	return out, nil
}

func (r *memWinnerRepo) FindLatest(_ context.Context) (*models.Winner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.winners) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return r.winners[len(r.winners)-1], nil
}

func (r *memWinnerRepo) FindAll(_ context.Context, _, _ int) ([]*models.Winner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Winner(nil), r.winners...), nil
}

func (r *memWinnerRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.winners)), nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events []*models.RaffleEvent
}

func (r *memEventRepo) Create(_ context.Context, event *models.RaffleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = primitive.NewObjectID()
	r.events = append(r.events, event)
	return nil
}

func (r *memEventRepo) FindByKind(_ context.Context, kind string, _, _ int) ([]*models.RaffleEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RaffleEvent
	for _, event := range r.events {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out, nil
}

func (r *memEventRepo) FindAll(_ context.Context, _, _ int) ([]*models.RaffleEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.RaffleEvent(nil), r.events...), nil
}

func (r *memEventRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.events)), nil
}
