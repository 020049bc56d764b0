package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lottohq/raffle-backend/api/routes"
	"github.com/lottohq/raffle-backend/internal/config"
	"github.com/lottohq/raffle-backend/internal/handlers"
	"github.com/lottohq/raffle-backend/internal/raffle"
	"github.com/lottohq/raffle-backend/internal/repositories"
	mongorepo "github.com/lottohq/raffle-backend/internal/repositories/mongodb"
	"github.com/lottohq/raffle-backend/internal/services"
	"github.com/lottohq/raffle-backend/pkg/mongodb"
	"github.com/lottohq/raffle-backend/pkg/paygate"
	"github.com/lottohq/raffle-backend/pkg/vrf"
	"golang.org/x/exp/slog"
)

func main() {
	// .env is optional; real deployments use environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)

	// Repositories
	var roundRepo repositories.RoundRepository = mongorepo.NewRoundRepository(db)
	var winnerRepo repositories.WinnerRepository = mongorepo.NewWinnerRepository(db)
	var eventRepo repositories.EventRepository = mongorepo.NewEventRepository(db)
	var adminRepo repositories.AdminUserRepository = mongorepo.NewAdminUserRepository(db)

	// External collaborators
	treasury := paygate.NewClient(
		cfg.Paygate.BaseURL,
		cfg.Paygate.APIKey,
		cfg.Paygate.APISecret,
		cfg.Paygate.MockTransfers,
		cfg.Paygate.MockOpeningBalance,
	)
	coordinator := vrf.NewClient(
		cfg.Oracle.BaseURL,
		cfg.Oracle.APIKey,
		cfg.Oracle.MockOracle,
		cfg.Oracle.MockFulfillmentDelay,
	)

	// Engine and services
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

	raffleService := services.NewRaffleService(engine, roundRepo, winnerRepo, eventRepo)
	engine.SetNotifier(raffleService)
	authService := services.NewAuthService(adminRepo, cfg)

	// In mock mode the coordinator delivers fulfillments in-process instead of
	// calling the webhook back.
	coordinator.SetFulfillmentHandler(func(ctx context.Context, requestID string, words []uint64) error {
		_, err := raffleService.HandleFulfillment(ctx, requestID, words)
		return err
	})

	raffleHandler := handlers.NewRaffleHandler(raffleService)
	authHandler := handlers.NewAuthHandler(authService)

	router := routes.SetupRouter(cfg, routes.HandlerDependencies{
		RaffleHandler: raffleHandler,
		AuthHandler:   authHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Upkeep loop: re-evaluates eligibility on a timer and triggers the
	// transition when it holds, standing in for an external keeper.
	upkeepCtx, stopUpkeep := context.WithCancel(context.Background())
	defer stopUpkeep()
	go runUpkeepLoop(upkeepCtx, raffleService, engine, cfg.Raffle.UpkeepInterval)

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")
	stopUpkeep()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("Server exiting")
}

// runUpkeepLoop periodically checks the finalization predicate and performs
// the transition when it holds. It also watches for rounds stuck in
// CALCULATING: the core has no timeout for a pending request, so a
// coordinator that never calls back is surfaced here for operators.
func runUpkeepLoop(ctx context.Context, svc services.RaffleService, engine *raffle.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var calculatingSince time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if engine.State() == raffle.StateCalculating {
			if calculatingSince.IsZero() {
				calculatingSince = time.Now()
			} else if waited := time.Since(calculatingSince); waited > engine.Config().Interval {
				slog.Warn("Round has been awaiting randomness fulfillment unusually long",
					"waited", waited.String())
			}
			continue
		}
		calculatingSince = time.Time{}

		eligible, err := engine.CheckEligibility(ctx)
		if err != nil {
			slog.Error("Upkeep eligibility check failed", "error", err)
			continue
		}
		if !eligible {
			continue
		}
		if _, err := svc.PerformUpkeep(ctx); err != nil {
			// A racing manual upkeep can win between the check and the
			// transition; the engine re-checks, so this is benign.
			slog.Warn("Upkeep transition not performed", "error", err)
		}
	}
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}
