package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/lottohq/raffle-backend/internal/config"
	"github.com/lottohq/raffle-backend/internal/handlers"
	"github.com/lottohq/raffle-backend/internal/middleware"
)

// HandlerDependencies carries the handlers the router wires up
type HandlerDependencies struct {
	RaffleHandler *handlers.RaffleHandler
	AuthHandler   *handlers.AuthHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
		}

		raffle := public.Group("/raffle")
		{
			raffle.GET("", deps.RaffleHandler.GetOverview)
			raffle.GET("/eligibility", deps.RaffleHandler.GetEligibility)
			raffle.GET("/participants", deps.RaffleHandler.GetParticipants)
			raffle.GET("/participants/account/:account", deps.RaffleHandler.GetParticipantIndex)
			raffle.GET("/participants/:index", deps.RaffleHandler.GetParticipantAt)
			raffle.POST("/entries", deps.RaffleHandler.Enter)
			raffle.POST("/exits", deps.RaffleHandler.Exit)
			// Fulfillment callback invoked by the randomness coordinator.
			raffle.POST("/fulfillments", deps.RaffleHandler.HandleFulfillment)
		}
	}

	// Protected operator routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		protected.POST("/auth/register", deps.AuthHandler.Register)
		protected.POST("/raffle/upkeep", deps.RaffleHandler.PerformUpkeep)

		rounds := protected.Group("/rounds")
		{
			rounds.GET("", deps.RaffleHandler.GetRounds)
			rounds.GET("/:id", deps.RaffleHandler.GetRoundByID)
		}

		protected.GET("/winners", deps.RaffleHandler.GetWinners)
		protected.GET("/events", deps.RaffleHandler.GetEvents)
	}

	return router
}
