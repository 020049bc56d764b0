package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lottohq/raffle-backend/internal/raffle"
	"github.com/lottohq/raffle-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleHandler handles raffle-related HTTP requests
type RaffleHandler struct {
	raffleService services.RaffleService
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(raffleService services.RaffleService) *RaffleHandler {
	return &RaffleHandler{
		raffleService: raffleService,
	}
}

// EnterRequest is the payload for POST /raffle/entries
type EnterRequest struct {
	Account string `json:"account" binding:"required"`
	Amount  int64  `json:"amount" binding:"required"`
}

// Enter handles POST /raffle/entries
func (h *RaffleHandler) Enter(c *gin.Context) {
	var request EnterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.raffleService.Enter(c.Request.Context(), request.Account, request.Amount)
	if err != nil {
		switch {
		case errors.Is(err, raffle.ErrInsufficientContribution):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Contribution is below the entry fee"})
		case errors.Is(err, raffle.ErrRoundNotOpen):
			c.JSON(http.StatusConflict, gin.H{"error": "The round is not open for entries"})
		case errors.Is(err, raffle.ErrTransferFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to collect entry contribution: " + err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enter raffle: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Entry accepted", "account": request.Account})
}

// ExitRequest is the payload for POST /raffle/exits
type ExitRequest struct {
	Account string `json:"account" binding:"required"`
}

// Exit handles POST /raffle/exits
func (h *RaffleHandler) Exit(c *gin.Context) {
	var request ExitRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.raffleService.Exit(c.Request.Context(), request.Account)
	if err != nil {
		switch {
		case errors.Is(err, raffle.ErrRoundNotOpen):
			c.JSON(http.StatusConflict, gin.H{"error": "The round is not open for exits"})
		case errors.Is(err, raffle.ErrExitNotAllowed):
			c.JSON(http.StatusConflict, gin.H{"error": "Exit is not allowed: " + err.Error()})
		case errors.Is(err, raffle.ErrTransferFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Refund transfer failed: " + err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to exit raffle: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exit refunded", "account": request.Account})
}

// GetOverview handles GET /raffle
func (h *RaffleHandler) GetOverview(c *gin.Context) {
	overview, err := h.raffleService.Overview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read raffle state: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, overview)
}

// GetEligibility handles GET /raffle/eligibility
func (h *RaffleHandler) GetEligibility(c *gin.Context) {
	report, err := h.raffleService.Eligibility(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate eligibility: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// PerformUpkeep handles POST /raffle/upkeep
func (h *RaffleHandler) PerformUpkeep(c *gin.Context) {
	round, err := h.raffleService.PerformUpkeep(c.Request.Context())
	if err != nil {
		var notEligible *raffle.NotEligibleError
		if errors.As(err, &notEligible) {
			c.JSON(http.StatusConflict, gin.H{
				"error":        "Transition is not eligible",
				"state":        string(notEligible.State),
				"participants": notEligible.Participants,
				"balance":      notEligible.Balance,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to perform upkeep: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Randomness requested", "round": round})
}

// FulfillmentRequest is the payload the randomness coordinator posts back
type FulfillmentRequest struct {
	RequestID   string   `json:"request_id" binding:"required"`
	RandomWords []uint64 `json:"random_words" binding:"required"`
}

// HandleFulfillment handles POST /raffle/fulfillments
func (h *RaffleHandler) HandleFulfillment(c *gin.Context) {
	var request FulfillmentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	round, err := h.raffleService.HandleFulfillment(c.Request.Context(), request.RequestID, request.RandomWords)
	if err != nil {
		switch {
		case errors.Is(err, raffle.ErrRequestNotRecognized):
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown or stale randomness request: " + request.RequestID})
		case errors.Is(err, raffle.ErrTransferFailed):
			// The round settled; only the payout needs operator attention.
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "round": round})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process fulfillment: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Round settled", "round": round})
}

// GetParticipants handles GET /raffle/participants
func (h *RaffleHandler) GetParticipants(c *gin.Context) {
	participants := h.raffleService.Participants(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"participants": participants, "count": len(participants)})
}

// GetParticipantAt handles GET /raffle/participants/:index
func (h *RaffleHandler) GetParticipantAt(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
		return
	}
	participant, err := h.raffleService.ParticipantAt(c.Request.Context(), index)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, participant)
}

// GetParticipantIndex handles GET /raffle/participants/account/:account.
// An account that never entered reports the -1 sentinel rather than an error.
func (h *RaffleHandler) GetParticipantIndex(c *gin.Context) {
	account := c.Param("account")
	index := h.raffleService.ParticipantIndex(c.Request.Context(), account)
	c.JSON(http.StatusOK, gin.H{"account": account, "index": index})
}

// GetRounds handles GET /rounds
func (h *RaffleHandler) GetRounds(c *gin.Context) {
	page, limit := parsePagination(c)
	rounds, err := h.raffleService.GetRounds(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rounds: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}

// GetRoundByID handles GET /rounds/:id
func (h *RaffleHandler) GetRoundByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	round, err := h.raffleService.GetRoundByID(c.Request.Context(), id)
	if err != nil {
		if err.Error() == "round not found" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Round not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve round: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, round)
}

// GetWinners handles GET /winners
func (h *RaffleHandler) GetWinners(c *gin.Context) {
	page, limit := parsePagination(c)
	winners, err := h.raffleService.GetWinners(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve winners: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"winners": winners})
}

// GetEvents handles GET /events
func (h *RaffleHandler) GetEvents(c *gin.Context) {
	page, limit := parsePagination(c)
	events, err := h.raffleService.GetEvents(c.Request.Context(), c.Query("kind"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	return page, limit
}
