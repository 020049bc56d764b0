package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoundStatus represents the lifecycle of a persisted round record. A round
// document is created when the engine transitions to CALCULATING and settles
// (or fails its payout) when the oracle fulfillment arrives.
type RoundStatus string

const (
	RoundStatusCalculating  RoundStatus = "CALCULATING"
	RoundStatusSettled      RoundStatus = "SETTLED"
	RoundStatusPayoutFailed RoundStatus = "PAYOUT_FAILED"
)

// Round is the audit record of one draw cycle.
type Round struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Number        int64              `bson:"number" json:"number"`
	Status        RoundStatus        `bson:"status" json:"status"`
	RequestID     string             `bson:"requestId" json:"requestId"`
	RequestedAt   time.Time          `bson:"requestedAt" json:"requestedAt"`
	Participants  int                `bson:"participants" json:"participants"`
	PoolBalance   int64              `bson:"poolBalance" json:"poolBalance"`
	WinnerAccount string             `bson:"winnerAccount,omitempty" json:"winnerAccount,omitempty"`
	WinnerIndex   int                `bson:"winnerIndex" json:"winnerIndex"`
	PrizeAmount   int64              `bson:"prizeAmount" json:"prizeAmount"`
	SettledAt     time.Time          `bson:"settledAt,omitempty" json:"settledAt,omitempty"`
	ErrorMessage  string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
