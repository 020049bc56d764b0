package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PayoutStatus represents the payout state of a winner record.
type PayoutStatus string

const (
	PayoutStatusPaid   PayoutStatus = "PAID"
	PayoutStatusFailed PayoutStatus = "FAILED"
)

// Winner represents the winner of a settled round.
type Winner struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RoundID      primitive.ObjectID `bson:"roundId" json:"roundId"`
	RoundNumber  int64              `bson:"roundNumber" json:"roundNumber"`
	Account      string             `bson:"account" json:"account"`
	PrizeAmount  int64              `bson:"prizeAmount" json:"prizeAmount"`
	PayoutStatus PayoutStatus       `bson:"payoutStatus" json:"payoutStatus"`
	WinDate      time.Time          `bson:"winDate" json:"winDate"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
