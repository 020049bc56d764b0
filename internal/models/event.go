package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleEvent is the persisted form of an engine notification (ENTERED,
// EXITED, RANDOMNESS_REQUESTED, WINNER_SELECTED). Events form the audit
// trail of a round.
type RaffleEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Kind       string             `bson:"kind" json:"kind"`
	Account    string             `bson:"account,omitempty" json:"account,omitempty"`
	RequestID  string             `bson:"requestId,omitempty" json:"requestId,omitempty"`
	Amount     int64              `bson:"amount,omitempty" json:"amount,omitempty"`
	OccurredAt time.Time          `bson:"occurredAt" json:"occurredAt"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
