package raffle

import (
	"context"
	"time"
)

// EventKind identifies a raffle notification.
type EventKind string

const (
	EventEntered             EventKind = "ENTERED"
	EventExited              EventKind = "EXITED"
	EventRandomnessRequested EventKind = "RANDOMNESS_REQUESTED"
	EventWinnerSelected      EventKind = "WINNER_SELECTED"
)

// Event is a structured notification emitted by the engine. Account is set for
// ENTERED, EXITED and WINNER_SELECTED; RequestID for RANDOMNESS_REQUESTED and
// WINNER_SELECTED; Amount carries the contribution, refund or prize.
type Event struct {
	Kind       EventKind
	Account    string
	RequestID  string
	Amount     int64
	OccurredAt time.Time
}

// Notifier receives engine events. Implementations must not call back into the
// engine's mutating operations: events are delivered while the engine lock is held.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}
