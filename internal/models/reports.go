package models

import "time"

// EligibilityReport is the API view of the finalization predicate, carrying
// the values the check saw so operators can tell which condition failed.
type EligibilityReport struct {
	Eligible     bool      `json:"eligible"`
	State        string    `json:"state"`
	Participants int       `json:"participants"`
	Balance      int64     `json:"balance"`
	LastDrawAt   time.Time `json:"lastDrawAt"`
	Interval     string    `json:"interval"`
}

// RaffleConfigView exposes the immutable round configuration.
type RaffleConfigView struct {
	EntryFee             int64  `json:"entryFee"`
	Interval             string `json:"interval"`
	MinParticipants      int    `json:"minParticipants"`
	RequestConfirmations uint16 `json:"requestConfirmations"`
	CallbackGasLimit     uint32 `json:"callbackGasLimit"`
	NumWords             uint32 `json:"numWords"`
}

// RaffleOverview is the API view of the live raffle state.
type RaffleOverview struct {
	State          string           `json:"state"`
	Participants   int              `json:"participants"`
	Balance        int64            `json:"balance"`
	LastDrawAt     time.Time        `json:"lastDrawAt"`
	PendingRequest string           `json:"pendingRequest,omitempty"`
	RecentWinner   string           `json:"recentWinner,omitempty"`
	Config         RaffleConfigView `json:"config"`
}
