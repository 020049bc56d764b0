package models

// Participant is the API view of an entrant in the current round.
type Participant struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
	Index   int    `json:"index"`
}
