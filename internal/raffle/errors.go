package raffle

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientContribution is returned when an entry carries less than the entry fee.
	ErrInsufficientContribution = errors.New("contribution below entry fee")

	// ErrRoundNotOpen is returned when a mutating entry or exit is attempted outside OPEN.
	ErrRoundNotOpen = errors.New("round is not open")

	// ErrExitNotAllowed is returned when the exit guard is unmet.
	ErrExitNotAllowed = errors.New("exit not allowed")

	// ErrRequestNotRecognized is returned for a fulfillment whose handle does not
	// match the currently pending randomness request.
	ErrRequestNotRecognized = errors.New("randomness request not recognized")

	// ErrTransferFailed is returned when the funds transfer collaborator reports failure.
	// The core never retries; retry is the caller's responsibility.
	ErrTransferFailed = errors.New("funds transfer failed")

	// ErrTransitionNotEligible is the sentinel behind NotEligibleError.
	ErrTransitionNotEligible = errors.New("transition not eligible")
)

// NotEligibleError reports a rejected transition together with a diagnostic
// snapshot of the values the eligibility predicate saw.
type NotEligibleError struct {
	State        State
	Participants int
	Balance      int64
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("transition not eligible: state=%s participants=%d balance=%d",
		e.State, e.Participants, e.Balance)
}

func (e *NotEligibleError) Unwrap() error { return ErrTransitionNotEligible }
