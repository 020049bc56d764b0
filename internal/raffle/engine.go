package raffle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

// State is the round state of the raffle.
type State string

const (
	// StateOpen accepts entries and exit-refunds and is eligible for upkeep checks.
	StateOpen State = "OPEN"
	// StateCalculating blocks entries and exits while an oracle fulfillment is awaited.
	StateCalculating State = "CALCULATING"
)

// RequestParams are the randomness-request parameters passed to the oracle,
// fixed at construction time.
type RequestParams struct {
	Confirmations    uint16
	CallbackGasLimit uint32
	NumWords         uint32
}

// RandomnessSource is the external oracle. RequestRandomWords returns a
// correlation handle; the random words arrive later through an independent
// call to Engine.HandleRandomness.
type RandomnessSource interface {
	RequestRandomWords(ctx context.Context, params RequestParams) (string, error)
}

// Treasury is the external funds collaborator. It holds the pooled prize, so
// the pool balance is always read from it rather than tracked redundantly.
// Transfer must report failure to the caller and never retry on its own.
type Treasury interface {
	Deposit(ctx context.Context, from string, amount int64) error
	Transfer(ctx context.Context, to string, amount int64) error
	Balance(ctx context.Context) (int64, error)
}

// Config is the immutable round configuration.
type Config struct {
	// EntryFee is the minimum contribution per entry.
	EntryFee int64
	// Interval is the minimum time between finalizations.
	Interval time.Duration
	// MinParticipants is the participant count required for automatic
	// finalization. Below it, exit-refunds remain available.
	MinParticipants int
	// Request holds the oracle request parameters.
	Request RequestParams
}

// Snapshot is a read-only view of the engine for diagnostics and accessors.
type Snapshot struct {
	State          State     `json:"state"`
	Participants   int       `json:"participants"`
	Balance        int64     `json:"balance"`
	LastDrawAt     time.Time `json:"lastDrawAt"`
	PendingRequest string    `json:"pendingRequest,omitempty"`
	RecentWinner   string    `json:"recentWinner,omitempty"`
}

// DrawResult describes a settled round.
type DrawResult struct {
	RequestID    string
	Winner       string
	WinnerIndex  int
	Prize        int64
	Participants int
	SettledAt    time.Time
}

// Engine owns the round state, the round clock and the pending randomness
// request, and drives the ledger through the raffle protocol. Every mutating
// operation runs to completion under a single lock, matching the
// single-writer execution model the protocol assumes.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	ledger   *Ledger
	source   RandomnessSource
	treasury Treasury
	notifier Notifier

	now func() time.Time

	state          State
	lastDrawAt     time.Time
	pendingRequest string
	recentWinner   string
}

// NewEngine creates an engine in the OPEN state with the round clock set to
// construction time. notifier may be nil.
func NewEngine(cfg Config, source RandomnessSource, treasury Treasury, notifier Notifier) *Engine {
	e := &Engine{
		cfg:      cfg,
		ledger:   NewLedger(),
		source:   source,
		treasury: treasury,
		notifier: notifier,
		now:      time.Now,
		state:    StateOpen,
	}
	e.lastDrawAt = e.now()
	return e
}

// SetNotifier wires the event consumer. The service that persists events is
// constructed after the engine, so the notifier is attached here rather than
// in the constructor.
func (e *Engine) SetNotifier(n Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifier = n
}

// Enter records a contribution for the account. The contribution must meet
// the entry fee and the round must be OPEN. The funds are deposited with the
// treasury before the ledger is touched, so a failed collection leaves the
// ledger unchanged.
func (e *Engine) Enter(ctx context.Context, account string, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount < e.cfg.EntryFee {
		return ErrInsufficientContribution
	}
	if e.state != StateOpen {
		return ErrRoundNotOpen
	}
	if err := e.treasury.Deposit(ctx, account, amount); err != nil {
		return fmt.Errorf("%w: collect entry from %s: %v", ErrTransferFailed, account, err)
	}
	e.ledger.Add(account, amount)
	e.notify(ctx, Event{Kind: EventEntered, Account: account, Amount: amount, OccurredAt: e.now()})
	return nil
}

// Exit refunds the account's full contribution and removes it from the round.
// It is a safety valve for under-subscribed rounds: allowed only while the
// round is OPEN, the interval has elapsed, the account holds a positive
// contribution and the participant count is still below the finalization
// minimum. Once enough participants exist the funds are locked in
// anticipation of a draw. A failed refund leaves the ledger untouched.
func (e *Engine) Exit(ctx context.Context, account string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateOpen {
		return ErrRoundNotOpen
	}
	refund := e.ledger.AmountOf(account)
	switch {
	case e.now().Sub(e.lastDrawAt) < e.cfg.Interval:
		return fmt.Errorf("%w: interval has not elapsed", ErrExitNotAllowed)
	case refund <= 0:
		return fmt.Errorf("%w: no contribution recorded for %s", ErrExitNotAllowed, account)
	case e.ledger.Count() >= e.cfg.MinParticipants:
		return fmt.Errorf("%w: round already has enough participants to finalize", ErrExitNotAllowed)
	}
	if err := e.treasury.Transfer(ctx, account, refund); err != nil {
		return fmt.Errorf("%w: refund %s: %v", ErrTransferFailed, account, err)
	}
	e.ledger.Remove(account)
	e.notify(ctx, Event{Kind: EventExited, Account: account, Amount: refund, OccurredAt: e.now()})
	return nil
}

// CheckEligibility evaluates the finalization predicate without side effects:
// state OPEN, interval elapsed, participant quorum met and pooled balance
// positive. The same predicate is re-evaluated inside PerformTransition.
func (e *Engine) CheckEligibility(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok, _, err := e.eligible(ctx)
	return ok, err
}

// eligible must be called with the lock held. The pool balance is read even
// when an earlier condition already failed so the caller can attach it to
// diagnostics.
func (e *Engine) eligible(ctx context.Context) (bool, int64, error) {
	balance, err := e.treasury.Balance(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("read pool balance: %w", err)
	}
	open := e.state == StateOpen
	elapsed := e.now().Sub(e.lastDrawAt) >= e.cfg.Interval
	quorum := e.ledger.Count() >= e.cfg.MinParticipants
	funded := balance > 0
	return open && elapsed && quorum && funded, balance, nil
}

// PerformTransition re-checks eligibility and, if met, moves the round to
// CALCULATING and issues exactly one randomness request, recording the
// returned handle as pending. No funds move here. If the oracle rejects the
// request the round is restored to OPEN before the error is returned, keeping
// the operation atomic.
func (e *Engine) PerformTransition(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ok, balance, err := e.eligible(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &NotEligibleError{
			State:        e.state,
			Participants: e.ledger.Count(),
			Balance:      balance,
		}
	}

	e.state = StateCalculating
	requestID, err := e.source.RequestRandomWords(ctx, e.cfg.Request)
	if err != nil {
		e.state = StateOpen
		return "", fmt.Errorf("request random words: %w", err)
	}
	e.pendingRequest = requestID
	e.notify(ctx, Event{Kind: EventRandomnessRequested, RequestID: requestID, OccurredAt: e.now()})
	return requestID, nil
}

// HandleRandomness consumes an oracle fulfillment. A handle that does not
// match the pending request is rejected without mutating anything, which
// defends against stale and duplicate callbacks. On a recognized request the
// winner is the participant at words[0] mod count; the state flip, round
// clock reset and ledger reset are committed before the payout transfer, so a
// failed payout surfaces ErrTransferFailed together with the already-settled
// result and recovery is a manual concern.
func (e *Engine) HandleRandomness(ctx context.Context, requestID string, words []uint64) (*DrawResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateCalculating || e.pendingRequest == "" || requestID != e.pendingRequest {
		return nil, fmt.Errorf("%w: %q", ErrRequestNotRecognized, requestID)
	}
	if len(words) == 0 {
		return nil, errors.New("fulfillment carried no random words")
	}
	count := e.ledger.Count()
	if count == 0 {
		return nil, errors.New("ledger is empty at fulfillment time")
	}

	winnerIndex := int(words[0] % uint64(count))
	winner, _ := e.ledger.ParticipantAt(winnerIndex)
	prize, err := e.treasury.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pool balance: %w", err)
	}

	settledAt := e.now()
	result := &DrawResult{
		RequestID:    requestID,
		Winner:       winner,
		WinnerIndex:  winnerIndex,
		Prize:        prize,
		Participants: count,
		SettledAt:    settledAt,
	}

	// Commit before transferring: the external payout cannot be rolled back,
	// so the round must already be durably past the draw when it happens.
	e.recentWinner = winner
	e.state = StateOpen
	e.lastDrawAt = settledAt
	e.pendingRequest = ""
	e.ledger.Reset()

	if err := e.treasury.Transfer(ctx, winner, prize); err != nil {
		slog.Error("Winner payout failed after round settlement", "requestId", requestID, "winner", winner, "prize", prize, "error", err)
		return result, fmt.Errorf("%w: payout to %s: %v", ErrTransferFailed, winner, err)
	}
	e.notify(ctx, Event{Kind: EventWinnerSelected, Account: winner, RequestID: requestID, Amount: prize, OccurredAt: settledAt})
	return result, nil
}

// Snapshot returns a read-only view of the engine.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	balance, err := e.treasury.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pool balance: %w", err)
	}
	return &Snapshot{
		State:          e.state,
		Participants:   e.ledger.Count(),
		Balance:        balance,
		LastDrawAt:     e.lastDrawAt,
		PendingRequest: e.pendingRequest,
		RecentWinner:   e.recentWinner,
	}, nil
}

// Config returns the immutable round configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// State returns the current round state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ParticipantCount returns the number of participants in the current round.
func (e *Engine) ParticipantCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Count()
}

// ParticipantAt returns the account at the given ordinal position.
func (e *Engine) ParticipantAt(index int) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ParticipantAt(index)
}

// IndexOf returns the account's index in the current round, or IndexNotFound.
func (e *Engine) IndexOf(account string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.IndexOf(account)
}

// ContributionOf returns the account's accumulated contribution this round.
func (e *Engine) ContributionOf(account string) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.AmountOf(account)
}

// Participants returns a copy of the ordered participant sequence.
func (e *Engine) Participants() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Participants()
}

// RecentWinner returns the most recent winner, or the empty string if no
// round has settled yet.
func (e *Engine) RecentWinner() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recentWinner
}

// LastDrawAt returns the round clock: the time of the last finalization, or
// construction time if no round has settled yet.
func (e *Engine) LastDrawAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDrawAt
}

func (e *Engine) notify(ctx context.Context, event Event) {
	if e.notifier != nil {
		e.notifier.Notify(ctx, event)
	}
}
