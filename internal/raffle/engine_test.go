package raffle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	nextID   string
	err      error
	requests []RequestParams
}

func (s *fakeSource) RequestRandomWords(_ context.Context, params RequestParams) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.requests = append(s.requests, params)
	if s.nextID == "" {
		return fmt.Sprintf("req-%d", len(s.requests)), nil
	}
	return s.nextID, nil
}

type fakeTreasury struct {
	pool         int64
	failDeposit  bool
	failTransfer bool
	transfers    map[string]int64
}

func newFakeTreasury(opening int64) *fakeTreasury {
	return &fakeTreasury{pool: opening, transfers: make(map[string]int64)}
}

func (t *fakeTreasury) Deposit(_ context.Context, _ string, amount int64) error {
	if t.failDeposit {
		return errors.New("collection declined")
	}
	t.pool += amount
	return nil
}

func (t *fakeTreasury) Transfer(_ context.Context, to string, amount int64) error {
	if t.failTransfer {
		return errors.New("payout declined")
	}
	t.pool -= amount
	t.transfers[to] += amount
	return nil
}

func (t *fakeTreasury) Balance(_ context.Context) (int64, error) {
	return t.pool, nil
}

type recordingNotifier struct {
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) {
	n.events = append(n.events, event)
}

func (n *recordingNotifier) kinds() []EventKind {
	out := make([]EventKind, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

type manualClock struct {
	at time.Time
}

func (c *manualClock) now() time.Time { return c.at }

func (c *manualClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func testConfig() Config {
	return Config{
		EntryFee:        1,
		Interval:        30 * time.Second,
		MinParticipants: 3,
		Request: RequestParams{
			Confirmations:    3,
			CallbackGasLimit: 500000,
			NumWords:         1,
		},
	}
}

func newTestEngine(t *testing.T) (*Engine, *fakeSource, *fakeTreasury, *recordingNotifier, *manualClock) {
	t.Helper()
	source := &fakeSource{}
	treasury := newFakeTreasury(0)
	notifier := &recordingNotifier{}
	clock := &manualClock{at: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	engine := NewEngine(testConfig(), source, treasury, notifier)
	engine.now = clock.now
	engine.lastDrawAt = clock.at
	return engine, source, treasury, notifier, clock
}

func TestEnterRecordsParticipantAndPoolsFunds(t *testing.T) {
	engine, _, treasury, notifier, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "alice", 1))

	assert.Equal(t, 1, engine.ParticipantCount())
	assert.Equal(t, 0, engine.IndexOf("alice"))
	assert.Equal(t, int64(1), engine.ContributionOf("alice"))
	assert.Equal(t, int64(1), treasury.pool)
	assert.Equal(t, []EventKind{EventEntered}, notifier.kinds())
}

func TestEnterBelowFeeFails(t *testing.T) {
	engine, _, treasury, _, _ := newTestEngine(t)

	err := engine.Enter(context.Background(), "alice", 0)

	require.ErrorIs(t, err, ErrInsufficientContribution)
	assert.Equal(t, 0, engine.ParticipantCount())
	assert.Equal(t, int64(0), treasury.pool)
}

func TestEnterWhileCalculatingFails(t *testing.T) {
	engine, _, _, _, clock := newTestEngine(t)
	ctx := context.Background()
	enterThree(t, engine)
	clock.advance(time.Minute)
	_, err := engine.PerformTransition(ctx)
	require.NoError(t, err)

	err = engine.Enter(ctx, "dave", 1)

	require.ErrorIs(t, err, ErrRoundNotOpen)
	assert.Equal(t, 3, engine.ParticipantCount())
}

func TestEnterFailedCollectionLeavesLedgerUntouched(t *testing.T) {
	engine, _, treasury, _, _ := newTestEngine(t)
	treasury.failDeposit = true

	err := engine.Enter(context.Background(), "alice", 1)

	require.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, 0, engine.ParticipantCount())
}

func enterThree(t *testing.T, engine *Engine) {
	t.Helper()
	ctx := context.Background()
	for _, account := range []string{"alice", "bob", "carol"} {
		require.NoError(t, engine.Enter(ctx, account, 1))
	}
}

func TestCheckEligibilityRequiresAllConditions(t *testing.T) {
	engine, _, _, _, clock := newTestEngine(t)
	ctx := context.Background()

	ok, err := engine.CheckEligibility(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty round must not be eligible")

	enterThree(t, engine)
	ok, err = engine.CheckEligibility(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "interval has not elapsed yet")

	clock.advance(time.Minute)
	ok, err = engine.CheckEligibility(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// Once CALCULATING the predicate flips false again.
	_, err = engine.PerformTransition(ctx)
	require.NoError(t, err)
	ok, err = engine.CheckEligibility(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckEligibilityFalseBelowQuorum(t *testing.T) {
	engine, _, _, _, clock := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.Enter(ctx, "alice", 1))
	require.NoError(t, engine.Enter(ctx, "bob", 1))
	clock.advance(time.Minute)

	ok, err := engine.CheckEligibility(ctx)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPerformTransitionWithoutEligibilityFails(t *testing.T) {
	engine, source, _, _, _ := newTestEngine(t)
	enterThree(t, engine)

	_, err := engine.PerformTransition(context.Background())

	require.ErrorIs(t, err, ErrTransitionNotEligible)
	var notEligible *NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Equal(t, StateOpen, notEligible.State)
	assert.Equal(t, 3, notEligible.Participants)
	assert.Equal(t, int64(3), notEligible.Balance)
	assert.Empty(t, source.requests, "no randomness request may be issued")
	assert.Equal(t, StateOpen, engine.State())
}

func TestPerformTransitionIssuesSingleRequest(t *testing.T) {
	engine, source, _, notifier, clock := newTestEngine(t)
	enterThree(t, engine)
	clock.advance(time.Minute)

	requestID, err := engine.PerformTransition(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, StateCalculating, engine.State())
	require.Len(t, source.requests, 1)
	assert.Equal(t, testConfig().Request, source.requests[0])
	assert.Contains(t, notifier.kinds(), EventRandomnessRequested)

	// A second transition must be rejected while the request is pending.
	_, err = engine.PerformTransition(context.Background())
	require.ErrorIs(t, err, ErrTransitionNotEligible)
	assert.Len(t, source.requests, 1)
}

func TestPerformTransitionOracleFailureRestoresOpen(t *testing.T) {
	engine, source, _, _, clock := newTestEngine(t)
	enterThree(t, engine)
	clock.advance(time.Minute)
	source.err = errors.New("coordinator unavailable")

	_, err := engine.PerformTransition(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateOpen, engine.State())

	// The round recovers: a later transition succeeds once the oracle is back.
	source.err = nil
	_, err = engine.PerformTransition(context.Background())
	require.NoError(t, err)
}

func TestHandleRandomnessUnrecognizedHandleMutatesNothing(t *testing.T) {
	engine, _, treasury, _, clock := newTestEngine(t)
	ctx := context.Background()
	enterThree(t, engine)
	clock.advance(time.Minute)
	requestID, err := engine.PerformTransition(ctx)
	require.NoError(t, err)

	_, err = engine.HandleRandomness(ctx, "req-stale", []uint64{7})

	require.ErrorIs(t, err, ErrRequestNotRecognized)
	assert.Equal(t, StateCalculating, engine.State())
	assert.Equal(t, 3, engine.ParticipantCount())
	assert.Equal(t, int64(3), treasury.pool)

	// The genuine fulfillment still works afterwards.
	_, err = engine.HandleRandomness(ctx, requestID, []uint64{7})
	require.NoError(t, err)
}

func TestHandleRandomnessBeforeAnyRequestIsRejected(t *testing.T) {
	engine, _, _, _, _ := newTestEngine(t)

	_, err := engine.HandleRandomness(context.Background(), "req-1", []uint64{1})

	require.ErrorIs(t, err, ErrRequestNotRecognized)
	assert.Equal(t, StateOpen, engine.State())
}

func TestHandleRandomnessSelectsWinnerAndResets(t *testing.T) {
	engine, _, treasury, notifier, clock := newTestEngine(t)
	ctx := context.Background()
	enterThree(t, engine)
	clock.advance(time.Minute)
	requestID, err := engine.PerformTransition(ctx)
	require.NoError(t, err)
	clock.advance(10 * time.Second)

	// words[0] = 7, 7 mod 3 = 1 -> bob.
	result, err := engine.HandleRandomness(ctx, requestID, []uint64{7})

	require.NoError(t, err)
	assert.Equal(t, "bob", result.Winner)
	assert.Equal(t, 1, result.WinnerIndex)
	assert.Equal(t, int64(3), result.Prize)
	assert.Equal(t, 3, result.Participants)
	assert.Equal(t, clock.at, result.SettledAt)

	assert.Equal(t, StateOpen, engine.State())
	assert.Equal(t, 0, engine.ParticipantCount())
	assert.Equal(t, clock.at, engine.LastDrawAt())
	assert.Equal(t, "bob", engine.RecentWinner())
	assert.Equal(t, int64(3), treasury.transfers["bob"])
	assert.Equal(t, int64(0), treasury.pool)
	assert.Equal(t,
		[]EventKind{EventEntered, EventEntered, EventEntered, EventRandomnessRequested, EventWinnerSelected},
		notifier.kinds())

	// The consumed handle is discarded: a duplicate callback is rejected.
	_, err = engine.HandleRandomness(ctx, requestID, []uint64{7})
	require.ErrorIs(t, err, ErrRequestNotRecognized)
}

func TestHandleRandomnessPayoutFailureLeavesRoundSettled(t *testing.T) {
	engine, _, treasury, _, clock := newTestEngine(t)
	ctx := context.Background()
	enterThree(t, engine)
	clock.advance(time.Minute)
	requestID, err := engine.PerformTransition(ctx)
	require.NoError(t, err)
	treasury.failTransfer = true

	result, err := engine.HandleRandomness(ctx, requestID, []uint64{0})

	// The round is already past the point of no return: state flipped back to
	// OPEN and the ledger cleared, with the failed payout surfaced for manual
	// intervention.
	require.ErrorIs(t, err, ErrTransferFailed)
	require.NotNil(t, result)
	assert.Equal(t, "alice", result.Winner)
	assert.Equal(t, StateOpen, engine.State())
	assert.Equal(t, 0, engine.ParticipantCount())
	assert.Equal(t, "alice", engine.RecentWinner())
}

func TestExitRefundsUndersubscribedRound(t *testing.T) {
	engine, _, treasury, notifier, clock := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.Enter(ctx, "alice", 1))
	clock.advance(time.Minute)

	require.NoError(t, engine.Exit(ctx, "alice"))

	assert.Equal(t, 0, engine.ParticipantCount())
	assert.Equal(t, int64(1), treasury.transfers["alice"])
	assert.Equal(t, int64(0), treasury.pool)
	assert.Contains(t, notifier.kinds(), EventExited)
}

func TestExitBlockedOnceQuorumReached(t *testing.T) {
	engine, _, _, _, clock := newTestEngine(t)
	enterThree(t, engine)
	clock.advance(time.Minute)

	err := engine.Exit(context.Background(), "alice")

	require.ErrorIs(t, err, ErrExitNotAllowed)
	assert.Equal(t, 3, engine.ParticipantCount())
}

func TestExitBeforeIntervalElapsesFails(t *testing.T) {
	engine, _, _, _, _ := newTestEngine(t)
	require.NoError(t, engine.Enter(context.Background(), "alice", 1))

	err := engine.Exit(context.Background(), "alice")

	require.ErrorIs(t, err, ErrExitNotAllowed)
}

func TestExitWithoutContributionFails(t *testing.T) {
	engine, _, _, _, clock := newTestEngine(t)
	require.NoError(t, engine.Enter(context.Background(), "alice", 1))
	clock.advance(time.Minute)

	err := engine.Exit(context.Background(), "mallory")

	require.ErrorIs(t, err, ErrExitNotAllowed)
}

func TestExitFailedRefundKeepsContribution(t *testing.T) {
	engine, _, treasury, _, clock := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.Enter(ctx, "alice", 1))
	clock.advance(time.Minute)
	treasury.failTransfer = true

	err := engine.Exit(ctx, "alice")

	require.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, 1, engine.ParticipantCount())
	assert.Equal(t, int64(1), engine.ContributionOf("alice"))

	// The same exit can be retried safely once transfers recover.
	treasury.failTransfer = false
	require.NoError(t, engine.Exit(ctx, "alice"))
	assert.Equal(t, 0, engine.ParticipantCount())
}

func TestExitWhileCalculatingFails(t *testing.T) {
	engine, _, _, _, clock := newTestEngine(t)
	ctx := context.Background()
	enterThree(t, engine)
	clock.advance(time.Minute)
	_, err := engine.PerformTransition(ctx)
	require.NoError(t, err)

	err = engine.Exit(ctx, "alice")

	require.ErrorIs(t, err, ErrRoundNotOpen)
}

func TestFullRoundScenario(t *testing.T) {
	engine, _, treasury, _, clock := newTestEngine(t)
	ctx := context.Background()

	// fee=1, three participants enter with amount=1 each.
	enterThree(t, engine)
	snapshot, err := engine.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snapshot.Balance)

	clock.advance(time.Minute)
	ok, err := engine.CheckEligibility(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	requestID, err := engine.PerformTransition(ctx)
	require.NoError(t, err)

	// Index 1 wins the full pool of 3.
	result, err := engine.HandleRandomness(ctx, requestID, []uint64{4})
	require.NoError(t, err)
	assert.Equal(t, "bob", result.Winner)
	assert.Equal(t, int64(3), treasury.transfers["bob"])
	assert.Equal(t, StateOpen, engine.State())
	assert.Equal(t, 0, engine.ParticipantCount())
}

func TestSnapshotReportsPendingRequest(t *testing.T) {
	engine, _, _, _, clock := newTestEngine(t)
	ctx := context.Background()
	enterThree(t, engine)
	clock.advance(time.Minute)
	requestID, err := engine.PerformTransition(ctx)
	require.NoError(t, err)

	snapshot, err := engine.Snapshot(ctx)

	require.NoError(t, err)
	assert.Equal(t, StateCalculating, snapshot.State)
	assert.Equal(t, requestID, snapshot.PendingRequest)
	assert.Equal(t, 3, snapshot.Participants)
}
