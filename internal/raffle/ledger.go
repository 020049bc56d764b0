package raffle

// IndexNotFound is the sentinel returned by IndexOf for an account that is not
// tracked in the current round. Callers branch on it instead of handling an error.
const IndexNotFound = -1

type ledgerEntry struct {
	amount int64
	index  int
}

// Ledger tracks the current round's participants: an ordered sequence of
// accounts plus each account's accumulated contribution and stable index.
// It is pure bookkeeping and is not safe for concurrent use; the Engine
// serializes every mutation behind its own lock.
type Ledger struct {
	order   []string
	entries map[string]ledgerEntry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[string]ledgerEntry),
	}
}

// Add accumulates a contribution for the account, appending it to the ordered
// sequence if it is not already tracked with a live index.
func (l *Ledger) Add(account string, amount int64) {
	entry, ok := l.entries[account]
	if !ok {
		entry = ledgerEntry{index: len(l.order)}
		l.order = append(l.order, account)
	}
	entry.amount += amount
	l.entries[account] = entry
}

// Remove drops the account from the ordered sequence, shifting subsequent
// entries left so the relative order of the remaining participants is
// preserved, and clears its contribution and index.
func (l *Ledger) Remove(account string) {
	entry, ok := l.entries[account]
	if !ok {
		return
	}
	l.order = append(l.order[:entry.index], l.order[entry.index+1:]...)
	for i := entry.index; i < len(l.order); i++ {
		shifted := l.entries[l.order[i]]
		shifted.index = i
		l.entries[l.order[i]] = shifted
	}
	delete(l.entries, account)
}

// Reset clears the participant sequence and every contribution/index record.
func (l *Ledger) Reset() {
	l.order = nil
	l.entries = make(map[string]ledgerEntry)
}

// Count returns the number of tracked participants.
func (l *Ledger) Count() int {
	return len(l.order)
}

// ParticipantAt returns the account at the given ordinal position.
func (l *Ledger) ParticipantAt(index int) (string, bool) {
	if index < 0 || index >= len(l.order) {
		return "", false
	}
	return l.order[index], true
}

// IndexOf returns the account's current index, or IndexNotFound if the account
// is not tracked in the current round.
func (l *Ledger) IndexOf(account string) int {
	entry, ok := l.entries[account]
	if !ok {
		return IndexNotFound
	}
	return entry.index
}

// AmountOf returns the account's accumulated contribution for the current
// round, or zero if the account is not tracked.
func (l *Ledger) AmountOf(account string) int64 {
	return l.entries[account].amount
}

// Participants returns a copy of the ordered participant sequence.
func (l *Ledger) Participants() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}
