package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ledger is the append-only audit trail of one run.
// Sequence numbers start at 1 and are never reused or reordered.
// A Ledger belongs to a single run and is not safe for concurrent use.
type Ledger struct {
	runID  string
	seq    int
	events []Event
	clock  func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// NewLedger creates an empty ledger. An empty runID gets a fresh UUIDv4.
func NewLedger(runID string, opts ...LedgerOption) *Ledger {
	if runID == "" {
		runID = uuid.NewString()
	}
	l := &Ledger{runID: runID, clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RunID returns the identifier stamped on every event.
func (l *Ledger) RunID() string {
	return l.runID
}

// Len returns the number of recorded events.
func (l *Ledger) Len() int {
	return len(l.events)
}

// Add records an event and returns it. data is encoded as JSON; a nil data
// records an empty object.
func (l *Ledger) Add(eventType EventType, summary string, round int, data any) (Event, error) {
	if !eventType.Valid() {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}

	payload := json.RawMessage(`{}`)
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
		}
		payload = raw
	}

	l.seq++
	ev := Event{
		RunID:     l.runID,
		Seq:       l.seq,
		Type:      eventType,
		Timestamp: l.clock().UTC(),
		Round:     round,
		Summary:   summary,
		Data:      payload,
	}
	l.events = append(l.events, ev)
	return ev, nil
}

// Events returns the recorded events in sequence order.
func (l *Ledger) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
