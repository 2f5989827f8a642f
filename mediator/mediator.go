// Package mediator runs one complete negotiation: posting, bidding,
// counteroffer rounds and winner selection, recorded on a single ledger.
package mediator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cloudx-io/openbounty/bidding"
	"github.com/cloudx-io/openbounty/core"
	"github.com/cloudx-io/openbounty/notes"
)

// DegradedModeNote is prepended to the rationale when notes are disabled.
const DegradedModeNote = "LLM unavailable; ran deterministic mode."

// DefaultRounds is the number of counteroffer rounds when none is configured.
const DefaultRounds = 2

// DefaultSeed seeds the draw sequence when none is configured.
const DefaultSeed int64 = 42

// Mediator holds the settings shared by runs. Every call to Run owns its own
// ledger and random source, so one Mediator may serve concurrent runs.
type Mediator struct {
	Weights     core.Weights
	Seed        int64
	Rounds      int
	Notes       notes.Generator
	NoteTimeout time.Duration
	Clock       func() time.Time
}

// New returns a mediator with default weights, seed and rounds and no notes.
func New() *Mediator {
	return &Mediator{
		Weights: core.DefaultWeights(),
		Seed:    DefaultSeed,
		Rounds:  DefaultRounds,
		Notes:   notes.Nop{},
	}
}

// Run collects one bid per profile and negotiates over them.
func (m *Mediator) Run(ctx context.Context, task core.Task, profiles []bidding.Profile) (*core.DecisionReport, error) {
	if len(profiles) == 0 {
		return nil, core.ErrNoBids
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	bidder := bidding.Bidder{Notes: m.Notes, NoteTimeout: m.NoteTimeout}
	bids := bidder.ProposeBids(ctx, task, profiles)

	degraded := !notes.Enabled(m.Notes)
	if !degraded && !anyNotes(bids) {
		log.Printf("WARN: No bid notes were generated; falling back to deterministic mode")
		degraded = true
	}
	return m.run(task, bids, degraded)
}

// RunWithBids negotiates over caller-supplied opening bids.
//
// Processing flow:
//  1. Record TASK_POSTED and one BID_SUBMITTED per bid
//  2. Negotiate for the configured rounds with a freshly seeded source
//  3. Pick the winner and record WINNER_SELECTED
//  4. Attach the event trail to the report
func (m *Mediator) RunWithBids(task core.Task, bids []core.Bid) (*core.DecisionReport, error) {
	return m.run(task, bids, !notes.Enabled(m.Notes))
}

func (m *Mediator) run(task core.Task, bids []core.Bid, degraded bool) (*core.DecisionReport, error) {
	startTime := time.Now()
	log.Printf("INFO: Processing run for task %s with %d bids, %d rounds", task.ID, len(bids), m.Rounds)

	if err := task.Validate(); err != nil {
		return nil, err
	}
	if len(bids) == 0 {
		return nil, core.ErrNoBids
	}
	if err := core.ValidateBids(bids); err != nil {
		return nil, err
	}
	if err := m.Weights.Validate(); err != nil {
		return nil, err
	}

	ledger := m.newLedger()
	if _, err := ledger.Add(core.EventTaskPosted,
		fmt.Sprintf("Task posted: %s (budget $%.2f)", task.Title, task.BudgetUSD),
		0, core.TaskPostedData{Task: task}); err != nil {
		return nil, err
	}
	for _, b := range bids {
		if _, err := ledger.Add(core.EventBidSubmitted,
			fmt.Sprintf("%s bid $%.2f, %dd, confidence %.2f", b.FreelancerID, b.PriceUSD, b.ETADays, b.Confidence),
			0, core.BidSubmittedData{Bid: b}); err != nil {
			return nil, err
		}
	}

	rng := core.NewSeededSource(m.Seed)
	final, err := core.Negotiate(task, bids, m.Weights, m.Rounds, rng, ledger)
	if err != nil {
		return nil, fmt.Errorf("negotiation failed: %w", err)
	}

	report, err := core.PickWinner(task, final, m.Weights)
	if err != nil {
		return nil, fmt.Errorf("winner selection failed: %w", err)
	}

	winnerTotal := report.Scores[report.WinnerID].Total
	if _, err := ledger.Add(core.EventWinnerSelected,
		fmt.Sprintf("Winner: %s (score %.4f)", report.WinnerID, winnerTotal),
		m.Rounds, core.WinnerSelectedData{
			WinnerID: report.WinnerID,
			Total:    winnerTotal,
			Scores:   report.Scores,
		}); err != nil {
		return nil, err
	}

	if degraded {
		report.Rationale = append([]string{DegradedModeNote}, report.Rationale...)
	}
	report.RunID = ledger.RunID()
	report.Events = ledger.Events()

	log.Printf("INFO: Run %s complete: winner=%s (%.4f), events=%d, processing=%dms",
		report.RunID, report.WinnerID, winnerTotal, len(report.Events), time.Since(startTime).Milliseconds())

	return report, nil
}

func anyNotes(bids []core.Bid) bool {
	for _, b := range bids {
		if b.Notes != nil {
			return true
		}
	}
	return false
}

func (m *Mediator) newLedger() *core.Ledger {
	if m.Clock != nil {
		return core.NewLedger("", core.WithClock(m.Clock))
	}
	return core.NewLedger("")
}

// IsInputError reports whether err was caused by invalid run input rather
// than an internal failure.
func IsInputError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidBudget, core.ErrInvalidBid, core.ErrDuplicateBidder,
		core.ErrNoBids, core.ErrInvalidRounds, core.ErrInvalidWeight, core.ErrMissingWeight,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
