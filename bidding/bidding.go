// Package bidding turns freelancer profiles into opening bids.
package bidding

import (
	"context"
	"fmt"
	"log"
	"math"
	"slices"
	"time"

	"github.com/cloudx-io/openbounty/core"
	"github.com/cloudx-io/openbounty/notes"
)

// Profile describes a simulated freelancer.
type Profile struct {
	FreelancerID   string   `json:"freelancer_id" yaml:"freelancer_id"`
	PortfolioScore float64  `json:"portfolio_score" yaml:"portfolio_score"`
	BaseSpeed      int      `json:"base_speed" yaml:"base_speed"` // lower is faster
	BasePrice      float64  `json:"base_price" yaml:"base_price"`
	RiskFlags      []string `json:"risk_flags" yaml:"risk_flags"`
}

const (
	pricePerCriterion = 15.0
	noteSystemPrompt  = "Write a concise 1-2 sentence freelancer bid note. Output only the note."
)

// DefaultNoteTimeout bounds a single note generation call.
const DefaultNoteTimeout = 30 * time.Second

// Bidder proposes bids for a task, optionally asking a generator for notes.
type Bidder struct {
	Notes       notes.Generator
	NoteTimeout time.Duration
}

// ProposeBid computes the opening bid for profile on task.
//
// Pricing and schedule are derived from the number of acceptance criteria:
//   - price = min(budget, base price + 15 per criterion)
//   - eta = max(1, base speed + criteria/2)
//   - confidence = 0.6 + 0.4*portfolio - 0.08 per risk flag, bounded to [0.35, 0.95]
//
// Note generation never fails the bid; on error the note is left nil.
func (b Bidder) ProposeBid(ctx context.Context, task core.Task, p Profile) core.Bid {
	n := len(task.AcceptanceCriteria)
	price := math.Min(task.BudgetUSD, p.BasePrice+float64(n)*pricePerCriterion)
	eta := max(1, p.BaseSpeed+n/2)
	confidence := math.Max(0.35, math.Min(0.95, 0.6+0.4*p.PortfolioScore-0.08*float64(len(p.RiskFlags))))

	flags := slices.Clone(p.RiskFlags)
	if flags == nil {
		flags = []string{}
	}
	bid := core.Bid{
		FreelancerID:   p.FreelancerID,
		PriceUSD:       price,
		ETADays:        eta,
		Confidence:     confidence,
		PortfolioScore: p.PortfolioScore,
		RiskFlags:      flags,
	}

	if notes.Enabled(b.Notes) {
		bid.Notes = b.generateNote(ctx, task, bid)
	}
	return bid
}

// ProposeBid is Bidder{Notes: gen}.ProposeBid with the default note timeout.
func ProposeBid(ctx context.Context, task core.Task, p Profile, gen notes.Generator) core.Bid {
	return Bidder{Notes: gen}.ProposeBid(ctx, task, p)
}

// ProposeBids proposes one bid per profile, in profile order.
func (b Bidder) ProposeBids(ctx context.Context, task core.Task, profiles []Profile) []core.Bid {
	bids := make([]core.Bid, 0, len(profiles))
	for _, p := range profiles {
		bids = append(bids, b.ProposeBid(ctx, task, p))
	}
	return bids
}

func (b Bidder) generateNote(ctx context.Context, task core.Task, bid core.Bid) *string {
	timeout := b.NoteTimeout
	if timeout <= 0 {
		timeout = DefaultNoteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := b.Notes.Generate(ctx, notePrompt(task, bid), noteSystemPrompt)
	if err != nil {
		log.Printf("WARN: Note generation failed for %s: %v", bid.FreelancerID, err)
		return nil
	}
	return &text
}

func notePrompt(task core.Task, bid core.Bid) string {
	return fmt.Sprintf("Return ONLY the bid note text. No preamble, no quotes.\n"+
		"Task: %s\n"+
		"Criteria: %q\n"+
		"Price: %.2f, ETA days: %d, confidence: %.2f",
		task.Title, task.AcceptanceCriteria, bid.PriceUSD, bid.ETADays, bid.Confidence)
}

// Validate rejects profiles that would produce an invalid bid.
func (p Profile) Validate() error {
	switch {
	case p.FreelancerID == "":
		return fmt.Errorf("profile: freelancer_id is required")
	case p.PortfolioScore < 0 || p.PortfolioScore > 1:
		return fmt.Errorf("profile %s: portfolio_score %v outside [0,1]", p.FreelancerID, p.PortfolioScore)
	case p.BasePrice < 0:
		return fmt.Errorf("profile %s: base_price %v is negative", p.FreelancerID, p.BasePrice)
	}
	return nil
}

// DefaultProfiles returns the reference freelancer pool.
func DefaultProfiles() []Profile {
	return []Profile{
		{FreelancerID: "cheap_risky", PortfolioScore: 0.35, BaseSpeed: 2, BasePrice: 80,
			RiskFlags: []string{"low_test_coverage", "copy_paste_history"}},
		{FreelancerID: "steady_mid", PortfolioScore: 0.70, BaseSpeed: 3, BasePrice: 140, RiskFlags: []string{}},
		{FreelancerID: "fast_good", PortfolioScore: 0.78, BaseSpeed: 2, BasePrice: 165,
			RiskFlags: []string{core.TightScheduleFlag}},
		{FreelancerID: "slow_safe", PortfolioScore: 0.82, BaseSpeed: 5, BasePrice: 150, RiskFlags: []string{}},
		{FreelancerID: "premium", PortfolioScore: 0.92, BaseSpeed: 3, BasePrice: 210, RiskFlags: []string{}},
	}
}

// DemoTask returns the reference task used by the CLI when none is given.
func DemoTask() core.Task {
	return core.NewTask(
		"Implement a FastAPI endpoint + unit tests",
		[]string{
			"POST /tasks creates a task",
			"POST /tasks/{id}/run selects winner",
			"Return a JSON decision report",
			"Include basic unit tests",
		},
		250,
	)
}
