package core

import (
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"
)

// NewTask builds a task with a fresh UUIDv4 identity.
func NewTask(title string, acceptanceCriteria []string, budgetUSD float64) Task {
	return Task{
		ID:                 uuid.NewString(),
		Title:              title,
		AcceptanceCriteria: slices.Clone(acceptanceCriteria),
		BudgetUSD:          budgetUSD,
	}
}

// Validate rejects tasks that cannot be scored against.
func (t Task) Validate() error {
	if t.BudgetUSD <= 0 || !isFinite(t.BudgetUSD) {
		return fmt.Errorf("task %q: %w (got %v)", t.ID, ErrInvalidBudget, t.BudgetUSD)
	}
	return nil
}

// Validate checks the field ranges of a bid as produced by a bidder.
func (b Bid) Validate() error {
	switch {
	case b.FreelancerID == "":
		return fmt.Errorf("%w: freelancer_id is required", ErrInvalidBid)
	case b.PriceUSD < 0 || !isFinite(b.PriceUSD):
		return fmt.Errorf("%w: %s price_usd %v", ErrInvalidBid, b.FreelancerID, b.PriceUSD)
	case b.ETADays < 1:
		return fmt.Errorf("%w: %s eta_days %d < 1", ErrInvalidBid, b.FreelancerID, b.ETADays)
	case !inUnitInterval(b.Confidence):
		return fmt.Errorf("%w: %s confidence %v outside [0,1]", ErrInvalidBid, b.FreelancerID, b.Confidence)
	case !inUnitInterval(b.PortfolioScore):
		return fmt.Errorf("%w: %s portfolio_score %v outside [0,1]", ErrInvalidBid, b.FreelancerID, b.PortfolioScore)
	}
	return nil
}

// ValidateBids validates every bid and rejects duplicate freelancer ids.
func ValidateBids(bids []Bid) error {
	seen := make(map[string]bool, len(bids))
	for _, b := range bids {
		if err := b.Validate(); err != nil {
			return err
		}
		if seen[b.FreelancerID] {
			return fmt.Errorf("%w: %s", ErrDuplicateBidder, b.FreelancerID)
		}
		seen[b.FreelancerID] = true
	}
	return nil
}

// Clone returns a copy of b that shares no mutable state with it.
func (b Bid) Clone() Bid {
	out := b
	out.RiskFlags = slices.Clone(b.RiskFlags)
	if b.Notes != nil {
		n := *b.Notes
		out.Notes = &n
	}
	return out
}

// HasRiskFlag reports whether the bid carries flag.
func (b Bid) HasRiskFlag(flag string) bool {
	return slices.Contains(b.RiskFlags, flag)
}

func cloneBids(bids []Bid) []Bid {
	out := make([]Bid, len(bids))
	for i, b := range bids {
		out[i] = b.Clone()
	}
	return out
}

// DefaultWeights returns the weighting used when a caller supplies none.
func DefaultWeights() Weights {
	return Weights{Price: 0.9, ETA: 0.35, Quality: 1.2, Risk: 1.1}
}

// WeightKeys lists the keys a weights mapping must carry.
var WeightKeys = []string{"price", "eta", "quality", "risk"}

// WeightsFromMap converts a loosely-typed mapping into Weights.
// Every key in WeightKeys is required; unknown keys are ignored.
func WeightsFromMap(m map[string]float64) (Weights, error) {
	for _, k := range WeightKeys {
		if _, ok := m[k]; !ok {
			return Weights{}, fmt.Errorf("%w: %q", ErrMissingWeight, k)
		}
	}
	w := Weights{Price: m["price"], ETA: m["eta"], Quality: m["quality"], Risk: m["risk"]}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Validate rejects non-finite weights.
func (w Weights) Validate() error {
	for k, v := range w.AsMap() {
		if !isFinite(v) {
			return fmt.Errorf("%w: %q is %v", ErrInvalidWeight, k, v)
		}
	}
	return nil
}

// AsMap returns the weights keyed by their configuration names.
func (w Weights) AsMap() map[string]float64 {
	return map[string]float64{
		"price":   w.Price,
		"eta":     w.ETA,
		"quality": w.Quality,
		"risk":    w.Risk,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
