package core

import (
	"errors"
	"fmt"
	"math"
)

// TightScheduleFlag is added to a bid whose ETA drops to three days or fewer.
const TightScheduleFlag = "tight_schedule"

// ProposeCounteroffers ranks the current bids and asks each freelancer, in
// ranked order, to move closer to budget. Exactly one draw is consumed per
// bid. Slow bids (more than five days) are also asked to shave a day,
// never below two days.
//
// Returns the leader's freelancer id ("" for an empty set) and one offer per bid.
func ProposeCounteroffers(task Task, bids []Bid, w Weights, rng RandSource) (string, []CounterOffer) {
	ranked := RankBids(bids, task.BudgetUSD, w)

	leader := ""
	if len(ranked) > 0 {
		leader = ranked[0].Bid.FreelancerID
	}

	offers := make([]CounterOffer, 0, len(ranked))
	for _, sb := range ranked {
		b := sb.Bid
		priceTarget := math.Min(b.PriceUSD, task.BudgetUSD*(0.92+0.03*rng.Float64()))
		etaTarget := b.ETADays
		if b.ETADays > 5 {
			etaTarget = max(2, b.ETADays-1)
		}
		offers = append(offers, CounterOffer{
			FreelancerID:   b.FreelancerID,
			TargetPriceUSD: priceTarget,
			TargetETADays:  etaTarget,
		})
	}
	return leader, offers
}

// ApplyCounteroffer returns the freelancer's response to offer as a new bid.
//
// Draw order: one draw for the share of a price cut accepted (only when the
// target is below the current price), then one draw for a one-day ETA
// reduction (only when the target ETA is below the current one).
func ApplyCounteroffer(bid Bid, offer CounterOffer, rng RandSource) Bid {
	newPrice := bid.PriceUSD
	newETA := bid.ETADays

	// accept 60%..100% of the requested price move
	if offer.TargetPriceUSD < bid.PriceUSD {
		alpha := 0.6 + 0.4*rng.Float64()
		newPrice = bid.PriceUSD - alpha*(bid.PriceUSD-offer.TargetPriceUSD)
	}

	if offer.TargetETADays < bid.ETADays {
		if rng.Float64() > 0.35 {
			newETA = bid.ETADays - 1
		}
	}

	conf := bid.Confidence
	if newETA < bid.ETADays {
		conf -= 0.02
	}
	if newPrice < bid.PriceUSD*0.9 {
		conf -= 0.03
	}

	out := bid.Clone()
	out.PriceUSD = newPrice
	out.ETADays = max(newETA, 1)
	out.Confidence = Clamp(conf, 0.3, 0.95)
	if out.ETADays <= 3 && !out.HasRiskFlag(TightScheduleFlag) {
		out.RiskFlags = append(out.RiskFlags, TightScheduleFlag)
	}
	return out
}

// Negotiate runs the counteroffer protocol for the given number of rounds and
// returns the final bid set in the original order. Rounds run strictly in
// sequence; each round's output is the next round's input. The input slice
// is never modified.
//
// Every step is recorded on ledger when it is non-nil. rng must be owned by
// the caller for the duration of the run.
func Negotiate(task Task, bids []Bid, w Weights, rounds int, rng RandSource, ledger *Ledger) ([]Bid, error) {
	if rounds < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRounds, rounds)
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateBids(bids); err != nil {
		return nil, err
	}
	if rounds > 0 && rng == nil {
		return nil, errors.New("negotiation requires a random source")
	}

	current := cloneBids(bids)
	for round := 1; round <= rounds; round++ {
		leader, offers := ProposeCounteroffers(task, current, w, rng)
		if err := record(ledger, EventCounterofferSent,
			fmt.Sprintf("Round %d: mediator sent %d counteroffers (leader: %s)", round, len(offers), leader),
			round, CounterofferSentData{LeaderID: leader, Offers: offers}); err != nil {
			return nil, err
		}

		byID := make(map[string]CounterOffer, len(offers))
		for _, o := range offers {
			byID[o.FreelancerID] = o
		}

		next := make([]Bid, 0, len(current))
		for _, b := range current {
			offer := byID[b.FreelancerID]
			updated := ApplyCounteroffer(b, offer, rng)
			if err := record(ledger, EventCounterofferResponse,
				fmt.Sprintf("Round %d: %s responded $%.2f -> $%.2f, %dd -> %dd",
					round, b.FreelancerID, b.PriceUSD, updated.PriceUSD, b.ETADays, updated.ETADays),
				round, CounterofferResponseData{
					FreelancerID: b.FreelancerID,
					Offer:        offer,
					Before:       b,
					After:        updated,
				}); err != nil {
				return nil, err
			}
			next = append(next, updated)
		}

		current = next
		if err := record(ledger, EventRoundComplete,
			fmt.Sprintf("Round %d complete", round),
			round, RoundCompleteData{LeaderID: leader, Bids: current}); err != nil {
			return nil, err
		}
	}
	return current, nil
}

func record(ledger *Ledger, eventType EventType, summary string, round int, data any) error {
	if ledger == nil {
		return nil
	}
	_, err := ledger.Add(eventType, summary, round, data)
	return err
}
