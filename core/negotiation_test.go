package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestProposeCounteroffers(t *testing.T) {
	// ranked order: premium, steady_mid, slow_safe, fast_good, cheap_risky
	rng := &scriptedRand{sequence: []float64{0, 1, 0.5, 0, 0}}
	leader, offers := ProposeCounteroffers(fixtureTask(), fixtureBids(), DefaultWeights(), rng)

	check.Equal(t, "premium", leader)
	check.Equal(t, 5, rng.index)
	assert.Equal(t, 5, len(offers))

	want := []CounterOffer{
		{FreelancerID: "premium", TargetPriceUSD: 230, TargetETADays: 5},
		{FreelancerID: "steady_mid", TargetPriceUSD: 200, TargetETADays: 5},
		{FreelancerID: "slow_safe", TargetPriceUSD: 210, TargetETADays: 6},
		{FreelancerID: "fast_good", TargetPriceUSD: 225, TargetETADays: 4},
		{FreelancerID: "cheap_risky", TargetPriceUSD: 140, TargetETADays: 4},
	}
	for i, o := range offers {
		check.Equal(t, want[i].FreelancerID, o.FreelancerID)
		check.Equal(t, want[i].TargetETADays, o.TargetETADays)
		checkClose(t, want[i].TargetPriceUSD, o.TargetPriceUSD)
	}
}

func TestProposeCounteroffers_ETAFloor(t *testing.T) {
	task := Task{ID: "t", BudgetUSD: 100}
	bids := []Bid{{FreelancerID: "a", PriceUSD: 50, ETADays: 6, Confidence: 0.5}}

	_, offers := ProposeCounteroffers(task, bids, DefaultWeights(), &scriptedRand{})
	check.Equal(t, 5, offers[0].TargetETADays)

	bids[0].ETADays = 5
	_, offers = ProposeCounteroffers(task, bids, DefaultWeights(), &scriptedRand{})
	check.Equal(t, 5, offers[0].TargetETADays)
}

func TestProposeCounteroffers_Empty(t *testing.T) {
	rng := &scriptedRand{sequence: []float64{0.5}}
	leader, offers := ProposeCounteroffers(fixtureTask(), nil, DefaultWeights(), rng)
	check.Equal(t, "", leader)
	check.Equal(t, 0, len(offers))
	check.Equal(t, 0, rng.index)
}

func TestApplyCounteroffer_PriceAndETA(t *testing.T) {
	bid := Bid{FreelancerID: "a", PriceUSD: 200, ETADays: 7, Confidence: 0.9, PortfolioScore: 0.5}
	offer := CounterOffer{FreelancerID: "a", TargetPriceUSD: 180, TargetETADays: 6}
	rng := &scriptedRand{sequence: []float64{0.5, 0.9}}

	got := ApplyCounteroffer(bid, offer, rng)

	check.Equal(t, 2, rng.index)
	checkClose(t, 184, got.PriceUSD)
	check.Equal(t, 6, got.ETADays)
	// ETA cut costs 0.02; a 8% price cut stays under the 10% threshold
	checkClose(t, 0.88, got.Confidence)
	check.Equal(t, 200.0, bid.PriceUSD)
}

func TestApplyCounteroffer_DeepPriceCut(t *testing.T) {
	bid := Bid{FreelancerID: "a", PriceUSD: 100, ETADays: 4, Confidence: 0.8}
	offer := CounterOffer{FreelancerID: "a", TargetPriceUSD: 50, TargetETADays: 4}
	rng := &scriptedRand{sequence: []float64{0}}

	got := ApplyCounteroffer(bid, offer, rng)

	check.Equal(t, 1, rng.index)
	checkClose(t, 70, got.PriceUSD)
	check.Equal(t, 4, got.ETADays)
	checkClose(t, 0.77, got.Confidence)
}

func TestApplyCounteroffer_NoDrawWithoutRequest(t *testing.T) {
	bid := Bid{FreelancerID: "a", PriceUSD: 100, ETADays: 4, Confidence: 0.8}
	offer := CounterOffer{FreelancerID: "a", TargetPriceUSD: 100, TargetETADays: 4}
	rng := &scriptedRand{sequence: []float64{0.1, 0.1}}

	got := ApplyCounteroffer(bid, offer, rng)

	check.Equal(t, 0, rng.index)
	check.Equal(t, bid, got)
}

func TestApplyCounteroffer_ETAThreshold(t *testing.T) {
	bid := Bid{FreelancerID: "a", PriceUSD: 100, ETADays: 4, Confidence: 0.8}
	offer := CounterOffer{FreelancerID: "a", TargetPriceUSD: 100, TargetETADays: 3}

	// a draw of exactly 0.35 does not reduce
	kept := ApplyCounteroffer(bid, offer, &scriptedRand{sequence: []float64{0.35}})
	check.Equal(t, 4, kept.ETADays)
	check.False(t, kept.HasRiskFlag(TightScheduleFlag))

	cut := ApplyCounteroffer(bid, offer, &scriptedRand{sequence: []float64{0.36}})
	check.Equal(t, 3, cut.ETADays)
	check.Equal(t, []string{TightScheduleFlag}, cut.RiskFlags)
	check.True(t, bid.RiskFlags == nil)
}

func TestApplyCounteroffer_TightScheduleNotDuplicated(t *testing.T) {
	bid := Bid{FreelancerID: "a", PriceUSD: 100, ETADays: 2, Confidence: 0.8, RiskFlags: []string{TightScheduleFlag}}
	offer := CounterOffer{FreelancerID: "a", TargetPriceUSD: 100, TargetETADays: 2}

	got := ApplyCounteroffer(bid, offer, &scriptedRand{})
	check.Equal(t, []string{TightScheduleFlag}, got.RiskFlags)
}

func TestApplyCounteroffer_ConfidenceBounds(t *testing.T) {
	offer := CounterOffer{FreelancerID: "a", TargetPriceUSD: 10, TargetETADays: 1}

	low := Bid{FreelancerID: "a", PriceUSD: 100, ETADays: 5, Confidence: 0.31}
	got := ApplyCounteroffer(low, offer, &scriptedRand{sequence: []float64{1, 1}})
	check.Equal(t, 0.3, got.Confidence)

	high := Bid{FreelancerID: "a", PriceUSD: 100, ETADays: 5, Confidence: 1}
	got = ApplyCounteroffer(high, CounterOffer{TargetPriceUSD: 100, TargetETADays: 5}, &scriptedRand{})
	check.Equal(t, 0.95, got.Confidence)
}

func TestNegotiate_Scripted(t *testing.T) {
	task := Task{ID: "t", BudgetUSD: 100}
	bids := []Bid{
		{FreelancerID: "a", PriceUSD: 120, ETADays: 6, Confidence: 0.8, PortfolioScore: 0.8},
		{FreelancerID: "b", PriceUSD: 90, ETADays: 2, Confidence: 0.9, PortfolioScore: 0.9},
	}
	// propose b, propose a, price share for a, eta draw for a
	rng := &scriptedRand{sequence: []float64{0, 0, 0.5, 0.9}}
	ledger := NewLedger("run-1", WithClock(fixedClock))

	final, err := Negotiate(task, bids, DefaultWeights(), 1, rng, ledger)
	assert.NoError(t, err)
	check.Equal(t, 4, rng.index)

	assert.Equal(t, 2, len(final))
	check.Equal(t, "a", final[0].FreelancerID)
	checkClose(t, 97.6, final[0].PriceUSD)
	check.Equal(t, 5, final[0].ETADays)
	checkClose(t, 0.75, final[0].Confidence)

	check.Equal(t, "b", final[1].FreelancerID)
	check.Equal(t, 90.0, final[1].PriceUSD)
	check.Equal(t, []string{TightScheduleFlag}, final[1].RiskFlags)

	events := ledger.Events()
	assert.Equal(t, 4, len(events))
	check.Equal(t,
		[]EventType{EventCounterofferSent, EventCounterofferResponse, EventCounterofferResponse, EventRoundComplete},
		[]EventType{events[0].Type, events[1].Type, events[2].Type, events[3].Type})
	for _, ev := range events {
		check.Equal(t, 1, ev.Round)
	}
	check.Equal(t, "Round 1: mediator sent 2 counteroffers (leader: b)", events[0].Summary)
	check.Equal(t, "Round 1: a responded $120.00 -> $97.60, 6d -> 5d", events[1].Summary)
	check.Equal(t, "Round 1 complete", events[3].Summary)

	var sent CounterofferSentData
	assert.NoError(t, json.Unmarshal(events[0].Data, &sent))
	check.Equal(t, "b", sent.LeaderID)
	check.Equal(t, []string{"b", "a"}, []string{sent.Offers[0].FreelancerID, sent.Offers[1].FreelancerID})

	var resp CounterofferResponseData
	assert.NoError(t, json.Unmarshal(events[1].Data, &resp))
	check.Equal(t, "a", resp.FreelancerID)
	check.Equal(t, bids[0], resp.Before)
	check.Equal(t, final[0], resp.After)

	var done RoundCompleteData
	assert.NoError(t, json.Unmarshal(events[3].Data, &done))
	check.Equal(t, final, done.Bids)
}

func TestNegotiate_Seed42FirstRound(t *testing.T) {
	opening := fixtureBids()
	ledger := NewLedger("run-1", WithClock(fixedClock))

	final, err := Negotiate(fixtureTask(), opening, DefaultWeights(), 1, NewSeededSource(42), ledger)
	assert.NoError(t, err)

	var sent CounterofferSentData
	assert.NoError(t, json.Unmarshal(ledger.Events()[0].Data, &sent))
	check.Equal(t, "premium", sent.LeaderID)
	checkClose(t, 234.79570098843413, sent.Offers[0].TargetPriceUSD)

	// only slow_safe and premium are asked to move
	for i := 0; i < 3; i++ {
		check.Equal(t, opening[i], final[i])
	}
	check.Equal(t, 6, final[3].ETADays)
	checkClose(t, 0.9079999999999999, final[3].Confidence)
	checkClose(t, 235.45143462530285, final[4].PriceUSD)
	check.Equal(t, 5, final[4].ETADays)
}

func TestNegotiate_Seed42TwoRounds(t *testing.T) {
	opening := fixtureBids()
	ledger := NewLedger("run-1", WithClock(fixedClock))

	final, err := Negotiate(fixtureTask(), opening, DefaultWeights(), 2, NewSeededSource(42), ledger)
	assert.NoError(t, err)

	for i := 0; i < 3; i++ {
		check.Equal(t, opening[i], final[i])
	}
	check.Equal(t, 6, final[3].ETADays)
	checkClose(t, 0.9079999999999999, final[3].Confidence)
	checkClose(t, 232.19007855514712, final[4].PriceUSD)

	events := ledger.Events()
	assert.Equal(t, 14, len(events))
	for i, ev := range events {
		check.Equal(t, i+1, ev.Seq)
		check.Equal(t, i/7+1, ev.Round)
	}
	check.Equal(t, EventRoundComplete, events[6].Type)
	check.Equal(t, EventCounterofferSent, events[7].Type)
}

func TestNegotiate_Deterministic(t *testing.T) {
	run := func() ([]Bid, []Event) {
		ledger := NewLedger("run-1", WithClock(fixedClock))
		final, err := Negotiate(fixtureTask(), fixtureBids(), DefaultWeights(), 3, NewSeededSource(42), ledger)
		assert.NoError(t, err)
		return final, ledger.Events()
	}

	bidsA, eventsA := run()
	bidsB, eventsB := run()
	check.Equal(t, bidsA, bidsB)
	check.Equal(t, eventsA, eventsB)
	check.Equal(t, ComputeEventsHash(eventsA), ComputeEventsHash(eventsB))
}

func TestNegotiate_ZeroRounds(t *testing.T) {
	ledger := NewLedger("run-1")
	final, err := Negotiate(fixtureTask(), fixtureBids(), DefaultWeights(), 0, nil, ledger)

	assert.NoError(t, err)
	check.Equal(t, fixtureBids(), final)
	check.Equal(t, 0, ledger.Len())
}

func TestNegotiate_DoesNotMutateInput(t *testing.T) {
	bids := fixtureBids()
	_, err := Negotiate(fixtureTask(), bids, DefaultWeights(), 4, NewSeededSource(3), nil)

	assert.NoError(t, err)
	check.Equal(t, fixtureBids(), bids)
}

func TestNegotiate_Errors(t *testing.T) {
	_, err := Negotiate(fixtureTask(), fixtureBids(), DefaultWeights(), -1, NewSeededSource(1), nil)
	check.True(t, errors.Is(err, ErrInvalidRounds))

	_, err = Negotiate(Task{ID: "t"}, fixtureBids(), DefaultWeights(), 1, NewSeededSource(1), nil)
	check.True(t, errors.Is(err, ErrInvalidBudget))

	dup := append(fixtureBids(), fixtureBids()[0])
	_, err = Negotiate(fixtureTask(), dup, DefaultWeights(), 1, NewSeededSource(1), nil)
	check.True(t, errors.Is(err, ErrDuplicateBidder))

	_, err = Negotiate(fixtureTask(), fixtureBids(), DefaultWeights(), 1, nil, nil)
	check.Error(t, err)
}
