package core

import (
	"math"
	"testing"
	"time"
)

// scriptedRand provides a deterministic draw sequence for testing
type scriptedRand struct {
	sequence []float64
	index    int
}

func (s *scriptedRand) Float64() float64 {
	if s.index >= len(s.sequence) {
		return 0
	}
	val := s.sequence[s.index]
	s.index++
	return val
}

// fixtureTask is the reference demo task: budget 250, four criteria.
func fixtureTask() Task {
	return Task{
		ID:    "task-fixture",
		Title: "Implement a task endpoint with unit tests",
		AcceptanceCriteria: []string{
			"POST /tasks creates a task",
			"POST /tasks/{id}/run selects winner",
			"Return a JSON decision report",
			"Include basic unit tests",
		},
		BudgetUSD: 250,
	}
}

// fixtureBids are the five reference profiles' opening bids for fixtureTask.
func fixtureBids() []Bid {
	return []Bid{
		{FreelancerID: "cheap_risky", PriceUSD: 140, ETADays: 4, Confidence: 0.58, PortfolioScore: 0.35,
			RiskFlags: []string{"low_test_coverage", "copy_paste_history"}},
		{FreelancerID: "steady_mid", PriceUSD: 200, ETADays: 5, Confidence: 0.8799999999999999, PortfolioScore: 0.70,
			RiskFlags: []string{}},
		{FreelancerID: "fast_good", PriceUSD: 225, ETADays: 4, Confidence: 0.8320000000000001, PortfolioScore: 0.78,
			RiskFlags: []string{"tight_schedule"}},
		{FreelancerID: "slow_safe", PriceUSD: 210, ETADays: 7, Confidence: 0.9279999999999999, PortfolioScore: 0.82,
			RiskFlags: []string{}},
		{FreelancerID: "premium", PriceUSD: 250, ETADays: 5, Confidence: 0.95, PortfolioScore: 0.92,
			RiskFlags: []string{}},
	}
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
}

func checkClose(t *testing.T, want, got float64) {
	t.Helper()
	if math.Abs(want-got) > 1e-9 {
		t.Errorf("want %v, got %v", want, got)
	}
}
