package core

import (
	"math"
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"inside", 0.4, 0.4},
		{"below", -3, 0},
		{"above", 7, 1},
		{"lower edge", 0, 0},
		{"upper edge", 1, 1},
		{"nan", math.NaN(), 0},
		{"negative infinity", math.Inf(-1), 0},
		{"positive infinity", math.Inf(1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.Equal(t, tt.want, Clamp(tt.x, 0, 1))
		})
	}
}

func TestEstimateQuality(t *testing.T) {
	bid := Bid{Confidence: 0.58, PortfolioScore: 0.35, RiskFlags: []string{"a", "b"}}
	checkClose(t, 0.2365, EstimateQuality(bid))

	// each flag costs 0.12 until the floor
	noisy := Bid{Confidence: 0.2, PortfolioScore: 0.1, RiskFlags: []string{"a", "b", "c", "d"}}
	check.Equal(t, 0.0, EstimateQuality(noisy))

	perfect := Bid{Confidence: 1, PortfolioScore: 1}
	check.Equal(t, 1.0, EstimateQuality(perfect))
}

func TestEstimateRisk(t *testing.T) {
	bid := Bid{Confidence: 0.58, RiskFlags: []string{"a", "b"}}
	checkClose(t, 0.447, EstimateRisk(bid))

	check.Equal(t, 0.0, EstimateRisk(Bid{Confidence: 1}))

	many := Bid{Confidence: 0, RiskFlags: []string{"a", "b", "c", "d", "e", "f", "g"}}
	check.Equal(t, 1.0, EstimateRisk(many))
}

func TestEstimates_StayInUnitInterval(t *testing.T) {
	// out-of-range inputs a caller might hand in without validation
	bids := []Bid{
		{Confidence: 5, PortfolioScore: 5},
		{Confidence: -5, PortfolioScore: -5},
		{Confidence: math.NaN(), PortfolioScore: 0.5},
		{Confidence: 0.5, PortfolioScore: 0.5, RiskFlags: make([]string, 50)},
	}
	for _, b := range bids {
		q := EstimateQuality(b)
		r := EstimateRisk(b)
		check.True(t, q >= 0 && q <= 1)
		check.True(t, r >= 0 && r <= 1)
	}
}

func TestMaxETA(t *testing.T) {
	check.Equal(t, 1, MaxETA(nil))
	check.Equal(t, 7, MaxETA(fixtureBids()))
	check.Equal(t, 1, MaxETA([]Bid{{ETADays: 0}}))
}

func TestScore_Breakdown(t *testing.T) {
	bid := fixtureBids()[0] // cheap_risky
	s := Score(bid, 250, 7, DefaultWeights())

	checkClose(t, -0.5040000000000001, s.PriceTerm)
	checkClose(t, -0.19999999999999998, s.ETATerm)
	checkClose(t, 0.28380000000000005, s.QualityTerm)
	checkClose(t, -0.49169999999999997, s.RiskTerm)
	checkClose(t, -0.9118999999999999, s.Total)
	check.Equal(t, s.PriceTerm+s.ETATerm+s.QualityTerm+s.RiskTerm, s.Total)
}

func TestScore_Deterministic(t *testing.T) {
	w := DefaultWeights()
	for _, b := range fixtureBids() {
		check.Equal(t, Score(b, 250, 7, w), Score(b, 250, 7, w))
	}
}

func TestScore_NormalizationCaps(t *testing.T) {
	w := Weights{Price: 1, ETA: 1}

	// price far above budget caps at twice the budget
	s := Score(Bid{PriceUSD: 10000, ETADays: 1, Confidence: 1}, 100, 1, w)
	check.Equal(t, -2.0, s.PriceTerm)

	// budgets under one dollar normalize against one
	s = Score(Bid{PriceUSD: 0.5, ETADays: 1, Confidence: 1}, 0.01, 1, w)
	check.Equal(t, -0.5, s.PriceTerm)

	// eta beyond twice the reference caps at 2, a zero reference counts as 1
	s = Score(Bid{ETADays: 9, Confidence: 1}, 100, 0, w)
	check.Equal(t, -2.0, s.ETATerm)
}

func TestScore_LowerPriceNeverHurts(t *testing.T) {
	w := DefaultWeights()
	bid := fixtureBids()[1]
	cheaper := bid
	cheaper.PriceUSD = bid.PriceUSD - 50

	check.True(t, Score(cheaper, 250, 7, w).Total > Score(bid, 250, 7, w).Total)
}
