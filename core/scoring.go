package core

import "math"

// Clamp bounds x to [lo, hi]. NaN maps to lo so scoring stays well-defined.
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}

// EstimateQuality is the expected-quality proxy for a bid, in [0,1].
// Confidence and portfolio raise it, each risk flag lowers it.
func EstimateQuality(b Bid) float64 {
	riskPenalty := 0.12 * float64(len(b.RiskFlags))
	q := 0.55*b.Confidence + 0.45*b.PortfolioScore - riskPenalty
	return Clamp(q, 0, 1)
}

// EstimateRisk is the delivery-risk proxy for a bid, in [0,1]. Higher is worse.
func EstimateRisk(b Bid) float64 {
	base := 0.15 * float64(len(b.RiskFlags))
	confPenalty := (1.0 - b.Confidence) * 0.35
	return Clamp(base+confPenalty, 0, 1)
}

// MaxETA returns the largest ETA in bids, or 1 for an empty set.
func MaxETA(bids []Bid) int {
	maxETA := 1
	for _, b := range bids {
		maxETA = max(maxETA, b.ETADays)
	}
	return maxETA
}

// Score computes the weighted breakdown of a bid.
// price and eta are normalized against the budget and the bid set's max ETA
// and capped at 2; lower is better for price, eta and risk.
func Score(b Bid, budgetUSD float64, maxETADays int, w Weights) ScoreBreakdown {
	priceNorm := Clamp(b.PriceUSD/math.Max(budgetUSD, 1.0), 0, 2)
	etaNorm := Clamp(float64(b.ETADays)/float64(max(maxETADays, 1)), 0, 2)
	quality := EstimateQuality(b)
	risk := EstimateRisk(b)

	priceTerm := -w.Price * priceNorm
	etaTerm := -w.ETA * etaNorm
	qualityTerm := w.Quality * quality
	riskTerm := -w.Risk * risk

	return ScoreBreakdown{
		PriceTerm:   priceTerm,
		ETATerm:     etaTerm,
		QualityTerm: qualityTerm,
		RiskTerm:    riskTerm,
		Total:       priceTerm + etaTerm + qualityTerm + riskTerm,
	}
}
