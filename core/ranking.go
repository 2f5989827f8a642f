package core

import "sort"

// ScoreBids scores every bid against the set's own max ETA, keeping input order.
func ScoreBids(bids []Bid, budgetUSD float64, w Weights) []ScoredBid {
	maxETA := MaxETA(bids)
	scored := make([]ScoredBid, len(bids))
	for i, b := range bids {
		scored[i] = ScoredBid{Bid: b, Score: Score(b, budgetUSD, maxETA, w)}
	}
	return scored
}

// RankBids returns the bids ordered by total score, highest first.
// Equal totals keep their input order, so the first-listed bid ranks ahead.
func RankBids(bids []Bid, budgetUSD float64, w Weights) []ScoredBid {
	ranked := ScoreBids(bids, budgetUSD, w)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Total > ranked[j].Score.Total
	})
	return ranked
}

// Best returns the index of the first entry holding the maximum total, or -1
// for an empty slice. Later entries only win on a strictly greater total.
func Best(scored []ScoredBid) int {
	best := -1
	for i, sb := range scored {
		if best < 0 || sb.Score.Total > scored[best].Score.Total {
			best = i
		}
	}
	return best
}
