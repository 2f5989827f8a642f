package core

import "fmt"

// RefereeNote explains that referee metrics are placeholders.
const RefereeNote = "Referee metrics are synthetic; real test and rubric execution is not wired in yet."

// PickWinner scores the final bids and assembles the decision report.
//
// Processing flow:
//  1. Validate the task and bid set
//  2. Score every bid against the set's max ETA
//  3. Select the first bid holding the highest total
//  4. Attach the fixed rationale and synthetic referee summary
//
// The report carries no events; the caller owning the ledger attaches them.
func PickWinner(task Task, bids []Bid, w Weights) (*DecisionReport, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if len(bids) == 0 {
		return nil, ErrNoBids
	}
	if err := ValidateBids(bids); err != nil {
		return nil, err
	}

	scored := ScoreBids(bids, task.BudgetUSD, w)
	scores := make(map[string]ScoreBreakdown, len(scored))
	for _, sb := range scored {
		scores[sb.Bid.FreelancerID] = sb.Score
	}
	winnerID := scored[Best(scored)].Bid.FreelancerID

	rationale := []string{
		"Winner chosen by multi-attribute scoring (price + ETA + expected quality - risk).",
		fmt.Sprintf("Budget: $%.0f. Bids evaluated deterministically.", task.BudgetUSD),
		fmt.Sprintf("Winner '%s' had the highest total score after risk/quality normalization.", winnerID),
	}

	return &DecisionReport{
		Task:      task,
		Weights:   w,
		Bids:      cloneBids(bids),
		Scores:    scores,
		WinnerID:  winnerID,
		Rationale: rationale,
		RefereeSummary: RefereeSummary{
			TestsPassing:   true,
			RubricScore:    8.5,
			StyleScore:     9.0,
			PlagiarismRisk: "low",
			Note:           RefereeNote,
		},
		Events: []Event{},
	}, nil
}
