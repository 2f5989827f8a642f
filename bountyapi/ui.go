package bountyapi

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/openbounty/core"
)

// UIReport is the presentation view of a decision report.
type UIReport struct {
	RunID   string              `json:"runId,omitempty"`
	Task    UITask              `json:"task"`
	Weights core.Weights        `json:"weights"`
	Winner  UIWinner            `json:"winner"`
	Referee core.RefereeSummary `json:"referee"`
	Bids    []UIBidRow          `json:"bids"`
	Events  []core.Event        `json:"events"`
}

type UITask struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	BudgetUSD          float64  `json:"budgetUsd"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
}

type UIWinner struct {
	FreelancerID string   `json:"freelancerId"`
	TotalScore   float64  `json:"totalScore"`
	Highlights   []string `json:"highlights"`
}

type UIScore struct {
	Price   float64 `json:"price"`
	ETA     float64 `json:"eta"`
	Quality float64 `json:"quality"`
	Risk    float64 `json:"risk"`
	Total   float64 `json:"total"`
}

// UIBidRow is one bid as displayed, ranked by total score.
type UIBidRow struct {
	Rank           int      `json:"rank"`
	IsWinner       bool     `json:"isWinner"`
	FreelancerID   string   `json:"freelancerId"`
	PriceUSD       float64  `json:"priceUsd"`
	ETADays        int      `json:"etaDays"`
	Confidence     float64  `json:"confidence"`
	PortfolioScore float64  `json:"portfolioScore"`
	RiskFlags      []string `json:"riskFlags"`
	Notes          string   `json:"notes"`
	Score          UIScore  `json:"score"`
}

// ToUI projects a report for display. Values are rounded half-to-even:
// money to 2 places, confidence and portfolio to 3, score terms to 4.
// Rows are ordered by exact total, highest first; equal totals keep bid order.
func ToUI(report *core.DecisionReport) UIReport {
	type row struct {
		total float64
		ui    UIBidRow
	}
	rows := make([]row, 0, len(report.Bids))
	for _, bid := range report.Bids {
		sb := report.Scores[bid.FreelancerID]
		notes := ""
		if bid.Notes != nil {
			notes = strings.TrimSpace(*bid.Notes)
		}
		flags := bid.RiskFlags
		if flags == nil {
			flags = []string{}
		}
		rows = append(rows, row{
			total: sb.Total,
			ui: UIBidRow{
				FreelancerID:   bid.FreelancerID,
				PriceUSD:       round(bid.PriceUSD, 2),
				ETADays:        bid.ETADays,
				Confidence:     round(bid.Confidence, 3),
				PortfolioScore: round(bid.PortfolioScore, 3),
				RiskFlags:      flags,
				Notes:          notes,
				Score: UIScore{
					Price:   round(sb.PriceTerm, 4),
					ETA:     round(sb.ETATerm, 4),
					Quality: round(sb.QualityTerm, 4),
					Risk:    round(sb.RiskTerm, 4),
					Total:   round(sb.Total, 4),
				},
			},
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].total > rows[j].total
	})

	out := UIReport{
		RunID: report.RunID,
		Task: UITask{
			ID:                 report.Task.ID,
			Title:              report.Task.Title,
			BudgetUSD:          round(report.Task.BudgetUSD, 2),
			AcceptanceCriteria: report.Task.AcceptanceCriteria,
		},
		Weights: report.Weights,
		Winner: UIWinner{
			FreelancerID: report.WinnerID,
			Highlights:   report.Rationale,
		},
		Referee: report.RefereeSummary,
		Bids:    make([]UIBidRow, len(rows)),
		Events:  report.Events,
	}
	for i, r := range rows {
		r.ui.Rank = i + 1
		r.ui.IsWinner = r.ui.FreelancerID == report.WinnerID
		if r.ui.IsWinner {
			out.Winner.TotalScore = r.ui.Score.Total
		}
		out.Bids[i] = r.ui
	}
	if out.Events == nil {
		out.Events = []core.Event{}
	}
	return out
}

func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).RoundBank(places).InexactFloat64()
}
