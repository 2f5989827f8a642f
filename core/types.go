package core

import (
	"encoding/json"
	"time"
)

// Task is the unit of work a requester posts for bidding.
// AcceptanceCriteria order is significant: bidders derive price and ETA from it.
type Task struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	BudgetUSD          float64  `json:"budget_usd"`
}

// Bid is a single freelancer offer for a task.
// Bids are values: every transformation returns a new Bid and never shares
// the RiskFlags backing array with its input.
type Bid struct {
	FreelancerID   string   `json:"freelancer_id"`
	PriceUSD       float64  `json:"price_usd"`
	ETADays        int      `json:"eta_days"`
	Confidence     float64  `json:"confidence"`      // 0..1
	PortfolioScore float64  `json:"portfolio_score"` // 0..1
	RiskFlags      []string `json:"risk_flags"`
	Notes          *string  `json:"notes"`
}

// CounterOffer is the mediator's per-round target for one freelancer.
type CounterOffer struct {
	FreelancerID   string  `json:"freelancer_id"`
	TargetPriceUSD float64 `json:"target_price_usd"`
	TargetETADays  int     `json:"target_eta_days"`
}

// ScoreBreakdown holds the four signed, weighted terms of a bid score and their sum.
// Higher Total is always better.
type ScoreBreakdown struct {
	PriceTerm   float64 `json:"price_term"`
	ETATerm     float64 `json:"eta_term"`
	QualityTerm float64 `json:"quality_term"`
	RiskTerm    float64 `json:"risk_term"`
	Total       float64 `json:"total"`
}

// Weights configures the relative importance of each scoring term.
type Weights struct {
	Price   float64 `json:"price" yaml:"price"`
	ETA     float64 `json:"eta" yaml:"eta"`
	Quality float64 `json:"quality" yaml:"quality"`
	Risk    float64 `json:"risk" yaml:"risk"`
}

// ScoredBid pairs a bid with its score in the context of the bid set it was ranked in.
type ScoredBid struct {
	Bid   Bid
	Score ScoreBreakdown
}

// RefereeSummary is the quality-assessment payload attached to a report.
// Values are synthetic placeholders until real test and rubric execution exists.
type RefereeSummary struct {
	TestsPassing   bool    `json:"tests_passing"`
	RubricScore    float64 `json:"rubric_score"`
	StyleScore     float64 `json:"style_score"`
	PlagiarismRisk string  `json:"plagiarism_risk"`
	Note           string  `json:"note"`
}

// DecisionReport is the terminal artifact of a run.
type DecisionReport struct {
	RunID          string                    `json:"run_id,omitempty"`
	Task           Task                      `json:"task"`
	Weights        Weights                   `json:"weights"`
	Bids           []Bid                     `json:"bids"`
	Scores         map[string]ScoreBreakdown `json:"scores"` // key: freelancer_id
	WinnerID       string                    `json:"winner_id"`
	Rationale      []string                  `json:"rationale"`
	RefereeSummary RefereeSummary            `json:"referee_summary"`
	Events         []Event                   `json:"events"`
}

// EventType enumerates ledger entries. The set is closed.
type EventType string

const (
	EventTaskPosted           EventType = "TASK_POSTED"
	EventBidSubmitted         EventType = "BID_SUBMITTED"
	EventCounterofferSent     EventType = "COUNTEROFFER_SENT"
	EventCounterofferResponse EventType = "COUNTEROFFER_RESPONSE"
	EventRoundComplete        EventType = "ROUND_COMPLETE"
	EventWinnerSelected       EventType = "WINNER_SELECTED"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventTaskPosted, EventBidSubmitted, EventCounterofferSent,
		EventCounterofferResponse, EventRoundComplete, EventWinnerSelected:
		return true
	}
	return false
}

// Event is one immutable ledger entry. Round 0 means pre-negotiation.
type Event struct {
	RunID     string          `json:"run_id"`
	Seq       int             `json:"seq"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"ts"`
	Round     int             `json:"round"`
	Summary   string          `json:"summary"`
	Data      json.RawMessage `json:"data"`
}

// Event payloads, one per event type.

type TaskPostedData struct {
	Task Task `json:"task"`
}

type BidSubmittedData struct {
	Bid Bid `json:"bid"`
}

type CounterofferSentData struct {
	LeaderID string         `json:"leader_id"`
	Offers   []CounterOffer `json:"offers"`
}

type CounterofferResponseData struct {
	FreelancerID string       `json:"freelancer_id"`
	Offer        CounterOffer `json:"offer"`
	Before       Bid          `json:"before"`
	After        Bid          `json:"after"`
}

type RoundCompleteData struct {
	LeaderID string `json:"leader_id"`
	Bids     []Bid  `json:"bids"`
}

type WinnerSelectedData struct {
	WinnerID string                    `json:"winner_id"`
	Total    float64                   `json:"total"`
	Scores   map[string]ScoreBreakdown `json:"scores"`
}
