package bountyapi

import (
	"fmt"

	"github.com/cloudx-io/openbounty/core"
)

// RunRequest is the caller-facing description of a run.
// Nil Seed and Rounds fall back to the configured defaults.
type RunRequest struct {
	Title              string             `json:"title"`
	AcceptanceCriteria []string           `json:"acceptance_criteria"`
	BudgetUSD          float64            `json:"budget_usd"`
	Weights            map[string]float64 `json:"weights,omitempty"`
	UseNotes           bool               `json:"use_llm"`
	Model              string             `json:"model,omitempty"`
	Seed               *int64             `json:"seed,omitempty"`
	Rounds             *int               `json:"rounds,omitempty"`
}

// Validate checks the request before any run state is created.
func (r RunRequest) Validate() error {
	if r.BudgetUSD <= 0 {
		return fmt.Errorf("run request: %w (got %v)", core.ErrInvalidBudget, r.BudgetUSD)
	}
	if r.Rounds != nil && *r.Rounds < 0 {
		return fmt.Errorf("run request: %w: got %d", core.ErrInvalidRounds, *r.Rounds)
	}
	if r.Weights != nil {
		if _, err := core.WeightsFromMap(r.Weights); err != nil {
			return fmt.Errorf("run request: %w", err)
		}
	}
	return nil
}

// Task builds a fresh task from the request.
func (r RunRequest) Task() core.Task {
	return core.NewTask(r.Title, r.AcceptanceCriteria, r.BudgetUSD)
}

// WeightsOrDefault returns the request weights, or the defaults when none were given.
func (r RunRequest) WeightsOrDefault() (core.Weights, error) {
	if r.Weights == nil {
		return core.DefaultWeights(), nil
	}
	return core.WeightsFromMap(r.Weights)
}

// RunResponse wraps a run outcome for transport.
type RunResponse struct {
	Success        bool                 `json:"success"`
	Message        string               `json:"message"`
	Report         *core.DecisionReport `json:"report,omitempty"`
	Sealed         SealedReportCOSEGzip `json:"sealed_report_gzip,omitempty"`
	PublicKeyPEM   string               `json:"public_key_pem,omitempty"`
	ProcessingTime int64                `json:"processing_time_ms"`
}
