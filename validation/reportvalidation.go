// Package validation checks a sealed report against the decision report it
// claims to describe, without access to the run itself.
package validation

import (
	"fmt"
	"math"

	"github.com/cloudx-io/openbounty/bountyapi"
	"github.com/cloudx-io/openbounty/core"
	"github.com/cloudx-io/openbounty/seal"
)

// scoreTolerance absorbs floating-point differences between platforms when
// recomputing totals.
const scoreTolerance = 1e-9

// ReportValidationInput contains all inputs needed for sealed report validation
type ReportValidationInput struct {
	Sealed       bountyapi.SealedReportCOSEGzip
	PublicKeyPEM string
	Report       *core.DecisionReport
}

// ValidateSealedReport verifies a sealed report and checks that:
// - the signature is valid for the given public key
// - run and task ids match and the task (budget included) hashes into the proof
// - every final bid, flags and portfolio included, hashes into the proof, in order
// - the weights and event trail hashes match
// - the winner matches and holds the highest recomputed score
//
// Returns:
//   - ReportValidationResult with detailed results (call result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., malformed input)
func ValidateSealedReport(input *ReportValidationInput) (*ReportValidationResult, error) {
	if input == nil || input.Report == nil {
		return nil, fmt.Errorf("report is required")
	}

	sealed, err := input.Sealed.Decompress()
	if err != nil {
		return nil, fmt.Errorf("decompress sealed report: %w", err)
	}
	publicKey, err := ParsePublicKeyPEM(input.PublicKeyPEM)
	if err != nil {
		return nil, err
	}
	msg, err := ParseSealedReport(sealed)
	if err != nil {
		return nil, err
	}
	proof, err := seal.DecodeProof(msg.Payload)
	if err != nil {
		return nil, err
	}

	result := &ReportValidationResult{}

	if err := VerifyCOSESignature(msg, publicKey); err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Signature invalid: %v", err))
	} else {
		result.SignatureValid = true
		result.ValidationDetails = append(result.ValidationDetails, "Signature validation passed (ES256)")
	}

	report := input.Report
	result.RunMatch = validateRun(report, proof, result)
	result.BidHashValid = validateBidHashes(report, proof, result)
	result.WeightsHashValid = validateWeightsHash(report, proof, result)
	result.EventsHashValid = validateEventsHash(report, proof, result)
	result.WinnerValid = validateWinner(report, proof, result)
	result.ScoresValid = validateScores(report, result)

	return result, nil
}

func validateRun(report *core.DecisionReport, proof *bountyapi.RunProof, result *ReportValidationResult) bool {
	if report.RunID != proof.RunID || report.Task.ID != proof.TaskID {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
			"Run mismatch: report has run %s task %s, proof has run %s task %s",
			report.RunID, report.Task.ID, proof.RunID, proof.TaskID))
		return false
	}
	if proof.TaskNonce == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Task nonce missing from proof")
		return false
	}
	if computed := core.ComputeTaskHash(report.Task, proof.TaskNonce); computed != proof.TaskHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
			"Task hash mismatch: computed %s, proof has %s", computed, proof.TaskHash))
		return false
	}
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Run validation passed: %s", proof.RunID))
	return true
}

func validateBidHashes(report *core.DecisionReport, proof *bountyapi.RunProof, result *ReportValidationResult) bool {
	if proof.BidHashNonce == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Bid hash nonce missing from proof")
		return false
	}
	if len(report.Bids) != len(proof.BidHashes) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
			"Bid count mismatch: report has %d bids, proof has %d hashes", len(report.Bids), len(proof.BidHashes)))
		return false
	}

	valid := true
	for i, bid := range report.Bids {
		computed := core.ComputeBidHash(bid, proof.BidHashNonce)
		if computed != proof.BidHashes[i] {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
				"Bid hash mismatch for %s: computed %s, proof has %s", bid.FreelancerID, computed, proof.BidHashes[i]))
			valid = false
		}
	}
	if valid {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("All %d bid hashes found in proof", len(report.Bids)))
	}
	return valid
}

func validateWeightsHash(report *core.DecisionReport, proof *bountyapi.RunProof, result *ReportValidationResult) bool {
	if proof.WeightsNonce == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Weights nonce missing from proof")
		return false
	}
	computed := core.ComputeWeightsHash(report.Weights, proof.WeightsNonce)
	if computed == proof.WeightsHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Weights hash validation passed: %s", computed))
		return true
	}
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
		"Weights hash mismatch: computed %s, proof has %s", computed, proof.WeightsHash))
	return false
}

func validateEventsHash(report *core.DecisionReport, proof *bountyapi.RunProof, result *ReportValidationResult) bool {
	if len(report.Events) != proof.EventCount {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
			"Event count mismatch: report has %d, proof has %d", len(report.Events), proof.EventCount))
		return false
	}
	computed := core.ComputeEventsHash(report.Events)
	if computed == proof.EventsHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Event trail hash validation passed: %d events", proof.EventCount))
		return true
	}
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
		"Event trail hash mismatch: computed %s, proof has %s", computed, proof.EventsHash))
	return false
}

func validateWinner(report *core.DecisionReport, proof *bountyapi.RunProof, result *ReportValidationResult) bool {
	if report.WinnerID != proof.WinnerID {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
			"Winner mismatch: report has %s, proof has %s", report.WinnerID, proof.WinnerID))
		return false
	}
	score, ok := report.Scores[report.WinnerID]
	if !ok || math.Abs(score.Total-proof.WinnerTotal) > scoreTolerance {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
			"Winner total mismatch: report has %.6f, proof has %.6f", score.Total, proof.WinnerTotal))
		return false
	}
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
		"Winner validation passed: %s (%.6f)", proof.WinnerID, proof.WinnerTotal))
	return true
}

// validateScores recomputes every score from the final bids and checks that
// the reported winner is the first bid holding the maximum.
func validateScores(report *core.DecisionReport, result *ReportValidationResult) bool {
	scored := core.ScoreBids(report.Bids, report.Task.BudgetUSD, report.Weights)
	best := core.Best(scored)
	if best < 0 {
		result.ValidationDetails = append(result.ValidationDetails, "Score validation failed: report has no bids")
		return false
	}

	valid := true
	for _, sb := range scored {
		reported, ok := report.Scores[sb.Bid.FreelancerID]
		if !ok || math.Abs(reported.Total-sb.Score.Total) > scoreTolerance {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
				"Score mismatch for %s: recomputed %.6f, report has %.6f", sb.Bid.FreelancerID, sb.Score.Total, reported.Total))
			valid = false
		}
	}

	expected := scored[best].Bid.FreelancerID
	if expected != report.WinnerID {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf(
			"Winner is not the top score: recomputed winner %s, report has %s", expected, report.WinnerID))
		valid = false
	}
	if valid {
		result.ValidationDetails = append(result.ValidationDetails, "Score validation passed: winner holds the highest recomputed total")
	}
	return valid
}
