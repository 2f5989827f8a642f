// Package seal signs a digest of a finished run so a requester can later
// prove which bids, weights and event trail produced the winner.
package seal

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudx-io/openbounty/bountyapi"
	"github.com/cloudx-io/openbounty/core"
)

// ReportSigner produces a COSE_Sign1 message over payload.
type ReportSigner interface {
	Sign(payload []byte) ([]byte, error)
}

var proofEncMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano, Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// SealReport builds the RunProof for report, encodes it as CBOR and signs it.
func SealReport(signer ReportSigner, report *core.DecisionReport) (bountyapi.SealedReportCOSE, error) {
	proof, err := BuildRunProof(report)
	if err != nil {
		return nil, err
	}
	return SealProof(signer, proof)
}

// SealProof signs an already built proof.
func SealProof(signer ReportSigner, proof *bountyapi.RunProof) (bountyapi.SealedReportCOSE, error) {
	if signer == nil {
		return nil, fmt.Errorf("report signer is nil")
	}

	payload, err := EncodeProof(proof)
	if err != nil {
		return nil, err
	}

	sealed, err := signer.Sign(payload)
	if err != nil {
		log.Printf("ERROR: Sealing run %s failed: %v", proof.RunID, err)
		return nil, fmt.Errorf("sign run proof: %w", err)
	}

	log.Printf("INFO: Sealed run %s: %d bids, %d events, %d bytes", proof.RunID, len(proof.BidHashes), proof.EventCount, len(sealed))
	return bountyapi.SealedReportCOSE(sealed), nil
}

// BuildRunProof computes the digests of report under fresh nonces.
func BuildRunProof(report *core.DecisionReport) (*bountyapi.RunProof, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}
	winner, ok := report.Scores[report.WinnerID]
	if !ok {
		return nil, fmt.Errorf("winner %q has no score in report", report.WinnerID)
	}

	bidHashNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate bid hash nonce: %w", err)
	}
	weightsNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate weights nonce: %w", err)
	}
	taskNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate task nonce: %w", err)
	}

	bidHashes := make([]string, 0, len(report.Bids))
	for _, bid := range report.Bids {
		bidHashes = append(bidHashes, core.ComputeBidHash(bid, bidHashNonce))
	}

	return &bountyapi.RunProof{
		RunID:        report.RunID,
		TaskID:       report.Task.ID,
		TaskHash:     core.ComputeTaskHash(report.Task, taskNonce),
		TaskNonce:    taskNonce,
		WinnerID:     report.WinnerID,
		WinnerTotal:  winner.Total,
		Rounds:       countRounds(report.Events),
		BidHashes:    bidHashes,
		BidHashNonce: bidHashNonce,
		WeightsHash:  core.ComputeWeightsHash(report.Weights, weightsNonce),
		WeightsNonce: weightsNonce,
		EventsHash:   core.ComputeEventsHash(report.Events),
		EventCount:   len(report.Events),
		KeyAlgorithm: KeyAlgorithm,
		Timestamp:    time.Now().UTC(),
	}, nil
}

// EncodeProof encodes proof as canonical CBOR.
func EncodeProof(proof *bountyapi.RunProof) ([]byte, error) {
	payload, err := proofEncMode.Marshal(proof)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run proof: %w", err)
	}
	return payload, nil
}

// DecodeProof is the inverse of EncodeProof.
func DecodeProof(payload []byte) (*bountyapi.RunProof, error) {
	var proof bountyapi.RunProof
	if err := cbor.Unmarshal(payload, &proof); err != nil {
		return nil, fmt.Errorf("failed to decode run proof: %w", err)
	}
	return &proof, nil
}

func countRounds(events []core.Event) int {
	rounds := 0
	for _, ev := range events {
		if ev.Type == core.EventRoundComplete {
			rounds++
		}
	}
	return rounds
}

func generateSecureRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("entropy generation failed: %w", err)
	}
	return randomBytes, nil
}

func generateNonce() (string, error) {
	randomBytes, err := generateSecureRandomBytes(32) // 256 bits of entropy
	if err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}
