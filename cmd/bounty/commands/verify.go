package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudx-io/openbounty/bountyapi"
	"github.com/cloudx-io/openbounty/core"
	"github.com/cloudx-io/openbounty/validation"
)

type verifyOptions struct {
	sealed    string
	report    string
	publicKey string
	format    string
}

func newVerifyCmd() *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a sealed report against its decision report",
		Long: `Verify checks the COSE signature of a sealed report, then compares the
signed run proof with the decision report: bid hashes, weights hash, event
trail hash, winner, and a recomputation of every score.

Each flag accepts either a file path or the value inline.

Exit Codes:
  0 - Validation passed
  1 - Validation failed
  2 - Invalid input or runtime error`,
		Example: `  bounty run --seal-out run.cose
  bounty verify --sealed run.cose --report run.cose.report.json --public-key run.cose.pub.pem`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return verifyReport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.sealed, "sealed", "", "Sealed report, gzip+base64url (file path or inline)")
	cmd.Flags().StringVar(&opts.report, "report", "", "Decision report JSON (file path or inline JSON)")
	cmd.Flags().StringVar(&opts.publicKey, "public-key", "", "Signer public key PEM (file path or inline)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("sealed")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("public-key")

	return cmd
}

func verifyReport(cmd *cobra.Command, opts *verifyOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", opts.format)
	}

	sealed, err := readInput(opts.sealed)
	if err != nil {
		return fmt.Errorf("reading sealed report: %w", err)
	}
	reportJSON, err := readInput(opts.report)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}
	publicKey, err := readInput(opts.publicKey)
	if err != nil {
		return fmt.Errorf("reading public key: %w", err)
	}

	var report core.DecisionReport
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return fmt.Errorf("parse report: %w", err)
	}

	result, err := validation.ValidateSealedReport(&validation.ReportValidationInput{
		Sealed:       bountyapi.SealedReportCOSEGzip(strings.TrimSpace(string(sealed))),
		PublicKeyPEM: string(publicKey),
		Report:       &report,
	})
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		if err := outputVerifyJSON(out, result); err != nil {
			return err
		}
	} else {
		outputVerifyText(out, result)
	}

	if !result.IsValid() {
		return ErrValidationFailed
	}
	return nil
}

func outputVerifyText(w io.Writer, result *validation.ReportValidationResult) {
	fmt.Fprintln(w, "Sealed Report Validator")
	fmt.Fprintln(w, "=======================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Signature Valid:         %v\n", result.SignatureValid)
	fmt.Fprintf(w, "  Run Match:               %v\n", result.RunMatch)
	fmt.Fprintf(w, "  Bid Hash Valid:          %v\n", result.BidHashValid)
	fmt.Fprintf(w, "  Weights Hash Valid:      %v\n", result.WeightsHashValid)
	fmt.Fprintf(w, "  Events Hash Valid:       %v\n", result.EventsHashValid)
	fmt.Fprintf(w, "  Winner Valid:            %v\n", result.WinnerValid)
	fmt.Fprintf(w, "  Scores Valid:            %v\n", result.ScoresValid)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Details:")
	for _, detail := range result.ValidationDetails {
		fmt.Fprintf(w, "  - %s\n", detail)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=======================")
	if result.IsValid() {
		fmt.Fprintln(w, "VALIDATION: ✓ PASSED")
	} else {
		fmt.Fprintln(w, "VALIDATION: ✗ FAILED")
	}
}

func outputVerifyJSON(w io.Writer, result *validation.ReportValidationResult) error {
	return writeJSON(w, map[string]any{
		"valid":              result.IsValid(),
		"signature_valid":    result.SignatureValid,
		"run_match":          result.RunMatch,
		"bid_hash_valid":     result.BidHashValid,
		"weights_hash_valid": result.WeightsHashValid,
		"events_hash_valid":  result.EventsHashValid,
		"winner_valid":       result.WinnerValid,
		"scores_valid":       result.ScoresValid,
		"details":            result.ValidationDetails,
	})
}
