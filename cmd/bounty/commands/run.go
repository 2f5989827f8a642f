package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudx-io/openbounty/bountyapi"
	"github.com/cloudx-io/openbounty/config"
	"github.com/cloudx-io/openbounty/core"
	"github.com/cloudx-io/openbounty/mediator"
	"github.com/cloudx-io/openbounty/seal"
)

type runOptions struct {
	configPath string
	request    string
	seed       int64
	rounds     int
	useNotes   bool
	model      string
	format     string
	sealOut    string
	keyPath    string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Post a task, negotiate, and print the decision report",
		Long: `Run posts a task to the freelancer pool and negotiates for the configured
number of rounds. Settings come from the config file, then environment
variables (BOUNTY_SEED, BOUNTY_ROUNDS, USE_LLM, OLLAMA_MODEL, OLLAMA_BASE_URL),
then an optional JSON run request, then flags.

With --seal-out, the report is sealed with an ECDSA P-256 key. Three files are
written: the gzip sealed report, <file>.pub.pem and <file>.report.json.`,
		Example: `  bounty run
  bounty run --seed 7 --rounds 3 --format ui
  bounty run --request '{"title":"CLI","acceptance_criteria":["help"],"budget_usd":120}'
  bounty run --seal-out run.cose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBounty(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to bounty.yml")
	cmd.Flags().StringVar(&opts.request, "request", "", "Run request JSON (file path or inline JSON)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed for the negotiation")
	cmd.Flags().IntVar(&opts.rounds, "rounds", 0, "Number of negotiation rounds")
	cmd.Flags().BoolVar(&opts.useNotes, "notes", false, "Generate bid notes with Ollama")
	cmd.Flags().StringVar(&opts.model, "model", "", "Ollama model for bid notes")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json or ui")
	cmd.Flags().StringVar(&opts.sealOut, "seal-out", "", "Write the sealed report to this file")
	cmd.Flags().StringVar(&opts.keyPath, "key", "", "PKCS#8 PEM private key used for sealing (default: fresh key)")

	return cmd
}

func runBounty(cmd *cobra.Command, opts *runOptions) error {
	switch opts.format {
	case "text", "json", "ui":
	default:
		return fmt.Errorf("unknown format %q (want text, json or ui)", opts.format)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	task := cfg.PostedTask()

	if opts.request != "" {
		task, err = applyRunRequest(cfg, opts.request)
		if err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = opts.seed
	}
	if flags.Changed("rounds") {
		cfg.Rounds = opts.rounds
	}
	if flags.Changed("notes") {
		cfg.Notes.Enabled = opts.useNotes
	}
	if flags.Changed("model") {
		cfg.Notes.Model = opts.model
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m, err := cfg.Mediator()
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := m.Run(cmd.Context(), task, cfg.FreelancerProfiles())
	if err != nil {
		return runError(err)
	}

	resp := &bountyapi.RunResponse{
		Success:        true,
		Message:        fmt.Sprintf("Winner: %s", report.WinnerID),
		Report:         report,
		ProcessingTime: time.Since(start).Milliseconds(),
	}

	if opts.sealOut != "" {
		if err := sealRun(opts, resp); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch opts.format {
	case "json":
		return writeJSON(out, resp)
	case "ui":
		return writeJSON(out, bountyapi.ToUI(report))
	default:
		outputRunText(out, report)
		if opts.sealOut != "" {
			fmt.Fprintf(out, "\nSealed report written to %s\n", opts.sealOut)
		}
		return nil
	}
}

// runError labels a failed run as bad input or as an internal failure.
func runError(err error) error {
	if mediator.IsInputError(err) {
		return fmt.Errorf("invalid run input: %w", err)
	}
	return fmt.Errorf("run failed: %w", err)
}

// applyRunRequest overlays a JSON run request onto cfg and returns the
// task it describes.
func applyRunRequest(cfg *config.Config, input string) (core.Task, error) {
	data, err := readInput(input)
	if err != nil {
		return core.Task{}, fmt.Errorf("read run request: %w", err)
	}
	var req bountyapi.RunRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return core.Task{}, fmt.Errorf("parse run request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return core.Task{}, err
	}

	if req.Weights != nil {
		w, err := req.WeightsOrDefault()
		if err != nil {
			return core.Task{}, err
		}
		cfg.Weights = w.AsMap()
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.Rounds != nil {
		cfg.Rounds = *req.Rounds
	}
	if req.UseNotes {
		cfg.Notes.Enabled = true
	}
	if req.Model != "" {
		cfg.Notes.Model = req.Model
	}
	return req.Task(), nil
}

func sealRun(opts *runOptions, resp *bountyapi.RunResponse) error {
	var (
		km  *seal.KeyManager
		err error
	)
	if opts.keyPath != "" {
		pemBytes, readErr := os.ReadFile(opts.keyPath)
		if readErr != nil {
			return fmt.Errorf("read signing key: %w", readErr)
		}
		km, err = seal.LoadKeyManager(pemBytes)
	} else {
		km, err = seal.NewKeyManager()
	}
	if err != nil {
		return err
	}

	sealed, err := seal.SealReport(km, resp.Report)
	if err != nil {
		return err
	}
	gz, err := sealed.CompressGzip()
	if err != nil {
		return fmt.Errorf("compress sealed report: %w", err)
	}
	pub, err := km.PublicKeyPEM()
	if err != nil {
		return err
	}
	reportJSON, err := json.MarshalIndent(resp.Report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	files := map[string][]byte{
		opts.sealOut:                  []byte(gz.String() + "\n"),
		opts.sealOut + ".pub.pem":     []byte(pub),
		opts.sealOut + ".report.json": append(reportJSON, '\n'),
	}
	for path, data := range files {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	resp.Sealed = gz
	resp.PublicKeyPEM = pub
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func outputRunText(w io.Writer, report *core.DecisionReport) {
	view := bountyapi.ToUI(report)

	fmt.Fprintf(w, "Task:   %s\n", view.Task.Title)
	fmt.Fprintf(w, "Budget: $%.2f\n", view.Task.BudgetUSD)
	fmt.Fprintf(w, "Run:    %s\n", view.RunID)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-4s %-14s %10s %5s %6s %9s\n", "RANK", "FREELANCER", "PRICE", "ETA", "CONF", "TOTAL")
	for _, row := range view.Bids {
		marker := ""
		if row.IsWinner {
			marker = "  <- winner"
		}
		fmt.Fprintf(w, "%-4d %-14s %10.2f %4dd %6.3f %9.4f%s\n",
			row.Rank, row.FreelancerID, row.PriceUSD, row.ETADays, row.Confidence, row.Score.Total, marker)
		if len(row.RiskFlags) > 0 {
			fmt.Fprintf(w, "     flags: %s\n", strings.Join(row.RiskFlags, ", "))
		}
		if row.Notes != "" {
			fmt.Fprintf(w, "     note:  %s\n", row.Notes)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rationale:")
	for _, line := range view.Winner.Highlights {
		fmt.Fprintf(w, "  - %s\n", line)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Referee: tests passing %v, rubric %.1f, style %.1f, plagiarism risk %s\n",
		view.Referee.TestsPassing, view.Referee.RubricScore, view.Referee.StyleScore, view.Referee.PlagiarismRisk)
	fmt.Fprintf(w, "  %s\n", view.Referee.Note)
	fmt.Fprintf(w, "Events: %d\n", len(view.Events))
}
