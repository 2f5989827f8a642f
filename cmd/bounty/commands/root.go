package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ErrValidationFailed is returned by verify when the sealed report does not
// match the decision report.
var ErrValidationFailed = errors.New("validation failed")

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCmd()

// NewRootCmd builds the command tree. Each call returns independent flag state.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bounty",
		Short: "Bounty - reverse-auction mediator for freelance tasks",
		Long: `Bounty posts a task to a pool of simulated freelancers, negotiates
their bids down over a fixed number of seeded rounds, and picks a winner
by multi-attribute scoring.

Every run produces an auditable event trail. Reports can be sealed with an
ECDSA key and verified later without rerunning the negotiation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newRunCmd(), newVerifyCmd(), newKeygenCmd())
	return cmd
}

// Execute runs the root command. Errors are left for main to print.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// ExitCode maps a command error to the process exit status:
// 1 when verification failed, 2 for any input or runtime error.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrValidationFailed):
		return 1
	default:
		return 2
	}
}

// readInput returns the contents of input when it names a readable file,
// and input itself otherwise.
func readInput(input string) ([]byte, error) {
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}
	if data, err := os.ReadFile(input); err == nil {
		return data, nil
	}
	return []byte(input), nil
}
