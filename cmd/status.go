package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"near-intents/pkg/types"
)

var watchStatus bool

var statusCmd = &cobra.Command{
	Use:   "status <intent-hash>",
	Short: "Check the settlement status of a published intent",
	Long: `Check where a previously published intent stands: pending, broadcast,
settled, or rejected.

With --watch the command polls until the intent reaches a terminal state.

Examples:
  near-intents status 9Yx...Qw
  near-intents status 9Yx...Qw --watch`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Poll until the intent reaches a terminal state")
}

func runStatus(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	intentHash := args[0]

	a, err := newApp(verbose, false)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()
	status, err := a.relay.GetStatus(ctx, intentHash)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if watchStatus && !status.Terminal() {
		status, err = watchIntent(ctx, a, intentHash, status, jsonOutput)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	if jsonOutput {
		printJSON(status)
		return
	}
	displayStatus(status)
}

func watchIntent(ctx context.Context, a *app, intentHash string, status *types.IntentStatus, quiet bool) (*types.IntentStatus, error) {
	interval := time.Duration(a.cfg.PollIntervalSeconds) * time.Second
	deadline := time.Now().Add(time.Duration(a.cfg.PollTimeoutSeconds) * time.Second)

	for !status.Terminal() {
		if time.Now().After(deadline) {
			return status, fmt.Errorf("gave up after %ds, last state %s", a.cfg.PollTimeoutSeconds, status.Status)
		}
		if !quiet {
			fmt.Printf("  %s %s\n", time.Now().Format("15:04:05"), statusLabel(status.Status))
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(interval):
		}
		next, err := a.relay.GetStatus(ctx, intentHash)
		if err != nil {
			return status, err
		}
		status = next
	}
	return status, nil
}

func displayStatus(status *types.IntentStatus) {
	fmt.Printf("\nIntent:  %s\n", color.CyanString(status.IntentHash))
	fmt.Printf("Status:  %s\n", statusLabel(status.Status))
	if tx := status.SettlementTxHash(); tx != "" {
		fmt.Printf("Tx:      %s\n", color.HiBlackString(tx))
	}
	fmt.Println()
}

func statusLabel(state string) string {
	switch state {
	case types.IntentStateSettled:
		return color.GreenString(state)
	case types.IntentStateNotFound:
		return color.RedString(state)
	case types.IntentStateBroadcasted:
		return color.YellowString(state)
	default:
		return state
	}
}
