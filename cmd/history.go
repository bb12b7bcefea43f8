package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"near-intents/config"
	"near-intents/pkg/history"
	"near-intents/pkg/swap"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past swaps and withdrawals",
	Run:   runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of records to show")
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Read from the same file the swap and withdraw commands append to.
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	store, err := history.NewStore(cfg.HistoryFile)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	records := store.List()
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if jsonOutput {
		printJSON(records)
		return
	}
	if len(records) == 0 {
		fmt.Println("\nNo history yet.")
		return
	}
	fmt.Println()
	for _, r := range records {
		line := fmt.Sprintf("%s  %-8s %s %s", r.Timestamp.Format("2006-01-02 15:04"), r.Kind, r.AmountIn, r.SymbolIn)
		switch r.Kind {
		case "swap":
			line += fmt.Sprintf(" -> %s %s", r.AmountOut, r.SymbolOut)
		case "withdraw":
			line += fmt.Sprintf(" -> %s", r.Receiver)
		}
		fmt.Printf("  %s  %s\n", line, historyStateLabel(r))
	}
	fmt.Println()
}

func historyStateLabel(r history.Record) string {
	switch r.State {
	case string(swap.StateSettled):
		return color.GreenString(r.State)
	case string(swap.StateFailed), string(swap.StateRejected):
		return color.RedString(r.State)
	case string(swap.StateTimedOut):
		return color.YellowString(r.State)
	default:
		if r.Error != "" {
			return color.RedString(r.State)
		}
		return r.State
	}
}
