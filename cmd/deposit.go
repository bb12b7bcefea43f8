package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"near-intents/pkg/tokens"
)

var depositTokenNet string

var depositCmd = &cobra.Command{
	Use:   "deposit <amount> <token>",
	Short: "Deposit tokens into the settlement contract",
	Long: `Move tokens from your wallet into the settlement contract's custody so
they can back future intents. Storage registration on the token contract is
handled automatically when needed.

Examples:
  near-intents deposit 10 USDC
  near-intents deposit 1 NEAR`,
	Args: cobra.ExactArgs(2),
	Run:  runDeposit,
}

func init() {
	rootCmd.AddCommand(depositCmd)
	depositCmd.Flags().StringVar(&depositTokenNet, "token-network", "", "Network of the token (for multi-chain tokens)")
}

func runDeposit(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	amount := args[0]
	symbol := args[1]

	a, err := newApp(verbose, true)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	token, err := a.registry.Resolve(symbol, depositTokenNet)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	baseAmount, err := tokens.ToBaseUnitsInt(amount, token.Decimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = fmt.Sprintf(" Depositing %s %s...", amount, token.Symbol)
		s.Start()
	}
	txHash, err := a.reconciler.EnsureFunded(context.Background(), token.AssetID, baseAmount)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]string{"tx_hash": txHash})
		return
	}
	if txHash == "" {
		fmt.Printf("\nBalance already covers %s %s, nothing to deposit.\n\n", amount, token.Symbol)
		return
	}
	color.Green("\n✓ Deposit confirmed")
	fmt.Printf("  Tx: %s\n\n", color.HiBlackString(txHash))
}
