package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"near-intents/pkg/history"
	"near-intents/pkg/intent"
	"near-intents/pkg/parser"
	"near-intents/pkg/swap"
	"near-intents/pkg/tokens"
)

var (
	withdrawReceiver string
	withdrawDestNet  string
	withdrawTokenNet string
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <amount> <token>",
	Short: "Withdraw a custodial balance to an external address",
	Long: `Withdraw tokens held by the settlement contract to a receiver, either on
NEAR or bridged out to another chain.

The receiver address is validated against the destination network's format
before anything is signed.

Examples:
  near-intents withdraw 10 USDC --to alice.near
  near-intents withdraw 10 USDC --to 0x1234...abcd --network eth
  near-intents withdraw 0.5 SOL --to 7nYa...Fq2w --network sol`,
	Args: cobra.ExactArgs(2),
	Run:  runWithdraw,
}

func init() {
	rootCmd.AddCommand(withdrawCmd)

	withdrawCmd.Flags().StringVar(&withdrawReceiver, "to", "", "Receiver address (required)")
	withdrawCmd.Flags().StringVar(&withdrawDestNet, "network", intent.SettlementNetwork, "Destination network")
	withdrawCmd.Flags().StringVar(&withdrawTokenNet, "token-network", "", "Network of the token (for multi-chain tokens)")
	withdrawCmd.MarkFlagRequired("to")
}

func runWithdraw(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	amount := args[0]
	symbol := parser.NormalizeTokenSymbol(args[1])

	a, err := newApp(verbose, true)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	token, err := a.registry.Resolve(symbol, withdrawTokenNet)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	baseAmount, err := tokens.ToBaseUnitsInt(amount, token.Decimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if err := intent.ValidateAddress(withdrawReceiver, withdrawDestNet); err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = fmt.Sprintf(" Withdrawing %s %s to %s...", amount, token.Symbol, withdrawReceiver)
		s.Start()
	}
	result, withdrawErr := a.orch.Withdraw(context.Background(), swap.WithdrawRequest{
		Asset:       token.AssetID,
		Amount:      baseAmount,
		Receiver:    withdrawReceiver,
		DestNetwork: withdrawDestNet,
	})
	if !jsonOutput {
		s.Stop()
	}

	rec := history.Record{
		Kind:       "withdraw",
		AmountIn:   amount,
		SymbolIn:   token.Symbol,
		Receiver:   withdrawReceiver,
		State:      string(result.State),
		IntentHash: result.IntentHash,
	}
	rec.SettlementTx = result.SettlementTx
	if withdrawErr != nil {
		rec.Error = swap.Describe(withdrawErr)
	}
	if histErr := a.history.Append(rec); histErr != nil && verbose {
		fmt.Fprintf(os.Stderr, "Warning: failed to record history: %v\n", histErr)
	}

	if withdrawErr != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{"state": result.State, "error": swap.Describe(withdrawErr)})
		} else {
			color.Red("\nWithdrawal failed (%s): %s\n", result.State, swap.Describe(withdrawErr))
		}
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"state":         result.State,
			"intent_hash":   result.IntentHash,
			"settlement_tx": result.SettlementTx,
			"receiver":      withdrawReceiver,
			"network":       withdrawDestNet,
		})
		return
	}
	color.Green("\n✓ Withdrawal settled!")
	fmt.Printf("  Sent:         %s %s to %s (%s)\n", amount, color.YellowString(token.Symbol), withdrawReceiver, withdrawDestNet)
	fmt.Printf("  Intent Hash:  %s\n", color.CyanString(result.IntentHash))
	if result.SettlementTx != "" {
		fmt.Printf("  Tx:           %s\n", color.HiBlackString(result.SettlementTx))
	}
}
