package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"near-intents/pkg/history"
	"near-intents/pkg/parser"
	"near-intents/pkg/swap"
	"near-intents/pkg/tokens"
)

var (
	fromNetwork     string
	toNetwork       string
	withdrawTo      string
	withdrawNetwork string
	noConfirm       bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap tokens through the intents settlement protocol",
	Long: `Swap one asset for another by publishing a signed intent against a solver
quote and waiting for on-chain settlement.

The flow quotes the pair, tops up your custodial balance in the settlement
contract if it is short (storage registration + transfer), signs the intent
under NEP-413, makes sure your key is registered, publishes, and polls until
the intent settles or the window expires.

Examples:
  # Swap inside the settlement ledger
  near-intents swap 1 NEAR to USDC

  # Disambiguate a multi-chain token
  near-intents swap 5 USDC to NEAR --from-network near

  # Swap and pay out to an external address in one go
  near-intents swap 1 NEAR to USDC --withdraw-to 0x123... --withdraw-network eth

  # Skip the confirmation prompt
  near-intents swap 1 NEAR to USDC --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&fromNetwork, "from-network", "", "Network of the source token (for multi-chain tokens)")
	swapCmd.Flags().StringVar(&toNetwork, "to-network", "", "Network of the destination token (for multi-chain tokens)")
	swapCmd.Flags().StringVar(&withdrawTo, "withdraw-to", "", "Withdraw the output to this address after settlement")
	swapCmd.Flags().StringVar(&withdrawNetwork, "withdraw-network", "", "Destination network for --withdraw-to (default: near)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	a, err := newApp(verbose, true)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	tokenIn, err := a.registry.Resolve(parser.NormalizeTokenSymbol(swapReq.SourceToken), fromNetwork)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	tokenOut, err := a.registry.Resolve(parser.NormalizeTokenSymbol(swapReq.DestToken), toNetwork)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	amountIn, err := tokens.ToBaseUnitsInt(swapReq.Amount, tokenIn.Decimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !noConfirm && !jsonOutput {
		fmt.Printf("\nSwap %s %s (%s) for %s (%s) as %s\n",
			swapReq.Amount, tokenIn.Symbol, tokenIn.AssetID,
			tokenOut.Symbol, tokenOut.AssetID, a.cfg.AccountID)
		if !confirm("Proceed with swap?") {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Executing swap..."
		s.Start()
	}

	result, swapErr := a.orch.Swap(context.Background(), swap.Request{
		AssetIn:  tokenIn.AssetID,
		AssetOut: tokenOut.AssetID,
		AmountIn: amountIn,
	})
	if !jsonOutput {
		s.Stop()
	}

	rec := history.Record{
		Kind:       "swap",
		AmountIn:   swapReq.Amount,
		SymbolIn:   tokenIn.Symbol,
		SymbolOut:  tokenOut.Symbol,
		State:      string(result.State),
		IntentHash: result.IntentHash,
	}
	if result.Quote != nil {
		if out, convErr := tokens.FromBaseUnits(result.Quote.AmountOut, tokenOut.Decimals); convErr == nil {
			rec.AmountOut = out
		}
	}
	rec.SettlementTx = result.SettlementTx
	if swapErr != nil {
		rec.Error = swap.Describe(swapErr)
	}
	if histErr := a.history.Append(rec); histErr != nil && verbose {
		fmt.Fprintf(os.Stderr, "Warning: failed to record history: %v\n", histErr)
	}

	if swapErr != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{"state": result.State, "error": swap.Describe(swapErr)})
		} else {
			color.Red("\nSwap failed (%s): %s\n", result.State, swap.Describe(swapErr))
		}
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"state":         result.State,
			"intent_hash":   result.IntentHash,
			"settlement_tx": result.SettlementTx,
			"deposit_tx":    result.DepositTx,
			"amount_out":    rec.AmountOut,
			"dest_token":    tokenOut.Symbol,
		})
	} else {
		displaySwapResult(result.IntentHash, result.SettlementTx, result.DepositTx, rec.AmountOut, tokenOut.Symbol)
	}

	if withdrawTo != "" {
		runChainedWithdraw(a, result, tokenOut, jsonOutput, verbose)
	}
}

func runChainedWithdraw(a *app, swapResult *swap.Result, tokenOut tokens.Token, jsonOutput, verbose bool) {
	if swapResult.Quote == nil {
		printError(fmt.Errorf("no quote available for withdrawal amount"))
		os.Exit(1)
	}
	amountOut, ok := newBigInt(swapResult.Quote.AmountOut)
	if !ok {
		printError(fmt.Errorf("invalid quote amount %q", swapResult.Quote.AmountOut))
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Withdrawing..."
		s.Start()
	}
	result, err := a.orch.Withdraw(context.Background(), swap.WithdrawRequest{
		Asset:       tokenOut.AssetID,
		Amount:      amountOut,
		Receiver:    withdrawTo,
		DestNetwork: withdrawNetwork,
	})
	if !jsonOutput {
		s.Stop()
	}

	rec := history.Record{
		Kind:       "withdraw",
		AmountIn:   swapResult.Quote.AmountOut,
		SymbolIn:   tokenOut.Symbol,
		Receiver:   withdrawTo,
		State:      string(result.State),
		IntentHash: result.IntentHash,
	}
	rec.SettlementTx = result.SettlementTx
	if err != nil {
		rec.Error = swap.Describe(err)
	}
	if histErr := a.history.Append(rec); histErr != nil && verbose {
		fmt.Fprintf(os.Stderr, "Warning: failed to record history: %v\n", histErr)
	}

	if err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{"state": result.State, "error": swap.Describe(err)})
		} else {
			color.Red("\nWithdrawal failed (%s): %s\n", result.State, swap.Describe(err))
		}
		os.Exit(1)
	}
	if jsonOutput {
		printJSON(map[string]interface{}{
			"state":         result.State,
			"intent_hash":   result.IntentHash,
			"settlement_tx": result.SettlementTx,
		})
	} else {
		color.Green("\n✓ Withdrawal settled!")
		fmt.Printf("  Intent Hash:  %s\n", color.CyanString(result.IntentHash))
		if result.SettlementTx != "" {
			fmt.Printf("  Tx:           %s\n", color.HiBlackString(result.SettlementTx))
		}
	}
}

func displaySwapResult(intentHash, settlementTx, depositTx, amountOut, destSymbol string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    SWAP SETTLED")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\n  Intent Hash:  %s\n", color.CyanString(intentHash))
	if amountOut != "" {
		fmt.Printf("  Received:     ~%s %s\n", amountOut, color.YellowString(destSymbol))
	}
	if depositTx != "" {
		fmt.Printf("  Deposit Tx:   %s\n", color.HiBlackString(depositTx))
	}
	if settlementTx != "" {
		fmt.Printf("  Settle Tx:    %s\n", color.HiBlackString(settlementTx))
	}
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
