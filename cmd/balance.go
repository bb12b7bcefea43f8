package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"near-intents/pkg/tokens"
	"near-intents/pkg/types"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [tokens...]",
	Short: "Show custodial balances held in the settlement contract",
	Long: `Show the balances the settlement contract holds for your account. With no
arguments every registry token is queried in one batched call.

Examples:
  near-intents balance
  near-intents balance NEAR USDC`,
	Run: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(verbose, true)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	wanted := make(map[string]bool, len(args))
	for _, sym := range args {
		wanted[strings.ToUpper(sym)] = true
	}

	var queried []tokens.Token
	var assets []types.AssetID
	for _, token := range a.registry.Entries() {
		if len(wanted) > 0 && !wanted[strings.ToUpper(token.Symbol)] {
			continue
		}
		queried = append(queried, token)
		assets = append(assets, token.AssetID)
	}
	if len(queried) == 0 {
		printError(fmt.Errorf("no matching tokens in the registry"))
		os.Exit(1)
	}

	balances, err := a.contract.BatchBalanceOf(context.Background(), a.cfg.AccountID, assets)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	type row struct {
		Symbol  string `json:"symbol"`
		Network string `json:"network"`
		Balance string `json:"balance"`
		Raw     string `json:"raw"`
	}
	var rows []row
	for i, token := range queried {
		raw := balances[i].String()
		human, convErr := tokens.FromBaseUnits(raw, token.Decimals)
		if convErr != nil {
			human = "?"
		}
		rows = append(rows, row{Symbol: token.Symbol, Network: token.Network, Balance: human, Raw: raw})
	}

	if jsonOutput {
		printJSON(rows)
		return
	}
	fmt.Printf("\nBalances for %s:\n\n", color.CyanString(a.cfg.AccountID))
	for _, r := range rows {
		fmt.Printf("  %-8s %-10s %s\n", color.YellowString(r.Symbol), r.Network, r.Balance)
	}
	fmt.Println()
}
