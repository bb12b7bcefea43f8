package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"near-intents/pkg/tokens"
)

var remoteTokens bool

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List supported tokens",
	Long: `List the tokens this client can swap, with their networks, decimals and
settlement asset identifiers.

With --remote the list is refreshed from the 1Click token API instead of the
embedded registry.`,
	Run: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.Flags().BoolVar(&remoteTokens, "remote", false, "Fetch the token list from the 1Click API")
}

func runTokens(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(verbose, false)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	registry := a.registry
	if remoteTokens {
		registry, err = tokens.FetchRemote(context.Background(), a.cfg.JWTToken)
		if err != nil {
			printError(fmt.Errorf("remote token list unavailable: %w", err))
			os.Exit(1)
		}
	}

	entries := registry.Entries()
	if jsonOutput {
		printJSON(entries)
		return
	}

	fmt.Printf("\n%-8s %-10s %-9s %s\n", "SYMBOL", "NETWORK", "DECIMALS", "ASSET ID")
	fmt.Println(strings.Repeat("-", 72))
	for _, t := range entries {
		fmt.Printf("%-8s %-10s %-9d %s\n",
			color.YellowString(t.Symbol), t.Network, t.Decimals, color.HiBlackString(string(t.AssetID)))
	}
	fmt.Println()
}
