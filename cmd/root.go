package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "near-intents",
	Short: "A CLI for token swaps through the NEAR intents settlement protocol",
	Long: `near-intents swaps tokens by publishing signed intents to the solver relay
and tracking their settlement on-chain. It handles quoting, custodial balance
deposits, NEP-413 signing, key registration and status polling.

Examples:
  near-intents swap 1 NEAR to USDC
  near-intents withdraw 10 USDC --to 0xabc... --network eth
  near-intents balance NEAR USDC
  near-intents status <intent-hash> --watch`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}
