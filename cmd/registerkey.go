package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"near-intents/pkg/swap"
)

var registerKeyCmd = &cobra.Command{
	Use:   "register-key",
	Short: "Register your signing key with the settlement contract",
	Long: `Register the configured account's public key with the settlement contract
so it can verify your NEP-413 signatures. Swaps do this automatically; the
command exists for doing it ahead of time or for checking it happened.

Registration is idempotent: if the key is already on file nothing is sent.`,
	Run: runRegisterKey,
}

func init() {
	rootCmd.AddCommand(registerKeyCmd)
}

func runRegisterKey(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(verbose, true)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	registrar := swap.NewRegistrar(a.contract, a.keyPair, a.cfg.AccountID, a.log)
	if err := registrar.EnsureRegistered(context.Background()); err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]string{"public_key": a.keyPair.PublicKeyString()})
		return
	}
	color.Green("\n✓ Key registered")
	fmt.Printf("  Public Key: %s\n\n", color.CyanString(a.keyPair.PublicKeyString()))
}
