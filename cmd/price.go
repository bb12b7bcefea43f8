package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"near-intents/pkg/parser"
	"near-intents/pkg/swap"
	"near-intents/pkg/tokens"
	"near-intents/pkg/types"
)

var (
	priceAmount      string
	priceFromNetwork string
	priceToNetwork   string
)

var priceCmd = &cobra.Command{
	Use:   "price <source-token> <dest-token>",
	Short: "Quote the current rate for a pair without swapping",
	Long: `Ask the solver relay for a quote on a pair and print the implied rate.
Nothing is signed or published.

Examples:
  near-intents price NEAR USDC
  near-intents price USDC NEAR --amount 100`,
	Args: cobra.ExactArgs(2),
	Run:  runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)
	priceCmd.Flags().StringVar(&priceAmount, "amount", "1", "Amount of the source token to quote")
	priceCmd.Flags().StringVar(&priceFromNetwork, "from-network", "", "Network of the source token")
	priceCmd.Flags().StringVar(&priceToNetwork, "to-network", "", "Network of the destination token")
}

func runPrice(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(verbose, false)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	tokenIn, err := a.registry.Resolve(parser.NormalizeTokenSymbol(args[0]), priceFromNetwork)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	tokenOut, err := a.registry.Resolve(parser.NormalizeTokenSymbol(args[1]), priceToNetwork)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	amountIn, err := tokens.ToBaseUnits(priceAmount, tokenIn.Decimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	quotes, err := a.relay.Quote(context.Background(), types.QuoteRequest{
		AssetIdentifierIn:  tokenIn.AssetID,
		AssetIdentifierOut: tokenOut.AssetID,
		ExactAmountIn:      amountIn,
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	quote, err := swap.BestQuote(quotes)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	amountOut, err := tokens.FromBaseUnits(quote.AmountOut, tokenOut.Decimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]string{
			"amount_in":  priceAmount,
			"token_in":   tokenIn.Symbol,
			"amount_out": amountOut,
			"token_out":  tokenOut.Symbol,
			"quote_hash": quote.QuoteHash,
		})
		return
	}
	fmt.Printf("\n  %s %s ≈ %s %s\n\n",
		priceAmount, color.YellowString(tokenIn.Symbol),
		color.GreenString(amountOut), color.YellowString(tokenOut.Symbol))
}
