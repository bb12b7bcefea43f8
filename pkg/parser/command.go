package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// SwapCommand is the parsed form of a "<amount> <token> to <token>" command.
type SwapCommand struct {
	Amount      string
	SourceToken string
	DestToken   string
}

// Pattern: <amount> <source_token> TO <dest_token>
// Matches: "1 NEAR TO USDC", "1.5 ETH TO BTC", "100.25 USDC TO NEAR"
var swapPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)

// ParseSwapCommand parses a swap command.
// Examples:
//   - "swap 1 NEAR to USDC"
//   - "1.5 ETH to BTC"
//   - "100 USDC to NEAR"
func ParseSwapCommand(command string) (*SwapCommand, error) {
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "SWAP ")

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: '<amount> <token> to <token>' (e.g., '1 NEAR to USDC')")
	}

	return &SwapCommand{
		Amount:      matches[1],
		SourceToken: matches[2],
		DestToken:   matches[3],
	}, nil
}

// NormalizeTokenSymbol normalizes token symbols to the registry's form.
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	aliases := map[string]string{
		"WNEAR": "NEAR",
		"WETH":  "ETH",
		"WBTC":  "BTC",
		"WSOL":  "SOL",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}
	return symbol
}
