package tokens

import (
	"context"
	"fmt"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
)

// FetchRemote pulls the currently supported token list from the 1Click API
// and builds a registry from it. Every remote entry is chain-qualified, so
// they all land as single-chain tokens.
func FetchRemote(ctx context.Context, jwtToken string) (*Registry, error) {
	cfg := oneclick.NewConfiguration()
	if jwtToken != "" {
		ctx = context.WithValue(ctx, oneclick.ContextAccessToken, jwtToken)
	}
	client := oneclick.NewAPIClient(cfg)

	resp, httpResp, err := client.OneClickAPI.GetTokens(ctx).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token list: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		return nil, fmt.Errorf("token list request returned status %d", httpResp.StatusCode)
	}

	reg := &Registry{}
	for _, t := range resp {
		reg.single = append(reg.single, SingleChainToken{
			DefuseAssetID: t.GetAssetId(),
			Address:       t.GetContractAddress(),
			Decimals:      int(t.GetDecimals()),
			ChainName:     t.GetBlockchain(),
			Symbol:        t.GetSymbol(),
			Name:          t.GetSymbol(),
		})
	}
	if len(reg.single) == 0 {
		return nil, fmt.Errorf("token list request returned no tokens")
	}
	return reg, nil
}
