package tokens

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"near-intents/pkg/types"
)

//go:embed tokens.json
var defaultTokensJSON []byte

// TokenAddress is a token's presence on one network.
type TokenAddress struct {
	Address       string `json:"address"`
	DefuseAssetID string `json:"defuse_asset_id"`
	Type          string `json:"type,omitempty"`
}

// UnifiedToken is one logical asset (e.g. USDC) deployed on several networks.
type UnifiedToken struct {
	UnifiedAssetID string                  `json:"unifiedAssetId"`
	Decimals       int                     `json:"decimals"`
	Symbol         string                  `json:"symbol"`
	Name           string                  `json:"name"`
	Addresses      map[string]TokenAddress `json:"addresses"`
}

// SingleChainToken is an asset that exists on exactly one network.
type SingleChainToken struct {
	DefuseAssetID string `json:"defuseAssetId"`
	Address       string `json:"address"`
	Decimals      int    `json:"decimals"`
	ChainName     string `json:"chainName"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
}

type registryFile struct {
	Tokens struct {
		UnifiedTokens     []UnifiedToken     `json:"unified_tokens"`
		SingleChainTokens []SingleChainToken `json:"single_chain_tokens"`
	} `json:"tokens"`
}

// Token is a fully resolved registry entry: a symbol pinned to one network
// with its settlement asset identifier.
type Token struct {
	Symbol   string
	Name     string
	Network  string
	Decimals int
	Address  string
	AssetID  types.AssetID
}

// NotFoundError reports a symbol (optionally scoped to a network) the
// registry does not know.
type NotFoundError struct {
	Symbol  string
	Network string
}

func (e *NotFoundError) Error() string {
	if e.Network != "" {
		return fmt.Sprintf("token %q not found on network %q", e.Symbol, e.Network)
	}
	return fmt.Sprintf("token %q not found", e.Symbol)
}

// Registry resolves token symbols to settlement asset identifiers. It is
// loaded once and passed by reference; lookups never touch disk.
type Registry struct {
	unified []UnifiedToken
	single  []SingleChainToken
}

// Load reads a registry from a tokens.json file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token registry: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from raw tokens.json bytes.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse token registry: %w", err)
	}
	return &Registry{
		unified: file.Tokens.UnifiedTokens,
		single:  file.Tokens.SingleChainTokens,
	}, nil
}

// Default returns the registry bundled with the binary.
func Default() *Registry {
	r, err := Parse(defaultTokensJSON)
	if err != nil {
		// The embedded file ships with the binary; failing to parse it is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded tokens.json is invalid: %v", err))
	}
	return r
}

// Resolve looks up a symbol, optionally pinned to a network. For unified
// tokens the network is required to disambiguate the deployment; when network
// is empty a single-chain match is preferred, then a unified token with
// exactly one deployment.
func (r *Registry) Resolve(symbol, network string) (Token, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	network = strings.ToLower(strings.TrimSpace(network))

	for _, t := range r.single {
		if strings.ToUpper(t.Symbol) != symbol {
			continue
		}
		if network != "" && strings.ToLower(t.ChainName) != network {
			continue
		}
		return Token{
			Symbol:   t.Symbol,
			Name:     t.Name,
			Network:  strings.ToLower(t.ChainName),
			Decimals: t.Decimals,
			Address:  t.Address,
			AssetID:  types.AssetID(t.DefuseAssetID),
		}, nil
	}

	for _, t := range r.unified {
		if strings.ToUpper(t.Symbol) != symbol {
			continue
		}
		if network != "" {
			addr, ok := t.Addresses[network]
			if !ok {
				return Token{}, &NotFoundError{Symbol: symbol, Network: network}
			}
			return unifiedEntry(t, network, addr), nil
		}
		if len(t.Addresses) == 1 {
			for net, addr := range t.Addresses {
				return unifiedEntry(t, net, addr), nil
			}
		}
		return Token{}, fmt.Errorf("token %q exists on %d networks, specify one of: %s",
			symbol, len(t.Addresses), strings.Join(sortedKeys(t.Addresses), ", "))
	}

	return Token{}, &NotFoundError{Symbol: symbol, Network: network}
}

// ByAssetID finds the registry entry carrying the given settlement asset id.
func (r *Registry) ByAssetID(id types.AssetID) (Token, bool) {
	for _, t := range r.single {
		if types.AssetID(t.DefuseAssetID) == id {
			return Token{
				Symbol:   t.Symbol,
				Name:     t.Name,
				Network:  strings.ToLower(t.ChainName),
				Decimals: t.Decimals,
				Address:  t.Address,
				AssetID:  id,
			}, true
		}
	}
	for _, t := range r.unified {
		for net, addr := range t.Addresses {
			if types.AssetID(addr.DefuseAssetID) == id {
				return unifiedEntry(t, net, addr), true
			}
		}
	}
	return Token{}, false
}

// Symbols returns every known symbol, sorted and de-duplicated.
func (r *Registry) Symbols() []string {
	seen := make(map[string]struct{})
	for _, t := range r.unified {
		seen[strings.ToUpper(t.Symbol)] = struct{}{}
	}
	for _, t := range r.single {
		seen[strings.ToUpper(t.Symbol)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Entries returns every resolved (symbol, network) pair, sorted by symbol.
func (r *Registry) Entries() []Token {
	var out []Token
	for _, t := range r.single {
		out = append(out, Token{
			Symbol:   t.Symbol,
			Name:     t.Name,
			Network:  strings.ToLower(t.ChainName),
			Decimals: t.Decimals,
			Address:  t.Address,
			AssetID:  types.AssetID(t.DefuseAssetID),
		})
	}
	for _, t := range r.unified {
		for _, net := range sortedKeys(t.Addresses) {
			out = append(out, unifiedEntry(t, net, t.Addresses[net]))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Network < out[j].Network
	})
	return out
}

func unifiedEntry(t UnifiedToken, network string, addr TokenAddress) Token {
	return Token{
		Symbol:   t.Symbol,
		Name:     t.Name,
		Network:  strings.ToLower(network),
		Decimals: t.Decimals,
		Address:  addr.Address,
		AssetID:  types.AssetID(addr.DefuseAssetID),
	}
}

func sortedKeys(m map[string]TokenAddress) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
