package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the application configuration. It is loaded once and passed
// by value into every component constructor; no package reads it ambiently.
type Config struct {
	AccountID  string
	SecretKey  string
	Network    string
	NodeURL    string
	RelayURL   string
	ContractID string

	// JWTToken authenticates the optional remote token-list refresh.
	JWTToken string

	TokensFile  string
	HistoryFile string

	IntentTTLSeconds    int
	PollIntervalSeconds int
	PollTimeoutSeconds  int

	// RequoteOnExpiredQuote opts in to one automatic re-quote when the
	// relay rejects a publish because the quote expired.
	RequoteOnExpiredQuote bool
}

// Load reads configuration from environment variables and an optional
// .near-intents.yaml config file.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName(".near-intents")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	v.SetDefault("network", "mainnet")
	v.SetDefault("relay_url", "https://solver-relay-v2.chaindefuser.com/rpc")
	v.SetDefault("contract_id", "intents.near")
	v.SetDefault("intent_ttl_seconds", 300)
	v.SetDefault("poll_interval_seconds", 2)
	v.SetDefault("poll_timeout_seconds", 300)

	v.SetEnvPrefix("NEAR_INTENTS")
	v.AutomaticEnv()

	// Config file is optional.
	_ = v.ReadInConfig()

	cfg := Config{
		AccountID:             v.GetString("account_id"),
		SecretKey:             v.GetString("secret_key"),
		Network:               v.GetString("network"),
		NodeURL:               v.GetString("node_url"),
		RelayURL:              v.GetString("relay_url"),
		ContractID:            v.GetString("contract_id"),
		JWTToken:              v.GetString("jwt_token"),
		TokensFile:            v.GetString("tokens_file"),
		HistoryFile:           v.GetString("history_file"),
		IntentTTLSeconds:      v.GetInt("intent_ttl_seconds"),
		PollIntervalSeconds:   v.GetInt("poll_interval_seconds"),
		PollTimeoutSeconds:    v.GetInt("poll_timeout_seconds"),
		RequoteOnExpiredQuote: v.GetBool("requote_on_expired_quote"),
	}

	if cfg.NodeURL == "" {
		switch cfg.Network {
		case "testnet":
			cfg.NodeURL = "https://rpc.testnet.near.org"
		default:
			cfg.NodeURL = "https://rpc.mainnet.near.org"
		}
	}

	return cfg, nil
}

// RequireSigner validates the fields every signing flow needs.
func (c Config) RequireSigner() error {
	if c.AccountID == "" {
		return fmt.Errorf("account id not configured. Set NEAR_INTENTS_ACCOUNT_ID or account_id in .near-intents.yaml")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key not configured. Set NEAR_INTENTS_SECRET_KEY or secret_key in .near-intents.yaml")
	}
	return nil
}
