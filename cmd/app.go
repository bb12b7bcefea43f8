package cmd

import (
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"near-intents/config"
	"near-intents/pkg/deposit"
	"near-intents/pkg/history"
	"near-intents/pkg/near"
	"near-intents/pkg/relay"
	"near-intents/pkg/swap"
	"near-intents/pkg/tokens"
)

// app is the wired set of services a command needs. Built per invocation
// from the loaded config; nothing here is global.
type app struct {
	cfg        config.Config
	log        *zap.Logger
	registry   *tokens.Registry
	relay      *relay.Client
	contract   *near.IntentsContract
	keyPair    *near.KeyPair
	orch       *swap.Orchestrator
	reconciler *deposit.Reconciler
	history    *history.Store
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logCfg := zap.NewDevelopmentConfig()
	log, err := logCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// newApp loads config and wires every component. withSigner demands account
// credentials; read-only commands (tokens, price, status) pass false.
func newApp(verbose, withSigner bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := newLogger(verbose)

	registry := tokens.Default()
	if cfg.TokensFile != "" {
		registry, err = tokens.Load(cfg.TokensFile)
		if err != nil {
			return nil, err
		}
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		relay:    relay.NewClient(cfg.RelayURL, log),
	}

	if !withSigner {
		return a, nil
	}

	if err := cfg.RequireSigner(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	kp, err := near.ParseSecretKey(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("invalid secret key: %w", err)
	}
	a.keyPair = kp

	nodeClient := near.NewClient(cfg.NodeURL, log)
	a.contract = near.NewIntentsContract(nodeClient, cfg.ContractID, log)

	a.reconciler = deposit.NewReconciler(a.contract, kp, cfg.AccountID, log)
	registrar := swap.NewRegistrar(a.contract, kp, cfg.AccountID, log)
	poller := swap.NewPoller(a.relay,
		time.Duration(cfg.PollIntervalSeconds)*time.Second,
		time.Duration(cfg.PollTimeoutSeconds)*time.Second,
		log)

	orch, err := swap.NewOrchestrator(a.relay, a.reconciler, registrar, poller,
		kp, cfg.AccountID, cfg.ContractID,
		swap.Options{
			TTL:                   time.Duration(cfg.IntentTTLSeconds) * time.Second,
			RequoteOnExpiredQuote: cfg.RequoteOnExpiredQuote,
		}, log)
	if err != nil {
		return nil, err
	}
	a.orch = orch

	a.history, err = history.NewStore(cfg.HistoryFile)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newBigInt(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}
