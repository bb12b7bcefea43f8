// Package history persists past swap attempts to a local JSON file so the
// user can review outcomes and re-check ambiguous ones (timeouts) later.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const DefaultStorageFileName = ".near-intents-history.json"

// Record is one completed (or failed) swap or withdraw attempt.
type Record struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Kind         string    `json:"kind"` // "swap" or "withdraw"
	AmountIn     string    `json:"amount_in"`
	SymbolIn     string    `json:"symbol_in"`
	AmountOut    string    `json:"amount_out,omitempty"`
	SymbolOut    string    `json:"symbol_out,omitempty"`
	Receiver     string    `json:"receiver,omitempty"`
	IntentHash   string    `json:"intent_hash,omitempty"`
	State        string    `json:"state"`
	SettlementTx string    `json:"settlement_tx,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type storeFile struct {
	Records []Record `json:"records"`
}

// Store is a mutex-guarded JSON file of records, written atomically via a
// temp file rename.
type Store struct {
	filePath string
	mu       sync.RWMutex
	records  []Record
}

// NewStore opens (or lazily creates) the history file. An empty path
// defaults to the home directory.
func NewStore(filePath string) (*Store, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	store := &Store{filePath: filePath}
	if err := store.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
	}
	return store, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}
	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}
	s.records = file.Records
	return nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(storeFile{Records: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temporary file first, then rename for an atomic update.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Append records an attempt. The ID is derived from the timestamp when
// empty.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.ID == "" {
		rec.ID = rec.Timestamp.Format("20060102T150405.000000000")
	}
	s.records = append(s.records, rec)
	return s.save()
}

// List returns all records, most recent first.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Pending returns records whose outcome is still ambiguous (timed out before
// a terminal poll result).
func (s *Store) Pending() []Record {
	var out []Record
	for _, r := range s.List() {
		if r.State == "TimedOut" || r.State == "Polling" {
			out = append(out, r)
		}
	}
	return out
}
