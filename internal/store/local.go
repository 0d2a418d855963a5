package store

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"

	"habit21API/internal/challenge"
)

// slotFileName matches the storage key the web client used for its
// local slot, so an exported record stays recognizable.
const slotFileName = "21day_challenge_data.json"

// LocalStore persists the single challenge record on the local device.
// It is the offline source of truth: every failure is logged and
// swallowed so a broken disk never crashes a caller mid-action.
type LocalStore struct {
	path string
}

// NewLocalStore stores the slot file under dir, creating the directory
// if needed.
func NewLocalStore(dir string) *LocalStore {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("LocalStore: failed to create data dir %s: %v", dir, err)
	}
	return &LocalStore{path: filepath.Join(dir, slotFileName)}
}

// Put writes the record to the slot. Errors are logged, never returned.
func (s *LocalStore) Put(rec *challenge.Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("LocalStore: failed to serialize record: %v", err)
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("LocalStore: failed to write slot: %v", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		log.Printf("LocalStore: failed to replace slot: %v", err)
	}
}

// Get reads the slot. A missing or unreadable slot is reported as
// absent, not as an error.
func (s *LocalStore) Get() (*challenge.Record, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("LocalStore: failed to read slot: %v", err)
		}
		return nil, false
	}

	var rec challenge.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("LocalStore: corrupt slot, ignoring: %v", err)
		return nil, false
	}
	return &rec, true
}

// Clear removes the slot. Best effort.
func (s *LocalStore) Clear() {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("LocalStore: failed to clear slot: %v", err)
	}
}
