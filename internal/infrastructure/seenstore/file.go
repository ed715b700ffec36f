package seenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/ports"
)

// FileStore persists processed alert identifiers as a JSON document so a
// restart does not re-notify every currently-active alert. Entries older
// than the TTL are pruned on load; expired alerts never reappear in the feed
// under the same identifier, so keeping them only grows the file.
type FileStore struct {
	path string
	ttl  time.Duration
}

var _ ports.SeenStore = (*FileStore)(nil)

type fileEntry struct {
	ProcessedAt time.Time `json:"processed_at"`
}

// NewFileStore keeps state at path; ttl <= 0 defaults to 24h.
func NewFileStore(path string, ttl time.Duration) *FileStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &FileStore{path: path, ttl: ttl}
}

// Load reads the state file. A missing file is an empty state, not an error.
func (s *FileStore) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var entries map[string]fileEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}

	cutoff := time.Now().Add(-s.ttl)
	ids := make([]string, 0, len(entries))
	for id, entry := range entries {
		if entry.ProcessedAt.Before(cutoff) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Save writes the snapshot, preserving the original processing timestamp of
// identifiers already on disk and stamping new ones with the current time.
func (s *FileStore) Save(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	existing := map[string]fileEntry{}
	if raw, err := os.ReadFile(s.path); err == nil {
		_ = json.Unmarshal(raw, &existing)
	}

	now := time.Now()
	entries := make(map[string]fileEntry, len(ids))
	for _, id := range ids {
		if prev, ok := existing[id]; ok {
			entries[id] = prev
			continue
		}
		entries[id] = fileEntry{ProcessedAt: now}
	}

	raw, err := json.MarshalIndent(entries, "", " ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
