package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// IngestState maps each source path to the RFC-3339 mtime it carried
// when last processed. It is loaded at ingest start, mutated only for
// files whose chunking succeeded, and written once at ingest end.
// No concurrent ingesters are supported.
type IngestState map[string]string

// LoadIngestState reads the state file at path. A missing file yields
// an empty state; a corrupt one is an error so a partial ingest is not
// silently treated as a full re-ingest.
func LoadIngestState(path string) (IngestState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return IngestState{}, nil
		}
		return nil, fmt.Errorf("failed to read ingest state %s: %w", path, err)
	}

	state := IngestState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse ingest state %s: %w", path, err)
	}
	return state, nil
}

// Save writes the state file, creating parent directories as needed.
func (s IngestState) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ingest state: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ingest state %s: %w", path, err)
	}
	return nil
}

// Unchanged reports whether path was already processed at mtime.
func (s IngestState) Unchanged(path, mtime string) bool {
	seen, ok := s[path]
	return ok && seen == mtime
}

// Record marks path as processed at mtime.
func (s IngestState) Record(path, mtime string) {
	s[path] = mtime
}
