package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.mcp-hybrid-search/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".mcp-hybrid-search", "logs")
	}
	return filepath.Join(home, ".mcp-hybrid-search", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}

// IngestLogPath returns the log path used by the ragctl ingest pipeline.
func IngestLogPath() string {
	return filepath.Join(DefaultLogDir(), "ingest.log")
}
