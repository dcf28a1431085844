// Package ingest walks document trees, chunks their content, and
// writes the chunks into the vector and lexical indexes. Re-runs are
// incremental: files whose modification time matches the recorded
// state are skipped.
package ingest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

// converterCommand is the external document converter probed at
// startup. markitdown handles office formats, PDF, and HTML.
const converterCommand = "markitdown"

// nativeExtensions are read directly as UTF-8 text.
var nativeExtensions = map[string]bool{
	".md":  true,
	".txt": true,
}

// converterExtensions require the external converter.
var converterExtensions = map[string]bool{
	".pdf":  true,
	".xlsx": true,
	".xls":  true,
	".docx": true,
	".pptx": true,
	".csv":  true,
	".html": true,
}

// Converter reads documents as text, shelling out to markitdown for
// formats that need conversion. When the converter binary is absent
// the supported set silently degrades to the native extensions.
type Converter struct {
	available bool

	// Injection points for tests.
	lookPath   func(string) (string, error)
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewConverter probes PATH for the converter binary.
func NewConverter() *Converter {
	c := &Converter{
		lookPath: exec.LookPath,
		runCommand: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
	_, err := c.lookPath(converterCommand)
	c.available = err == nil
	return c
}

// Available reports whether the external converter was found.
func (c *Converter) Available() bool {
	return c.available
}

// Supports reports whether files with the given path's extension can
// be ingested in the current configuration.
func (c *Converter) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if nativeExtensions[ext] {
		return true
	}
	return c.available && converterExtensions[ext]
}

// Read returns the text content of path, converting when the format
// requires it.
func (c *Converter) Read(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if nativeExtensions[ext] {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", errors.New(errors.ErrCodeFileNotFound,
					fmt.Sprintf("file not found: %s", path), err)
			}
			return "", errors.New(errors.ErrCodeFileUnreadable,
				fmt.Sprintf("cannot read file: %s", path), err)
		}
		return string(data), nil
	}

	if !c.available {
		return "", errors.New(errors.ErrCodeConverterFailed,
			fmt.Sprintf("no converter available for %s", path), nil).
			WithSuggestion("install markitdown to ingest this format")
	}

	out, err := c.runCommand(ctx, converterCommand, path)
	if err != nil {
		return "", errors.New(errors.ErrCodeConverterFailed,
			fmt.Sprintf("converter failed for %s", path), err)
	}
	return string(out), nil
}
