package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchfold/mcp-hybrid-search/internal/errors"
)

func TestConverterSupports(t *testing.T) {
	t.Run("native formats always supported", func(t *testing.T) {
		c := &Converter{available: false}
		assert.True(t, c.Supports("notes.md"))
		assert.True(t, c.Supports("notes.txt"))
		assert.True(t, c.Supports("NOTES.MD"))
	})

	t.Run("converter formats need the binary", func(t *testing.T) {
		without := &Converter{available: false}
		assert.False(t, without.Supports("report.pdf"))
		assert.False(t, without.Supports("sheet.xlsx"))

		with := &Converter{available: true}
		assert.True(t, with.Supports("report.pdf"))
		assert.True(t, with.Supports("page.html"))
	})

	t.Run("unknown formats never supported", func(t *testing.T) {
		c := &Converter{available: true}
		assert.False(t, c.Supports("binary.exe"))
		assert.False(t, c.Supports("archive.zip"))
	})
}

func TestConverterRead(t *testing.T) {
	ctx := context.Background()

	t.Run("reads native files directly", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.md")
		require.NoError(t, os.WriteFile(path, []byte("# Hello"), 0o644))

		c := &Converter{available: false}
		text, err := c.Read(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "# Hello", text)
	})

	t.Run("missing native file", func(t *testing.T) {
		c := &Converter{available: false}
		_, err := c.Read(ctx, filepath.Join(t.TempDir(), "gone.md"))
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeFileNotFound, errors.GetCode(err))
	})

	t.Run("converter format without binary", func(t *testing.T) {
		c := &Converter{available: false}
		_, err := c.Read(ctx, "report.pdf")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConverterFailed, errors.GetCode(err))
	})

	t.Run("converter output is returned", func(t *testing.T) {
		c := &Converter{
			available: true,
			runCommand: func(_ context.Context, name string, args ...string) ([]byte, error) {
				assert.Equal(t, converterCommand, name)
				require.Len(t, args, 1)
				return []byte("converted text"), nil
			},
		}
		text, err := c.Read(ctx, "report.pdf")
		require.NoError(t, err)
		assert.Equal(t, "converted text", text)
	})

	t.Run("converter failure is wrapped", func(t *testing.T) {
		c := &Converter{
			available: true,
			runCommand: func(_ context.Context, _ string, _ ...string) ([]byte, error) {
				return nil, os.ErrPermission
			},
		}
		_, err := c.Read(ctx, "report.pdf")
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConverterFailed, errors.GetCode(err))
	})
}
