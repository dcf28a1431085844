package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	t.Run("empty text returns nothing", func(t *testing.T) {
		assert.Empty(t, Chunk("", 100, 20))
	})

	t.Run("short text returned whole and untrimmed", func(t *testing.T) {
		chunks := Chunk("  hello world  ", 100, 20)
		require.Len(t, chunks, 1)
		assert.Equal(t, "  hello world  ", chunks[0])
	})

	t.Run("japanese text at window boundary", func(t *testing.T) {
		// 300 codepoints, chunk_size 100, overlap 20.
		text := strings.Repeat("あ", 300)
		chunks := Chunk(text, 100, 20)

		assert.GreaterOrEqual(t, len(chunks), 3)
		for i, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), 100, "chunk %d", i)
		}
	})

	t.Run("windows overlap by the configured amount", func(t *testing.T) {
		text := strings.Repeat("abcdefghij", 30) // 300 chars
		chunks := Chunk(text, 100, 20)

		require.GreaterOrEqual(t, len(chunks), 2)
		// Step is 80, so chunk n+1 starts 80 codepoints after chunk n:
		// the last 20 codepoints of one window lead the next.
		first := []rune(chunks[0])
		second := []rune(chunks[1])
		assert.Equal(t, string(first[80:]), string(second[:20]))
	})

	t.Run("terminates when overlap >= chunk size", func(t *testing.T) {
		text := strings.Repeat("x", 500)

		chunks := Chunk(text, 100, 100)
		assert.NotEmpty(t, chunks)

		chunks = Chunk(text, 100, 150)
		assert.NotEmpty(t, chunks)
	})

	t.Run("whitespace-only windows are dropped", func(t *testing.T) {
		text := "abc" + strings.Repeat(" ", 200) + "def"
		chunks := Chunk(text, 100, 0)

		for _, c := range chunks {
			assert.NotEmpty(t, strings.TrimSpace(c))
		}
	})

	t.Run("chunks recover the original text", func(t *testing.T) {
		text := strings.Repeat("0123456789", 50)
		chunkSize, overlap := 120, 30
		chunks := Chunk(text, chunkSize, overlap)
		require.NotEmpty(t, chunks)

		// No whitespace in the input, so trimming was a no-op and
		// dropping the overlap prefix of each later chunk rebuilds
		// the input exactly.
		step := chunkSize - overlap
		var rebuilt strings.Builder
		rebuilt.WriteString(chunks[0])
		for i := 1; i < len(chunks); i++ {
			runes := []rune(chunks[i])
			skip := len([]rune(chunks[i-1])) - step
			rebuilt.WriteString(string(runes[skip:]))
		}
		assert.Equal(t, text, rebuilt.String())
	})
}

func TestExtractTitle(t *testing.T) {
	t.Run("markdown heading", func(t *testing.T) {
		title := ExtractTitle("# My Title\n\nSome content", "file.md")
		assert.Equal(t, "My Title", title)
	})

	t.Run("deep heading strips all hashes", func(t *testing.T) {
		title := ExtractTitle("### Section Three\nbody", "file.md")
		assert.Equal(t, "Section Three", title)
		assert.NotContains(t, title, "#")
	})

	t.Run("first non-empty line", func(t *testing.T) {
		title := ExtractTitle("First line content\n\nMore content", "file.md")
		assert.Equal(t, "First line content", title)
	})

	t.Run("leading blank lines skipped", func(t *testing.T) {
		title := ExtractTitle("\n\n\nActual content", "file.md")
		assert.Equal(t, "Actual content", title)
	})

	t.Run("long first line truncated to 100 codepoints", func(t *testing.T) {
		long := strings.Repeat("あ", 150)
		title := ExtractTitle(long, "file.md")

		assert.Equal(t, strings.Repeat("あ", 100)+"...", title)
		assert.LessOrEqual(t, utf8.RuneCountInString(title), 104)
	})

	t.Run("empty document falls back to file name", func(t *testing.T) {
		assert.Equal(t, "file.md", ExtractTitle("", "file.md"))
		assert.Equal(t, "file.md", ExtractTitle("\n  \n\t\n", "file.md"))
	})
}

func TestTruncateSnippet(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "short", TruncateSnippet("short"))
	})

	t.Run("exactly 200 codepoints unchanged", func(t *testing.T) {
		text := strings.Repeat("x", 200)
		assert.Equal(t, text, TruncateSnippet(text))
	})

	t.Run("truncates by codepoints not bytes", func(t *testing.T) {
		text := strings.Repeat("あ", 300)
		snippet := TruncateSnippet(text)

		assert.Equal(t, strings.Repeat("あ", 200)+"...", snippet)
		assert.True(t, utf8.ValidString(snippet))
	})

	t.Run("idempotent once within limit", func(t *testing.T) {
		text := strings.Repeat("y", 150)
		assert.Equal(t, TruncateSnippet(text), TruncateSnippet(TruncateSnippet(text)))
	})
}
