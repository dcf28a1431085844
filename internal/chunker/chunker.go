// Package chunker splits documents into overlapping text windows and
// extracts display metadata (titles, snippets). All sizes are measured
// in Unicode codepoints, not bytes, so CJK text chunks correctly.
package chunker

import (
	"strings"
)

// SnippetLength is the maximum snippet length in codepoints.
const SnippetLength = 200

// maxTitleLength is the maximum extracted title length in codepoints.
const maxTitleLength = 100

// Chunk splits text into overlapping windows of chunkSize codepoints.
//
// Texts no longer than chunkSize are returned whole and untrimmed.
// Longer texts are windowed from offset 0, stepping by
// chunkSize-overlap (or the full chunkSize when overlap >= chunkSize,
// which also guards against an infinite loop). Each window is
// whitespace-trimmed; windows that trim to empty are dropped.
func Chunk(text string, chunkSize, overlap int) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)

	if total <= chunkSize {
		return []string{text}
	}

	step := chunkSize
	if chunkSize > overlap {
		step = chunkSize - overlap
	}
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < total; start += step {
		end := start + chunkSize
		if end > total {
			end = total
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= total {
			break
		}
	}

	return chunks
}

// ExtractTitle derives a document title from its content.
//
// The first line whose trimmed form starts with '#' wins, stripped of
// its leading hashes. Otherwise the first non-empty line is used,
// truncated to 100 codepoints with a "..." suffix. If no line
// qualifies, fallback is returned (callers pass the file name).
func ExtractTitle(text, fallback string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
		if trimmed != "" {
			runes := []rune(trimmed)
			if len(runes) > maxTitleLength {
				return string(runes[:maxTitleLength]) + "..."
			}
			return trimmed
		}
	}
	return fallback
}

// TruncateSnippet shortens text to SnippetLength codepoints, appending
// "..." when truncation occurred. Operating on runes keeps the result
// valid UTF-8 for any input.
func TruncateSnippet(text string) string {
	runes := []rune(text)
	if len(runes) <= SnippetLength {
		return text
	}
	return string(runes[:SnippetLength]) + "..."
}
