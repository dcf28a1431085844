// Package output formats CLI output: status lines, search results,
// and summary tables, with color when writing to a terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/searchfold/mcp-hybrid-search/internal/store"
)

// Color palette, 256-color indexes.
const (
	colorGreen  = "42"
	colorYellow = "220"
	colorRed    = "196"
	colorGray   = "245"
	colorCyan   = "45"
)

// styles holds the lipgloss styles used by the writer.
type styles struct {
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
	title   lipgloss.Style
	score   lipgloss.Style
}

func coloredStyles() styles {
	return styles{
		success: lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorCyan)),
		score:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
	}
}

func plainStyles() styles {
	plain := lipgloss.NewStyle()
	return styles{
		success: plain, warning: plain, failure: plain,
		dim: plain, title: plain, score: plain,
	}
}

// Writer formats CLI output. Color is enabled only when the
// destination is a terminal and NO_COLOR is unset.
type Writer struct {
	out    io.Writer
	styles styles
}

// New creates a writer with automatic color detection.
func New(out io.Writer) *Writer {
	if useColor(out) {
		return &Writer{out: out, styles: coloredStyles()}
	}
	return &Writer{out: out, styles: plainStyles()}
}

// NewPlain creates a writer with color disabled, for tests and pipes.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out, styles: plainStyles()}
}

func useColor(w io.Writer) bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Write errors are deliberately ignored throughout: there is no
// recovery from a broken console pipe.

// Success prints a success line.
func (w *Writer) Success(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n",
		w.styles.success.Render("✓"), fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func (w *Writer) Warning(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n",
		w.styles.warning.Render("!"), fmt.Sprintf(format, args...))
}

// Error prints an error line.
func (w *Writer) Error(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n",
		w.styles.failure.Render("✗"), fmt.Sprintf(format, args...))
}

// Info prints an unadorned line.
func (w *Writer) Info(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, "%s\n", fmt.Sprintf(format, args...))
}

// Field prints an aligned label/value pair.
func (w *Writer) Field(label, format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, "  %s %s\n",
		w.styles.dim.Render(fmt.Sprintf("%-22s", label+":")),
		fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// SearchResults prints a ranked result list.
func (w *Writer) SearchResults(results []*store.SearchResult) {
	if len(results) == 0 {
		w.Info("No results.")
		return
	}
	for i, r := range results {
		_, _ = fmt.Fprintf(w.out, "%2d. %s %s\n", i+1,
			w.styles.title.Render(r.Title),
			w.styles.score.Render(fmt.Sprintf("(%.4f)", r.Score)))
		_, _ = fmt.Fprintf(w.out, "    %s\n", w.styles.dim.Render(r.SourcePath))
		if r.Snippet != "" {
			snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
			_, _ = fmt.Fprintf(w.out, "    %s\n", snippet)
		}
		_, _ = fmt.Fprintf(w.out, "    %s\n", w.styles.dim.Render("id: "+r.ChunkID))
	}
}
