// Package views renders the dashboard views: executive summary,
// requirement detail, findings list, and trend analysis. Every view is a
// read-only projection of one loaded dataset; nothing here mutates it.
package views

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pcidash/pcidash/pkg/compliance"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/loader"
	"github.com/pcidash/pcidash/pkg/ui"
)

// titleCaser renders canonical lowercase enum values as display labels.
var titleCaser = cases.Title(language.English)

// Options configures rendering shared by all views.
type Options struct {
	// Writer receives rendered output. Defaults to os.Stdout.
	Writer io.Writer

	// Width is the target line width. Zero auto-detects the terminal,
	// falling back to the default width.
	Width int

	// QuickTrendDays bounds the executive view's inline trend window.
	QuickTrendDays int
}

// Renderer renders views of one loaded dataset.
type Renderer struct {
	ds        *loader.DataSet
	w         io.Writer
	width     int
	quickDays int
}

// NewRenderer creates a renderer with defaults applied. Widths below 60
// columns are clamped up so the layouts stay readable.
func NewRenderer(ds *loader.DataSet, opts Options) *Renderer {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	width := opts.Width
	if width <= 0 {
		width = ui.TerminalWidth(defaults.TerminalWidth)
	}
	if width < 60 {
		width = 60
	}
	days := opts.QuickTrendDays
	if days <= 0 {
		days = defaults.QuickTrendDays
	}
	return &Renderer{ds: ds, w: w, width: width, quickDays: days}
}

// printf writes a formatted fragment, downgrading glyphs the terminal
// cannot render.
func (r *Renderer) printf(format string, args ...interface{}) {
	ui.Fprintf(r.w, format, args...)
}

// header writes the view title with the snapshot date right-aligned on
// the same line, followed by a divider.
func (r *Renderer) header(title string) {
	date := "Snapshot: " + r.ds.Snapshot.SnapshotDate.String()
	gap := r.width - len(title) - len(date) - 4
	if gap < 2 {
		gap = 2
	}
	r.printf("\n  %s%s%s\n", ui.TitleStyle.Render(title),
		strings.Repeat(" ", gap), ui.SubtitleStyle.Render(date))
	r.printf("  %s\n\n", ui.DividerStyle.Render(strings.Repeat(ui.Icon("─", "-"), r.width-4)))
}

// section writes a section label inside a view.
func (r *Renderer) section(name string) {
	r.printf("  %s\n", ui.SectionStyle.Render(name))
}

// statusGlyph returns the icon and style for a control status.
func statusGlyph(status compliance.Status) (string, lipgloss.Style) {
	switch status {
	case compliance.StatusPass:
		return ui.Icon("✔", "+"), ui.PassStyle
	case compliance.StatusFail:
		return ui.Icon("✘", "x"), ui.FailStyle
	default:
		return "?", ui.UnknownStyle
	}
}

// severityLabel renders a severity as a display label, e.g. "Critical".
func severityLabel(sev compliance.Severity) string {
	return titleCaser.String(string(sev))
}

// statusLabel renders a control status as a display label, e.g. "PASS".
func statusLabel(status compliance.Status) string {
	return strings.ToUpper(string(status))
}

// truncate shortens s to max runes with a trailing marker.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max > 3 {
		return string(runes[:max-3]) + "..."
	}
	return string(runes[:max])
}
