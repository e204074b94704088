package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Meter is a static horizontal bar for a 0-100 value, used for the
// compliance score and trend columns. Block glyphs degrade to ASCII on
// terminals that cannot render them.
type Meter struct {
	width int
}

// NewMeter creates a meter of the given width. Width defaults to 40.
func NewMeter(width int) *Meter {
	if width <= 0 {
		width = 40
	}
	return &Meter{width: width}
}

// Render renders the meter at a given percentage with the default fill.
func (m *Meter) Render(percent float64) string {
	return m.RenderWith(percent, MeterFullStyle)
}

// RenderWith renders the meter at a given percentage with a custom fill style.
func (m *Meter) RenderWith(percent float64, style lipgloss.Style) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(float64(m.width)*percent/100 + 0.5)
	if filled > m.width {
		filled = m.width
	}

	full := Icon("█", "#")
	empty := Icon("░", ".")

	bar := strings.Builder{}
	for i := 0; i < m.width; i++ {
		if i < filled {
			bar.WriteString(style.Render(full))
		} else {
			bar.WriteString(MeterEmptyStyle.Render(empty))
		}
	}
	return bar.String()
}

// RenderLabeled renders the meter with a trailing percentage label.
func (m *Meter) RenderLabeled(percent float64, style lipgloss.Style) string {
	return fmt.Sprintf("%s %s", m.RenderWith(percent, style),
		StatValueStyle.Render(fmt.Sprintf("%5.1f%%", percent)))
}

// CountBar renders a bar proportional to count out of max, for severity
// and status breakdown rows. A zero max renders an empty bar.
func CountBar(count, max, width int, style lipgloss.Style) string {
	if width <= 0 {
		width = 20
	}
	if max <= 0 {
		return ""
	}
	filled := count * width / max
	if count > 0 && filled == 0 {
		filled = 1 // Non-zero counts always show at least one cell.
	}
	if filled > width {
		filled = width
	}

	full := Icon("█", "#")
	bar := strings.Builder{}
	for i := 0; i < filled; i++ {
		bar.WriteString(style.Render(full))
	}
	return bar.String()
}
