// pkg/ui/cards.go - Boxed key-value card display for startup and summary info
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Card text styles. Going through lipgloss keeps SetNoColor effective
// here too; padding is always computed from the unstyled text.
var (
	cardTitleStyle    = lipgloss.NewStyle().Bold(true)
	cardDescStyle     = lipgloss.NewStyle().Faint(true)
	cardEmphasisStyle = lipgloss.NewStyle().Bold(true).Foreground(Secondary)
)

// CardItem represents a single labeled value in a card
type CardItem struct {
	Label    string
	Value    interface{}
	Icon     string
	Emphasis bool // If true, highlight this item
}

// Card displays a boxed set of labeled values, used for the data set
// summary shown before a view renders and for serve-mode startup info
type Card struct {
	Title       string
	Description string
	Items       []CardItem
	Writer      io.Writer
	BoxStyle    bool // If true, draw a box around the card
}

// NewCard creates a new card with default settings
func NewCard(title string) *Card {
	return &Card{
		Title:    title,
		Items:    make([]CardItem, 0),
		Writer:   os.Stdout,
		BoxStyle: true,
	}
}

// SetDescription sets a description line under the title
func (c *Card) SetDescription(desc string) *Card {
	c.Description = desc
	return c
}

// Add adds an item to the card
func (c *Card) Add(label string, value interface{}) *Card {
	c.Items = append(c.Items, CardItem{Label: label, Value: value})
	return c
}

// AddWithIcon adds an item with an icon
func (c *Card) AddWithIcon(icon, label string, value interface{}) *Card {
	c.Items = append(c.Items, CardItem{Icon: icon, Label: label, Value: value})
	return c
}

// AddEmphasis adds an emphasized item (highlighted)
func (c *Card) AddEmphasis(icon, label string, value interface{}) *Card {
	c.Items = append(c.Items, CardItem{Icon: icon, Label: label, Value: value, Emphasis: true})
	return c
}

// Print displays the card
func (c *Card) Print() {
	if c.BoxStyle {
		c.printBoxed()
	} else {
		c.printSimple()
	}
}

// printBoxed displays the card in a Unicode box
func (c *Card) printBoxed() {
	w := c.Writer

	// Calculate max width
	maxWidth := len(c.Title) + 4
	for _, item := range c.Items {
		width := len(item.Label) + len(fmt.Sprintf("%v", item.Value)) + 10
		if width > maxWidth {
			maxWidth = width
		}
	}
	if maxWidth > 70 {
		maxWidth = 70
	}
	if maxWidth < 50 {
		maxWidth = 50
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  ╔%s╗\n", strings.Repeat("═", maxWidth))

	// Title
	titlePadding := (maxWidth - len(c.Title)) / 2
	fmt.Fprintf(w, "  ║%s%s%s║\n",
		strings.Repeat(" ", titlePadding),
		cardTitleStyle.Render(c.Title),
		strings.Repeat(" ", maxWidth-titlePadding-len(c.Title)))

	// Description
	if c.Description != "" {
		descPadding := (maxWidth - len(c.Description)) / 2
		fmt.Fprintf(w, "  ║%s%s%s║\n",
			strings.Repeat(" ", descPadding),
			cardDescStyle.Render(c.Description),
			strings.Repeat(" ", maxWidth-descPadding-len(c.Description)))
	}

	fmt.Fprintf(w, "  ╠%s╣\n", strings.Repeat("═", maxWidth))

	// Items
	for _, item := range c.Items {
		icon := item.Icon
		if icon != "" {
			icon = icon + " "
		}

		valueStr := fmt.Sprintf("%v", item.Value)

		// Apply emphasis styling
		if item.Emphasis {
			valueStr = cardEmphasisStyle.Render(valueStr)
		}

		// Calculate padding
		labelPart := fmt.Sprintf("%s%s:", icon, item.Label)
		displayLen := len(icon) + len(item.Label) + 1 + len(fmt.Sprintf("%v", item.Value))
		padding := maxWidth - displayLen - 4
		if padding < 1 {
			padding = 1
		}

		fmt.Fprintf(w, "  ║  %s%s%s  ║\n", labelPart, strings.Repeat(" ", padding), valueStr)
	}

	fmt.Fprintf(w, "  ╚%s╝\n", strings.Repeat("═", maxWidth))
	fmt.Fprintln(w)
}

// printSimple displays the card as simple key-value pairs
func (c *Card) printSimple() {
	w := c.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", cardTitleStyle.Render(c.Title))
	if c.Description != "" {
		fmt.Fprintf(w, "  %s\n", cardDescStyle.Render(c.Description))
	}
	fmt.Fprintln(w)

	for _, item := range c.Items {
		icon := item.Icon
		if icon != "" {
			icon = icon + " "
		}

		valueStr := fmt.Sprintf("%v", item.Value)
		if item.Emphasis {
			valueStr = cardEmphasisStyle.Render(valueStr)
		}

		fmt.Fprintf(w, "    %s%s: %s\n", icon, item.Label, valueStr)
	}
	fmt.Fprintln(w)
}

// === Pre-built Card Templates ===

// DataSetCard summarizes a loaded data set before a view renders
func DataSetCard(source, snapshotDate string, requirements, controls, findings, trendPoints int) *Card {
	c := NewCard("COMPLIANCE DATA SET")
	c.SetDescription("Loaded input files and record counts")
	c.AddEmphasis("", "Source", source)
	c.Add("Snapshot Date", snapshotDate)
	c.Add("Requirements", requirements)
	c.Add("Controls", controls)
	c.Add("Findings", findings)
	c.Add("Trend Points", trendPoints)
	return c
}

// ServeCard summarizes the serve-mode endpoints at startup
func ServeCard(addr string, reloadInterval string) *Card {
	c := NewCard("DASHBOARD SERVER")
	c.SetDescription("Read-only metrics and JSON API")
	c.AddEmphasis("", "Listen", addr)
	c.Add("Metrics", addr+"/metrics")
	c.Add("API", addr+"/api/summary")
	c.Add("Health", addr+"/healthz")
	c.Add("Reload", reloadInterval)
	return c
}
