package ui

import "github.com/charmbracelet/lipgloss"

// Color palette matching the compliance reporting conventions the source
// data uses (Bootstrap-style severity and status colors)
var (
	// Brand colors
	Primary   = lipgloss.Color("#0D6EFD") // Blue - brand and trend line color
	Secondary = lipgloss.Color("#20C997") // Teal

	// Severity colors
	Critical = lipgloss.Color("#DC3545") // Red
	High     = lipgloss.Color("#FD7E14") // Orange
	Medium   = lipgloss.Color("#FFC107") // Amber
	Low      = lipgloss.Color("#28A745") // Green

	// Control status colors
	Pass    = lipgloss.Color("#28A745") // Green
	Fail    = lipgloss.Color("#DC3545") // Red
	Unknown = lipgloss.Color("#6C757D") // Gray

	// General status colors
	Success = lipgloss.Color("#28A745")
	Warning = lipgloss.Color("#FFC107")
	Error   = lipgloss.Color("#DC3545")
	Muted   = lipgloss.Color("#6C757D")

	// Background colors
	DarkBg  = lipgloss.Color("#1A1A2E")
	LightBg = lipgloss.Color("#16213E")
)

// Pre-configured styles
var (
	// Title and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(Primary).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Banner style
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Version badge
	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Section headers
	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true).
			MarginTop(1)

	// Configuration display
	ConfigLabelStyle = lipgloss.NewStyle().
				Foreground(Muted).
				Width(15)

	ConfigValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA"))

	// Meter fill
	MeterFullStyle = lipgloss.NewStyle().
			Foreground(Primary)

	MeterEmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B3B4F"))

	// Statistics
	StatLabelStyle = lipgloss.NewStyle().
			Foreground(Muted)

	StatValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	// Bracketed metadata
	BracketStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Control status styles
	PassStyle = lipgloss.NewStyle().
			Foreground(Pass).
			Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(Fail).
			Bold(true)

	UnknownStyle = lipgloss.NewStyle().
			Foreground(Unknown).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	// Divider
	DividerStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Help/footer
	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Evidence links and URLs
	URLStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Underline(true)

	// Requirement identifier badge
	RequirementStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#3B3B4F")).
				Padding(0, 1)

	// Trend annotations
	EventStyle = lipgloss.NewStyle().
			Foreground(Secondary)
)

// SeverityStyle returns the badge style for a finding severity level.
// Severities arrive lowercase from the data set.
func SeverityStyle(severity string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch severity {
	case "critical":
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(Critical)
	case "high":
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(High)
	case "medium":
		return base.Foreground(lipgloss.Color("#000000")).Background(Medium)
	case "low":
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(Low)
	default:
		return base.Foreground(Muted)
	}
}

// StatusStyle returns the style for a control status value.
func StatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch status {
	case "pass":
		return base.Foreground(Pass)
	case "fail":
		return base.Foreground(Fail)
	default:
		return base.Foreground(Unknown)
	}
}

// FindingStatusStyle returns the style for a finding resolution state.
func FindingStatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch status {
	case "open":
		return base.Foreground(High)
	case "remediated":
		return base.Foreground(Success)
	default:
		return base.Foreground(Muted)
	}
}

// ScoreStyle returns the style for an overall compliance percentage,
// banded by the healthy and warning thresholds.
func ScoreStyle(percentage, healthy, warning float64) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch {
	case percentage >= healthy:
		return base.Foreground(Success)
	case percentage >= warning:
		return base.Foreground(Warning)
	default:
		return base.Foreground(Error)
	}
}
