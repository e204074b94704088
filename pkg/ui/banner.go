package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/pcidash/pcidash/pkg/defaults"
)

// Version mirrors defaults.Version so the banner, the Server header,
// and the telemetry resource all report the same build. Override the
// version through defaults.Version; BuildDate and Commit live here:
// go build -ldflags "-X github.com/pcidash/pcidash/pkg/ui.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = defaults.Version
	BuildDate = "2026-02-16"
	Commit    = "dev"
)

const (
	Author  = "pcidash team"
	Website = "https://github.com/pcidash/pcidash"
)

// ServerID returns the standard identification string pcidash sends as the
// Server header and MCP implementation version.
func ServerID() string {
	return fmt.Sprintf("pcidash/%s", Version)
}

// Global UI state
var (
	silentMode  bool
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetSilent enables or disables silent mode (suppresses most output)
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		// Use ASCII profile to disable colors
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

// ASCII art banner
const bannerArt = `
                _     __           __
    ____  ____(_)___/ /___ _______/ /_
   / __ \/ ___/ / __  / __ ` + "`" + `/ ___/ __ \
  / /_/ / /__/ / /_/ / /_/ (__  ) / / /
 / .___/\___/_/\__,_/\__,_/____/_/ /_/
/_/
`

// Minimalist banner box
const miniBanner = `
________________________________________________

 pcidash v%s
________________________________________________`

// Separator line
const bannerSeparator = "________________________________________________"

// PrintBanner prints the application banner with version info (to stderr)
func PrintBanner() {
	lines := strings.Split(bannerArt, "\n")
	for _, line := range lines {
		if line != "" {
			fmt.Fprintln(os.Stderr, BannerStyle.Render(line))
		}
	}

	// Version line centered below banner
	fmt.Fprintf(os.Stderr, "                     v%s\n", VersionStyle.Render(Version))
	fmt.Fprintf(os.Stderr, "\n\tgithub.com/pcidash/pcidash\n\n")
}

// PrintMiniBanner prints the minimal banner box
func PrintMiniBanner() {
	fmt.Fprintf(os.Stderr, "%s\n", BannerStyle.Render(fmt.Sprintf(miniBanner, Version)))
	fmt.Fprintln(os.Stderr)
}

// printOption prints a configuration option
// Format:  :: Option              : Value
func printOption(name, value string) {
	fmt.Fprintf(os.Stderr, " :: %-20s : %s\n", ConfigLabelStyle.Render(name), ConfigValueStyle.Render(value))
}

// PrintConfigBanner prints the configuration banner before a view renders.
// Uses ordered keys for consistent display.
func PrintConfigBanner(options map[string]string) {
	// Define display order for config options
	order := []string{
		"Data Dir", "Source", "Snapshot Date", "Requirements", "Controls",
		"Findings", "Trend Points", "View", "Requirement", "Filter",
		"Output", "Format", "Listen", "Reload",
	}

	// Print in defined order first
	printed := make(map[string]bool)
	for _, name := range order {
		if value, ok := options[name]; ok && value != "" {
			printOption(name, value)
			printed[name] = true
		}
	}

	// Print any remaining options not in the order list
	for name, value := range options {
		if !printed[name] && value != "" {
			printOption(name, value)
		}
	}

	fmt.Fprintf(os.Stderr, "%s\n\n", DividerStyle.Render(bannerSeparator))
}

// PrintDivider prints a stylized divider (to stderr)
func PrintDivider() {
	divider := strings.Repeat("-", 75)
	fmt.Fprintln(os.Stderr, DividerStyle.Render(divider))
}

// PrintSection prints a section header (to stderr)
func PrintSection(title string) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, SectionStyle.Render("> "+title))
	PrintDivider()
}

// PrintConfig prints configuration in a nice format
func PrintConfig(config map[string]string) {
	if IsSilent() {
		return
	}

	maxKeyLen := 0
	for key := range config {
		if len(key) > maxKeyLen {
			maxKeyLen = len(key)
		}
	}

	for key, value := range config {
		paddedKey := key + strings.Repeat(" ", maxKeyLen-len(key))
		fmt.Fprintf(os.Stderr, "  %s : %s\n",
			ConfigLabelStyle.Render(paddedKey),
			ConfigValueStyle.Render(value),
		)
	}
}

// PrintConfigLine prints a single config line
func PrintConfigLine(key, value string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(os.Stderr, "  %s %s\n",
		ConfigLabelStyle.Render(key+":"),
		ConfigValueStyle.Render(value),
	)
}

// PrintBracketedInfo prints bracketed metadata parts on one line.
// Example: [critical] [Req 3] F-001 [open]
func PrintBracketedInfo(parts ...BracketPart) {
	if IsSilent() {
		return
	}

	var output strings.Builder
	for _, part := range parts {
		output.WriteString(BracketStyle.Render("["))
		output.WriteString(part.Style.Render(part.Text))
		output.WriteString(BracketStyle.Render("] "))
	}
	fmt.Fprintln(os.Stderr, output.String())
}

// BracketPart represents a piece of bracketed output
type BracketPart struct {
	Text  string
	Style Style
}

// Style is a simplified style type for bracket parts
type Style = lipgloss.Style

// Helper functions for creating bracket parts
func SeverityBracket(severity string) BracketPart {
	return BracketPart{
		Text:  strings.ToLower(severity),
		Style: SeverityStyle(severity),
	}
}

func RequirementBracket(id string) BracketPart {
	return BracketPart{
		Text:  id,
		Style: RequirementStyle,
	}
}

func StatusBracket(status string) BracketPart {
	return BracketPart{
		Text:  strings.ToLower(status),
		Style: StatusStyle(status),
	}
}

func TextBracket(text string) BracketPart {
	return BracketPart{
		Text:  text,
		Style: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
	}
}

func MutedBracket(text string) BracketPart {
	return BracketPart{
		Text:  text,
		Style: lipgloss.NewStyle().Foreground(Muted),
	}
}

// PrintHelp prints contextual help (to stderr)
func PrintHelp(text string) {
	fmt.Fprintln(os.Stderr, HelpStyle.Render("  [i] "+text))
}

// PrintSuccess prints a success message (to stderr)
func PrintSuccess(message string) {
	fmt.Fprintln(os.Stderr, PassStyle.Render("  [+] "+message))
}

// PrintError prints an error message (to stderr)
func PrintError(message string) {
	fmt.Fprintln(os.Stderr, FailStyle.Render("  [X] "+message))
}

// PrintWarning prints a warning message (to stderr)
func PrintWarning(message string) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("  [!] "+message))
}

// PrintInfo prints an info message (to stderr)
func PrintInfo(message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(os.Stderr, "  %s %s\n", MeterFullStyle.Render("*"), message)
}
