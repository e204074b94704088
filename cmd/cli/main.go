// Command pcidash renders PCI DSS compliance posture from static
// assessment exports. Every subcommand reads the same four input files;
// the only write path is the findings export.
package main

import (
	"fmt"
	"os"

	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/ui"
)

func main() {
	// Check for subcommands
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(defaults.ExitUserError)
	}

	switch os.Args[1] {
	case "summary", "sum":
		runSummary()
	case "requirement", "req":
		runRequirement()
	case "findings":
		runFindings()
	case "trend":
		runTrend()
	case "shell", "interactive", "repl":
		runShell()
	case "export":
		runExport()
	case "serve", "exporter":
		runServe()
	case "mcp":
		runMCP()
	case "-h", "--help", "help":
		printUsage()
		os.Exit(defaults.ExitSuccess)
	case "-v", "--version", "version":
		runVersion()
		os.Exit(defaults.ExitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "hint: run 'pcidash help' for the command list\n")
		os.Exit(defaults.ExitUserError)
	}
}

func printUsage() {
	ui.PrintBanner()
	os.Stderr.Sync() // Sync stderr before switching to stdout

	fmt.Println(ui.SectionStyle.Render("COMPLIANCE AT A GLANCE"))
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("The Review Workflow (recommended):"))
	fmt.Println()
	fmt.Printf("    %s  Overall posture: score meter, rollup table, quick trend\n", ui.ConfigValueStyle.Render("1. summary    "))
	fmt.Printf("    %s  Drill into one requirement: control status, linked findings\n", ui.ConfigValueStyle.Render("2. requirement"))
	fmt.Printf("    %s  Narrow the findings by severity, status, or an expression\n", ui.ConfigValueStyle.Render("3. findings   "))
	fmt.Printf("    %s  Hand the filtered list to remediation as CSV\n", ui.ConfigValueStyle.Render("4. export     "))
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("Quick Example:"))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render("pcidash summary -data ./data"))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render("pcidash findings -severity critical -status open"))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render("pcidash export -status open -output open_findings.csv"))
	fmt.Println()

	fmt.Println(ui.SectionStyle.Render("COMMANDS"))
	fmt.Println()
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("summary    "), "Executive summary: compliance meter, per-requirement rollup, trend strip")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("requirement"), "Requirement detail: control status, evidence, linked findings")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("findings   "), "Findings list with severity/status/requirement and expression filters")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("trend      "), "Trend analysis: score history chart, deltas, change events")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("shell      "), "Interactive dashboard (all four views, filters, export, reload)")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("export     "), "Write the filtered findings as CSV or through a Go template")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("serve      "), "Prometheus /metrics exporter plus a read-only JSON API")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("mcp        "), "MCP server exposing the dashboard to AI clients (stdio or HTTP)")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("version    "), "Print version and build information")
	fmt.Println()

	fmt.Println(ui.SectionStyle.Render("DATA SOURCES"))
	fmt.Println()
	fmt.Println("  Every command reads the same four files from the data directory:")
	fmt.Println()
	fmt.Printf("    %s  Requirements catalog (YAML)\n", ui.ConfigValueStyle.Render(fmt.Sprintf("%-30s", defaults.RequirementsFile)))
	fmt.Printf("    %s  Control-status snapshot (JSON)\n", ui.ConfigValueStyle.Render(fmt.Sprintf("%-30s", defaults.ControlStatusFile)))
	fmt.Printf("    %s  Findings list (JSON)\n", ui.ConfigValueStyle.Render(fmt.Sprintf("%-30s", defaults.FindingsFile)))
	fmt.Printf("    %s  Compliance trend history (JSON)\n", ui.ConfigValueStyle.Render(fmt.Sprintf("%-30s", defaults.TrendFile)))
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("Source flags (shared by every command):"))
	fmt.Println("    -data <dir>           Data directory (default: data, env: PCIDASH_DATA_DIR)")
	fmt.Println("    -requirements-file, -controls-file, -findings-file, -trend-file")
	fmt.Println("                          Per-file overrides")
	fmt.Println("    -demo                 Use the embedded sample data set")
	fmt.Println("    -no-color             Disable styled output")
	fmt.Println("    -silent               Suppress informational output")
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("Persisted preferences:"))
	fmt.Println("    ~/.config/pcidash/config.json seeds the flag defaults; flags win.")
	fmt.Println()

	fmt.Println(ui.SectionStyle.Render("EXAMPLES"))
	fmt.Println()
	fmt.Println("  pcidash shell -demo")
	fmt.Println("  pcidash requirement -data ./data Req 3")
	fmt.Println("  pcidash findings -expr 'severity == \"critical\" && status == \"open\"'")
	fmt.Println("  pcidash export -status open -format template -builtin markdown -output report.md")
	fmt.Println("  pcidash serve -data /var/lib/pcidash -addr :9105 -interval 30s")
	fmt.Println("  pcidash mcp -http :8811 -demo")
	fmt.Println()
}

// runVersion prints the banner and build metadata. The version comes
// from defaults.Version; Commit and BuildDate are ldflags vars in pkg/ui.
func runVersion() {
	ui.PrintMiniBanner()
	fmt.Printf("  version:    %s\n", ui.Version)
	fmt.Printf("  commit:     %s\n", ui.Commit)
	fmt.Printf("  build date: %s\n", ui.BuildDate)
}
