package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/compliance"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/filterexpr"
	"github.com/pcidash/pcidash/pkg/loader"
	"github.com/pcidash/pcidash/pkg/views"
)

// runSummary renders the executive summary and exits.
func runSummary() {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	cfg := loadConfig()
	var df DataFlags
	df.Register(fs, cfg)
	width := fs.Int("width", cfg.Width, "Render width in columns (0 = detect)")
	trendDays := fs.Int("trend-days", cfg.QuickTrendDays, "Days shown in the quick trend strip")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pcidash summary [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Render the executive summary: the overall compliance meter, the\n")
		fmt.Fprintf(os.Stderr, "per-requirement rollup table, open findings by severity, and a\n")
		fmt.Fprintf(os.Stderr, "quick trend strip.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  pcidash summary -data ./data\n")
		fmt.Fprintf(os.Stderr, "  pcidash summary -demo -width 100\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[2:])

	df.Apply()
	ds := mustLoad(&df)
	printRunBanner(&df, ds, map[string]string{"View": "summary"})

	r := views.NewRenderer(ds, views.Options{Width: *width, QuickTrendDays: *trendDays})
	r.ExecutiveSummary()
}

// runRequirement renders the detail view for one requirement. The id may
// be given with -id or as the positional remainder, so ids containing
// spaces work without quoting.
func runRequirement() {
	fs := flag.NewFlagSet("requirement", flag.ExitOnError)
	cfg := loadConfig()
	var df DataFlags
	df.Register(fs, cfg)
	width := fs.Int("width", cfg.Width, "Render width in columns (0 = detect)")
	id := fs.String("id", "", "Requirement identifier (alternative to the positional id)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pcidash requirement [flags] <id>\n\n")
		fmt.Fprintf(os.Stderr, "Render one requirement in detail: description, control status,\n")
		fmt.Fprintf(os.Stderr, "evidence location, and every finding that references it.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  pcidash requirement Req 3\n")
		fmt.Fprintf(os.Stderr, "  pcidash requirement -demo -id \"Req 7\"\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[2:])

	selected := *id
	if selected == "" {
		selected = strings.Join(fs.Args(), " ")
	}
	if selected == "" {
		fmt.Fprintf(os.Stderr, "error: no requirement id given\n")
		fmt.Fprintf(os.Stderr, "hint: pcidash requirement Req 3\n")
		os.Exit(defaults.ExitUserError)
	}

	df.Apply()
	ds := mustLoad(&df)
	printRunBanner(&df, ds, map[string]string{"View": "requirement", "Requirement": selected})

	r := views.NewRenderer(ds, views.Options{Width: *width, QuickTrendDays: cfg.QuickTrendDays})
	if err := r.RequirementDetail(selected); err != nil {
		fmt.Fprintf(os.Stderr, "error: unknown requirement %q\n", selected)
		fmt.Fprintf(os.Stderr, "hint: available ids: %s\n", strings.Join(ds.Catalog.IDs(), ", "))
		os.Exit(defaults.ExitUserError)
	}
}

// runFindings renders the findings list, narrowed by the filter flags.
func runFindings() {
	fs := flag.NewFlagSet("findings", flag.ExitOnError)
	cfg := loadConfig()
	var df DataFlags
	df.Register(fs, cfg)
	width := fs.Int("width", cfg.Width, "Render width in columns (0 = detect)")
	severity := fs.String("severity", "", "Filter by severity (critical, high, medium, low)")
	status := fs.String("status", "", "Filter by status (open, remediated)")
	requirement := fs.String("requirement", "", "Filter by requirement id")
	exprSrc := fs.String("expr", "", "Expression filter evaluated per finding")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pcidash findings [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Render the findings list. The three attribute filters AND together;\n")
		fmt.Fprintf(os.Stderr, "-expr applies a scripted filter on top of them.\n\n")
		fmt.Fprintf(os.Stderr, "Expression variables:\n")
		fmt.Fprintf(os.Stderr, "  %s\n\n", strings.Join(filterexpr.Vars(), ", "))
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  pcidash findings -severity critical -status open\n")
		fmt.Fprintf(os.Stderr, "  pcidash findings -requirement \"Req 10\"\n")
		fmt.Fprintf(os.Stderr, "  pcidash findings -expr 'severity == \"critical\" || severity == \"high\"'\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[2:])

	df.Apply()
	ds := mustLoad(&df)

	criteria, err := criteriaFromFlags(ds, *requirement, *severity, *status)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(defaults.ExitUserError)
	}
	expr := compileExpr(*exprSrc)
	printRunBanner(&df, ds, map[string]string{"View": "findings", "Filter": describeFilter(criteria, expr)})

	r := views.NewRenderer(ds, views.Options{Width: *width, QuickTrendDays: cfg.QuickTrendDays})
	r.FindingsList(criteria, expr)
}

// runTrend renders the compliance trend view.
func runTrend() {
	fs := flag.NewFlagSet("trend", flag.ExitOnError)
	cfg := loadConfig()
	var df DataFlags
	df.Register(fs, cfg)
	width := fs.Int("width", cfg.Width, "Render width in columns (0 = detect)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pcidash trend [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Render the trend analysis: the score history chart, the change\n")
		fmt.Fprintf(os.Stderr, "since the previous snapshot, and annotated events.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  pcidash trend -data ./data\n")
		fmt.Fprintf(os.Stderr, "  pcidash trend -demo -no-color\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[2:])

	df.Apply()
	ds := mustLoad(&df)
	printRunBanner(&df, ds, map[string]string{"View": "trend"})

	r := views.NewRenderer(ds, views.Options{Width: *width, QuickTrendDays: cfg.QuickTrendDays})
	r.TrendAnalysis()
}

// criteriaFromFlags validates the three filter flags against the loaded
// catalog and the canonical enum values.
func criteriaFromFlags(ds *loader.DataSet, requirement, severity, status string) (aggregate.Criteria, error) {
	var criteria aggregate.Criteria
	if requirement != "" {
		if _, err := ds.Catalog.ByID(requirement); err != nil {
			return criteria, fmt.Errorf("unknown requirement %q (available: %s)",
				requirement, strings.Join(ds.Catalog.IDs(), ", "))
		}
		criteria.RequirementID = requirement
	}
	if severity != "" {
		sev, ok := compliance.NormalizeSeverity(severity)
		if !ok {
			return criteria, fmt.Errorf("unknown severity %q (critical, high, medium, low)", severity)
		}
		criteria.Severity = string(sev)
	}
	if status != "" {
		st, ok := compliance.NormalizeFindingStatus(status)
		if !ok {
			return criteria, fmt.Errorf("unknown status %q (open, remediated)", status)
		}
		criteria.Status = string(st)
	}
	return criteria, nil
}

// compileExpr compiles the -expr flag, exiting on a compile error. An
// empty source means no expression filter.
func compileExpr(source string) *filterexpr.Expr {
	if source == "" {
		return nil
	}
	e, err := filterexpr.Compile(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot compile -expr: %v\n", err)
		fmt.Fprintf(os.Stderr, "hint: variables: %s\n", strings.Join(filterexpr.Vars(), ", "))
		os.Exit(defaults.ExitUserError)
	}
	return e
}

// describeFilter renders the active filters for the config banner.
func describeFilter(criteria aggregate.Criteria, expr *filterexpr.Expr) string {
	var parts []string
	if criteria.RequirementID != "" {
		parts = append(parts, "requirement="+criteria.RequirementID)
	}
	if criteria.Severity != "" {
		parts = append(parts, "severity="+criteria.Severity)
	}
	if criteria.Status != "" {
		parts = append(parts, "status="+criteria.Status)
	}
	if expr != nil {
		parts = append(parts, "expr="+expr.Source())
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
