package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/compliance"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/export"
	"github.com/pcidash/pcidash/pkg/filterexpr"
	"github.com/pcidash/pcidash/pkg/loader"
	"github.com/pcidash/pcidash/pkg/ui"
)

// runExport writes the filtered findings to a file, either as delimited
// rows or through a Go template.
func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfg := loadConfig()
	var df DataFlags
	df.Register(fs, cfg)
	output := fs.String("output", "", "Output path (default: pci_findings_YYYYMMDD.csv in -export-dir)")
	exportDir := fs.String("export-dir", cfg.ExportDir, "Directory for the default output name")
	format := fs.String("format", "csv", "Output format: csv or template")
	severity := fs.String("severity", "", "Filter by severity (critical, high, medium, low)")
	status := fs.String("status", "", "Filter by status (open, remediated)")
	requirement := fs.String("requirement", "", "Filter by requirement id")
	exprSrc := fs.String("expr", "", "Expression filter evaluated per finding")
	delimiter := fs.String("delimiter", "comma", "Field delimiter: comma, semicolon, or tab")
	noHeader := fs.Bool("no-header", false, "Omit the header row")
	excel := fs.Bool("excel", false, "Prefix a UTF-8 BOM so Excel detects the encoding")
	timestampFormat := fs.String("timestamp-format", defaults.ExportTimestampFormat, "Timestamp column layout (Go reference time)")
	templatePath := fs.String("template", "", "Custom template file (with -format template)")
	builtin := fs.String("builtin", cfg.Template, "Built-in template: markdown, text-summary, csv (with -format template)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pcidash export [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Write the filtered findings to a file. This is the dashboard's only\n")
		fmt.Fprintf(os.Stderr, "write path; the input data files are never touched.\n\n")
		fmt.Fprintf(os.Stderr, "Formats:\n")
		fmt.Fprintf(os.Stderr, "  csv        Delimited rows, columns: %s\n", strings.Join(export.Columns, ", "))
		fmt.Fprintf(os.Stderr, "  template   A Go template over the full report (sprig functions available)\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  pcidash export -status open\n")
		fmt.Fprintf(os.Stderr, "  pcidash export -severity critical -delimiter tab -output critical.tsv\n")
		fmt.Fprintf(os.Stderr, "  pcidash export -format template -builtin markdown -output report.md\n")
		fmt.Fprintf(os.Stderr, "  pcidash export -format template -template ./custom.tmpl -output report.txt\n\n")
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

	matched := aggregate.FilterFindings(ds.Findings, criteria)
	if expr != nil {
		matched = filterexpr.Filter(matched, expr)
	}

	path := *output
	if path == "" {
		if *format == "template" {
			fmt.Fprintf(os.Stderr, "error: -output is required with -format template\n")
			fmt.Fprintf(os.Stderr, "hint: pcidash export -format template -builtin markdown -output report.md\n")
			os.Exit(defaults.ExitUserError)
		}
		path = filepath.Join(*exportDir, export.FileName(ds.Snapshot.SnapshotDate.Time))
	}

	printRunBanner(&df, ds, map[string]string{
		"Filter": describeFilter(criteria, expr),
		"Output": path,
		"Format": *format,
	})

	switch *format {
	case "csv":
		delim, err := parseDelimiter(*delimiter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(defaults.ExitUserError)
		}
		writeCSV(path, matched, export.Options{
			IncludeHeader:    !*noHeader,
			Delimiter:        delim,
			ExcelCompatible:  *excel,
			SanitizeFormulas: true,
			TimestampFormat:  *timestampFormat,
		})
	case "template":
		writeTemplate(path, ds, matched, export.TemplateConfig{
			TemplatePath: *templatePath,
			BuiltIn:      *builtin,
		}, df.Source())
	default:
		fmt.Fprintf(os.Stderr, "error: unknown format %q\n", *format)
		fmt.Fprintf(os.Stderr, "hint: use -format csv or -format template\n")
		os.Exit(defaults.ExitUserError)
	}

	ui.PrintSuccess(fmt.Sprintf("Exported %d of %d findings to %s", len(matched), len(ds.Findings), path))
}

// writeCSV writes findings as delimited rows, exiting on any failure so a
// partial file is never reported as success.
func writeCSV(path string, findings []compliance.Finding, opts export.Options) {
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot create %s: %v\n", path, err)
		os.Exit(defaults.ExitInternalError)
	}
	w := export.NewFindingsWriter(f, opts)
	if err := w.WriteAll(findings); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		f.Close()
		os.Exit(defaults.ExitInternalError)
	}
	if err := w.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		f.Close()
		os.Exit(defaults.ExitInternalError)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error: closing %s: %v\n", path, err)
		os.Exit(defaults.ExitInternalError)
	}
}

// writeTemplate renders the report through the configured template.
func writeTemplate(path string, ds *loader.DataSet, findings []compliance.Finding, config export.TemplateConfig, source string) {
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot create %s: %v\n", path, err)
		os.Exit(defaults.ExitInternalError)
	}
	tw, err := export.NewTemplateWriter(f, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintf(os.Stderr, "hint: pass -template <file> or -builtin one of: %s\n",
			strings.Join(export.BuiltInTemplates(), ", "))
		f.Close()
		os.Exit(defaults.ExitUserError)
	}
	if err := tw.Render(export.BuildReport(ds, findings, source)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		f.Close()
		os.Exit(defaults.ExitInternalError)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error: closing %s: %v\n", path, err)
		os.Exit(defaults.ExitInternalError)
	}
}

// parseDelimiter maps the -delimiter flag to its rune.
func parseDelimiter(name string) (rune, error) {
	switch strings.ToLower(name) {
	case "", "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "tab":
		return '\t', nil
	default:
		return 0, fmt.Errorf("unknown delimiter %q (comma, semicolon, tab)", name)
	}
}
