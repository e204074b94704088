// Package shell provides the interactive dashboard loop. It owns the view
// and selection state, dispatches commands, and re-renders after every
// state change. The shell itself never writes to the data files; its one
// output path is the export command.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/compliance"
	"github.com/pcidash/pcidash/pkg/export"
	"github.com/pcidash/pcidash/pkg/filterexpr"
	"github.com/pcidash/pcidash/pkg/loader"
	"github.com/pcidash/pcidash/pkg/telemetry"
	"github.com/pcidash/pcidash/pkg/ui"
	"github.com/pcidash/pcidash/pkg/views"
)

// View names a dashboard view the shell can show.
type View string

// The four dashboard views.
const (
	ViewSummary     View = "summary"
	ViewRequirement View = "requirement"
	ViewFindings    View = "findings"
	ViewTrend       View = "trend"
)

// State is the shell's current view and selection.
type State struct {
	// View is the view rendered after each command.
	View View

	// RequirementID is the detail view selection. Always a valid catalog
	// id while View is ViewRequirement.
	RequirementID string

	// Criteria narrows the findings view.
	Criteria aggregate.Criteria

	// Expr is an optional compiled expression applied after Criteria.
	Expr *filterexpr.Expr
}

// Options configures the shell.
type Options struct {
	// In is the command source. Defaults to os.Stdin.
	In io.Reader

	// Out receives rendered views and messages. Defaults to os.Stdout.
	Out io.Writer

	// Width is the render width, passed through to the views.
	Width int

	// Reload re-reads the dataset from its source. nil disables the
	// reload command.
	Reload func() (*loader.DataSet, error)

	// ExportDir receives findings exports. Defaults to the working
	// directory.
	ExportDir string

	// Tracer records render, export, and reload events. All Tracer
	// methods accept a nil receiver, so a nil value simply drops them.
	Tracer *telemetry.Tracer
}

// Shell runs the interactive dashboard over one dataset.
type Shell struct {
	ds       *loader.DataSet
	opts     Options
	state    State
	out      io.Writer
	renderer *views.Renderer
}

// New creates a shell showing the executive summary first.
func New(ds *loader.DataSet, opts Options) *Shell {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	return &Shell{
		ds:       ds,
		opts:     opts,
		state:    State{View: ViewSummary},
		out:      opts.Out,
		renderer: views.NewRenderer(ds, views.Options{Writer: opts.Out, Width: opts.Width}),
	}
}

// State returns a copy of the current view state.
func (s *Shell) State() State {
	return s.state
}

// Run renders the initial view and processes commands until quit or EOF.
func (s *Shell) Run() error {
	s.render()
	s.prompt()

	scanner := bufio.NewScanner(s.opts.In)
	for scanner.Scan() {
		if s.Handle(strings.TrimSpace(scanner.Text())) {
			return nil
		}
		s.prompt()
	}
	return scanner.Err()
}

// Handle dispatches one command line. It reports true when the shell
// should exit.
func (s *Shell) Handle(line string) bool {
	args := strings.Fields(line)

	// Empty input redraws the current view
	if len(args) == 0 {
		s.render()
		return false
	}

	cmd := strings.ToLower(args[0])
	switch cmd {
	case "summary", "s":
		s.state.View = ViewSummary
		s.render()
	case "req", "requirement", "r":
		s.selectRequirement(strings.Join(args[1:], " "))
	case "findings", "f":
		s.state.View = ViewFindings
		s.render()
	case "trend", "t":
		s.state.View = ViewTrend
		s.render()
	case "filter":
		s.setFilter(args[1:])
	case "expr":
		s.setExpr(strings.TrimSpace(line[len(args[0]):]))
	case "clear":
		s.state.Criteria = aggregate.Criteria{}
		s.state.Expr = nil
		s.success("Filters cleared")
		s.render()
	case "export":
		s.export(strings.Join(args[1:], " "))
	case "reload":
		s.reload()
	case "help", "?":
		s.printHelp()
	case "quit", "exit", "q":
		return true
	default:
		s.warn("Unknown command: %s (type 'help' for commands)", cmd)
	}
	return false
}

// render draws the current view.
func (s *Shell) render() {
	rendered := s.state.View
	switch s.state.View {
	case ViewRequirement:
		if err := s.renderer.RequirementDetail(s.state.RequirementID); err != nil {
			s.warn("Unknown requirement %q. Available: %s",
				s.state.RequirementID, strings.Join(s.ds.Catalog.IDs(), ", "))
			s.state.View = ViewSummary
			s.state.RequirementID = ""
			s.renderer.ExecutiveSummary()
			rendered = ViewSummary
		}
	case ViewFindings:
		s.renderer.FindingsList(s.state.Criteria, s.state.Expr)
	case ViewTrend:
		s.renderer.TrendAnalysis()
	default:
		s.renderer.ExecutiveSummary()
		rendered = ViewSummary
	}
	s.opts.Tracer.RecordRender(string(rendered))
}

// selectRequirement validates the id before switching views so the detail
// view never renders against a missing selection.
func (s *Shell) selectRequirement(id string) {
	if id == "" {
		s.warn("Usage: req <id> (e.g., req Req 3)")
		return
	}
	if _, err := s.ds.Catalog.ByID(id); err != nil {
		s.warn("Unknown requirement %q. Available: %s", id, strings.Join(s.ds.Catalog.IDs(), ", "))
		return
	}
	s.state.View = ViewRequirement
	s.state.RequirementID = id
	s.render()
}

// setFilter adjusts one findings criterion, validating enum values against
// their canonical forms.
func (s *Shell) setFilter(args []string) {
	if len(args) == 0 {
		s.showFilters()
		return
	}

	key := strings.ToLower(args[0])
	if key == "none" {
		s.state.Criteria = aggregate.Criteria{}
		s.success("Filters cleared")
		s.state.View = ViewFindings
		s.render()
		return
	}
	if len(args) < 2 {
		s.warn("Usage: filter <severity|status|requirement> <value>, or filter none")
		return
	}

	value := strings.Join(args[1:], " ")
	switch key {
	case "severity", "sev":
		sev, ok := compliance.NormalizeSeverity(value)
		if !ok {
			s.warn("Invalid severity %q (critical, high, medium, low)", value)
			return
		}
		s.state.Criteria.Severity = string(sev)
	case "status":
		st, ok := compliance.NormalizeFindingStatus(value)
		if !ok {
			s.warn("Invalid status %q (open, remediated)", value)
			return
		}
		s.state.Criteria.Status = string(st)
	case "requirement", "req":
		if _, err := s.ds.Catalog.ByID(value); err != nil {
			s.warn("Unknown requirement %q. Available: %s", value, strings.Join(s.ds.Catalog.IDs(), ", "))
			return
		}
		s.state.Criteria.RequirementID = value
	default:
		s.warn("Unknown filter key %q (severity, status, requirement)", key)
		return
	}

	s.state.View = ViewFindings
	s.render()
}

// setExpr compiles and installs an expression filter. The raw remainder of
// the line is used so quoted strings keep their spacing.
func (s *Shell) setExpr(source string) {
	switch source {
	case "":
		if s.state.Expr == nil {
			s.info("No expression filter set. Variables: %s", strings.Join(filterexpr.Vars(), ", "))
		} else {
			s.info("Expression filter: %s", s.state.Expr.Source())
		}
		return
	case "none":
		s.state.Expr = nil
		s.success("Expression filter cleared")
		s.state.View = ViewFindings
		s.render()
		return
	}

	e, err := filterexpr.Compile(source)
	if err != nil {
		s.fail("Cannot compile expression: %v", err)
		return
	}
	s.state.Expr = e
	s.state.View = ViewFindings
	s.render()
}

// export writes the currently filtered findings to a CSV file.
func (s *Shell) export(path string) {
	matched := aggregate.FilterFindings(s.ds.Findings, s.state.Criteria)
	if s.state.Expr != nil {
		matched = filterexpr.Filter(matched, s.state.Expr)
	}

	if path == "" {
		path = filepath.Join(s.opts.ExportDir, export.FileName(s.ds.Snapshot.SnapshotDate.Time))
	}

	f, err := os.Create(path)
	if err != nil {
		s.fail("Cannot create %s: %v", path, err)
		return
	}
	w := export.NewFindingsWriter(f, export.Options{
		IncludeHeader:    true,
		SanitizeFormulas: true,
	})
	if err := w.WriteAll(matched); err != nil {
		s.fail("Export failed: %v", err)
		_ = f.Close()
		return
	}
	if err := w.Close(); err != nil {
		s.fail("Export failed: %v", err)
		return
	}
	s.opts.Tracer.RecordExport(path, len(matched))
	s.success("Exported %d of %d findings to %s", len(matched), len(s.ds.Findings), path)
}

// reload swaps in a freshly loaded dataset, keeping the old one when the
// reload fails.
func (s *Shell) reload() {
	if s.opts.Reload == nil {
		s.warn("Reload is not available for this data source")
		return
	}
	ds, err := s.opts.Reload()
	s.opts.Tracer.RecordReload(ds, err)
	if err != nil {
		s.fail("Reload failed: %v (keeping previous data)", err)
		return
	}

	s.ds = ds
	s.renderer = views.NewRenderer(ds, views.Options{Writer: s.out, Width: s.opts.Width})
	if s.state.RequirementID != "" {
		if _, err := ds.Catalog.ByID(s.state.RequirementID); err != nil {
			s.warn("Requirement %q is no longer in the catalog", s.state.RequirementID)
			s.state.RequirementID = ""
			s.state.View = ViewSummary
		}
	}
	s.success("Data reloaded: %d requirements, %d controls, %d findings",
		len(ds.Catalog.Requirements), len(ds.Snapshot.Controls), len(ds.Findings))
	s.render()
}

// showFilters prints the active findings filters.
func (s *Shell) showFilters() {
	c := s.state.Criteria
	if c.IsZero() && s.state.Expr == nil {
		s.info("No filters set")
		return
	}
	if c.RequirementID != "" {
		s.info("requirement = %s", c.RequirementID)
	}
	if c.Severity != "" {
		s.info("severity = %s", c.Severity)
	}
	if c.Status != "" {
		s.info("status = %s", c.Status)
	}
	if s.state.Expr != nil {
		s.info("expr = %s", s.state.Expr.Source())
	}
}

func (s *Shell) printHelp() {
	help := `
  available commands:
    summary                  - executive summary view
    req <id>                 - requirement detail view (e.g., req Req 3)
    findings                 - findings list view
    trend                    - trend analysis view
    filter <key> <value>     - narrow findings (keys: severity, status, requirement)
    filter none              - clear the findings filters
    expr <expression>        - expression filter (vars: %s)
    expr none                - clear the expression filter
    clear                    - clear all filters
    export [path]            - write the filtered findings as CSV
    reload                   - re-read the data files
    help                     - show this help
    quit                     - leave the shell
`
	ui.Fprintf(s.out, help, strings.Join(filterexpr.Vars(), ", "))
}

func (s *Shell) prompt() {
	fmt.Fprint(s.out, "  > ")
}

func (s *Shell) info(format string, args ...interface{}) {
	ui.Fprintf(s.out, "  [i] "+format+"\n", args...)
}

func (s *Shell) success(format string, args ...interface{}) {
	ui.Fprintf(s.out, "  [+] "+format+"\n", args...)
}

func (s *Shell) warn(format string, args ...interface{}) {
	ui.Fprintf(s.out, "  [!] "+format+"\n", args...)
}

func (s *Shell) fail(format string, args ...interface{}) {
	ui.Fprintf(s.out, "  [X] "+format+"\n", args...)
}
