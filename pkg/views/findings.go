package views

import (
	"fmt"
	"strings"

	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/filterexpr"
	"github.com/pcidash/pcidash/pkg/ui"
)

// FindingsList renders the filterable findings table. criteria narrows by
// requirement, severity, and status; expr, when non-nil, applies an
// additional compiled expression on top. An empty criteria and nil expr
// list everything.
func (r *Renderer) FindingsList(criteria aggregate.Criteria, expr *filterexpr.Expr) {
	r.header("Findings")

	total := len(r.ds.Findings)
	matched := aggregate.FilterFindings(r.ds.Findings, criteria)
	if expr != nil {
		matched = filterexpr.Filter(matched, expr)
	}

	if desc := describeFilter(criteria, expr); desc != "" {
		r.printf("  %s\n\n", ui.HelpStyle.Render("filter: "+desc))
	}

	if len(matched) == 0 {
		r.printf("  No findings match the selected filters.\n\n")
		r.printf("  %s\n", ui.HelpStyle.Render(fmt.Sprintf("Showing 0 of %d findings", total)))
		return
	}

	// Fixed-width columns; the title absorbs whatever width remains and
	// long resource ids (ARNs) truncate rather than blowing out the row.
	idWidth := len("ID")
	reqWidth := len("Requirement")
	resWidth := len("Resource")
	for _, f := range matched {
		if len(f.ID) > idWidth {
			idWidth = len(f.ID)
		}
		if len(f.RequirementID) > reqWidth {
			reqWidth = len(f.RequirementID)
		}
		if len(f.ResourceID) > resWidth {
			resWidth = len(f.ResourceID)
		}
	}
	if resWidth > 30 {
		resWidth = 30
	}
	titleWidth := r.width - idWidth - reqWidth - resWidth - 42
	if titleWidth < 20 {
		titleWidth = 20
	}

	r.printf("  %s\n", ui.SectionStyle.Render(fmt.Sprintf("%-*s  %-8s  %-10s  %-*s  %-*s  %-*s  %s",
		idWidth, "ID", "Severity", "Status", reqWidth, "Requirement", titleWidth, "Title", resWidth, "Resource", "Detected")))
	r.printf("  %s\n", ui.DividerStyle.Render(strings.Repeat(ui.Icon("─", "-"), r.width-4)))

	for _, f := range matched {
		sevStyle := ui.SeverityStyle(string(f.Severity))
		statusStyle := ui.FindingStatusStyle(string(f.Status))
		r.printf("  %-*s  %s  %s  %-*s  %-*s  %-*s  %s\n",
			idWidth, f.ID,
			sevStyle.Render(fmt.Sprintf("%-8s", f.Severity)),
			statusStyle.Render(fmt.Sprintf("%-10s", f.Status)),
			reqWidth, f.RequirementID,
			titleWidth, truncate(f.Title, titleWidth),
			resWidth, truncate(f.ResourceID, resWidth),
			f.DetectedAt.Format("2006-01-02"))
	}

	r.printf("\n  %s\n", ui.HelpStyle.Render(fmt.Sprintf("Showing %d of %d findings", len(matched), total)))
}

// describeFilter summarizes the active filters for the view header.
func describeFilter(c aggregate.Criteria, expr *filterexpr.Expr) string {
	var parts []string
	if c.RequirementID != "" {
		parts = append(parts, "requirement="+c.RequirementID)
	}
	if c.Severity != "" {
		parts = append(parts, "severity="+strings.ToLower(c.Severity))
	}
	if c.Status != "" {
		parts = append(parts, "status="+strings.ToLower(c.Status))
	}
	if expr != nil {
		parts = append(parts, "expr="+expr.Source())
	}
	return strings.Join(parts, " ")
}
