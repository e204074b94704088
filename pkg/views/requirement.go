package views

import (
	"fmt"
	"time"

	"github.com/pcidash/pcidash/pkg/compliance"
	"github.com/pcidash/pcidash/pkg/ui"
)

// RequirementDetail renders one requirement: its catalog entry, control
// state, and every finding referencing it. Unknown ids return an error
// wrapping compliance.ErrNotFound so callers can list what is available.
func (r *Renderer) RequirementDetail(id string) error {
	req, err := r.ds.Catalog.ByID(id)
	if err != nil {
		return fmt.Errorf("views: requirement %q: %w", id, err)
	}

	r.header("Requirement Detail")

	r.printf("  %s %s\n\n", ui.RequirementStyle.Render(req.ID), ui.TitleStyle.Render(req.Name))

	ctl, tracked := r.ds.Snapshot.ControlFor(req.ID)
	status := compliance.StatusUnknown
	if tracked {
		status = ctl.Status
	}
	glyph, style := statusGlyph(status)
	r.detail("Status", style.Render(glyph+" "+statusLabel(status)))
	r.detail("Description", req.Description)
	r.detail("Lab Source", req.LabSource)
	r.detail("AWS Service", req.AWSService)
	if tracked {
		r.detail("Last Checked", ctl.LastChecked.Format(time.RFC3339))
		r.detail("Evidence", ctl.EvidenceLocation)
		r.detail("Details", ctl.Details)
	} else {
		r.printf("  %s\n", ui.UnknownStyle.Render("No control status recorded for this requirement."))
	}
	r.printf("\n")

	findings := r.ds.FindingsFor(req.ID)
	r.section(fmt.Sprintf("Findings (%d)", len(findings)))
	if len(findings) == 0 {
		r.printf("  No findings for this requirement.\n")
		return nil
	}
	for _, f := range findings {
		sevStyle := ui.SeverityStyle(string(f.Severity))
		statusStyle := ui.FindingStatusStyle(string(f.Status))
		r.printf("  %s %s  %s  %s\n",
			sevStyle.Render(fmt.Sprintf("[%s]", f.Severity)),
			f.ID,
			statusStyle.Render(string(f.Status)),
			f.Title)
		r.printf("       %-12s %s\n", "Resource:", f.ResourceID)
		r.printf("       %-12s %s\n", "Detected:", f.DetectedAt.Format("2006-01-02"))
		if f.Evidence != "" {
			r.printf("       %-12s %s\n", "Evidence:", ui.URLStyle.Render(f.Evidence))
		}
		if f.Remediation != "" {
			r.printf("       %-12s %s\n", "Remediation:", f.Remediation)
		}
	}
	return nil
}

// detail writes one aligned "Label : value" row, skipping empty values.
func (r *Renderer) detail(label, value string) {
	if value == "" {
		return
	}
	r.printf("  %s : %s\n", ui.ConfigLabelStyle.Render(label), value)
}
