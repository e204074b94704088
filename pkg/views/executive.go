package views

import (
	"fmt"
	"strconv"

	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/ui"
)

// ExecutiveSummary renders the posture at a glance: the overall score
// meter, a status row per catalog requirement, open findings by severity,
// and the recent trend direction.
func (r *Renderer) ExecutiveSummary() {
	score := aggregate.OverallScore(r.ds.Snapshot)
	scoreStyle := ui.ScoreStyle(score.Percentage, defaults.ScoreHealthy, defaults.ScoreWarning)

	r.header("Executive Summary")

	r.section("Overall Compliance")
	meter := ui.NewMeter(r.width - 16)
	r.printf("  [%s] %s\n", meter.RenderWith(score.Percentage, scoreStyle),
		scoreStyle.Render(fmt.Sprintf("%5.1f%%", score.Percentage)))
	r.printf("  %s %s   %s %s   %s %s\n\n",
		ui.StatLabelStyle.Render("Passing:"), ui.PassStyle.Render(strconv.Itoa(score.Passing)),
		ui.StatLabelStyle.Render("Failing:"), ui.FailStyle.Render(strconv.Itoa(score.Failing)),
		ui.StatLabelStyle.Render("Unknown:"), ui.UnknownStyle.Render(strconv.Itoa(score.Unknown)))

	r.section("Requirements")
	rollups := aggregate.PerRequirementBreakdown(r.ds.Catalog, r.ds.Snapshot, r.ds.Findings)
	idWidth := 0
	for _, ru := range rollups {
		if len(ru.Requirement.ID) > idWidth {
			idWidth = len(ru.Requirement.ID)
		}
	}
	nameWidth := r.width - idWidth - 32
	for _, ru := range rollups {
		glyph, style := statusGlyph(ru.Status)
		label := fmt.Sprintf("Findings: %d", ru.FindingCount)
		if ru.OpenFindings > 0 {
			label = fmt.Sprintf("Findings: %d (%d open)", ru.FindingCount, ru.OpenFindings)
		}
		r.printf("  %s %s  %-*s  %s\n",
			style.Render(glyph),
			style.Render(fmt.Sprintf("%-*s", idWidth, ru.Requirement.ID)),
			nameWidth, truncate(ru.Requirement.Name, nameWidth),
			ui.HelpStyle.Render(label))
	}
	r.printf("\n")

	r.section("Open Findings by Severity")
	open := aggregate.OpenFindings(r.ds.Findings)
	if len(open) == 0 {
		r.printf("  No open findings.\n\n")
	} else {
		counts := aggregate.SeverityBreakdown(open)
		maxCount := 0
		for _, c := range counts {
			if c.Count > maxCount {
				maxCount = c.Count
			}
		}
		for _, c := range counts {
			bar := ui.CountBar(c.Count, maxCount, 20, ui.SeverityStyle(string(c.Severity)))
			r.printf("  %-8s %2d  %s\n", severityLabel(c.Severity), c.Count, bar)
		}
		r.printf("\n")
	}

	r.section(fmt.Sprintf("Trend (last %d days)", r.quickDays))
	points := aggregate.TrendWindow(r.ds.History.Points, r.quickDays)
	switch {
	case len(points) == 0:
		r.printf("  No trend history.\n")
	case len(points) == 1:
		r.printf("  %s  %s\n", points[0].Date, scorePct(points[0].ComplianceScore))
	default:
		first, last := points[0], points[len(points)-1]
		r.printf("  %s  %s  %s  %s  %s", first.Date, scorePct(first.ComplianceScore),
			ui.Icon("→", "->"), last.Date, scorePct(last.ComplianceScore))
		if delta, ok := aggregate.LatestDelta(points); ok {
			r.printf("   %s", deltaTag(delta))
		}
		r.printf("\n")
	}
}

// scorePct formats a trend score for inline display.
func scorePct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
