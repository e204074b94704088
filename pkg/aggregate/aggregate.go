// Package aggregate computes the dashboard's read-side numbers from a
// loaded data set: the overall compliance score, per-requirement rollups,
// finding filters, severity breakdowns, and chronological trend sequences.
//
// Every function is pure. Inputs are never mutated, so callers can hold
// results across renders without copying.
package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/pcidash/pcidash/pkg/compliance"
)

// Score is the overall compliance position computed from the snapshot's
// control rows. Unknown controls are tracked but excluded from the
// percentage denominator.
type Score struct {
	// Passing is the number of controls evaluating pass.
	Passing int

	// Failing is the number of controls evaluating fail.
	Failing int

	// Unknown is the number of controls not evaluated in this snapshot.
	Unknown int

	// Percentage is passing / (passing + failing) * 100, rounded to one
	// decimal place. Zero when no controls are graded.
	Percentage float64
}

// Graded returns the number of controls contributing to the percentage.
func (s Score) Graded() int {
	return s.Passing + s.Failing
}

// OverallScore computes the Score from the snapshot's control rows. The
// advisory summary block inside the snapshot file is ignored; the rows are
// the truth.
func OverallScore(snap compliance.Snapshot) Score {
	var sc Score
	for _, ctl := range snap.Controls {
		switch ctl.Status {
		case compliance.StatusPass:
			sc.Passing++
		case compliance.StatusFail:
			sc.Failing++
		default:
			sc.Unknown++
		}
	}
	sc.Percentage = Percentage(sc.Passing, sc.Failing)
	return sc
}

// Percentage converts pass/fail counts to a one-decimal percentage.
// A zero denominator yields 0 rather than NaN.
func Percentage(passing, failing int) float64 {
	total := passing + failing
	if total == 0 {
		return 0
	}
	return roundOne(float64(passing) / float64(total) * 100)
}

func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}

// RequirementRollup is one row of the per-requirement breakdown.
type RequirementRollup struct {
	// Requirement is the catalog entry the row describes.
	Requirement compliance.Requirement

	// Status is the control state for the requirement. StatusUnknown when
	// the snapshot carries no row for it.
	Status compliance.Status

	// FindingCount counts every finding referencing the requirement.
	FindingCount int

	// OpenFindings counts only the unresolved ones.
	OpenFindings int

	// HighestSeverity is the most severe referenced finding's severity,
	// empty when the requirement has no findings.
	HighestSeverity compliance.Severity
}

// PerRequirementBreakdown produces one rollup per catalog entry, in catalog
// order. Every catalog entry appears exactly once whether or not the
// snapshot or the findings list references it.
func PerRequirementBreakdown(catalog compliance.Catalog, snap compliance.Snapshot, findings []compliance.Finding) []RequirementRollup {
	byReq := make(map[string][]compliance.Finding, len(catalog.Requirements))
	for _, f := range findings {
		byReq[f.RequirementID] = append(byReq[f.RequirementID], f)
	}

	rollups := make([]RequirementRollup, 0, len(catalog.Requirements))
	for _, req := range catalog.Requirements {
		r := RequirementRollup{
			Requirement: req,
			Status:      compliance.StatusUnknown,
		}
		if ctl, ok := snap.ControlFor(req.ID); ok {
			r.Status = ctl.Status
		}
		for _, f := range byReq[req.ID] {
			r.FindingCount++
			if f.Status == compliance.FindingOpen {
				r.OpenFindings++
			}
			if f.Severity.Rank() > r.HighestSeverity.Rank() {
				r.HighestSeverity = f.Severity
			}
		}
		rollups = append(rollups, r)
	}
	return rollups
}

// Criteria selects findings. Zero-valued fields impose no constraint, so
// the zero Criteria selects everything. Matching is case-insensitive.
type Criteria struct {
	// RequirementID restricts to findings referencing this requirement.
	RequirementID string

	// Severity restricts to findings carrying this severity.
	Severity string

	// Status restricts to findings in this resolution state.
	Status string
}

// IsZero reports whether the criteria impose no constraint.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// Matches reports whether f satisfies every set field.
func (c Criteria) Matches(f compliance.Finding) bool {
	if c.RequirementID != "" && !strings.EqualFold(c.RequirementID, f.RequirementID) {
		return false
	}
	if c.Severity != "" && !strings.EqualFold(c.Severity, string(f.Severity)) {
		return false
	}
	if c.Status != "" && !strings.EqualFold(c.Status, string(f.Status)) {
		return false
	}
	return true
}

// FilterFindings returns the findings satisfying c, preserving input order.
// The input slice is never modified.
func FilterFindings(findings []compliance.Finding, c Criteria) []compliance.Finding {
	if c.IsZero() {
		out := make([]compliance.Finding, len(findings))
		copy(out, findings)
		return out
	}
	out := make([]compliance.Finding, 0, len(findings))
	for _, f := range findings {
		if c.Matches(f) {
			out = append(out, f)
		}
	}
	return out
}

// OpenFindings returns only the unresolved findings, preserving order.
func OpenFindings(findings []compliance.Finding) []compliance.Finding {
	return FilterFindings(findings, Criteria{Status: string(compliance.FindingOpen)})
}

// SeverityCount pairs a severity with the number of findings carrying it.
type SeverityCount struct {
	Severity compliance.Severity
	Count    int
}

// SeverityBreakdown counts findings per severity, most severe first.
// Severities with no findings are included with a zero count so renderers
// get a fixed-shape result.
func SeverityBreakdown(findings []compliance.Finding) []SeverityCount {
	counts := make([]SeverityCount, len(compliance.Severities))
	for i, sev := range compliance.Severities {
		counts[i].Severity = sev
	}
	for _, f := range findings {
		for i := range counts {
			if counts[i].Severity == f.Severity {
				counts[i].Count++
				break
			}
		}
	}
	return counts
}

// SortTrend returns the trend points sorted by date ascending. The input
// slice is left untouched; points sharing a date keep their file order.
func SortTrend(points []compliance.TrendPoint) []compliance.TrendPoint {
	out := make([]compliance.TrendPoint, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// TrendWindow returns the last n points of the chronologically sorted
// sequence. n <= 0 or n beyond the available range returns everything.
func TrendWindow(points []compliance.TrendPoint, n int) []compliance.TrendPoint {
	sorted := SortTrend(points)
	if n <= 0 || n >= len(sorted) {
		return sorted
	}
	return sorted[len(sorted)-n:]
}

// TrendDelta describes the change between the two most recent trend points.
type TrendDelta struct {
	// ScoreChange is the score difference, rounded to one decimal place.
	ScoreChange float64

	// PassingChange is the change in passing requirement count.
	PassingChange int

	// FailingChange is the change in failing requirement count.
	FailingChange int

	// Improved is true when the score rose without new failures.
	Improved bool
}

// LatestDelta compares the last two chronological points. ok is false when
// fewer than two points exist.
func LatestDelta(points []compliance.TrendPoint) (TrendDelta, bool) {
	sorted := SortTrend(points)
	if len(sorted) < 2 {
		return TrendDelta{}, false
	}
	prev, last := sorted[len(sorted)-2], sorted[len(sorted)-1]
	d := TrendDelta{
		ScoreChange:   roundOne(last.ComplianceScore - prev.ComplianceScore),
		PassingChange: last.Passing - prev.Passing,
		FailingChange: last.Failing - prev.Failing,
	}
	d.Improved = d.ScoreChange > 0 && d.FailingChange <= 0
	return d, true
}
