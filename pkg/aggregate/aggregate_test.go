package aggregate

import (
	"testing"

	"github.com/pcidash/pcidash/pkg/compliance"
)

func mustDate(t *testing.T, s string) compliance.Date {
	t.Helper()
	d, err := compliance.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) failed: %v", s, err)
	}
	return d
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		passing, failing int
		want             float64
	}{
		{2, 4, 33.3},
		{3, 3, 50.0},
		{4, 2, 66.7},
		{6, 0, 100.0},
		{0, 6, 0.0},
		{0, 0, 0.0},
		{1, 2, 33.3},
	}
	for _, tt := range tests {
		if got := Percentage(tt.passing, tt.failing); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %.1f, want %.1f", tt.passing, tt.failing, got, tt.want)
		}
	}
}

func TestOverallScore(t *testing.T) {
	snap := compliance.Snapshot{
		Controls: []compliance.ControlStatus{
			{RequirementID: "Req 1", Status: compliance.StatusPass},
			{RequirementID: "Req 2", Status: compliance.StatusFail},
			{RequirementID: "Req 3", Status: compliance.StatusPass},
			{RequirementID: "Req 7", Status: compliance.StatusUnknown},
		},
	}
	sc := OverallScore(snap)
	if sc.Passing != 2 || sc.Failing != 1 || sc.Unknown != 1 {
		t.Errorf("Unexpected counts: %+v", sc)
	}
	if sc.Graded() != 3 {
		t.Errorf("Graded() = %d, want 3", sc.Graded())
	}
	// Unknown rows must not dilute the percentage.
	if sc.Percentage != 66.7 {
		t.Errorf("Percentage = %.1f, want 66.7", sc.Percentage)
	}
}

func TestOverallScoreEmptySnapshot(t *testing.T) {
	sc := OverallScore(compliance.Snapshot{})
	if sc.Percentage != 0 {
		t.Errorf("Empty snapshot should score 0, got %.1f", sc.Percentage)
	}
}

func testCatalog() compliance.Catalog {
	return compliance.Catalog{Requirements: []compliance.Requirement{
		{ID: "Req 1", Name: "Network Security Controls"},
		{ID: "Req 3", Name: "Protect Stored Account Data"},
		{ID: "Req 10", Name: "Log and Monitor All Access"},
	}}
}

func testFindings() []compliance.Finding {
	return []compliance.Finding{
		{ID: "F-001", RequirementID: "Req 3", Severity: compliance.SeverityCritical, Status: compliance.FindingRemediated},
		{ID: "F-002", RequirementID: "Req 3", Severity: compliance.SeverityHigh, Status: compliance.FindingOpen},
		{ID: "F-003", RequirementID: "Req 10", Severity: compliance.SeverityMedium, Status: compliance.FindingOpen},
	}
}

func TestPerRequirementBreakdown(t *testing.T) {
	snap := compliance.Snapshot{Controls: []compliance.ControlStatus{
		{RequirementID: "Req 1", Status: compliance.StatusPass},
		{RequirementID: "Req 3", Status: compliance.StatusFail},
		// No row for Req 10.
	}}

	rollups := PerRequirementBreakdown(testCatalog(), snap, testFindings())
	if len(rollups) != 3 {
		t.Fatalf("Expected one rollup per catalog entry, got %d", len(rollups))
	}

	// Catalog order is preserved.
	for i, wantID := range []string{"Req 1", "Req 3", "Req 10"} {
		if rollups[i].Requirement.ID != wantID {
			t.Errorf("rollup %d is %q, want %q", i, rollups[i].Requirement.ID, wantID)
		}
	}

	r1 := rollups[0]
	if r1.Status != compliance.StatusPass || r1.FindingCount != 0 || r1.HighestSeverity != "" {
		t.Errorf("Req 1 rollup wrong: %+v", r1)
	}

	r3 := rollups[1]
	if r3.Status != compliance.StatusFail {
		t.Errorf("Req 3 status = %q", r3.Status)
	}
	if r3.FindingCount != 2 || r3.OpenFindings != 1 {
		t.Errorf("Req 3 counts wrong: %+v", r3)
	}
	if r3.HighestSeverity != compliance.SeverityCritical {
		t.Errorf("Req 3 highest severity = %q, want critical", r3.HighestSeverity)
	}

	r10 := rollups[2]
	if r10.Status != compliance.StatusUnknown {
		t.Errorf("Requirement without control row should be unknown, got %q", r10.Status)
	}
	if r10.FindingCount != 1 || r10.OpenFindings != 1 {
		t.Errorf("Req 10 counts wrong: %+v", r10)
	}
}

func TestFilterFindingsIdentity(t *testing.T) {
	findings := testFindings()
	got := FilterFindings(findings, Criteria{})
	if len(got) != len(findings) {
		t.Fatalf("Zero criteria should return everything, got %d of %d", len(got), len(findings))
	}
	for i := range got {
		if got[i].ID != findings[i].ID {
			t.Errorf("Order not preserved at %d: %q", i, got[i].ID)
		}
	}
}

func TestFilterFindingsSingleField(t *testing.T) {
	findings := testFindings()
	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"by requirement", Criteria{RequirementID: "Req 3"}, []string{"F-001", "F-002"}},
		{"by severity", Criteria{Severity: "high"}, []string{"F-002"}},
		{"by status", Criteria{Status: "open"}, []string{"F-002", "F-003"}},
		{"case insensitive", Criteria{Severity: "HIGH", Status: "Open"}, []string{"F-002"}},
		{"no match", Criteria{Severity: "low"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterFindings(findings, tt.c)
			if len(got) != len(tt.want) {
				t.Fatalf("Got %d findings, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("Result %d = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestFilterFindingsConjunction(t *testing.T) {
	findings := testFindings()
	got := FilterFindings(findings, Criteria{RequirementID: "Req 3", Status: "open"})
	if len(got) != 1 || got[0].ID != "F-002" {
		t.Fatalf("Conjunction should select F-002 only, got %v", got)
	}

	// Applying the fields one at a time, in either order, agrees with the
	// combined criteria.
	a := FilterFindings(FilterFindings(findings, Criteria{RequirementID: "Req 3"}), Criteria{Status: "open"})
	b := FilterFindings(FilterFindings(findings, Criteria{Status: "open"}), Criteria{RequirementID: "Req 3"})
	if len(a) != 1 || len(b) != 1 || a[0].ID != b[0].ID || a[0].ID != got[0].ID {
		t.Error("Sequential filtering should commute and agree with the conjunction")
	}
}

func TestFilterFindingsDoesNotMutate(t *testing.T) {
	findings := testFindings()
	FilterFindings(findings, Criteria{Severity: "high"})
	if findings[0].ID != "F-001" || findings[2].ID != "F-003" {
		t.Error("Input slice was reordered")
	}

	got := FilterFindings(findings, Criteria{})
	got[0].ID = "mutated"
	if findings[0].ID != "F-001" {
		t.Error("Identity filter should return a copy")
	}
}

func TestOpenFindings(t *testing.T) {
	got := OpenFindings(testFindings())
	if len(got) != 2 {
		t.Fatalf("Expected 2 open findings, got %d", len(got))
	}
	for _, f := range got {
		if f.Status != compliance.FindingOpen {
			t.Errorf("%s is not open", f.ID)
		}
	}
}

func TestSeverityBreakdown(t *testing.T) {
	counts := SeverityBreakdown(testFindings())
	if len(counts) != len(compliance.Severities) {
		t.Fatalf("Expected %d buckets, got %d", len(compliance.Severities), len(counts))
	}
	want := map[compliance.Severity]int{
		compliance.SeverityCritical: 1,
		compliance.SeverityHigh:     1,
		compliance.SeverityMedium:   1,
		compliance.SeverityLow:      0,
	}
	for i, sc := range counts {
		if sc.Severity != compliance.Severities[i] {
			t.Errorf("Bucket %d is %q, want %q", i, sc.Severity, compliance.Severities[i])
		}
		if sc.Count != want[sc.Severity] {
			t.Errorf("%s count = %d, want %d", sc.Severity, sc.Count, want[sc.Severity])
		}
	}
}

func TestSortTrend(t *testing.T) {
	points := []compliance.TrendPoint{
		{Date: mustDate(t, "2026-02-08"), ComplianceScore: 66.7},
		{Date: mustDate(t, "2026-02-01"), ComplianceScore: 33.3},
		{Date: mustDate(t, "2026-02-04"), ComplianceScore: 50.0},
	}
	sorted := SortTrend(points)
	for i, want := range []string{"2026-02-01", "2026-02-04", "2026-02-08"} {
		if sorted[i].Date.String() != want {
			t.Errorf("sorted[%d] = %s, want %s", i, sorted[i].Date, want)
		}
	}
	// Input order untouched.
	if points[0].Date.String() != "2026-02-08" {
		t.Error("SortTrend mutated its input")
	}
}

func TestTrendWindow(t *testing.T) {
	points := []compliance.TrendPoint{
		{Date: mustDate(t, "2026-02-03")},
		{Date: mustDate(t, "2026-02-01")},
		{Date: mustDate(t, "2026-02-02")},
		{Date: mustDate(t, "2026-02-04")},
	}
	got := TrendWindow(points, 2)
	if len(got) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(got))
	}
	if got[0].Date.String() != "2026-02-03" || got[1].Date.String() != "2026-02-04" {
		t.Errorf("Window should hold the latest points, got %s, %s", got[0].Date, got[1].Date)
	}

	if got := TrendWindow(points, 0); len(got) != 4 {
		t.Errorf("n <= 0 should return everything, got %d", len(got))
	}
	if got := TrendWindow(points, 99); len(got) != 4 {
		t.Errorf("Oversized window should return everything, got %d", len(got))
	}
}

func TestLatestDelta(t *testing.T) {
	points := []compliance.TrendPoint{
		{Date: mustDate(t, "2026-02-08"), ComplianceScore: 66.7, Passing: 4, Failing: 2},
		{Date: mustDate(t, "2026-02-04"), ComplianceScore: 50.0, Passing: 3, Failing: 3},
	}
	d, ok := LatestDelta(points)
	if !ok {
		t.Fatal("Expected a delta from two points")
	}
	if d.ScoreChange != 16.7 {
		t.Errorf("ScoreChange = %.1f, want 16.7", d.ScoreChange)
	}
	if d.PassingChange != 1 || d.FailingChange != -1 {
		t.Errorf("Count changes wrong: %+v", d)
	}
	if !d.Improved {
		t.Error("Rising score with fewer failures is an improvement")
	}

	if _, ok := LatestDelta(points[:1]); ok {
		t.Error("One point cannot produce a delta")
	}
}

func TestLatestDeltaRegression(t *testing.T) {
	points := []compliance.TrendPoint{
		{Date: mustDate(t, "2026-02-10"), ComplianceScore: 66.7, Passing: 4, Failing: 2},
		{Date: mustDate(t, "2026-02-11"), ComplianceScore: 50.0, Passing: 3, Failing: 3},
	}
	d, ok := LatestDelta(points)
	if !ok {
		t.Fatal("Expected a delta")
	}
	if d.ScoreChange != -16.7 {
		t.Errorf("ScoreChange = %.1f, want -16.7", d.ScoreChange)
	}
	if d.Improved {
		t.Error("Falling score is not an improvement")
	}
}
