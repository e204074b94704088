package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pcidash/pcidash/pkg/compliance"
)

const validRequirements = `
requirements:
  - id: "Req 1"
    name: "Install and Maintain Network Security Controls"
    description: "Network controls restrict traffic to the CDE."
    lab_source: "Security group audit script"
    aws_service: "VPC / Security Groups"
  - id: "Req 3"
    name: "Protect Stored Account Data"
    description: "Stored account data is encrypted at rest."
    lab_source: "S3 encryption scan"
    aws_service: "S3 / KMS"
`

const validStatus = `{
  "snapshot_date": "2026-02-16",
  "summary": {"passing": 1, "failing": 1, "compliance_score": 50.0},
  "controls": [
    {
      "requirement_id": "Req 1",
      "status": "pass",
      "last_checked": "2026-02-16T06:00:00Z",
      "evidence_location": "evidence/sg/audit.json",
      "details": "No open ingress rules.",
      "finding_count": 0
    },
    {
      "requirement_id": "Req 3",
      "status": "fail",
      "last_checked": "2026-02-16T06:10:00Z",
      "evidence_location": "evidence/s3/scan.json",
      "details": "One bucket unencrypted.",
      "finding_count": 1
    }
  ]
}`

const validFindings = `{
  "findings": [
    {
      "id": "F-001",
      "requirement_id": "Req 3",
      "severity": "high",
      "status": "open",
      "title": "Bucket missing default encryption",
      "resource_id": "arn:aws:s3:::cde-archive",
      "description": "No default encryption configured.",
      "remediation": "Enable SSE-KMS default encryption.",
      "evidence": "evidence/s3/scan.json",
      "detected_at": "2026-02-02T14:10:00Z"
    }
  ]
}`

const validTrend = `{
  "trend_data": [
    { "date": "2026-02-14", "compliance_score": 50.0, "passing": 1, "failing": 1 },
    { "date": "2026-02-15", "compliance_score": 50.0, "passing": 1, "failing": 1 },
    { "date": "2026-02-16", "compliance_score": 50.0, "passing": 1, "failing": 1 }
  ],
  "events": [
    { "date": "2026-02-15", "event": "Encryption rollout started" }
  ]
}`

// writeDataSet writes the four files into a temp dir, applying any
// per-file replacements first, and returns the resulting Paths.
func writeDataSet(t *testing.T, replace map[string]string) Paths {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"pci_requirements.yaml":         validRequirements,
		"simulated_control_status.json": validStatus,
		"simulated_findings.json":       validFindings,
		"simulated_trend.json":          validTrend,
	}
	for name, content := range replace {
		files[name] = content
	}
	for name, content := range files {
		if content == "" {
			continue // simulate a missing file
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return DefaultPaths(dir)
}

func TestLoad(t *testing.T) {
	ds, err := Load(writeDataSet(t, nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := len(ds.Catalog.Requirements); got != 2 {
		t.Errorf("Expected 2 requirements, got %d", got)
	}
	if got := ds.Snapshot.SnapshotDate.String(); got != "2026-02-16" {
		t.Errorf("Unexpected snapshot date %q", got)
	}
	if got := len(ds.Snapshot.Controls); got != 2 {
		t.Errorf("Expected 2 controls, got %d", got)
	}
	if got := len(ds.Findings); got != 1 {
		t.Errorf("Expected 1 finding, got %d", got)
	}
	if got := len(ds.History.Points); got != 3 {
		t.Errorf("Expected 3 trend points, got %d", got)
	}
	if ds.Fingerprint == 0 {
		t.Error("Fingerprint should be set")
	}
	if ds.LoadedAt.IsZero() {
		t.Error("LoadedAt should be set")
	}
}

func TestLoadEmbedded(t *testing.T) {
	ds, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded failed: %v", err)
	}
	if got := len(ds.Catalog.Requirements); got != 6 {
		t.Errorf("Expected 6 requirements, got %d", got)
	}
	if got := len(ds.Snapshot.Controls); got != 6 {
		t.Errorf("Expected 6 controls, got %d", got)
	}
	if got := len(ds.Findings); got != 8 {
		t.Errorf("Expected 8 findings, got %d", got)
	}
	if got := len(ds.History.Points); got != 16 {
		t.Errorf("Expected 16 trend points, got %d", got)
	}
	if got := len(ds.History.Events); got != 4 {
		t.Errorf("Expected 4 events, got %d", got)
	}
	if !ds.SummaryConsistent() {
		t.Error("Embedded summary block should match its control rows")
	}
}

func TestLoadFingerprintStable(t *testing.T) {
	paths := writeDataSet(t, nil)
	a, err := Load(paths)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	b, err := Load(paths)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if a.Fingerprint != b.Fingerprint {
		t.Error("Same bytes should produce the same fingerprint")
	}

	changed, err := Load(writeDataSet(t, map[string]string{
		"simulated_findings.json": `{"findings": []}`,
	}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if changed.Fingerprint == a.Fingerprint {
		t.Error("Different bytes should produce a different fingerprint")
	}
}

func TestLoadMissingFile(t *testing.T) {
	paths := writeDataSet(t, map[string]string{"simulated_findings.json": ""})
	ds, err := Load(paths)
	if err == nil {
		t.Fatal("Should error on missing findings file")
	}
	if ds != nil {
		t.Error("No DataSet should be returned on failure")
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Expected *LoadError, got %T", err)
	}
	if le.File != paths.Findings {
		t.Errorf("LoadError names %q, want %q", le.File, paths.Findings)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("Underlying os error should be preserved")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeDataSet(t, map[string]string{
		"pci_requirements.yaml": "requirements: [\n",
	}))
	if err == nil {
		t.Fatal("Should error on malformed YAML")
	}
	if !strings.Contains(err.Error(), "malformed YAML") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	_, err := Load(writeDataSet(t, map[string]string{
		"simulated_control_status.json": "{not json",
	}))
	if err == nil {
		t.Fatal("Should error on malformed JSON")
	}
}

func TestLoadRejectsUnknownJSONField(t *testing.T) {
	_, err := Load(writeDataSet(t, map[string]string{
		"simulated_trend.json": `{
  "trend_data": [{ "date": "2026-02-16", "compliance_score": 50.0, "passing": 1, "failing": 1, "bogus": true }],
  "events": []
}`,
	}))
	if err == nil {
		t.Fatal("Should reject unknown JSON members")
	}
}

func TestLoadEmptyCatalog(t *testing.T) {
	_, err := Load(writeDataSet(t, map[string]string{
		"pci_requirements.yaml": "requirements: []\n",
	}))
	if err == nil {
		t.Fatal("Should error on empty catalog")
	}
}

func TestLoadDuplicateRequirementID(t *testing.T) {
	dup := validRequirements + `  - id: "Req 1"
    name: "Duplicate"
    description: "x"
    lab_source: "x"
    aws_service: "x"
`
	_, err := Load(writeDataSet(t, map[string]string{"pci_requirements.yaml": dup}))
	if err == nil {
		t.Fatal("Should error on duplicate requirement id")
	}
	if !strings.Contains(err.Error(), "duplicate requirement id") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadUnknownRequirementReference(t *testing.T) {
	bad := strings.ReplaceAll(validFindings, `"Req 3"`, `"Req 99"`)
	_, err := Load(writeDataSet(t, map[string]string{"simulated_findings.json": bad}))
	if err == nil {
		t.Fatal("Should error on finding referencing unknown requirement")
	}
	if !strings.Contains(err.Error(), "unknown requirement") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadUnknownControlRequirement(t *testing.T) {
	bad := strings.Replace(validStatus, `"Req 1"`, `"Req 42"`, 1)
	_, err := Load(writeDataSet(t, map[string]string{"simulated_control_status.json": bad}))
	if err == nil {
		t.Fatal("Should error on control row for unknown requirement")
	}
}

func TestLoadDuplicateControlRow(t *testing.T) {
	bad := strings.Replace(validStatus, `"Req 3"`, `"Req 1"`, 1)
	_, err := Load(writeDataSet(t, map[string]string{"simulated_control_status.json": bad}))
	if err == nil {
		t.Fatal("Should error on two control rows for one requirement")
	}
}

func TestLoadDuplicateFindingID(t *testing.T) {
	var doc strings.Builder
	doc.WriteString(`{"findings": [`)
	row := `{
      "id": "F-001", "requirement_id": "Req 1", "severity": "low", "status": "open",
      "title": "t", "resource_id": "r", "description": "d", "remediation": "m",
      "evidence": "e", "detected_at": "2026-02-02T14:10:00Z"
    }`
	doc.WriteString(row + "," + row + "]}")
	_, err := Load(writeDataSet(t, map[string]string{"simulated_findings.json": doc.String()}))
	if err == nil {
		t.Fatal("Should error on duplicate finding id")
	}
}

func TestLoadInvalidEnums(t *testing.T) {
	tests := []struct {
		name string
		file string
		doc  string
	}{
		{"control status", "simulated_control_status.json", strings.Replace(validStatus, `"pass"`, `"green"`, 1)},
		{"finding severity", "simulated_findings.json", strings.Replace(validFindings, `"high"`, `"urgent"`, 1)},
		{"finding status", "simulated_findings.json", strings.Replace(validFindings, `"open"`, `"wontfix"`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeDataSet(t, map[string]string{tt.file: tt.doc}))
			if err == nil {
				t.Fatalf("Should reject invalid %s", tt.name)
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("Expected *LoadError, got %T", err)
			}
		})
	}
}

func TestLoadNormalizesEnums(t *testing.T) {
	status := strings.Replace(validStatus, `"pass"`, `"PASS"`, 1)
	findings := strings.Replace(validFindings, `"high"`, `"High"`, 1)
	ds, err := Load(writeDataSet(t, map[string]string{
		"simulated_control_status.json": status,
		"simulated_findings.json":       findings,
	}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ds.Snapshot.Controls[0].Status != compliance.StatusPass {
		t.Errorf("Status not normalized: %q", ds.Snapshot.Controls[0].Status)
	}
	if ds.Findings[0].Severity != compliance.SeverityHigh {
		t.Errorf("Severity not normalized: %q", ds.Findings[0].Severity)
	}
}

func TestLoadTrendScoreOutOfRange(t *testing.T) {
	bad := strings.Replace(validTrend, "50.0", "107.5", 1)
	_, err := Load(writeDataSet(t, map[string]string{"simulated_trend.json": bad}))
	if err == nil {
		t.Fatal("Should reject out-of-range compliance_score")
	}
}

func TestLoadEmptyControls(t *testing.T) {
	ds, err := Load(writeDataSet(t, map[string]string{
		"simulated_control_status.json": `{"snapshot_date": "2026-02-16", "summary": {"passing": 0, "failing": 0, "compliance_score": 0}, "controls": []}`,
	}))
	if err != nil {
		t.Fatalf("Zero control rows should load: %v", err)
	}
	if len(ds.Snapshot.Controls) != 0 {
		t.Error("Expected no controls")
	}
}

func TestSummaryConsistent(t *testing.T) {
	ds, err := Load(writeDataSet(t, nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ds.SummaryConsistent() {
		t.Error("Fixture summary matches its rows")
	}

	skewed := strings.Replace(validStatus, `"passing": 1`, `"passing": 2`, 1)
	ds, err = Load(writeDataSet(t, map[string]string{"simulated_control_status.json": skewed}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ds.SummaryConsistent() {
		t.Error("Skewed summary should be flagged")
	}
}

func TestFindingsFor(t *testing.T) {
	ds, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded failed: %v", err)
	}
	got := ds.FindingsFor("Req 3")
	if len(got) != 2 {
		t.Fatalf("Expected 2 findings for Req 3, got %d", len(got))
	}
	for _, f := range got {
		if f.RequirementID != "Req 3" {
			t.Errorf("Wrong requirement on %s: %q", f.ID, f.RequirementID)
		}
	}
	if got := ds.FindingsFor("Req 2"); len(got) != 0 {
		t.Errorf("Expected no findings for Req 2, got %d", len(got))
	}
}

func TestLoadErrorFormat(t *testing.T) {
	le := &LoadError{File: "x.json", Problem: "missing id"}
	if got := le.Error(); got != "load x.json: missing id" {
		t.Errorf("Unexpected message %q", got)
	}
	wrapped := &LoadError{File: "y.yaml", Problem: "cannot read file", Err: os.ErrNotExist}
	if !errors.Is(wrapped, os.ErrNotExist) {
		t.Error("Unwrap should expose the cause")
	}
}
