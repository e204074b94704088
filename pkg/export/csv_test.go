package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/pcidash/pcidash/pkg/compliance"
)

// makeExportFinding creates a finding for writer tests.
func makeExportFinding(id, req string, severity compliance.Severity, status compliance.FindingStatus) compliance.Finding {
	return compliance.Finding{
		ID:            id,
		RequirementID: req,
		Severity:      severity,
		Status:        status,
		Title:         id + " title",
		ResourceID:    "arn:aws:iam::123456789012:policy/" + id,
		Description:   "Description for " + id,
		Remediation:   "Remediate " + id,
		Evidence:      "evidence/" + id + ".json",
		DetectedAt:    time.Date(2026, 2, 5, 14, 30, 0, 0, time.UTC),
	}
}

func TestFindingsWriterColumnOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewFindingsWriter(buf, Options{IncludeHeader: true})

	f := makeExportFinding("F-004", "Req 7", compliance.SeverityCritical, compliance.FindingOpen)
	if err := w.Write(f); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("reading output back failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected header + 1 row, got %d records", len(records))
	}

	wantHeader := []string{"identifier", "requirement", "severity", "status", "description", "evidence", "timestamp"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, expected %q", i, records[0][i], col)
		}
	}

	row := records[1]
	if row[0] != "F-004" {
		t.Errorf("identifier = %q, expected F-004", row[0])
	}
	if row[1] != "Req 7" {
		t.Errorf("requirement = %q, expected Req 7", row[1])
	}
	if row[2] != "critical" {
		t.Errorf("severity = %q, expected critical", row[2])
	}
	if row[3] != "open" {
		t.Errorf("status = %q, expected open", row[3])
	}
	if row[4] != "Description for F-004" {
		t.Errorf("description = %q, expected finding description", row[4])
	}
	if row[5] != "evidence/F-004.json" {
		t.Errorf("evidence = %q, expected evidence path", row[5])
	}
	if row[6] != "2026-02-05T14:30:00Z" {
		t.Errorf("timestamp = %q, expected RFC3339 detection time", row[6])
	}
}

func TestFindingsWriterNoHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewFindingsWriter(buf, Options{})

	w.Write(makeExportFinding("F-001", "Req 3", compliance.SeverityHigh, compliance.FindingRemediated))
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "identifier") {
		t.Error("expected no header row")
	}
	if !strings.Contains(output, "F-001") {
		t.Error("expected finding row in output")
	}
}

func TestFindingsWriterWriteAll(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewFindingsWriter(buf, Options{IncludeHeader: true})

	findings := []compliance.Finding{
		makeExportFinding("F-001", "Req 3", compliance.SeverityCritical, compliance.FindingRemediated),
		makeExportFinding("F-004", "Req 7", compliance.SeverityCritical, compliance.FindingOpen),
		makeExportFinding("F-005", "Req 7", compliance.SeverityMedium, compliance.FindingOpen),
	}
	if err := w.WriteAll(findings); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	if w.Rows() != 3 {
		t.Errorf("Rows() = %d, expected 3", w.Rows())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("reading output back failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected header + 3 rows, got %d records", len(records))
	}
	// Rows preserve input order
	if records[1][0] != "F-001" || records[2][0] != "F-004" || records[3][0] != "F-005" {
		t.Errorf("rows out of order: %v %v %v", records[1][0], records[2][0], records[3][0])
	}
}

func TestFindingsWriterExcelBOM(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewFindingsWriter(buf, Options{IncludeHeader: true, ExcelCompatible: true})
	w.Close()

	if !bytes.HasPrefix(buf.Bytes(), []byte(utf8BOM)) {
		t.Error("expected UTF-8 BOM at start of output")
	}

	// Without the option no BOM is written
	plain := &bytes.Buffer{}
	NewFindingsWriter(plain, Options{IncludeHeader: true}).Close()
	if bytes.HasPrefix(plain.Bytes(), []byte(utf8BOM)) {
		t.Error("expected no BOM without ExcelCompatible")
	}
}

func TestFindingsWriterCustomDelimiter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewFindingsWriter(buf, Options{IncludeHeader: true, Delimiter: ';'})

	w.Write(makeExportFinding("F-002", "Req 3", compliance.SeverityHigh, compliance.FindingRemediated))
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !strings.Contains(buf.String(), "identifier;requirement;severity") {
		t.Error("expected semicolon-delimited header")
	}

	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	reader.Comma = ';'
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("reading output back failed: %v", err)
	}
	if len(records) != 2 || records[1][0] != "F-002" {
		t.Errorf("unexpected records: %v", records)
	}
}

func TestFindingsWriterSanitizesFormulas(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"=SUM(A1:A10)", "'=SUM(A1:A10)"},
		{"+1234", "'+1234"},
		{"-cmd", "'-cmd"},
		{"@import", "'@import"},
		{"\tleading tab", "'\tleading tab"},
		{"normal text", "normal text"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := sanitizeField(tc.input); got != tc.expected {
			t.Errorf("sanitizeField(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}

	buf := &bytes.Buffer{}
	w := NewFindingsWriter(buf, Options{SanitizeFormulas: true})
	f := makeExportFinding("F-009", "Req 1", compliance.SeverityLow, compliance.FindingOpen)
	f.Description = "=HYPERLINK(\"http://evil\")"
	w.Write(f)
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("reading output back failed: %v", err)
	}
	if !strings.HasPrefix(records[0][4], "'=") {
		t.Errorf("description = %q, expected formula prefix quote", records[0][4])
	}
}

func TestFindingsWriterTruncates(t *testing.T) {
	if got := truncateField("short", 40); got != "short" {
		t.Errorf("truncateField(short) = %q, expected unchanged", got)
	}
	long := strings.Repeat("x", 50)
	got := truncateField(long, 10)
	if got != strings.Repeat("x", 7)+"..." {
		t.Errorf("truncateField(long, 10) = %q", got)
	}
	if got := truncateField(long, 0); got != long {
		t.Errorf("truncateField with 0 limit should not truncate")
	}

	buf := &bytes.Buffer{}
	w := NewFindingsWriter(buf, Options{TruncateAt: 12})
	f := makeExportFinding("F-010", "Req 1", compliance.SeverityLow, compliance.FindingOpen)
	f.Description = "this description is far longer than twelve characters"
	w.Write(f)
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("reading output back failed: %v", err)
	}
	if len(records[0][4]) > 12 {
		t.Errorf("description not truncated: %q", records[0][4])
	}
	if !strings.HasSuffix(records[0][4], "...") {
		t.Errorf("expected ellipsis suffix, got %q", records[0][4])
	}
}

func TestFindingsWriterTimestampFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewFindingsWriter(buf, Options{TimestampFormat: "2006-01-02"})
	w.Write(makeExportFinding("F-011", "Req 8", compliance.SeverityMedium, compliance.FindingOpen))
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("reading output back failed: %v", err)
	}
	if records[0][6] != "2026-02-05" {
		t.Errorf("timestamp = %q, expected date-only format", records[0][6])
	}
}

func TestFileName(t *testing.T) {
	date := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	if got := FileName(date); got != "pci_findings_20260216.csv" {
		t.Errorf("FileName() = %q, expected pci_findings_20260216.csv", got)
	}
}
