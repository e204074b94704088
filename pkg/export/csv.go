// Package export writes findings to delimited and templated formats for
// offline analysis. Exporting is the dashboard's only write path; the
// input data files are never touched.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pcidash/pcidash/pkg/compliance"
	"github.com/pcidash/pcidash/pkg/defaults"
)

// UTF-8 BOM for Excel compatibility.
const utf8BOM = "\xEF\xBB\xBF"

// Columns defines the export column order. Downstream consumers key on
// this exact sequence; treat it as append-only.
var Columns = []string{
	"identifier",  // Finding ID
	"requirement", // Requirement identifier the finding references
	"severity",    // critical/high/medium/low
	"status",      // open/remediated
	"description", // Human-readable finding description
	"evidence",    // Link or path to the supporting artifact
	"timestamp",   // Detection time (RFC3339 unless overridden)
}

// Options configures the findings writer behavior.
type Options struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool

	// Delimiter sets the field delimiter character.
	// Default is comma when zero value.
	Delimiter rune

	// ExcelCompatible adds UTF-8 BOM for Excel compatibility.
	// This ensures proper display of Unicode characters in Excel.
	ExcelCompatible bool

	// SanitizeFormulas prevents CSV injection by prefixing dangerous characters.
	// Dangerous characters: = + - @ TAB CR
	SanitizeFormulas bool

	// TimestampFormat sets the timestamp format (default: RFC3339).
	TimestampFormat string

	// TruncateAt limits field length (0 = no limit).
	TruncateAt int
}

// FindingsWriter writes findings as delimited rows. Each row is a single
// finding, making the output ready for Excel, pandas, or database imports.
//
// The writer is safe for concurrent use.
type FindingsWriter struct {
	w             io.Writer
	csvWriter     *csv.Writer
	mu            sync.Mutex
	opts          Options
	headerWritten bool
	rows          int
}

// sanitizeField prevents CSV injection by prefixing dangerous characters.
// This is a SECURITY feature to prevent formula execution in spreadsheets.
func sanitizeField(s string) string {
	if len(s) == 0 {
		return s
	}
	// Characters that can trigger formula execution in spreadsheets
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s // Prefix with single quote
	}
	return s
}

// truncateField truncates a field to the specified length.
func truncateField(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes[:maxLen])
}

// NewFindingsWriter creates a findings writer.
// If IncludeHeader is true, a header row is written immediately.
// If ExcelCompatible is true, a UTF-8 BOM is written for proper Excel display.
func NewFindingsWriter(w io.Writer, opts Options) *FindingsWriter {
	// Set defaults
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = defaults.ExportTimestampFormat
	}

	// Write UTF-8 BOM for Excel compatibility
	if opts.ExcelCompatible {
		_, _ = w.Write([]byte(utf8BOM))
	}

	csvWriter := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		csvWriter.Comma = opts.Delimiter
	}

	fw := &FindingsWriter{
		w:         w,
		csvWriter: csvWriter,
		opts:      opts,
	}

	if opts.IncludeHeader {
		_ = csvWriter.Write(Columns)
		csvWriter.Flush()
		fw.headerWritten = true
	}

	return fw
}

// Write writes a single finding as a delimited row.
func (fw *FindingsWriter) Write(f compliance.Finding) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.writeLocked(f)
}

// WriteAll writes every finding in order.
func (fw *FindingsWriter) WriteAll(findings []compliance.Finding) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	for _, f := range findings {
		if err := fw.writeLocked(f); err != nil {
			return err
		}
	}
	return nil
}

// writeLocked writes one row. Must be called with mu held.
func (fw *FindingsWriter) writeLocked(f compliance.Finding) error {
	// Build row matching the Columns order
	row := []string{
		f.ID,
		f.RequirementID,
		string(f.Severity),
		string(f.Status),
		f.Description,
		f.Evidence,
		f.DetectedAt.Format(fw.opts.TimestampFormat),
	}

	// Apply sanitization and truncation
	for i, field := range row {
		if fw.opts.SanitizeFormulas {
			field = sanitizeField(field)
		}
		if fw.opts.TruncateAt > 0 {
			field = truncateField(field, fw.opts.TruncateAt)
		}
		row[i] = field
	}

	if err := fw.csvWriter.Write(row); err != nil {
		return fmt.Errorf("export: write row: %w", err)
	}
	fw.rows++
	return nil
}

// Rows returns the number of finding rows written so far.
func (fw *FindingsWriter) Rows() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.rows
}

// Flush flushes the writer's internal buffer.
func (fw *FindingsWriter) Flush() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.csvWriter.Flush()
	return fw.csvWriter.Error()
}

// Close flushes the writer. If the underlying writer implements
// io.Closer, it is closed as well.
func (fw *FindingsWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.csvWriter.Flush()
	if err := fw.csvWriter.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}

	if closer, ok := fw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// FileName returns the conventional export file name for a date:
// pci_findings_YYYYMMDD.csv
func FileName(t time.Time) string {
	return fmt.Sprintf("%s%s.csv", defaults.ExportFilePrefix, t.Format(defaults.ExportDateLayout))
}
