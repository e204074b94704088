package compliance

import "strings"

// Severity represents the severity level of a compliance finding.
// All values are lowercase strings matching the findings data set.
type Severity string

const (
	// SeverityCritical represents findings requiring immediate remediation
	// (exposed cardholder data, public storage of sensitive assets).
	SeverityCritical Severity = "critical"

	// SeverityHigh represents significant exposure requiring prompt fix.
	SeverityHigh Severity = "high"

	// SeverityMedium represents moderate exposure.
	SeverityMedium Severity = "medium"

	// SeverityLow represents limited exposure (hygiene issues, stale configs).
	SeverityLow Severity = "low"
)

// Severities lists all recognized severity levels, highest first.
// Views iterate this slice so breakdowns always render in rank order.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Rank returns a numeric rank for sorting and comparison.
// Critical=4, High=3, Medium=2, Low=1, unrecognized=0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// NormalizeSeverity lowercases and validates a raw severity value.
// The zero Severity and false are returned for unrecognized input.
func NormalizeSeverity(raw string) (Severity, bool) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", false
	}
	return s, true
}
