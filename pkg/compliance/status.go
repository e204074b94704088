package compliance

import "strings"

// Status represents a control's pass-fail evaluation state at snapshot time.
type Status string

const (
	// StatusPass means the control's checks all passed.
	StatusPass Status = "pass"

	// StatusFail means at least one check failed.
	StatusFail Status = "fail"

	// StatusUnknown means the control was not evaluated in this snapshot.
	// Unknown controls are excluded from the compliance score denominator.
	StatusUnknown Status = "unknown"
)

// IsValid reports whether st is a recognized control status.
func (st Status) IsValid() bool {
	switch st {
	case StatusPass, StatusFail, StatusUnknown:
		return true
	}
	return false
}

// String returns the status as a string.
func (st Status) String() string {
	return string(st)
}

// NormalizeStatus lowercases and validates a raw control status value.
func NormalizeStatus(raw string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !st.IsValid() {
		return "", false
	}
	return st, true
}

// FindingStatus represents a finding's resolution state.
type FindingStatus string

const (
	// FindingOpen means the finding is unresolved.
	FindingOpen FindingStatus = "open"

	// FindingRemediated means the finding has been fixed in the source
	// environment; it stays in the data set for the historical record.
	FindingRemediated FindingStatus = "remediated"
)

// IsValid reports whether fs is a recognized finding status.
func (fs FindingStatus) IsValid() bool {
	switch fs {
	case FindingOpen, FindingRemediated:
		return true
	}
	return false
}

// String returns the finding status as a string.
func (fs FindingStatus) String() string {
	return string(fs)
}

// NormalizeFindingStatus lowercases and validates a raw finding status value.
func NormalizeFindingStatus(raw string) (FindingStatus, bool) {
	fs := FindingStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !fs.IsValid() {
		return "", false
	}
	return fs, true
}
