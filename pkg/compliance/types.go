// Package compliance defines the typed records the dashboard operates on:
// the PCI DSS requirements catalog, the control-status snapshot, the
// findings list, and the compliance trend history. All records are
// immutable once loaded; nothing in this package mutates them.
package compliance

import "time"

// Requirement is one catalog entry. The catalog's declared order is the
// authoritative display order for every per-requirement view.
type Requirement struct {
	// ID is the short requirement identifier, e.g. "Req 1".
	ID string `json:"id" yaml:"id"`

	// Name is the requirement title, e.g. "Install and Maintain Network
	// Security Controls".
	Name string `json:"name" yaml:"name"`

	// Description is the full requirement text.
	Description string `json:"description" yaml:"description"`

	// LabSource labels the data source the evaluation maps to.
	LabSource string `json:"lab_source" yaml:"lab_source"`

	// AWSService names the service family the requirement covers.
	AWSService string `json:"aws_service" yaml:"aws_service"`
}

// ControlStatus is one snapshot row: a requirement's evaluation state at
// snapshot time. Exactly one row exists per evaluated requirement.
type ControlStatus struct {
	RequirementID    string    `json:"requirement_id"`
	Status           Status    `json:"status"`
	LastChecked      time.Time `json:"last_checked"`
	EvidenceLocation string    `json:"evidence_location"`
	Details          string    `json:"details"`
	FindingCount     int       `json:"finding_count"`
}

// SnapshotSummary is the advisory summary block carried by the snapshot
// file. The aggregator recomputes these figures from the control rows; the
// block is kept so callers can cross-check the file against the data.
type SnapshotSummary struct {
	Passing         int     `json:"passing"`
	Failing         int     `json:"failing"`
	ComplianceScore float64 `json:"compliance_score"`
}

// Snapshot is the full control-status file: the snapshot date, the
// advisory summary, and one row per evaluated requirement.
type Snapshot struct {
	SnapshotDate Date            `json:"snapshot_date"`
	Summary      SnapshotSummary `json:"summary"`
	Controls     []ControlStatus `json:"controls"`
}

// ControlFor returns the control row for a requirement identifier, or
// false when the snapshot carries no row for it.
func (s *Snapshot) ControlFor(requirementID string) (ControlStatus, bool) {
	for _, c := range s.Controls {
		if c.RequirementID == requirementID {
			return c, true
		}
	}
	return ControlStatus{}, false
}

// Finding is one recorded compliance issue tied to a requirement.
type Finding struct {
	ID            string        `json:"id"`
	RequirementID string        `json:"requirement_id"`
	Severity      Severity      `json:"severity"`
	Status        FindingStatus `json:"status"`
	Title         string        `json:"title"`
	ResourceID    string        `json:"resource_id"`
	Description   string        `json:"description"`
	Remediation   string        `json:"remediation"`

	// Evidence is a link or path to the supporting artifact. The dashboard
	// renders it but never resolves or validates it.
	Evidence string `json:"evidence"`

	DetectedAt time.Time `json:"detected_at"`
}

// TrendPoint is one historical sample of overall compliance.
type TrendPoint struct {
	Date            Date    `json:"date"`
	ComplianceScore float64 `json:"compliance_score"`
	Passing         int     `json:"passing"`
	Failing         int     `json:"failing"`
}

// TrendEvent is a free-text annotation tied to a date, describing what
// changed ("Remediated S3 public bucket").
type TrendEvent struct {
	Date  Date   `json:"date"`
	Event string `json:"event"`
}

// History is the trend file contents: samples plus their annotations.
// Points are stored in file order; consumers must sort chronologically
// before rendering (the file order is not trusted).
type History struct {
	Points []TrendPoint `json:"trend_data"`
	Events []TrendEvent `json:"events"`
}

// AnnotationFor returns the event annotations recorded for a date.
// Most dates have none; some carry several.
func (h *History) AnnotationFor(date Date) []string {
	var notes []string
	for _, e := range h.Events {
		if e.Date.Equal(date) {
			notes = append(notes, e.Event)
		}
	}
	return notes
}

// Catalog is the ordered requirements list.
type Catalog struct {
	Requirements []Requirement `json:"requirements" yaml:"requirements"`
}

// ByID returns the requirement with the given identifier.
// It returns ErrNotFound when the catalog has no such entry.
func (c *Catalog) ByID(id string) (Requirement, error) {
	for _, r := range c.Requirements {
		if r.ID == id {
			return r, nil
		}
	}
	return Requirement{}, ErrNotFound
}

// IDs returns the requirement identifiers in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Requirements))
	for i, r := range c.Requirements {
		ids[i] = r.ID
	}
	return ids
}
