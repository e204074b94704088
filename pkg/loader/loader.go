// Package loader reads the four compliance data files into a validated,
// immutable DataSet. Loading is all-or-nothing: any unreadable file,
// malformed document, unknown enum value, or broken cross-reference
// produces a *LoadError and no DataSet. The dashboard never renders a
// partially loaded state.
package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pcidash/pcidash/pkg/compliance"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/jsonutil"
	"github.com/pcidash/pcidash/sampledata"
	"github.com/spaolacci/murmur3"
	"gopkg.in/yaml.v3"
)

// Paths names the four input files. All four are required.
type Paths struct {
	// Requirements is the YAML requirement catalog.
	Requirements string

	// ControlStatus is the JSON control-status snapshot.
	ControlStatus string

	// Findings is the JSON findings list.
	Findings string

	// Trend is the JSON trend history.
	Trend string
}

// DefaultPaths returns the conventional file names under dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Requirements:  filepath.Join(dir, defaults.RequirementsFile),
		ControlStatus: filepath.Join(dir, defaults.ControlStatusFile),
		Findings:      filepath.Join(dir, defaults.FindingsFile),
		Trend:         filepath.Join(dir, defaults.TrendFile),
	}
}

// embeddedPaths returns the file names at the root of the embedded sample
// file system. fs paths are slash-separated and unrooted, so no join.
func embeddedPaths() Paths {
	return Paths{
		Requirements:  defaults.RequirementsFile,
		ControlStatus: defaults.ControlStatusFile,
		Findings:      defaults.FindingsFile,
		Trend:         defaults.TrendFile,
	}
}

// DataSet holds the validated contents of all four data files. Fields are
// populated once by Load and treated as read-only afterwards.
type DataSet struct {
	// Catalog is the requirement catalog in file order.
	Catalog compliance.Catalog

	// Snapshot is the current control-status snapshot.
	Snapshot compliance.Snapshot

	// Findings is the full findings list in file order.
	Findings []compliance.Finding

	// History is the trend history, in file order (not necessarily
	// chronological; see aggregate.SortTrend).
	History compliance.History

	// Fingerprint is a murmur3 hash over the raw bytes of all four files,
	// used to detect changes between reloads.
	Fingerprint uint64

	// LoadedAt records when the set was read.
	LoadedAt time.Time
}

// Load reads the four files from the local file system.
func Load(paths Paths) (*DataSet, error) {
	return load(os.ReadFile, paths)
}

// LoadFS reads the four files from fsys. Paths must be valid fs paths
// (slash-separated, unrooted).
func LoadFS(fsys fs.FS, paths Paths) (*DataSet, error) {
	return load(func(name string) ([]byte, error) {
		return fs.ReadFile(fsys, name)
	}, paths)
}

// LoadEmbedded reads the compiled-in sample data set. It cannot fail in a
// correctly built binary; the error return mirrors Load for callers that
// switch between the two.
func LoadEmbedded() (*DataSet, error) {
	return LoadFS(sampledata.FS, embeddedPaths())
}

func load(readFile func(string) ([]byte, error), paths Paths) (*DataSet, error) {
	rawReq, err := readFile(paths.Requirements)
	if err != nil {
		return nil, wrapErr(paths.Requirements, "cannot read file", err)
	}
	rawStatus, err := readFile(paths.ControlStatus)
	if err != nil {
		return nil, wrapErr(paths.ControlStatus, "cannot read file", err)
	}
	rawFindings, err := readFile(paths.Findings)
	if err != nil {
		return nil, wrapErr(paths.Findings, "cannot read file", err)
	}
	rawTrend, err := readFile(paths.Trend)
	if err != nil {
		return nil, wrapErr(paths.Trend, "cannot read file", err)
	}

	ds := &DataSet{LoadedAt: time.Now()}

	if err := parseCatalog(paths.Requirements, rawReq, &ds.Catalog); err != nil {
		return nil, err
	}
	if err := parseSnapshot(paths.ControlStatus, rawStatus, ds.Catalog, &ds.Snapshot); err != nil {
		return nil, err
	}
	if err := parseFindings(paths.Findings, rawFindings, ds.Catalog, &ds.Findings); err != nil {
		return nil, err
	}
	if err := parseTrend(paths.Trend, rawTrend, &ds.History); err != nil {
		return nil, err
	}

	h := murmur3.New64()
	for _, raw := range [][]byte{rawReq, rawStatus, rawFindings, rawTrend} {
		h.Write(raw)
		h.Write([]byte{0})
	}
	ds.Fingerprint = h.Sum64()

	return ds, nil
}

// requirementsFile mirrors the on-disk YAML document shape.
type requirementsFile struct {
	Requirements []compliance.Requirement `yaml:"requirements"`
}

func parseCatalog(file string, raw []byte, out *compliance.Catalog) error {
	var doc requirementsFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return wrapErr(file, "malformed YAML", err)
	}
	if len(doc.Requirements) == 0 {
		return loadErr(file, "no requirements defined")
	}
	seen := make(map[string]bool, len(doc.Requirements))
	for i, req := range doc.Requirements {
		if req.ID == "" {
			return loadErr(file, "requirement %d: missing id", i)
		}
		if seen[req.ID] {
			return loadErr(file, "duplicate requirement id %q", req.ID)
		}
		seen[req.ID] = true
		if req.Name == "" {
			return loadErr(file, "requirement %q: missing name", req.ID)
		}
	}
	out.Requirements = doc.Requirements
	return nil
}

func parseSnapshot(file string, raw []byte, catalog compliance.Catalog, out *compliance.Snapshot) error {
	var snap compliance.Snapshot
	if err := jsonutil.UnmarshalStrict(raw, &snap); err != nil {
		return wrapErr(file, "malformed JSON", err)
	}
	if snap.SnapshotDate.IsZero() {
		return loadErr(file, "missing snapshot_date")
	}
	seen := make(map[string]bool, len(snap.Controls))
	for i, ctl := range snap.Controls {
		if ctl.RequirementID == "" {
			return loadErr(file, "control %d: missing requirement_id", i)
		}
		if _, err := catalog.ByID(ctl.RequirementID); err != nil {
			return loadErr(file, "control %d: unknown requirement %q", i, ctl.RequirementID)
		}
		if seen[ctl.RequirementID] {
			return loadErr(file, "duplicate control row for requirement %q", ctl.RequirementID)
		}
		seen[ctl.RequirementID] = true
		status, ok := compliance.NormalizeStatus(string(ctl.Status))
		if !ok {
			return loadErr(file, "control %q: invalid status %q", ctl.RequirementID, ctl.Status)
		}
		snap.Controls[i].Status = status
		if ctl.FindingCount < 0 {
			return loadErr(file, "control %q: negative finding_count", ctl.RequirementID)
		}
	}
	*out = snap
	return nil
}

// findingsFile mirrors the on-disk JSON document shape.
type findingsFile struct {
	Findings []compliance.Finding `json:"findings"`
}

func parseFindings(file string, raw []byte, catalog compliance.Catalog, out *[]compliance.Finding) error {
	var doc findingsFile
	if err := jsonutil.UnmarshalStrict(raw, &doc); err != nil {
		return wrapErr(file, "malformed JSON", err)
	}
	seen := make(map[string]bool, len(doc.Findings))
	for i, f := range doc.Findings {
		if f.ID == "" {
			return loadErr(file, "finding %d: missing id", i)
		}
		if seen[f.ID] {
			return loadErr(file, "duplicate finding id %q", f.ID)
		}
		seen[f.ID] = true
		if _, err := catalog.ByID(f.RequirementID); err != nil {
			return loadErr(file, "finding %q: unknown requirement %q", f.ID, f.RequirementID)
		}
		sev, ok := compliance.NormalizeSeverity(string(f.Severity))
		if !ok {
			return loadErr(file, "finding %q: invalid severity %q", f.ID, f.Severity)
		}
		doc.Findings[i].Severity = sev
		status, ok := compliance.NormalizeFindingStatus(string(f.Status))
		if !ok {
			return loadErr(file, "finding %q: invalid status %q", f.ID, f.Status)
		}
		doc.Findings[i].Status = status
		if f.DetectedAt.IsZero() {
			return loadErr(file, "finding %q: missing detected_at", f.ID)
		}
	}
	*out = doc.Findings
	return nil
}

func parseTrend(file string, raw []byte, out *compliance.History) error {
	var hist compliance.History
	if err := jsonutil.UnmarshalStrict(raw, &hist); err != nil {
		return wrapErr(file, "malformed JSON", err)
	}
	if len(hist.Points) == 0 {
		return loadErr(file, "no trend points defined")
	}
	for i, pt := range hist.Points {
		if pt.Date.IsZero() {
			return loadErr(file, "trend point %d: missing date", i)
		}
		if pt.ComplianceScore < 0 || pt.ComplianceScore > 100 {
			return loadErr(file, "trend point %s: compliance_score %.1f out of range", pt.Date, pt.ComplianceScore)
		}
		if pt.Passing < 0 || pt.Failing < 0 {
			return loadErr(file, "trend point %s: negative requirement count", pt.Date)
		}
	}
	for i, ev := range hist.Events {
		if ev.Date.IsZero() {
			return loadErr(file, "event %d: missing date", i)
		}
		if ev.Event == "" {
			return loadErr(file, "event %s: missing event text", ev.Date)
		}
	}
	*out = hist
	return nil
}

// SummaryConsistent reports whether the advisory summary block inside the
// snapshot matches the control rows it ships with. A mismatch is not a load
// failure; callers surface it as a warning and the aggregator recomputes
// from the rows regardless.
func (ds *DataSet) SummaryConsistent() bool {
	var passing, failing int
	for _, ctl := range ds.Snapshot.Controls {
		switch ctl.Status {
		case compliance.StatusPass:
			passing++
		case compliance.StatusFail:
			failing++
		}
	}
	sum := ds.Snapshot.Summary
	return sum.Passing == passing && sum.Failing == failing
}

// FindingsFor returns the findings referencing the given requirement, in
// file order.
func (ds *DataSet) FindingsFor(requirementID string) []compliance.Finding {
	var out []compliance.Finding
	for _, f := range ds.Findings {
		if f.RequirementID == requirementID {
			out = append(out, f)
		}
	}
	return out
}
