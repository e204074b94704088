package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/compliance"
	"github.com/pcidash/pcidash/pkg/jsonutil"
	"github.com/pcidash/pcidash/pkg/ui"
)

// api wraps a JSON handler with the shared method, rate-limit, and header
// handling. /metrics bypasses this; scrapers are never throttled.
func (s *Server) api(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", ui.ServerID())
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "only GET is supported")
			return
		}
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		h(w, r)
	})
}

type errorPayload struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = jsonutil.NewStreamEncoder(w).Encode(errorPayload{Error: msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = jsonutil.NewStreamEncoder(w).Encode(v)
}

type scorePayload struct {
	Passing    int     `json:"passing"`
	Failing    int     `json:"failing"`
	Unknown    int     `json:"unknown"`
	Percentage float64 `json:"percentage"`
}

type severityCountPayload struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

type summaryPayload struct {
	SnapshotDate   string                 `json:"snapshot_date"`
	Score          scorePayload           `json:"score"`
	OpenFindings   int                    `json:"open_findings"`
	OpenBySeverity []severityCountPayload `json:"open_by_severity"`
	TrendPoints    int                    `json:"trend_points"`
	Fingerprint    string                 `json:"fingerprint"`
	Source         string                 `json:"source"`
	LoadedAt       time.Time              `json:"loaded_at"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds := s.DataSet()
	score := aggregate.OverallScore(ds.Snapshot)
	open := aggregate.OpenFindings(ds.Findings)

	counts := make([]severityCountPayload, 0, len(compliance.Severities))
	for _, c := range aggregate.SeverityBreakdown(open) {
		counts = append(counts, severityCountPayload{Severity: string(c.Severity), Count: c.Count})
	}

	writeJSON(w, summaryPayload{
		SnapshotDate: ds.Snapshot.SnapshotDate.String(),
		Score: scorePayload{
			Passing:    score.Passing,
			Failing:    score.Failing,
			Unknown:    score.Unknown,
			Percentage: score.Percentage,
		},
		OpenFindings:   len(open),
		OpenBySeverity: counts,
		TrendPoints:    len(ds.History.Points),
		Fingerprint:    fingerprintHex(ds.Fingerprint),
		Source:         s.opts.Source,
		LoadedAt:       ds.LoadedAt,
	})
}

type requirementPayload struct {
	Requirement     compliance.Requirement `json:"requirement"`
	Status          string                 `json:"status"`
	FindingCount    int                    `json:"finding_count"`
	OpenFindings    int                    `json:"open_findings"`
	HighestSeverity string                 `json:"highest_severity,omitempty"`
}

func (s *Server) handleRequirements(w http.ResponseWriter, r *http.Request) {
	ds := s.DataSet()
	rollups := aggregate.PerRequirementBreakdown(ds.Catalog, ds.Snapshot, ds.Findings)
	out := make([]requirementPayload, 0, len(rollups))
	for _, ru := range rollups {
		out = append(out, requirementPayload{
			Requirement:     ru.Requirement,
			Status:          string(ru.Status),
			FindingCount:    ru.FindingCount,
			OpenFindings:    ru.OpenFindings,
			HighestSeverity: string(ru.HighestSeverity),
		})
	}
	writeJSON(w, out)
}

type findingsPayload struct {
	Total    int                  `json:"total"`
	Matched  int                  `json:"matched"`
	Findings []compliance.Finding `json:"findings"`
}

func (s *Server) handleFindings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := aggregate.Criteria{RequirementID: q.Get("requirement")}

	if raw := q.Get("severity"); raw != "" {
		sev, ok := compliance.NormalizeSeverity(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown severity %q", raw))
			return
		}
		criteria.Severity = string(sev)
	}
	if raw := q.Get("status"); raw != "" {
		st, ok := compliance.NormalizeFindingStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", raw))
			return
		}
		criteria.Status = string(st)
	}

	ds := s.DataSet()
	matched := aggregate.FilterFindings(ds.Findings, criteria)
	writeJSON(w, findingsPayload{
		Total:    len(ds.Findings),
		Matched:  len(matched),
		Findings: matched,
	})
}

type healthPayload struct {
	Status       string `json:"status"`
	SnapshotDate string `json:"snapshot_date"`
}

// handleHealthz reports liveness. It bypasses the rate limiter so probe
// loops cannot starve the API bucket.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Server", ui.ServerID())
	writeJSON(w, healthPayload{
		Status:       "ok",
		SnapshotDate: s.DataSet().Snapshot.SnapshotDate.String(),
	})
}

type trendPayload struct {
	Points []compliance.TrendPoint `json:"points"`
	Events []compliance.TrendEvent `json:"events"`
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	ds := s.DataSet()
	writeJSON(w, trendPayload{
		Points: aggregate.SortTrend(ds.History.Points),
		Events: ds.History.Events,
	})
}
