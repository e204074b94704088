package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/compliance"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/export"
)

// registerTools adds all dashboard query tools to the MCP server.
func (s *Server) registerTools() {
	s.addComplianceSummaryTool()
	s.addRequirementDetailTool()
	s.addListFindingsTool()
	s.addComplianceTrendTool()
	s.addExportFindingsTool()
}

// ═══════════════════════════════════════════════════════════════════════════
// compliance_summary — Overall posture at a glance
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addComplianceSummaryTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "compliance_summary",
			Title: "Compliance Summary",
			Description: `Overall PCI DSS posture for the loaded snapshot — the executive-summary numbers.

USE THIS TOOL WHEN:
• Starting any conversation about compliance state — run it FIRST
• The user asks "how compliant are we?" or "what's our score?"
• You need control pass/fail counts or the open-finding severity spread
• Deciding which requirement to drill into next

DO NOT USE THIS TOOL WHEN:
• The user asks about one specific requirement — use 'requirement_detail' instead
• The user wants individual findings — use 'list_findings' instead
• The user asks about score history — use 'compliance_trend' instead

This is a READ-ONLY local aggregation. Zero network requests. Instant results.

EXAMPLE INPUTS:
• {} (no arguments)

Returns: snapshot date, compliance score with pass/fail/unknown control counts, requirement count, open finding count with per-severity breakdown, trend point count, and the data-set fingerprint.`,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Compliance Summary",
			},
		},
		s.handleComplianceSummary,
	)
}

type scorePayload struct {
	Passing    int     `json:"passing"`
	Failing    int     `json:"failing"`
	Unknown    int     `json:"unknown"`
	Percentage float64 `json:"percentage"`
}

type summaryPayload struct {
	SnapshotDate   string         `json:"snapshot_date"`
	Score          scorePayload   `json:"score"`
	Requirements   int            `json:"requirements"`
	Controls       int            `json:"controls"`
	OpenFindings   int            `json:"open_findings"`
	OpenBySeverity map[string]int `json:"open_by_severity"`
	TrendPoints    int            `json:"trend_points"`
	Fingerprint    string         `json:"fingerprint"`
	Source         string         `json:"source,omitempty"`
}

func (s *Server) handleComplianceSummary(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sc := aggregate.OverallScore(s.ds.Snapshot)
	open := aggregate.OpenFindings(s.ds.Findings)

	bySeverity := make(map[string]int)
	for _, count := range aggregate.SeverityBreakdown(open) {
		bySeverity[string(count.Severity)] = count.Count
	}

	return jsonResult(summaryPayload{
		SnapshotDate: s.ds.Snapshot.SnapshotDate.String(),
		Score: scorePayload{
			Passing:    sc.Passing,
			Failing:    sc.Failing,
			Unknown:    sc.Unknown,
			Percentage: sc.Percentage,
		},
		Requirements:   len(s.ds.Catalog.Requirements),
		Controls:       len(s.ds.Snapshot.Controls),
		OpenFindings:   len(open),
		OpenBySeverity: bySeverity,
		TrendPoints:    len(s.ds.History.Points),
		Fingerprint:    fmt.Sprintf("%016x", s.ds.Fingerprint),
		Source:         s.opts.Source,
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// requirement_detail — One requirement's status and findings
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addRequirementDetailTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "requirement_detail",
			Title: "Requirement Detail",
			Description: `Drill into one PCI DSS requirement: its catalog entry, control status, and every finding that references it.

USE THIS TOOL WHEN:
• The user asks "what's wrong with Requirement 7?" or "why is Req 3 failing?"
• compliance_summary showed failures and you need the per-requirement story
• You need the evidence location or last-checked time for a control
• Explaining what a specific requirement covers

DO NOT USE THIS TOOL WHEN:
• You need the overall score — use 'compliance_summary' instead
• You want findings across ALL requirements — use 'list_findings' instead

This is a READ-ONLY local lookup. Zero network requests. Instant results.

EXAMPLE INPUTS:
• {"requirement": "Req 3"}
• {"requirement": "Req 10"}

Returns: the catalog entry (name, description, lab source, AWS service), control status with last-checked time and evidence location, finding counts, highest open severity, and the full finding list for the requirement.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"requirement": map[string]any{
						"type":        "string",
						"description": "Requirement identifier from the catalog (e.g. \"Req 3\"). Read pcidash://catalog for the full list.",
					},
				},
				"required": []string{"requirement"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Requirement Detail",
			},
		},
		s.handleRequirementDetail,
	)
}

type requirementDetailArgs struct {
	Requirement string `json:"requirement"`
}

type requirementDetailPayload struct {
	Requirement     compliance.Requirement    `json:"requirement"`
	Status          string                    `json:"status"`
	Control         *compliance.ControlStatus `json:"control,omitempty"`
	FindingCount    int                       `json:"finding_count"`
	OpenFindings    int                       `json:"open_findings"`
	HighestSeverity string                    `json:"highest_severity,omitempty"`
	Findings        []compliance.Finding      `json:"findings"`
}

func (s *Server) handleRequirementDetail(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args requirementDetailArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected {\"requirement\": \"Req 3\"}.", err)), nil
	}
	if args.Requirement == "" {
		return errorResult(fmt.Sprintf("requirement is required. Available: %s",
			strings.Join(s.ds.Catalog.IDs(), ", "))), nil
	}
	if _, err := s.ds.Catalog.ByID(args.Requirement); err != nil {
		return errorResult(fmt.Sprintf("unknown requirement %q. Available: %s",
			args.Requirement, strings.Join(s.ds.Catalog.IDs(), ", "))), nil
	}

	rollups := aggregate.PerRequirementBreakdown(s.ds.Catalog, s.ds.Snapshot, s.ds.Findings)
	for _, r := range rollups {
		if r.Requirement.ID != args.Requirement {
			continue
		}
		payload := requirementDetailPayload{
			Requirement:     r.Requirement,
			Status:          string(r.Status),
			FindingCount:    r.FindingCount,
			OpenFindings:    r.OpenFindings,
			HighestSeverity: string(r.HighestSeverity),
			Findings: aggregate.FilterFindings(s.ds.Findings,
				aggregate.Criteria{RequirementID: args.Requirement}),
		}
		for i := range s.ds.Snapshot.Controls {
			if s.ds.Snapshot.Controls[i].RequirementID == args.Requirement {
				payload.Control = &s.ds.Snapshot.Controls[i]
				break
			}
		}
		return jsonResult(payload)
	}

	// ByID succeeded, so the rollup loop always finds the entry.
	return errorResult(fmt.Sprintf("unknown requirement %q", args.Requirement)), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// list_findings — Filterable finding inventory
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addListFindingsTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "list_findings",
			Title: "List Findings",
			Description: `Browse the simulated audit findings with optional filters. All filters combine with AND.

USE THIS TOOL WHEN:
• The user asks "what are the critical findings?" or "what's still open?"
• You need the remediation queue for a specific requirement
• Checking whether a finding mentioned earlier is open or remediated
• Building a prioritized fix list

DO NOT USE THIS TOOL WHEN:
• You need the per-requirement rollup — use 'requirement_detail' instead
• The user wants a file to save — use 'export_findings' instead

This is a READ-ONLY local filter. Zero network requests. Instant results.

EXAMPLE INPUTS:
• Everything: {} (no arguments)
• Open criticals: {"severity": "critical", "status": "open"}
• One requirement's queue: {"requirement": "Req 10", "status": "open"}
• First five only: {"limit": 5}

SEVERITY (descending): critical > high > medium > low
STATUS: open, remediated

Returns: total finding count, matched count after filters, and the matched findings (id, requirement, severity, status, title, discovery date, resource).`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"requirement": map[string]any{
						"type":        "string",
						"description": "Filter to findings referencing this requirement (e.g. \"Req 10\").",
					},
					"severity": map[string]any{
						"type":        "string",
						"description": "Filter by severity. Case-insensitive.",
						"enum":        []string{"critical", "high", "medium", "low"},
					},
					"status": map[string]any{
						"type":        "string",
						"description": "Filter by resolution state. Case-insensitive.",
						"enum":        []string{"open", "remediated"},
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum findings to return.",
						"default":     defaults.MCPFindingsLimit,
						"minimum":     1,
						"maximum":     defaults.MCPFindingsLimit,
					},
				},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "List Findings",
			},
		},
		s.handleListFindings,
	)
}

type listFindingsArgs struct {
	Requirement string `json:"requirement"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
	Limit       int    `json:"limit"`
}

type findingsPayload struct {
	Total         int                  `json:"total"`
	Matched       int                  `json:"matched"`
	Returned      int                  `json:"returned"`
	Truncated     bool                 `json:"truncated"`
	FilterApplied string               `json:"filter_applied,omitempty"`
	Findings      []compliance.Finding `json:"findings"`
}

// criteriaFromArgs validates the shared filter arguments and converts them
// into filter criteria. The returned result is non-nil on invalid input.
func (s *Server) criteriaFromArgs(requirement, severity, status string) (aggregate.Criteria, *mcp.CallToolResult) {
	var c aggregate.Criteria
	if requirement != "" {
		if _, err := s.ds.Catalog.ByID(requirement); err != nil {
			return c, errorResult(fmt.Sprintf("unknown requirement %q. Available: %s",
				requirement, strings.Join(s.ds.Catalog.IDs(), ", ")))
		}
		c.RequirementID = requirement
	}
	if severity != "" {
		sev, ok := compliance.NormalizeSeverity(severity)
		if !ok {
			return c, errorResult(fmt.Sprintf("unknown severity %q. Valid values: critical, high, medium, low.", severity))
		}
		c.Severity = string(sev)
	}
	if status != "" {
		st, ok := compliance.NormalizeFindingStatus(status)
		if !ok {
			return c, errorResult(fmt.Sprintf("unknown status %q. Valid values: open, remediated.", status))
		}
		c.Status = string(st)
	}
	return c, nil
}

func describeCriteria(c aggregate.Criteria) string {
	parts := make([]string, 0, 3)
	if c.RequirementID != "" {
		parts = append(parts, "requirement="+c.RequirementID)
	}
	if c.Severity != "" {
		parts = append(parts, "severity="+c.Severity)
	}
	if c.Status != "" {
		parts = append(parts, "status="+c.Status)
	}
	return strings.Join(parts, ", ")
}

func (s *Server) handleListFindings(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args listFindingsArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected optional 'requirement', 'severity', 'status' (strings) and 'limit' (integer).", err)), nil
	}

	criteria, errRes := s.criteriaFromArgs(args.Requirement, args.Severity, args.Status)
	if errRes != nil {
		return errRes, nil
	}

	limit := args.Limit
	if limit <= 0 || limit > defaults.MCPFindingsLimit {
		limit = defaults.MCPFindingsLimit
	}

	matched := aggregate.FilterFindings(s.ds.Findings, criteria)
	returned := matched
	if len(returned) > limit {
		returned = returned[:limit]
	}

	return jsonResult(findingsPayload{
		Total:         len(s.ds.Findings),
		Matched:       len(matched),
		Returned:      len(returned),
		Truncated:     len(returned) < len(matched),
		FilterApplied: describeCriteria(criteria),
		Findings:      returned,
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// compliance_trend — Score history with remediation events
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addComplianceTrendTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "compliance_trend",
			Title: "Compliance Trend",
			Description: `Historical compliance scores in chronological order, with the remediation events that moved them.

USE THIS TOOL WHEN:
• The user asks "are we improving?" or "what did the score look like last week?"
• Correlating a score change with a remediation event
• Reporting progress over the audit window

DO NOT USE THIS TOOL WHEN:
• You need today's numbers only — use 'compliance_summary' instead

This is a READ-ONLY local read. Zero network requests. Instant results.

EXAMPLE INPUTS:
• Full history: {} (no arguments)
• Last week: {"days": 7}

Returns: trend points sorted by date ascending (date, passing, failing, score), remediation events, and the delta between the two most recent points.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"days": map[string]any{
						"type":        "integer",
						"description": "Restrict to the most recent N points. Zero or omitted returns the full history.",
						"minimum":     0,
					},
				},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Compliance Trend",
			},
		},
		s.handleComplianceTrend,
	)
}

type complianceTrendArgs struct {
	Days int `json:"days"`
}

type trendDeltaPayload struct {
	ScoreChange   float64 `json:"score_change"`
	PassingChange int     `json:"passing_change"`
	FailingChange int     `json:"failing_change"`
	Improved      bool    `json:"improved"`
}

type trendPayload struct {
	Points []compliance.TrendPoint `json:"points"`
	Events []compliance.TrendEvent `json:"events"`
	Delta  *trendDeltaPayload      `json:"delta,omitempty"`
}

func (s *Server) handleComplianceTrend(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args complianceTrendArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected optional 'days' (integer).", err)), nil
	}
	if args.Days < 0 {
		return errorResult(fmt.Sprintf("days must not be negative (got %d)", args.Days)), nil
	}

	payload := trendPayload{
		Points: aggregate.TrendWindow(s.ds.History.Points, args.Days),
		Events: s.ds.History.Events,
	}
	if delta, ok := aggregate.LatestDelta(s.ds.History.Points); ok {
		payload.Delta = &trendDeltaPayload{
			ScoreChange:   delta.ScoreChange,
			PassingChange: delta.PassingChange,
			FailingChange: delta.FailingChange,
			Improved:      delta.Improved,
		}
	}

	return jsonResult(payload)
}

// ═══════════════════════════════════════════════════════════════════════════
// export_findings — Delimited text for spreadsheets
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addExportFindingsTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "export_findings",
			Title: "Export Findings",
			Description: `Produce delimited text (CSV or TSV) of the findings, ready to save as a file. Accepts the same filters as list_findings.

USE THIS TOOL WHEN:
• The user asks for a spreadsheet, CSV, or "something I can hand to the auditor"
• Handing the remediation queue to another team
• The user wants all columns, not the summary view

DO NOT USE THIS TOOL WHEN:
• The user just wants to see findings in conversation — use 'list_findings' instead

Field values are sanitized against spreadsheet formula injection. This is a READ-ONLY local render; the server writes no files — the client decides where the text goes.

EXAMPLE INPUTS:
• Everything as CSV: {} (no arguments)
• Open findings as TSV: {"status": "open", "delimiter": "tab"}
• One requirement, no header row: {"requirement": "Req 7", "omit_header": true}

Returns: the delimited text. First line is the column header unless omit_header is set.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"requirement": map[string]any{
						"type":        "string",
						"description": "Filter to findings referencing this requirement (e.g. \"Req 7\").",
					},
					"severity": map[string]any{
						"type":        "string",
						"description": "Filter by severity. Case-insensitive.",
						"enum":        []string{"critical", "high", "medium", "low"},
					},
					"status": map[string]any{
						"type":        "string",
						"description": "Filter by resolution state. Case-insensitive.",
						"enum":        []string{"open", "remediated"},
					},
					"delimiter": map[string]any{
						"type":        "string",
						"description": "Field delimiter.",
						"enum":        []string{"comma", "tab"},
						"default":     "comma",
					},
					"omit_header": map[string]any{
						"type":        "boolean",
						"description": "Skip the column header row.",
						"default":     false,
					},
				},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Export Findings",
			},
		},
		s.handleExportFindings,
	)
}

type exportFindingsArgs struct {
	Requirement string `json:"requirement"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
	Delimiter   string `json:"delimiter"`
	OmitHeader  bool   `json:"omit_header"`
}

func (s *Server) handleExportFindings(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args exportFindingsArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	criteria, errRes := s.criteriaFromArgs(args.Requirement, args.Severity, args.Status)
	if errRes != nil {
		return errRes, nil
	}

	var delimiter rune
	switch args.Delimiter {
	case "", "comma":
		delimiter = ','
	case "tab":
		delimiter = '\t'
	default:
		return errorResult(fmt.Sprintf("unknown delimiter %q. Valid values: comma, tab.", args.Delimiter)), nil
	}

	matched := aggregate.FilterFindings(s.ds.Findings, criteria)

	var buf bytes.Buffer
	w := export.NewFindingsWriter(&buf, export.Options{
		IncludeHeader:    !args.OmitHeader,
		Delimiter:        delimiter,
		SanitizeFormulas: true,
	})
	if err := w.WriteAll(matched); err != nil {
		return errorResult(fmt.Sprintf("rendering findings: %v", err)), nil
	}
	if err := w.Close(); err != nil {
		return errorResult(fmt.Sprintf("rendering findings: %v", err)), nil
	}

	return textResult(buf.String()), nil
}
