package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/jsonutil"
)

// registerResources adds the data-set metadata resources to the MCP server.
func (s *Server) registerResources() {
	s.addDataSetResource()
	s.addCatalogResource()
}

// ═══════════════════════════════════════════════════════════════════════════
// pcidash://dataset — Loaded data-set metadata
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addDataSetResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         "pcidash://dataset",
			Name:        "Data Set",
			Description: "Snapshot date, fingerprint, and record counts for the loaded compliance data.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			sc := aggregate.OverallScore(s.ds.Snapshot)
			open := aggregate.OpenFindings(s.ds.Findings)

			info := map[string]any{
				"snapshot_date": s.ds.Snapshot.SnapshotDate.String(),
				"fingerprint":   fmt.Sprintf("%016x", s.ds.Fingerprint),
				"source":        s.opts.Source,
				"loaded_at":     s.ds.LoadedAt.Format(time.RFC3339),
				"score":         sc.Percentage,
				"counts": map[string]int{
					"requirements":  len(s.ds.Catalog.Requirements),
					"controls":      len(s.ds.Snapshot.Controls),
					"findings":      len(s.ds.Findings),
					"open_findings": len(open),
					"trend_points":  len(s.ds.History.Points),
				},
			}
			data, err := jsonutil.MarshalIndent(info, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("marshaling data set info: %w", err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: "pcidash://dataset", MIMEType: "application/json", Text: string(data)},
				},
			}, nil
		},
	)
}

// ═══════════════════════════════════════════════════════════════════════════
// pcidash://catalog — Requirement catalog with per-requirement status
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addCatalogResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         "pcidash://catalog",
			Name:        "Requirement Catalog",
			Description: "Every requirement in the catalog with its control status and open finding count.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			type catalogEntry struct {
				ID           string `json:"id"`
				Name         string `json:"name"`
				Status       string `json:"status"`
				OpenFindings int    `json:"open_findings"`
			}

			rollups := aggregate.PerRequirementBreakdown(s.ds.Catalog, s.ds.Snapshot, s.ds.Findings)
			entries := make([]catalogEntry, 0, len(rollups))
			for _, r := range rollups {
				entries = append(entries, catalogEntry{
					ID:           r.Requirement.ID,
					Name:         r.Requirement.Name,
					Status:       string(r.Status),
					OpenFindings: r.OpenFindings,
				})
			}

			catalog := map[string]any{
				"count":        len(entries),
				"requirements": entries,
			}
			data, err := jsonutil.MarshalIndent(catalog, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("marshaling catalog: %w", err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: "pcidash://catalog", MIMEType: "application/json", Text: string(data)},
				},
			}, nil
		},
	)
}
