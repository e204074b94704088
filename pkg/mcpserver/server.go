package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/jsonutil"
	"github.com/pcidash/pcidash/pkg/loader"
	"github.com/pcidash/pcidash/pkg/ui"
)

// Options configures the MCP server.
type Options struct {
	// Source describes where the data set came from, e.g. a directory
	// path or "embedded sample data". Shown in resources and summaries.
	Source string
}

// Server wraps the MCP server around one loaded data set. The data set is
// immutable for the lifetime of the server; every tool is a pure read.
type Server struct {
	mcp  *mcp.Server
	ds   *loader.DataSet
	opts Options
}

// New creates an MCP server with all dashboard tools and resources
// registered against the given data set.
func New(ds *loader.DataSet, opts Options) (*Server, error) {
	if ds == nil {
		return nil, errors.New("mcpserver: nil data set")
	}

	s := &Server{ds: ds, opts: opts}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    defaults.ToolName,
			Title:   "PCI DSS Compliance Dashboard MCP Server",
			Version: defaults.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// MCPServer returns the underlying MCP server for direct access (e.g., testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// DataSet returns the data set the server answers from.
func (s *Server) DataSet() *loader.DataSet { return s.ds }

// RunStdio runs the MCP server over stdio transport. This is the primary
// mode for IDE integrations; it blocks until the client disconnects or ctx
// is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns an http.Handler for the streamable HTTP transport
// with a /health endpoint. The handler mounts:
//
//   - /health → liveness probe (GET/HEAD only)
//   - /mcp    → streamable HTTP transport
//   - /       → streamable HTTP transport (default mount)
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{Stateless: false},
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/mcp", streamable)
	mux.Handle("/", streamable)

	return recoveryMiddleware(securityHeaders(mux))
}

// handleHealth serves a liveness probe. The data set is loaded before the
// server is constructed, so a running server is always ready.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"pcidash-mcp","snapshot_date":%q}`+"\n",
		s.ds.Snapshot.SnapshotDate.String())
}

// recoveryMiddleware catches panics in HTTP handlers and returns a 500
// error instead of killing the connection.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				ui.PrintError(fmt.Sprintf("mcp handler panic: %v\n%s", err, debug.Stack()))

				// Best-effort: if headers were already sent, WriteHeader
				// is a no-op.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// securityHeaders adds standard defense-in-depth headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Helpers — result builders
// ---------------------------------------------------------------------------

// textResult creates a CallToolResult with a single text content block.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult creates an IsError CallToolResult so the LLM can see the
// error and self-correct rather than raising a protocol-level exception.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// boolPtr returns a pointer to b. Used for optional bool fields in the SDK.
func boolPtr(b bool) *bool { return &b }

// parseArgs unmarshals the raw JSON arguments from a tool call into dst.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := jsonutil.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Server Instructions — the AI's operating manual
// ---------------------------------------------------------------------------

const serverInstructions = `You are reading a PCI DSS compliance dashboard. The server holds one loaded data set (requirements catalog, control-status snapshot, findings list, trend history) and answers questions about it. Everything is READ-ONLY: no tool changes the data, contacts AWS, or touches the audited environment.

## TOOL SELECTION GUIDE

| User Intent | Tool | Why |
|---|---|---|
| "How compliant are we?" | compliance_summary | Overall score, control counts, open findings |
| "What's wrong with Requirement 7?" | requirement_detail | One requirement's status and its findings |
| "Show me the critical findings" | list_findings | Filter by severity, status, requirement |
| "Are we improving?" | compliance_trend | Score history with remediation events |
| "Give me a spreadsheet" | export_findings | Delimited text ready to save as CSV |

## RECOMMENDED WORKFLOW

1. compliance_summary → understand the overall posture first
2. requirement_detail → drill into each failing requirement
3. list_findings with {"status": "open"} → enumerate what needs fixing
4. compliance_trend → check whether remediation is moving the score
5. export_findings → produce a handoff artifact when the user wants a file

## INTERPRETING SCORES

- 90% and above: healthy posture
- 70% to 89%: warning, remediation needed
- below 70%: critical attention required

The score is passing / (passing + failing) controls; controls with unknown status do not count either way. A requirement with a passing control can still carry open findings — always check open_findings, not just the status.

## READING RESOURCES

- pcidash://dataset — snapshot date, fingerprint, and record counts for the loaded data
- pcidash://catalog — the requirement catalog with per-requirement status

## DATA FRESHNESS

Every answer describes the loaded snapshot, not live infrastructure. Quote the snapshot_date when the user asks about "current" state, and suggest reloading the dashboard if the snapshot looks stale.`
