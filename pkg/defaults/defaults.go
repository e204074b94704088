// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for runtime configuration defaults.
//
// Usage:
//
//	paths := loader.DefaultPaths(defaults.DataDir)
//	srv.ReadHeaderTimeout = defaults.ReadHeaderTimeout
//
// DO NOT hardcode values like `Addr: ":9105"` anywhere. Reference the
// appropriate constant from this package instead.
package defaults

import "time"

// Version is the current pcidash version. Overridable at build time:
// go build -ldflags "-X github.com/pcidash/pcidash/pkg/defaults.Version=1.3.0"
var Version = "1.2.0"

// ToolName is the canonical binary and service name
const ToolName = "pcidash"

// ============================================================================
// DATA FILES
// ============================================================================
//
// Default file names inside the data directory. The catalog keeps the
// YAML format of the lab data set; the snapshot, findings, and trend files
// are JSON.
// ============================================================================

const (
	// DataDir is the default data directory, relative to the working dir
	DataDir = "data"

	// RequirementsFile is the PCI DSS requirements catalog (YAML)
	RequirementsFile = "pci_requirements.yaml"

	// ControlStatusFile is the control-status snapshot (JSON)
	ControlStatusFile = "simulated_control_status.json"

	// FindingsFile is the findings list (JSON)
	FindingsFile = "simulated_findings.json"

	// TrendFile is the compliance trend history (JSON)
	TrendFile = "simulated_trend.json"
)

// ============================================================================
// EXPORT
// ============================================================================

const (
	// ExportFilePrefix prefixes the default findings export file name;
	// the full name is pci_findings_YYYYMMDD.csv
	ExportFilePrefix = "pci_findings_"

	// ExportDateLayout is the date portion of the default export name
	ExportDateLayout = "20060102"

	// ExportTimestampFormat is the default timestamp column format
	ExportTimestampFormat = time.RFC3339
)

// ============================================================================
// CONFIG FILE
// ============================================================================

const (
	// ConfigDirName is the directory under the user config root
	// (~/.config/pcidash on Linux)
	ConfigDirName = "pcidash"

	// ConfigFileName is the preferences file inside ConfigDirName
	ConfigFileName = "config.json"
)

// ============================================================================
// SCORE THRESHOLDS
// ============================================================================
//
// Used to color the overall compliance meter. Percentages, one decimal.
// ============================================================================

const (
	// ScoreHealthy renders green at or above this percentage
	ScoreHealthy = 90.0

	// ScoreWarning renders yellow at or above this percentage
	ScoreWarning = 70.0
)

// ============================================================================
// SERVE MODE
// ============================================================================

const (
	// ServeAddr is the default listen address for the metrics exporter
	ServeAddr = ":9105"

	// ReloadInterval is the default data re-read interval in serve mode
	ReloadInterval = 60 * time.Second

	// ReadHeaderTimeout bounds request header reads on the HTTP servers
	ReadHeaderTimeout = 10 * time.Second

	// ShutdownTimeout bounds graceful HTTP server shutdown
	ShutdownTimeout = 5 * time.Second

	// APIRateLimit is the sustained request rate allowed on the JSON API
	// (requests per second)
	APIRateLimit = 25

	// APIRateBurst is the burst size allowed on the JSON API
	APIRateBurst = 50
)

// ============================================================================
// MCP SERVER
// ============================================================================

const (
	// MCPHTTPAddr is the default HTTP listen address for -http mode
	MCPHTTPAddr = ":8811"

	// MCPFindingsLimit caps list_findings results per call
	MCPFindingsLimit = 200
)

// ============================================================================
// TELEMETRY
// ============================================================================

const (
	// OTLPEndpoint is the default collector endpoint when tracing is enabled
	OTLPEndpoint = "localhost:4317"

	// OTLPConnectTimeout bounds exporter connection establishment
	OTLPConnectTimeout = 10 * time.Second

	// OTLPShutdownTimeout bounds trace flush on shutdown
	OTLPShutdownTimeout = 5 * time.Second
)

// ============================================================================
// DISPLAY
// ============================================================================

const (
	// TerminalWidth is assumed when the real width cannot be detected
	TerminalWidth = 120

	// QuickTrendDays is the trailing window of the executive view's
	// compact trend strip
	QuickTrendDays = 16

	// TruncateTitle is the cell width findings-table titles truncate to
	TruncateTitle = 40
)
