package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/compliance"
	"github.com/pcidash/pcidash/pkg/jsonutil"
	"github.com/pcidash/pcidash/pkg/loader"
)

// TemplateConfig holds configuration for template-based export.
type TemplateConfig struct {
	// TemplatePath is a path to a custom template file.
	TemplatePath string
	// TemplateString is an inline template string (takes precedence over path).
	TemplateString string
	// BuiltIn selects a built-in template by name: markdown, text-summary, csv.
	BuiltIn string
}

// Report is the data handed to export templates. It flattens the loaded
// dataset and common aggregates so templates stay simple.
type Report struct {
	GeneratedAt    string
	Source         string
	SnapshotDate   string
	Score          aggregate.Score
	Rollups        []aggregate.RequirementRollup
	Findings       []compliance.Finding
	OpenCount      int
	SeverityCounts []aggregate.SeverityCount
	TrendPoints    []compliance.TrendPoint
	Events         []compliance.TrendEvent
}

// BuildReport assembles a Report from a loaded dataset. The findings slice
// may be pre-filtered; pass ds.Findings for the full set.
func BuildReport(ds *loader.DataSet, findings []compliance.Finding, source string) Report {
	return Report{
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		Source:         source,
		SnapshotDate:   ds.Snapshot.SnapshotDate.String(),
		Score:          aggregate.OverallScore(ds.Snapshot),
		Rollups:        aggregate.PerRequirementBreakdown(ds.Catalog, ds.Snapshot, ds.Findings),
		Findings:       findings,
		OpenCount:      len(aggregate.OpenFindings(findings)),
		SeverityCounts: aggregate.SeverityBreakdown(findings),
		TrendPoints:    aggregate.SortTrend(ds.History.Points),
		Events:         ds.History.Events,
	}
}

// builtInTemplates maps built-in template names to template strings.
var builtInTemplates = map[string]string{
	"markdown": `# PCI DSS Compliance Findings

- Generated: {{ .GeneratedAt }}
- Snapshot: {{ .SnapshotDate }}
- Score: **{{ printf "%.1f" .Score.Percentage }}%** ({{ .Score.Passing }} passing / {{ .Score.Failing }} failing)
- Open findings: {{ .OpenCount }}

| ID | Requirement | Severity | Status | Title | Detected |
|----|-------------|----------|--------|-------|----------|
{{- range .Findings }}
| {{ .ID }} | {{ .RequirementID }} | {{ severityIcon (printf "%s" .Severity) }} {{ .Severity }} | {{ .Status }} | {{ .Title }} | {{ .DetectedAt.Format "2006-01-02" }} |
{{- end }}
`,

	"text-summary": `PCI DSS COMPLIANCE SUMMARY
==========================
Source:    {{ .Source }}
Snapshot:  {{ .SnapshotDate }}
Generated: {{ .GeneratedAt }}

Compliance Score: {{ printf "%.1f" .Score.Percentage }}%
  Passing: {{ .Score.Passing }}
  Failing: {{ .Score.Failing }}
{{- if gt .Score.Unknown 0 }}
  Unknown: {{ .Score.Unknown }}
{{- end }}

Findings ({{ len .Findings }} total, {{ .OpenCount }} open)
{{- range .SeverityCounts }}
{{- if gt .Count 0 }}
  {{ printf "%-8s" .Severity }} {{ .Count }}
{{- end }}
{{- end }}

Requirements
{{- range .Rollups }}
  [{{ printf "%-7s" .Status }}] {{ .Requirement.ID }}: {{ .Requirement.Name }}
{{- end }}
`,

	"csv": `identifier,requirement,severity,status,description,evidence,timestamp
{{- range .Findings }}
{{ escapeCSV .ID }},{{ escapeCSV .RequirementID }},{{ .Severity }},{{ .Status }},{{ escapeCSV .Description }},{{ escapeCSV .Evidence }},{{ .DetectedAt.Format "2006-01-02T15:04:05Z07:00" }}
{{- end }}
`,
}

// BuiltInTemplates returns the names of the available built-in templates.
func BuiltInTemplates() []string {
	names := make([]string, 0, len(builtInTemplates))
	for name := range builtInTemplates {
		names = append(names, name)
	}
	return names
}

// TemplateWriter renders a Report through a Go text/template. Sprig
// functions are available, plus a few domain helpers.
type TemplateWriter struct {
	w    io.Writer
	tmpl *template.Template
}

// NewTemplateWriter creates a template writer. Template resolution order:
// TemplateString, TemplatePath, BuiltIn.
func NewTemplateWriter(w io.Writer, config TemplateConfig) (*TemplateWriter, error) {
	tmpl, err := parseTemplate(config)
	if err != nil {
		return nil, err
	}
	return &TemplateWriter{w: w, tmpl: tmpl}, nil
}

// parseTemplate resolves and parses the template from the config.
func parseTemplate(config TemplateConfig) (*template.Template, error) {
	funcMap := sprig.TxtFuncMap()
	funcMap["escapeCSV"] = tmplEscapeCSV
	funcMap["severityIcon"] = tmplSeverityIcon
	funcMap["json"] = tmplJSON
	funcMap["prettyJSON"] = tmplPrettyJSON

	var text string
	switch {
	case config.TemplateString != "":
		text = config.TemplateString
	case config.TemplatePath != "":
		data, err := os.ReadFile(config.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("export: read template: %w", err)
		}
		text = string(data)
	case config.BuiltIn != "":
		builtin, ok := builtInTemplates[config.BuiltIn]
		if !ok {
			return nil, fmt.Errorf("export: unknown built-in template %q (available: %s)",
				config.BuiltIn, strings.Join(BuiltInTemplates(), ", "))
		}
		text = builtin
	default:
		return nil, fmt.Errorf("export: no template specified")
	}

	tmpl, err := template.New("export").Funcs(funcMap).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("export: parse template: %w", err)
	}
	return tmpl, nil
}

// Render executes the template against the report.
func (tw *TemplateWriter) Render(rep Report) error {
	if err := tw.tmpl.Execute(tw.w, rep); err != nil {
		return fmt.Errorf("export: render template: %w", err)
	}
	return nil
}

// tmplEscapeCSV escapes a string for embedding in a CSV field.
func tmplEscapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// tmplSeverityIcon returns a text icon for a severity level.
func tmplSeverityIcon(severity string) string {
	switch strings.ToLower(severity) {
	case "critical":
		return "[!!]"
	case "high":
		return "[!]"
	case "medium":
		return "[*]"
	case "low":
		return "[-]"
	default:
		return "[?]"
	}
}

// tmplJSON renders a value as compact JSON.
func tmplJSON(v any) string {
	data, err := jsonutil.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// tmplPrettyJSON renders a value as indented JSON.
func tmplPrettyJSON(v any) string {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
