// Package sampledata embeds the bundled demonstration data set.
//
// This ensures the dashboard can start with no external files (Docker,
// CI smoke runs, first-time evaluation). The loader falls back to these
// embedded files when the -demo flag is set.
//
// Usage:
//
//	fs := sampledata.FS
//	data, _ := fs.ReadFile("pci_requirements.yaml")
package sampledata

import "embed"

// FS contains the four bundled data files: the requirement catalog, the
// control-status snapshot, the findings list, and the trend history. The
// same files can be pointed at directly with -data sampledata/.
//
//go:embed *.yaml *.json
var FS embed.FS
