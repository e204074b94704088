// Package mcpserver exposes the compliance dashboard as a Model Context
// Protocol (MCP) server, so AI assistants (Claude, VS Code Copilot, Cursor,
// etc.) can query PCI DSS posture through natural conversation.
//
// # Architecture
//
// The server is built on the official MCP Go SDK and exposes two categories
// of capabilities:
//
//   - Tools:     Read-only queries (compliance_summary, requirement_detail,
//     list_findings, compliance_trend, export_findings)
//   - Resources: Data-set metadata the AI can read before querying
//
// Every tool is read-only and idempotent: the server never mutates the
// loaded data set, and the only artifact a tool produces is the delimited
// text returned by export_findings.
//
// # Transports
//
// Two transport modes are supported:
//
//   - stdio: Communicates over stdin/stdout (default). Used by IDE integrations.
//   - HTTP:  Streamable HTTP. Used for remote deployments.
//
// # Usage
//
//	srv, err := mcpserver.New(ds, mcpserver.Options{Source: "data/"})
//	if err != nil { ... }
//	err = srv.RunStdio(ctx)
package mcpserver
