// Package api provides the HTTP API server for uploading documents and
// asking questions about them.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// BodyLimitMB caps request bodies, uploads included (defaults to 50)
	BodyLimitMB int

	// RenderPDF makes /ask answer with a PDF unless ?format=json is passed
	RenderPDF bool

	// MCP mounts the MCP search endpoint at /mcp
	MCP bool
}
