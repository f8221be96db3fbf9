package server

// Config is the HTTP server configuration.
type Config struct {
	// Address to listen on (e.g., "127.0.0.1:6070")
	ListenAddr string

	// EnableMCP mounts the MCP streamable HTTP endpoint at /mcp.
	EnableMCP bool
}
