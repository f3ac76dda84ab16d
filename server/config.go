package server

// Config is the web server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// BodyLimit caps a request body in bytes, bounding multi-file uploads.
	// Zero selects 32 MiB.
	BodyLimit int

	// Version is reported to MCP clients
	Version string
}
