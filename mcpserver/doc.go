// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes the playground to MCP clients through the
// mark3labs/mcp-go library. Two tools are registered:
//
//   - execute_project runs a multi-file project and returns its output,
//     both streams, the exit code and the chosen entry file as JSON.
//   - analyze_source reviews a single file and returns the rendered feedback
//     together with the structured report.
//
// Execution and analysis failures are returned as tool results with IsError
// set, so the calling model sees the diagnostic text. Malformed arguments are
// protocol errors.
//
// Usage:
//
//	server, err := mcpserver.New(config, logger, engine, analyzer)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or server.ServeHTTP()
package mcpserver
