// Package main is the entry point for the Codelab server.
//
// Codelab backs a browser code playground: it runs small multi-file projects
// as local guest processes, reviews source files with heuristic rules and
// stores projects for sharing. The same engines are served either as an HTTP
// API for the editor (transport "http") or as MCP tools over stdio
// (transport "stdio") or streamable HTTP (transport "mcp").
//
// Guest processes run as the server user with a scratch directory, a timeout
// and an output cap. This is not an isolation boundary; deploy it only where
// the people submitting code are trusted.
//
// The application uses Uber's fx framework for dependency injection and lifecycle
// management, with zap for structured logging and viper for configuration.
package main
