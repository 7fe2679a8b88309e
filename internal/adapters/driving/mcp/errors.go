// Package mcp provides an MCP (Model Context Protocol) server adapter for courselens.
// It lets AI assistants search the course catalog and fetch assembled course context.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingContextService is returned when the context service is not provided.
var ErrMissingContextService = errors.New("mcp: context service is required")
