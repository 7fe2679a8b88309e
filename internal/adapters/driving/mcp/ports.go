package mcp

import (
	"github.com/custodia-labs/courselens/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Search provides hybrid course search.
	Search driving.SearchService

	// Context assembles evidence bundles.
	Context driving.ContextService

	// Embedding reports coverage. Optional.
	Embedding driving.EmbeddingService

	// Batch drives generation. Optional.
	Batch driving.BatchService

	// Catalog backs the course resources. Optional.
	Catalog driving.CatalogService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Context == nil {
		return ErrMissingContextService
	}
	return nil
}
