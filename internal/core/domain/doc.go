// Package domain defines the core business entities for Courselens.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Course: A catalog entry identified by a primary listing number and aliases
//   - EmbeddingRecord: The stored vector for one (course, source kind) pair
//   - SearchHit: A transient, scored piece of course evidence
//   - ContextBundle: The assembled evidence handed to a generation model
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
