// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CourseStore: Course catalog and alias identities
//   - ReviewStore: Student reviews
//   - ContentStore: Uploaded course material text
//   - SourceItemStore: The current text to embed per (course, kind)
//   - EmbeddingStore: Persisted EmbeddingRecords
//   - LexicalIndex: Full-text search. Keyword ranking is always available.
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VectorIndex: Similarity search over stored embeddings.
//   - EmbeddingService: Generates vectors. Without it, retrieval is lexical-only
//     and context assembly returns empty bundles.
//   - NormaliserRegistry: Converts markup in imported content. Without it,
//     only plain text is accepted.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
