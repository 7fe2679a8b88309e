// Package driving defines the operations the CLI and the MCP server invoke:
// search, context assembly, embedding generation and statistics, batch runs,
// catalog access and settings. internal/core/services implements them.
package driving
