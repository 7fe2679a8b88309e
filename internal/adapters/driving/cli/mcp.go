package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/courselens/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve the course catalog to MCP clients.

Tools: search_courses and build_context, plus embedding_stats and
generate_embeddings when storage is configured. Course records are
exposed as courselens://courses resources.

Without --port the server speaks JSON-RPC on stdio, which is what
assistant clients launch:

  {"mcpServers": {"courselens": {"command": "courselens", "args": ["mcp", "serve"]}}}

With --port it serves the streamable HTTP transport instead:

  courselens mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if searchService == nil || contextService == nil {
		return errors.New("search and context services not configured")
	}

	ports := &mcp.Ports{
		Search:    searchService,
		Context:   contextService,
		Embedding: embeddingService,
		Batch:     batchService,
		Catalog:   catalogService,
	}

	server, err := mcp.NewServer(ports, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf("localhost:%d", port)
		cmd.Printf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
