// Package cli provides the courselens command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/courselens/internal/core/ports/driving"
	"github.com/custodia-labs/courselens/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services used by the commands. Nil services make their commands fail
// with a "not configured" error.
var (
	searchService    driving.SearchService
	contextService   driving.ContextService
	embeddingService driving.EmbeddingService
	batchService     driving.BatchService
	catalogService   driving.CatalogService
	settingsService  driving.SettingsService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "courselens",
	Short: "Semantic course discovery",
	Long: `courselens indexes a course catalog, its student reviews and uploaded
course material, and answers natural-language questions about which
courses are relevant.

Retrieval fuses keyword and embedding similarity per source kind and
assembles the evidence a language model needs to answer.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages to stderr")
}

// Services aggregates the driving ports the commands call.
type Services struct {
	Search    driving.SearchService
	Context   driving.ContextService
	Embedding driving.EmbeddingService
	Batch     driving.BatchService
	Catalog   driving.CatalogService
	Settings  driving.SettingsService
}

// Configure installs the services and build version.
func Configure(s Services, buildVersion string) {
	searchService = s.Search
	contextService = s.Context
	embeddingService = s.Embedding
	batchService = s.Batch
	catalogService = s.Catalog
	settingsService = s.Settings
	if buildVersion != "" {
		version = buildVersion
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
