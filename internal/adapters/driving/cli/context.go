package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	contextCount int
	contextJSON  bool
)

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Assemble course context for a question",
	Long: `Builds the evidence a language model receives for a question: the most
relevant courses with catalog details, recent reviews by other students and
excerpts of uploaded course material.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().IntVarP(&contextCount, "count", "c", 0, "number of courses (0 = configured default)")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output the bundle as JSON")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if contextService == nil {
		return errors.New("context service not configured")
	}

	bundle, err := contextService.BuildContextN(cmd.Context(), args[0], contextCount)
	if err != nil {
		return fmt.Errorf("building context failed: %w", err)
	}

	if contextJSON {
		return printJSON(cmd, bundle)
	}
	cmd.Println(bundle.Render())
	return nil
}
