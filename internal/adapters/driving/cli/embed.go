package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

var (
	embedKind     string
	embedForce    bool
	embedPageSize int
	statsKind     string
	statsJSON     bool
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Manage course embeddings",
	Long:  `Generate embeddings for course descriptions, reviews and content, and report coverage.`,
}

var embedGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate pending embeddings",
	Long: `Embeds every item without a current embedding, page by page, until
nothing is pending. With --force, items embedded before the run started are
re-embedded as well.`,
	Args: cobra.NoArgs,
	RunE: runEmbedGenerate,
}

var embedStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show embedding coverage",
	Args:  cobra.NoArgs,
	RunE:  runEmbedStats,
}

func init() {
	embedGenerateCmd.Flags().StringVarP(&embedKind, "kind", "k", string(domain.SourceKindAll),
		"source kind: description, reviews, content or all")
	embedGenerateCmd.Flags().BoolVarP(&embedForce, "force", "f", false, "re-embed current items")
	embedGenerateCmd.Flags().IntVar(&embedPageSize, "page-size", 0, "items per batch (0 = configured default)")

	embedStatsCmd.Flags().StringVarP(&statsKind, "kind", "k", string(domain.SourceKindAll),
		"source kind: description, reviews, content or all")
	embedStatsCmd.Flags().BoolVar(&statsJSON, "json", false, "output stats as JSON")

	embedCmd.AddCommand(embedGenerateCmd)
	embedCmd.AddCommand(embedStatsCmd)
	rootCmd.AddCommand(embedCmd)
}

func runEmbedGenerate(cmd *cobra.Command, _ []string) error {
	if batchService == nil {
		return errors.New("embedding service not configured")
	}

	kind, err := parseKind(embedKind)
	if err != nil {
		return err
	}

	cmd.Printf("Generating %s embeddings...\n", kind)
	progress := newProgressPrinter(cmd.OutOrStdout())

	report, err := batchService.RunPages(cmd.Context(), kind, embedForce, embedPageSize, progress.print)
	progress.done()
	if err != nil {
		return fmt.Errorf("embedding generation failed: %w", err)
	}

	cmd.Printf("Done: %d processed, %d failed in %d batches (%s, %.1f items/s)\n",
		report.Processed, report.Failed, report.Batches,
		report.Elapsed.Round(time.Millisecond), report.Rate)
	return nil
}

func runEmbedStats(cmd *cobra.Command, _ []string) error {
	if embeddingService == nil {
		return errors.New("embedding service not configured")
	}

	kind, err := parseKind(statsKind)
	if err != nil {
		return err
	}

	stats, err := embeddingService.Stats(cmd.Context(), kind, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if statsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Printf("  %-12s %8s %8s %8s\n", "KIND", "TOTAL", "EMBEDDED", "PENDING")
	for _, k := range stats.Kinds {
		cmd.Printf("  %-12s %8d %8d %8d\n", k.Kind, k.Total, k.Embedded, k.Pending)
	}
	cmd.Printf("\nSkipped (current): %d\n", stats.Skipped)
	return nil
}

// progressPrinter renders batch events. On a terminal each event
// overwrites the previous line; otherwise one line is written per event.
type progressPrinter struct {
	w     io.Writer
	tty   bool
	width int
	drawn bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	p := &progressPrinter{w: w}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			p.width = width
		}
	}
	return p
}

func (p *progressPrinter) print(ev domain.ProgressEvent) {
	line := formatProgress(ev)
	if !p.tty {
		fmt.Fprintln(p.w, line)
		return
	}
	if p.width > 1 && len(line) >= p.width {
		line = line[:p.width-1]
	}
	fmt.Fprintf(p.w, "\r%s\033[K", line)
	p.drawn = true
}

func (p *progressPrinter) done() {
	if p.tty && p.drawn {
		fmt.Fprintln(p.w)
	}
}

func formatProgress(ev domain.ProgressEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] batch %d: %d processed, %d failed, %d pending (%.1f items/s)",
		ev.State, ev.Batch, ev.Processed, ev.Failed, ev.Pending, ev.Rate)
	if ev.Message != "" {
		fmt.Fprintf(&sb, ": %s", ev.Message)
	}
	return sb.String()
}
