package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

const defaultSearchLimit = 10

// SearchInput is the input schema for the search_courses tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"natural-language description of the courses wanted"`
	Kind  string `json:"kind,omitempty" jsonschema:"description, reviews, content or all (default all)"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search_courses tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search hit.
type SearchResultOutput struct {
	CourseNumber  string  `json:"course_number"`
	Kind          string  `json:"kind"`
	Score         float64 `json:"score"`
	LexicalScore  float64 `json:"lexical_score"`
	SemanticScore float64 `json:"semantic_score"`
	Snippet       string  `json:"snippet,omitempty"`
}

// ContextInput is the input schema for the build_context tool.
type ContextInput struct {
	Query string `json:"query" jsonschema:"the student's question"`
	Count int    `json:"count,omitempty" jsonschema:"number of courses to include (default from settings)"`
}

// ContextOutput is the output schema for the build_context tool.
type ContextOutput struct {
	// Text is the rendered context block for a language model prompt.
	Text    string          `json:"text"`
	Courses []CourseOutput  `json:"courses"`
	Reviews []ReviewOutput  `json:"reviews"`
	Content []SnippetOutput `json:"content"`
}

// CourseOutput is one course in a context bundle.
type CourseOutput struct {
	Number      string   `json:"number"`
	Aliases     []string `json:"aliases,omitempty"`
	Title       string   `json:"title"`
	WhyRelevant string   `json:"why_relevant"`
	Score       float64  `json:"score"`
}

// ReviewOutput is one review excerpt.
type ReviewOutput struct {
	CourseNumber string `json:"course_number"`
	Text         string `json:"text"`
	Rating       int    `json:"rating,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// SnippetOutput is one course material excerpt.
type SnippetOutput struct {
	CourseNumber string  `json:"course_number"`
	Snippet      string  `json:"snippet"`
	Score        float64 `json:"score"`
}

// StatsInput is the input schema for the embedding_stats tool.
type StatsInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"description, reviews, content or all (default all)"`
}

// StatsOutput is the output schema for the embedding_stats tool.
type StatsOutput struct {
	Kinds   []KindStatsOutput `json:"kinds"`
	Skipped int               `json:"skipped"`
}

// KindStatsOutput holds coverage for one source kind.
type KindStatsOutput struct {
	Kind     string `json:"kind"`
	Total    int    `json:"total"`
	Embedded int    `json:"embedded"`
	Pending  int    `json:"pending"`
}

// GenerateInput is the input schema for the generate_embeddings tool.
type GenerateInput struct {
	Kind     string `json:"kind,omitempty" jsonschema:"description, reviews, content or all (default all)"`
	Force    bool   `json:"force,omitempty" jsonschema:"re-embed items that are already current"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"items per batch (default from settings)"`
}

// GenerateOutput is the output schema for the generate_embeddings tool.
type GenerateOutput struct {
	State            string  `json:"state"`
	Batches          int     `json:"batches"`
	Processed        int     `json:"processed"`
	Failed           int     `json:"failed"`
	RemainingPending int     `json:"remaining_pending"`
	Rate             float64 `json:"rate"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
	Message          string  `json:"message,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_courses",
		Description: "Hybrid keyword and semantic search over course descriptions, reviews and content",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_context",
		Description: "Assemble the most relevant courses, student reviews and material excerpts for a question",
	}, s.handleBuildContext)

	if s.ports.Embedding != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "embedding_stats",
			Description: "Report embedding coverage per source kind",
		}, s.handleStats)
	}

	if s.ports.Batch != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "generate_embeddings",
			Description: "Embed pending catalog text until nothing is pending",
		}, s.handleGenerate)
	}
}

// handleSearch handles the search_courses tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	kind, err := parseKind(input.Kind)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.ports.Search.Search(ctx, input.Query, kind, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			CourseNumber:  results[i].CourseNumber,
			Kind:          string(results[i].Kind),
			Score:         results[i].Score,
			LexicalScore:  results[i].LexicalScore,
			SemanticScore: results[i].SemanticScore,
			Snippet:       results[i].Snippet,
		}
	}

	return nil, output, nil
}

// handleBuildContext handles the build_context tool invocation.
func (s *Server) handleBuildContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	bundle, err := s.ports.Context.BuildContextN(ctx, input.Query, input.Count)
	if err != nil {
		return nil, ContextOutput{}, err
	}

	output := ContextOutput{
		Text:    bundle.Render(),
		Courses: make([]CourseOutput, len(bundle.Classes)),
		Reviews: make([]ReviewOutput, len(bundle.Reviews)),
		Content: make([]SnippetOutput, len(bundle.ContentSnippets)),
	}
	for i := range bundle.Classes {
		c := &bundle.Classes[i]
		output.Courses[i] = CourseOutput{
			Number:      c.Number,
			Aliases:     c.Aliases,
			Title:       c.Title,
			WhyRelevant: c.WhyRelevant,
			Score:       c.Score,
		}
	}
	for i, r := range bundle.Reviews {
		output.Reviews[i] = ReviewOutput{
			CourseNumber: r.CourseNumber,
			Text:         r.Text,
			Rating:       r.Rating,
			CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		}
	}
	for i, sn := range bundle.ContentSnippets {
		output.Content[i] = SnippetOutput{
			CourseNumber: sn.CourseNumber,
			Snippet:      sn.Snippet,
			Score:        sn.Score,
		}
	}

	return nil, output, nil
}

// handleStats handles the embedding_stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	kind, err := parseKind(input.Kind)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	stats, err := s.ports.Embedding.Stats(ctx, kind, time.Time{})
	if err != nil {
		return nil, StatsOutput{}, err
	}

	output := StatsOutput{
		Kinds:   make([]KindStatsOutput, len(stats.Kinds)),
		Skipped: stats.Skipped,
	}
	for i, k := range stats.Kinds {
		output.Kinds[i] = KindStatsOutput{
			Kind:     string(k.Kind),
			Total:    k.Total,
			Embedded: k.Embedded,
			Pending:  k.Pending,
		}
	}
	return nil, output, nil
}

// handleGenerate handles the generate_embeddings tool invocation. A failed
// run still returns its report so the caller sees partial progress.
func (s *Server) handleGenerate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateInput,
) (*mcp.CallToolResult, GenerateOutput, error) {
	kind, err := parseKind(input.Kind)
	if err != nil {
		return nil, GenerateOutput{}, err
	}

	report, err := s.ports.Batch.RunPages(ctx, kind, input.Force, input.PageSize, nil)
	if report == nil {
		if err == nil {
			err = errors.New("generation returned no report")
		}
		return nil, GenerateOutput{}, err
	}

	output := GenerateOutput{
		State:            string(report.State),
		Batches:          report.Batches,
		Processed:        report.Processed,
		Failed:           report.Failed,
		RemainingPending: report.RemainingPending,
		Rate:             report.Rate,
		ElapsedSeconds:   report.Elapsed.Seconds(),
		Message:          report.Message,
	}
	return nil, output, err
}

func parseKind(s string) (domain.SourceKind, error) {
	if s == "" {
		return domain.SourceKindAll, nil
	}
	kind := domain.SourceKind(s)
	if !kind.IsValidScope() {
		return "", fmt.Errorf("%w: unknown kind %q", domain.ErrValidation, s)
	}
	return kind, nil
}
