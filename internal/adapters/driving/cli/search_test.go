package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
	assert.Contains(t, searchCmd.Long, "hybrid search")
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, "search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_Flags(t *testing.T) {
	limit := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "n", limit.Shorthand)
	assert.Equal(t, "10", limit.DefValue)

	kind := searchCmd.Flags().Lookup("kind")
	require.NotNil(t, kind)
	assert.Equal(t, "all", kind.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "search", "machine learning")

	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] 6.3900 (0.95) description")
	assert.Contains(t, out, "supervised learning")
}

func TestSearchCmd_PassesKindAndLimit(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mock := &mockSearchService{}
	searchService = mock

	_, err := execute(t, "search", "--kind", "reviews", "-n", "5", "easy grading")

	require.NoError(t, err)
	assert.Equal(t, domain.SourceKindReviews, mock.gotKind)
	assert.Equal(t, 5, mock.gotLimit)
}

func TestSearchCmd_RejectsUnknownKind(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "search", "--kind", "syllabus", "q")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "search", "--json", "machine learning")

	require.NoError(t, err)
	assert.Contains(t, out, `"course_number": "6.3900"`)
	assert.Contains(t, out, `"semantic_score"`)
}

func TestSearchCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	searchService = &mockSearchService{err: errors.New("index offline")}

	_, err := execute(t, "search", "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed: index offline")
}

func TestOutputSearchTable_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputSearchTable(rootCmd, []domain.SearchHit{})

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found")
}
