package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

func TestEmbedGenerateCmd_Flags(t *testing.T) {
	for _, name := range []string{"kind", "force", "page-size"} {
		assert.NotNil(t, embedGenerateCmd.Flags().Lookup(name), name)
	}
}

func TestEmbedGenerateCmd_RunsBatches(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mock := &mockBatchService{}
	batchService = mock

	out, err := execute(t, "embed", "generate", "--kind", "content", "--force", "--page-size", "25")

	require.NoError(t, err)
	assert.Equal(t, domain.SourceKindContent, mock.gotKind)
	assert.True(t, mock.gotForce)
	assert.Equal(t, 25, mock.gotPageSize)
	assert.Contains(t, out, "[running] batch 0: 0 processed, 0 failed, 3 pending")
	assert.Contains(t, out, "Done: 3 processed, 0 failed in 1 batches (2s, 1.5 items/s)")
}

func TestEmbedGenerateCmd_FailureKeepsMessage(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	batchService = &mockBatchService{err: domain.ErrBatchLimitExceeded}

	out, err := execute(t, "embed", "generate")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBatchLimitExceeded)
	assert.Contains(t, out, "[failed] batch 0: 0 processed, 0 failed, 0 pending (0.0 items/s): max batches reached")
}

func TestEmbedStatsCmd_Table(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "embed", "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "description")
	assert.Contains(t, out, "Skipped (current): 12")
}

func TestEmbedStatsCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "embed", "stats", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"skipped": 12`)
}

func TestProgressPrinter_NonTerminal(t *testing.T) {
	buf := new(bytes.Buffer)
	p := newProgressPrinter(buf)
	assert.False(t, p.tty)

	p.print(domain.ProgressEvent{State: domain.BatchStateRunning, Batch: 2, Processed: 10, Pending: 5, Rate: 2.5})
	p.done()

	assert.Equal(t, "[running] batch 2: 10 processed, 0 failed, 5 pending (2.5 items/s)\n", buf.String())
}

func TestFormatProgress_Message(t *testing.T) {
	line := formatProgress(domain.ProgressEvent{State: domain.BatchStateFailed, Message: errors.New("boom").Error()})
	assert.Contains(t, line, ": boom")
}
