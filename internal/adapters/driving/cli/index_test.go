package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

func TestIndexCmd_Owner(t *testing.T) {
	ts := setupTestServices(t)
	ts.index.report = &domain.IndexReport{
		Success:      true,
		Message:      "Indexed 3 slides",
		IndexedCount: 3,
		SkippedCount: 1,
		Breakdown:    domain.IndexBreakdown{Projects: 2, Assets: 4, Tasks: 5},
	}

	out, err := execute(t, "index", "-o", "u1")

	require.NoError(t, err)
	assert.Equal(t, domain.Owner("u1"), ts.index.lastOwner)
	assert.Contains(t, out, "Indexed 3 slides")
	assert.Contains(t, out, "Skipped:  1")
	assert.Contains(t, out, "Projects: 2, Slides: 4, Todos: 5")
}

func TestIndexCmd_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.index.report = &domain.IndexReport{Success: true, IndexedCount: 2}

	out, err := execute(t, "index", "-o", "u1", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"indexed_count": 2`)
}

func TestIndexCmd_Asset(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "index", "-o", "u1", "--asset", "s1")

	require.NoError(t, err)
	assert.Equal(t, "s1", ts.index.lastAsset)
	assert.Contains(t, out, "Indexed slide s1")
}

func TestIndexCmd_Error(t *testing.T) {
	ts := setupTestServices(t)
	ts.index.err = domain.ErrEmbeddingUnavailable

	_, err := execute(t, "index", "-o", "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
}

func TestIndexCmd_RejectsArgs(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "index", "-o", "u1", "extra")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
