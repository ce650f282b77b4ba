package chromemdb

import (
	"context"
	"path/filepath"
	"testing"

	"study-assistant/internal/config"
	"study-assistant/internal/models"
	"study-assistant/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chunks = []models.Chunk{
	{ChunkID: 1, Content: "Berlin is in Germany"},
	{ChunkID: 2, Content: "The capital of France is Paris"},
	{ChunkID: 3, Content: "   "},
	{ChunkID: 4, Content: "Rome is old"},
}

func newManager(t *testing.T, cfg config.VectorDBConfig) *VectorDBManager {
	cfg.InMemory = true
	m, err := NewVectorDBManager(cfg, testutil.NewBagOfWords())
	require.NoError(t, err)
	return m
}

func TestSearch(t *testing.T) {
	m := newManager(t, config.VectorDBConfig{})
	ctx := context.Background()
	require.NoError(t, m.IndexChunks(ctx, "s1", chunks))

	passages, err := m.Search(ctx, "s1", "capital of France", 2)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, 2, passages[0].ChunkID)
	assert.Equal(t, "The capital of France is Paris", passages[0].Content)
	assert.GreaterOrEqual(t, passages[0].Similarity, passages[1].Similarity)

	// k larger than the collection is clamped; the blank chunk was never indexed
	passages, err = m.Search(ctx, "s1", "capital of France", 10)
	require.NoError(t, err)
	assert.Len(t, passages, 3)
}

func TestSearchUnknownSession(t *testing.T) {
	m := newManager(t, config.VectorDBConfig{})
	passages, err := m.Search(context.Background(), "nobody", "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestIndexChunksReplacesCollection(t *testing.T) {
	m := newManager(t, config.VectorDBConfig{})
	ctx := context.Background()
	require.NoError(t, m.IndexChunks(ctx, "s1", chunks))
	require.NoError(t, m.IndexChunks(ctx, "s1", []models.Chunk{{ChunkID: 1, Content: "Photosynthesis in plants"}}))

	passages, err := m.Search(ctx, "s1", "plants", 5)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "Photosynthesis in plants", passages[0].Content)
	assert.Equal(t, []string{"s1"}, m.SessionIDs())

	require.NoError(t, m.DeleteCollection("s1"))
	assert.Empty(t, m.SessionIDs())
	passages, err = m.Search(ctx, "s1", "plants", 5)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestExportImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passages.gob")
	ctx := context.Background()

	m := newManager(t, config.VectorDBConfig{ExportPath: path})
	require.NoError(t, m.IndexChunks(ctx, "s1", chunks))
	require.NoError(t, m.Export())

	restored := newManager(t, config.VectorDBConfig{ExportPath: path})
	require.NoError(t, restored.Import())
	collection := restored.db.GetCollection(collectionName("s1"), nil)
	require.NotNil(t, collection)
	assert.Equal(t, 3, collection.Count())

	assert.NoError(t, newManager(t, config.VectorDBConfig{}).Export())
}
