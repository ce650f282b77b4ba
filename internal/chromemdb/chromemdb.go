package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"study-assistant/internal/config"
	"study-assistant/internal/embedding"
	"study-assistant/internal/helper"
	"study-assistant/internal/models"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

const (
	compress         = false
	collectionPrefix = "session-"
	chunkIDKey       = "chunk_id"
)

// VectorDBManager keeps one chromem collection of document chunks per
// session for passage search.
type VectorDBManager struct {
	db            *chromem.DB
	embedder      embedding.Embedder
	encryptionKey string
	exportPath    string
}

// NewVectorDBManager initializes a new vector database manager
func NewVectorDBManager(cfg config.VectorDBConfig, embedder embedding.Embedder) (*VectorDBManager, error) {
	var db *chromem.DB
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		if err := helper.CreateFolder(cfg.Path); err != nil {
			return nil, fmt.Errorf("failed to create db folder: %w", err)
		}
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return &VectorDBManager{
		db:            db,
		embedder:      embedder,
		encryptionKey: cfg.EncryptionKey,
		exportPath:    cfg.ExportPath,
	}, nil
}

func collectionName(sessionID string) string {
	return collectionPrefix + sessionID
}

func (m *VectorDBManager) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return m.embedder.EmbedQuery(ctx, text)
	}
}

// IndexChunks replaces the session's collection with the given chunks.
// Blank chunks are not indexed.
func (m *VectorDBManager) IndexChunks(ctx context.Context, sessionID string, chunks []models.Chunk) error {
	if err := m.DeleteCollection(sessionID); err != nil {
		return err
	}

	var contents []string
	var kept []models.Chunk
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		contents = append(contents, c.Content)
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil
	}

	vectors, err := m.embedder.EmbedDocuments(ctx, contents)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(kept) {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(kept))
	}

	docs := make([]chromem.Document, 0, len(kept))
	for i, c := range kept {
		if isZero(vectors[i]) {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        fmt.Sprintf("%s-%d", sessionID, c.ChunkID),
			Content:   c.Content,
			Metadata:  map[string]string{chunkIDKey: strconv.Itoa(c.ChunkID)},
			Embedding: vectors[i],
		})
	}
	if len(docs) == 0 {
		return nil
	}

	collection, err := m.db.GetOrCreateCollection(collectionName(sessionID), nil, m.embeddingFunc())
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	log.Debug().Str("session", sessionID).Int("chunks", len(docs)).Msg("Chunks indexed")
	return nil
}

// Search returns up to k passages of the session most similar to query.
func (m *VectorDBManager) Search(ctx context.Context, sessionID, query string, k int) ([]models.Passage, error) {
	collection := m.db.GetCollection(collectionName(sessionID), m.embeddingFunc())
	if collection == nil || collection.Count() == 0 || k <= 0 {
		return []models.Passage{}, nil
	}

	queryEmbedding, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if isZero(queryEmbedding) {
		return []models.Passage{}, nil
	}

	results, err := collection.QueryEmbedding(ctx, queryEmbedding, min(k, collection.Count()), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	passages := make([]models.Passage, 0, len(results))
	for _, r := range results {
		id, _ := strconv.Atoi(r.Metadata[chunkIDKey])
		passages = append(passages, models.Passage{ChunkID: id, Content: r.Content, Similarity: r.Similarity})
	}
	return passages, nil
}

// SessionIDs lists the sessions that have a passage collection.
func (m *VectorDBManager) SessionIDs() []string {
	var ids []string
	for name := range m.db.ListCollections() {
		if id, ok := strings.CutPrefix(name, collectionPrefix); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// delete collection
func (m *VectorDBManager) DeleteCollection(sessionID string) error {
	if err := m.db.DeleteCollection(collectionName(sessionID)); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// Export writes every collection to the configured export file. It is a
// no-op without an export path.
func (m *VectorDBManager) Export() error {
	if m.exportPath == "" {
		return nil
	}
	log.Debug().Str("file", m.exportPath).Bool("encrypted", m.encryptionKey != "").Msg("Exporting vector database")
	if err := m.db.ExportToFile(m.exportPath, compress, m.encryptionKey); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import restores collections from the export file if it exists.
func (m *VectorDBManager) Import() error {
	if m.exportPath == "" {
		return nil
	}
	if _, err := os.Stat(m.exportPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := m.db.ImportFromFile(m.exportPath, m.encryptionKey); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	log.Info().Str("file", m.exportPath).Int("collections", len(m.db.ListCollections())).Msg("Vector database imported")
	return nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
