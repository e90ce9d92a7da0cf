package index

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/internal/types"
)

type Config struct {
	ConnString string
	TableName  string
	VectorDim  int
	BatchSize  int
	Retries    int
}

// Manager owns the lifecycle of the embedding index: creation, population,
// clearing and similarity queries. Queries run concurrently; population and
// clearing take the write lock so a half-rebuilt index is never visible.
type Manager struct {
	config   Config
	pool     *pgxpool.Pool
	embedder types.Embedder
	mu       sync.RWMutex
}

// New connects the pool and verifies required configuration. Missing
// connection details or embedder are fatal here; transient service errors
// later are retried per operation.
func New(config Config, embedder types.Embedder) (*Manager, error) {
	if config.ConnString == "" {
		return nil, fmt.Errorf("database connection string is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if config.TableName == "" {
		config.TableName = "case_study_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.Retries == 0 {
		config.Retries = 2
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Manager{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}, nil
}

// EnsureIndex creates the pgvector extension, the chunk table and the
// cosine ANN index if they do not already exist. Idempotent: a second call
// is a no-op.
func (m *Manager) EnsureIndex(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source_url TEXT NOT NULL,
			article_id TEXT,
			content TEXT,
			chunk_index INTEGER,
			embedding vector(%d)
		)`, m.config.TableName, m.config.VectorDim)

	if _, err := m.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		m.config.TableName, m.config.TableName)

	if _, err := m.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// ExistsAndPopulated reports whether the index holds at least one entry.
// Used at startup to decide between rebuild and reuse.
func (m *Manager) ExistsAndPopulated(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", m.config.TableName)
	if err := m.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count index entries: %w", err)
	}
	return count > 0, nil
}

// Populate embeds chunks and upserts them in batches. Each batch commits
// in its own transaction, so a failed batch never corrupts entries already
// written; a batch that fails after retries is skipped with diagnostics.
func (m *Manager) Populate(ctx context.Context, chunks []models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var skipped int
	for start := 0; start < len(chunks); start += m.config.BatchSize {
		end := start + m.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		err := m.withRetry(ctx, func(ctx context.Context) error {
			return m.storeBatch(ctx, batch)
		})
		if err != nil {
			skipped += len(batch)
			log.Printf("skipping batch %d-%d after retries: %v", start, end, err)
		}
	}

	if skipped == len(chunks) && len(chunks) > 0 {
		return fmt.Errorf("failed to store any of %d chunks", len(chunks))
	}
	if skipped > 0 {
		log.Printf("populated index with %d of %d chunks", len(chunks)-skipped, len(chunks))
	}
	return nil
}

func (m *Manager) storeBatch(ctx context.Context, batch []models.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = sanitizeUTF8(chunk.Content)
	}

	vectors, err := m.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed batch: %w", err)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, source_url, article_id, content, chunk_index, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`,
		m.config.TableName)

	for i, chunk := range batch {
		_, err := tx.Exec(ctx, stmt,
			chunk.ID(),
			chunk.SourceURL,
			chunk.ArticleID,
			texts[i],
			chunk.Index,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunk.ID(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Clear deletes every entry. It holds the write lock, so no query observes
// a half-cleared index, and a following Populate cannot start until the
// delete has committed.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	query := fmt.Sprintf("DELETE FROM %s", m.config.TableName)
	if _, err := m.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	return nil
}

// Query embeds text and returns the k nearest chunks by cosine similarity,
// most similar first.
func (m *Manager) Query(ctx context.Context, text string, k int) ([]models.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if k < 1 {
		k = 5
	}

	var chunks []models.Chunk
	err := m.withRetry(ctx, func(ctx context.Context) error {
		vectors, err := m.embedder.EmbedTexts(ctx, []string{text})
		if err != nil {
			return fmt.Errorf("failed to embed query: %w", err)
		}

		query := fmt.Sprintf(`
			SELECT source_url, article_id, content, chunk_index
			FROM %s
			ORDER BY embedding <=> $1
			LIMIT $2`,
			m.config.TableName)

		rows, err := m.pool.Query(ctx, query, pgvector.NewVector(vectors[0]), k)
		if err != nil {
			return fmt.Errorf("failed to query index: %w", err)
		}
		defer rows.Close()

		chunks = chunks[:0]
		for rows.Next() {
			var chunk models.Chunk
			if err := rows.Scan(&chunk.SourceURL, &chunk.ArticleID, &chunk.Content, &chunk.Index); err != nil {
				return fmt.Errorf("failed to scan row: %w", err)
			}
			chunks = append(chunks, chunk)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

func (m *Manager) Close() {
	if m.pool != nil {
		m.pool.Close()
	}
}

func (m *Manager) withRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := time.Second
	var err error
	for i := 0; i < m.config.Retries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
