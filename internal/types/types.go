package types

import (
	"context"

	"github.com/convotrack/insight/internal/models"
)

// Embedder turns text into fixed-length vectors. Batch input preserves
// order in the output.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer issues a single language-model completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorIndex answers nearest-neighbor queries over embedded chunks.
type VectorIndex interface {
	Query(ctx context.Context, text string, k int) ([]models.Chunk, error)
}

// Retriever wraps the index with the fan-out and deduplication strategy.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]models.Chunk, error)
	RetrieveExpanded(ctx context.Context, question string) ([]models.Chunk, error)
}
