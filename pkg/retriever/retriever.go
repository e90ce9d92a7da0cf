package retriever

import (
	"context"
	"strings"
	"unicode"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/internal/types"
	"github.com/convotrack/insight/pkg/taxonomy"
)

// fingerprintLen bounds the content prefix used to deduplicate chunks
// across the primary and expanded result sets.
const fingerprintLen = 100

type Config struct {
	K            int // nearest neighbors per index query
	PrimaryCap   int // pool size when no expansion triggers
	ExpandedCap  int // pool size after fan-out merge
	RelatedTerms int // sibling keywords appended per matched category
}

// Retriever wraps the vector index with query expansion over the keyword
// taxonomy and first-appearance deduplication.
type Retriever struct {
	index  types.VectorIndex
	tax    *taxonomy.Taxonomy
	config Config
}

func New(index types.VectorIndex, tax *taxonomy.Taxonomy, config Config) *Retriever {
	if config.K == 0 {
		config.K = 10
	}
	if config.PrimaryCap == 0 {
		config.PrimaryCap = 8
	}
	if config.ExpandedCap == 0 {
		config.ExpandedCap = 12
	}
	if config.RelatedTerms == 0 {
		config.RelatedTerms = 3
	}

	return &Retriever{
		index:  index,
		tax:    tax,
		config: config,
	}
}

// Retrieve issues one similarity query and truncates to the primary cap.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]models.Chunk, error) {
	chunks, err := r.index.Query(ctx, question, r.config.K)
	if err != nil {
		return nil, err
	}
	return truncate(chunks, r.config.PrimaryCap), nil
}

// RetrieveExpanded scans the question for taxonomy keywords. On a match it
// issues a second query with sibling terms appended, merges both result
// sets preserving first-appearance order, deduplicates by content
// fingerprint and truncates to the expanded cap. Without a match it
// behaves like Retrieve.
func (r *Retriever) RetrieveExpanded(ctx context.Context, question string) ([]models.Chunk, error) {
	primary, err := r.index.Query(ctx, question, r.config.K)
	if err != nil {
		return nil, err
	}

	terms := r.expansionTerms(question)
	if len(terms) == 0 {
		return truncate(dedupe(primary), r.config.PrimaryCap), nil
	}

	expandedQuery := question + " " + strings.Join(terms, " ")
	secondary, err := r.index.Query(ctx, expandedQuery, r.config.K)
	if err != nil {
		// The primary result set is still useful when the fan-out
		// query fails.
		return truncate(dedupe(primary), r.config.PrimaryCap), nil
	}

	merged := dedupe(append(primary, secondary...))
	return truncate(merged, r.config.ExpandedCap), nil
}

// expansionTerms collects sibling keywords for every question word that is
// itself a taxonomy keyword, deduplicated in first-appearance order.
func (r *Retriever) expansionTerms(question string) []string {
	words := strings.FieldsFunc(strings.ToLower(question), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})

	seen := make(map[string]bool)
	var terms []string
	for _, word := range words {
		for _, related := range r.tax.RelatedTerms(word, r.config.RelatedTerms) {
			if !seen[related] {
				seen[related] = true
				terms = append(terms, related)
			}
		}
	}
	return terms
}

func dedupe(chunks []models.Chunk) []models.Chunk {
	seen := make(map[string]bool)
	var unique []models.Chunk
	for _, chunk := range chunks {
		fp := fingerprint(chunk.Content)
		if !seen[fp] {
			seen[fp] = true
			unique = append(unique, chunk)
		}
	}
	return unique
}

func fingerprint(content string) string {
	if len(content) > fingerprintLen {
		return content[:fingerprintLen]
	}
	return content
}

func truncate(chunks []models.Chunk, limit int) []models.Chunk {
	if len(chunks) > limit {
		return chunks[:limit]
	}
	return chunks
}
