package retriever_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/pkg/retriever"
	"github.com/convotrack/insight/pkg/taxonomy"
)

// fakeIndex returns canned results per query and records what was asked.
type fakeIndex struct {
	results map[string][]models.Chunk
	fallbak []models.Chunk
	queries []string
}

func (f *fakeIndex) Query(_ context.Context, text string, k int) ([]models.Chunk, error) {
	f.queries = append(f.queries, text)
	if chunks, ok := f.results[text]; ok {
		if len(chunks) > k {
			return chunks[:k], nil
		}
		return chunks, nil
	}
	if len(f.fallbak) > k {
		return f.fallbak[:k], nil
	}
	return f.fallbak, nil
}

func chunk(content string) models.Chunk {
	return models.Chunk{Content: content, ArticleID: "1"}
}

func TestRetrieveCapsResults(t *testing.T) {
	var many []models.Chunk
	for i := 0; i < 10; i++ {
		many = append(many, chunk(fmt.Sprintf("distinct chunk content number %d", i)))
	}

	idx := &fakeIndex{fallbak: many}
	r := retriever.New(idx, taxonomy.Default(), retriever.Config{K: 10, PrimaryCap: 8})

	got, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestRetrieveExpandedWithoutKeywordMatch(t *testing.T) {
	idx := &fakeIndex{fallbak: []models.Chunk{chunk("alpha"), chunk("beta")}}
	r := retriever.New(idx, taxonomy.Default(), retriever.Config{})

	got, err := r.RetrieveExpanded(context.Background(), "hello there friend")
	require.NoError(t, err)

	assert.Len(t, got, 2)
	// No taxonomy keyword in the question, so only one index call happens.
	assert.Len(t, idx.queries, 1)
}

func TestRetrieveExpandedFansOutAndDeduplicates(t *testing.T) {
	shared := chunk("shared chunk appearing in both result sets")
	idx := &fakeIndex{
		results: map[string][]models.Chunk{},
		fallbak: []models.Chunk{shared, chunk("only in secondary")},
	}
	idx.results["What marketing campaign works best?"] = []models.Chunk{
		shared,
		chunk("only in primary"),
	}

	r := retriever.New(idx, taxonomy.Default(), retriever.Config{})

	got, err := r.RetrieveExpanded(context.Background(), "What marketing campaign works best?")
	require.NoError(t, err)

	// Two queries: primary plus the expanded fan-out.
	require.Len(t, idx.queries, 2)
	assert.Contains(t, idx.queries[1], "marketing")
	assert.Contains(t, idx.queries[1], "promotion")

	// The shared chunk appears exactly once, first-appearance order kept.
	var contents []string
	for _, c := range got {
		contents = append(contents, c.Content)
	}
	assert.Equal(t, []string{
		"shared chunk appearing in both result sets",
		"only in primary",
		"only in secondary",
	}, contents)
}

func TestRetrieveExpandedCap(t *testing.T) {
	var many []models.Chunk
	for i := 0; i < 20; i++ {
		many = append(many, chunk(fmt.Sprintf("unique content piece number %d", i)))
	}
	idx := &fakeIndex{fallbak: many}
	r := retriever.New(idx, taxonomy.Default(), retriever.Config{K: 20})

	got, err := r.RetrieveExpanded(context.Background(), "How does engagement compare across campaigns?")
	require.NoError(t, err)
	assert.Len(t, got, 12)
}

func TestDeduplicationByFingerprint(t *testing.T) {
	dup := chunk("identical content")
	idx := &fakeIndex{fallbak: []models.Chunk{dup, dup, chunk("different content")}}
	r := retriever.New(idx, taxonomy.Default(), retriever.Config{})

	got, err := r.RetrieveExpanded(context.Background(), "plain question with no business words")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
