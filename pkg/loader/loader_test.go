package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/pkg/loader"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadParsesSourceMarker(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "article_7.txt",
		"Source URL: https://convotrack.ai/case-studies/skincare-trends/\n"+
			"==================================================\n"+
			"Skincare engagement rose sharply across every demographic.\n")

	l := loader.NewWithConfig(loader.LoaderConfig{})
	docs, err := l.Load(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "https://convotrack.ai/case-studies/skincare-trends/", doc.SourceURL)
	assert.Equal(t, "7", doc.ArticleID)
	assert.Equal(t, "Skincare engagement rose sharply across every demographic.", doc.Content)
	assert.NotContains(t, doc.Content, "Source URL:")
	assert.NotContains(t, doc.Content, "=====")
}

func TestLoadPlainFileWithoutMarker(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "Just a body with no header at all.")

	l := loader.NewWithConfig(loader.LoaderConfig{})
	docs, err := l.Load(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Empty(t, docs[0].SourceURL)
	assert.Equal(t, "Just a body with no header at all.", docs[0].Content)
	assert.NotEmpty(t, docs[0].ArticleID)
}

func TestLoadSkipsUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "article_1.txt", "readable content that loads fine")

	// A directory matching the glob cannot be read as a file.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "article_2.txt"), 0o755))

	l := loader.NewWithConfig(loader.LoaderConfig{})
	docs, err := l.Load(dir)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, "1", docs[0].ArticleID)
}

func TestSplitCarriesMetadata(t *testing.T) {
	l := loader.NewWithConfig(loader.LoaderConfig{ChunkSize: 40, ChunkOverlap: 8})

	docs := []models.Document{{
		ID:        "3",
		ArticleID: "3",
		SourceURL: "https://convotrack.ai/case-studies/ice-cream/",
		Content:   "First sentence about brands.\n\nSecond sentence about flavors.\n\nThird sentence about growth.",
	}}

	chunks := l.Split(docs)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, "3", chunk.ArticleID)
		assert.Equal(t, docs[0].SourceURL, chunk.SourceURL)
		assert.Equal(t, i, chunk.Index)
	}
	assert.Equal(t, "3_0", chunks[0].ID())
}

func TestTopics(t *testing.T) {
	docs := []models.Document{
		{SourceURL: "https://convotrack.ai/case-studies/skincare-trends/"},
		{SourceURL: "https://convotrack.ai/case-studies/ice-cream-brands/"},
		{SourceURL: "https://convotrack.ai/case-studies/skincare-trends/"},
		{SourceURL: ""},
	}

	topics := loader.Topics(docs)
	assert.Equal(t, []string{
		"Skincare Trends (Beauty & Skincare)",
		"Ice Cream Brands (Food & Beverage)",
	}, topics)
}
