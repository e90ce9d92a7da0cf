package loader

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/convotrack/insight/internal/models"
)

// sourceMarker prefixes the optional first line of a corpus file that
// names the article's origin.
const sourceMarker = "Source URL:"

type LoaderConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Loader reads the scraped corpus directory and splits articles into
// overlapping chunks ready for embedding.
type Loader struct {
	config   LoaderConfig
	splitter *Splitter
}

func NewWithConfig(config LoaderConfig) *Loader {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}

	return &Loader{
		config:   config,
		splitter: NewSplitter(config.ChunkSize, config.ChunkOverlap),
	}
}

// Load parses every .txt file directly under dir. A file whose first line
// carries the source marker is split into header and body at the first
// separator line; anything else is taken verbatim with an empty source
// URL. Unreadable files are skipped with a warning so one bad article
// never aborts the batch.
func (l *Loader) Load(dir string) ([]models.Document, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("error scanning corpus directory: %w", err)
	}

	var docs []models.Document
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("skipping unreadable corpus file %s: %v", path, err)
			continue
		}

		sourceURL, content := parseArticle(string(data))

		docs = append(docs, models.Document{
			ID:        articleID(path),
			SourceURL: sourceURL,
			ArticleID: articleID(path),
			Content:   content,
		})
	}

	return docs, nil
}

// Split chunks every document, carrying the parent metadata plus a chunk
// index onto each piece. Deterministic for a fixed configuration.
func (l *Loader) Split(docs []models.Document) []models.Chunk {
	var chunks []models.Chunk
	for _, doc := range docs {
		for i, piece := range l.splitter.Split(doc.Content) {
			chunks = append(chunks, models.Chunk{
				Content:   piece,
				SourceURL: doc.SourceURL,
				ArticleID: doc.ArticleID,
				Index:     i,
			})
		}
	}
	return chunks
}

// parseArticle separates the source header from the body. The separator
// is the first line of at least ten characters containing '='.
func parseArticle(raw string) (sourceURL, content string) {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], sourceMarker) {
		return "", strings.TrimSpace(raw)
	}

	sourceURL = strings.TrimSpace(strings.TrimPrefix(lines[0], sourceMarker))

	for i, line := range lines {
		if strings.Contains(line, "=") && len(line) > 10 {
			return sourceURL, strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
	}

	// Marker without a separator: treat the remainder as body.
	return sourceURL, strings.TrimSpace(strings.Join(lines[1:], "\n"))
}

// articleID derives a stable identifier from the corpus filename
// (article_12.txt -> "12"); files outside that convention get a UUID.
func articleID(path string) string {
	name := filepath.Base(path)
	if strings.HasPrefix(name, "article_") && strings.HasSuffix(name, ".txt") {
		id := strings.TrimSuffix(strings.TrimPrefix(name, "article_"), ".txt")
		if id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// Topics derives a categorized topic list from the corpus source URLs,
// one entry per distinct case-study page.
func Topics(docs []models.Document) []string {
	seen := make(map[string]bool)
	var topics []string

	for _, doc := range docs {
		idx := strings.Index(doc.SourceURL, "case-studies/")
		if idx < 0 || seen[doc.SourceURL] {
			continue
		}
		seen[doc.SourceURL] = true

		slug := strings.Trim(doc.SourceURL[idx+len("case-studies/"):], "/")
		topic := titleCase(strings.ReplaceAll(slug, "-", " "))
		topics = append(topics, topic+" ("+topicCategory(topic)+")")
	}

	return topics
}

func topicCategory(topic string) string {
	lower := strings.ToLower(topic)
	switch {
	case containsAnyWord(lower, "beauty", "skin", "cosmetic"):
		return "Beauty & Skincare"
	case containsAnyWord(lower, "food", "ice cream", "beverage"):
		return "Food & Beverage"
	case containsAnyWord(lower, "health", "wellness", "fitness"):
		return "Health & Wellness"
	case containsAnyWord(lower, "social", "media", "digital"):
		return "Digital Marketing"
	default:
		return "Business Analysis"
	}
}

func containsAnyWord(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
