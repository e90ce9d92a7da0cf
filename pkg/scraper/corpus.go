package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/convotrack/insight/internal/models"
)

const headerSeparator = "=================================================="

// WriteCorpus persists scraped documents as article_<id>.txt files in the
// layout the corpus loader parses: a source header line, a separator, then
// the body. Existing files with the same name are overwritten.
func WriteCorpus(dir string, docs []models.Document) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating corpus directory: %w", err)
	}

	for _, doc := range docs {
		name := fmt.Sprintf("article_%s.txt", doc.ArticleID)
		path := filepath.Join(dir, name)

		var b strings.Builder
		b.WriteString("Source URL: ")
		b.WriteString(doc.SourceURL)
		b.WriteString("\n")
		b.WriteString(headerSeparator)
		b.WriteString("\n\n")
		b.WriteString(doc.Content)
		b.WriteString("\n")

		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("error writing corpus file %s: %w", path, err)
		}
	}

	return nil
}
