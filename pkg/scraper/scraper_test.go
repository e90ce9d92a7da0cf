package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/pkg/loader"
)

func TestNewWithConfigDefaults(t *testing.T) {
	s, err := NewWithConfig(Config{BaseURL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 3, s.config.MaxDepth)
	assert.Equal(t, 30*time.Second, s.config.Timeout)
}

func TestShouldProcessURL(t *testing.T) {
	s, err := NewWithConfig(Config{
		BaseURL:           "https://example.com",
		IgnorePatterns:    []string{"/ignore/", "private"},
		AllowedExtensions: []string{".html", "/"},
	})
	require.NoError(t, err)

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/case-studies/", true},
		{"https://example.com/page.html", true},
		{"https://example.com/ignore/page.html", false},
		{"https://other-domain.com/page.html", false},
		{"https://example.com/file.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.shouldProcessURL(tt.url))
		})
	}
}

func TestScrapeWithMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.URL.Path == "/case-studies/glow-serum/" {
			w.Write([]byte(`<html><body><article>
				<h1>Glow Serum</h1>
				<p>The campaign lifted engagement by 40 percent.</p>
			</article></body></html>`))
			return
		}
		w.Write([]byte(`<html><head><title>Index</title></head><body><main>
			<p>Case study index page.</p>
			<a href="/case-studies/glow-serum/">Glow Serum</a>
		</main></body></html>`))
	}))
	defer server.Close()

	s, err := NewWithConfig(Config{
		BaseURL:   server.URL,
		MaxDepth:  1,
		RateLimit: 50,
	})
	require.NoError(t, err)

	docs, err := s.Scrape(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, server.URL, docs[0].SourceURL)
	assert.Equal(t, "1", docs[0].ArticleID)
	assert.Contains(t, docs[0].Content, "Case study index page")

	assert.Equal(t, "2", docs[1].ArticleID)
	assert.Contains(t, docs[1].Content, "lifted engagement by 40 percent")
}

func TestScrapeDoesNotRevisit(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><main>
			<p>Self-linking page.</p>
			<a href="/">Home</a>
		</main></body></html>`))
	}))
	defer server.Close()

	s, err := NewWithConfig(Config{BaseURL: server.URL, MaxDepth: 3, RateLimit: 50})
	require.NoError(t, err)

	docs, err := s.Scrape(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, hits)
}

func TestCleanContent(t *testing.T) {
	in := "  Some   article text.  Accept Cookies  Privacy Policy "
	assert.Equal(t, "Some article text.", cleanContent(in))
}

func TestWriteCorpusRoundTrip(t *testing.T) {
	dir := t.TempDir()

	docs := []models.Document{
		{
			SourceURL: "https://example.com/case-studies/glow-serum/",
			ArticleID: "1",
			Content:   "The campaign lifted engagement by 40 percent.",
		},
	}
	require.NoError(t, WriteCorpus(dir, docs))

	_, statErr := os.Stat(filepath.Join(dir, "article_1.txt"))
	require.NoError(t, statErr)

	loaded, loadErr := loader.NewWithConfig(loader.LoaderConfig{}).Load(dir)
	require.NoError(t, loadErr)
	require.Len(t, loaded, 1)
	assert.Equal(t, "https://example.com/case-studies/glow-serum/", loaded[0].SourceURL)
	assert.Equal(t, "1", loaded[0].ArticleID)
	assert.Equal(t, "The campaign lifted engagement by 40 percent.", loaded[0].Content)
}
