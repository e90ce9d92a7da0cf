package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/pkg/agent"
	"github.com/convotrack/insight/pkg/analysis"
	"github.com/convotrack/insight/pkg/router"
	"github.com/convotrack/insight/pkg/taxonomy"
	"github.com/convotrack/insight/server"
)

type fakeRetriever struct {
	chunks []models.Chunk
	err    error
}

func (f *fakeRetriever) Retrieve(context.Context, string) ([]models.Chunk, error) {
	return f.chunks, f.err
}

func (f *fakeRetriever) RetrieveExpanded(context.Context, string) ([]models.Chunk, error) {
	return f.chunks, f.err
}

type fakeCompleter struct{ answer string }

func (f *fakeCompleter) Complete(context.Context, string) (string, error) {
	return f.answer, nil
}

func newTestServer(t *testing.T, attach bool) *httptest.Server {
	t.Helper()

	s := server.New()
	if attach {
		tax := taxonomy.Default()
		fr := &fakeRetriever{chunks: []models.Chunk{
			{Content: "marketing campaign engagement study", SourceURL: "https://example.com/a", ArticleID: "1"},
			{Content: "brand growth case data", SourceURL: "https://example.com/b", ArticleID: "2"},
		}}
		a := agent.New(fr, router.New(tax), analysis.New(&fakeCompleter{answer: "the analysis"}, tax), agent.Config{
			Topics: []string{"Glow Serum (Beauty & Skincare)"},
		})
		s.Attach(a, fr)
	}

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthBeforeAndAfterAttach(t *testing.T) {
	notReady := newTestServer(t, false)
	resp, err := http.Get(notReady.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ready := newTestServer(t, true)
	resp2, err := http.Get(ready.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestAsk(t *testing.T) {
	ts := newTestServer(t, true)

	body := bytes.NewBufferString(`{"question": "Which marketing campaign drove engagement?"}`)
	resp, err := http.Post(ts.URL+"/ask", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var answer models.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&answer))
	assert.Equal(t, "default_analysis", answer.AgentType)
	assert.Contains(t, answer.Answer, "the analysis")
	assert.Len(t, answer.Sources, 2)
}

func TestAskWithExplicitType(t *testing.T) {
	ts := newTestServer(t, true)

	body := bytes.NewBufferString(`{"question": "Summarize campaign results", "analysis_type": "executive"}`)
	resp, err := http.Post(ts.URL+"/ask", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var answer models.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&answer))
	assert.Equal(t, models.AnalysisExecutive, answer.AnalysisType)
}

func TestAskRejectsUnknownType(t *testing.T) {
	ts := newTestServer(t, true)

	body := bytes.NewBufferString(`{"question": "q", "analysis_type": "philosophical"}`)
	resp, err := http.Post(ts.URL+"/ask", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAskRejectsInvalidJSON(t *testing.T) {
	ts := newTestServer(t, true)

	resp, err := http.Post(ts.URL+"/ask", "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAskUnavailableBeforeAttach(t *testing.T) {
	ts := newTestServer(t, false)

	resp, err := http.Post(ts.URL+"/ask", "application/json", bytes.NewBufferString(`{"question": "q"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t, true)

	body := bytes.NewBufferString(`{"question": "engagement"}`)
	resp, err := http.Post(ts.URL+"/search", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Results []struct {
			Content   string `json:"content"`
			SourceURL string `json:"source_url"`
			ArticleID string `json:"article_id"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 2)
	assert.Equal(t, "1", out.Results[0].ArticleID)
}

func TestSearchAcceptsQueryAlias(t *testing.T) {
	ts := newTestServer(t, true)

	resp, err := http.Post(ts.URL+"/search", "application/json", bytes.NewBufferString(`{"query": "engagement"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearchRequiresQuestion(t *testing.T) {
	ts := newTestServer(t, true)

	resp, err := http.Post(ts.URL+"/search", "application/json", bytes.NewBufferString(`{"question": "  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchCapsResultsAtFive(t *testing.T) {
	tax := taxonomy.Default()
	chunks := make([]models.Chunk, 8)
	for i := range chunks {
		chunks[i] = models.Chunk{
			Content:   strings.Repeat("marketing engagement data ", 20),
			SourceURL: "https://example.com/a",
			ArticleID: fmt.Sprintf("%d", i+1),
		}
	}
	fr := &fakeRetriever{chunks: chunks}
	a := agent.New(fr, router.New(tax), analysis.New(&fakeCompleter{answer: "ok"}, tax), agent.Config{})

	s := server.New()
	s.Attach(a, fr)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/search", "application/json", bytes.NewBufferString(`{"question": "engagement"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Results []struct {
			Content string `json:"content"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 5)
	// Long chunk contents come back as bounded excerpts.
	for _, res := range out.Results {
		assert.LessOrEqual(t, len(res.Content), 403)
		assert.True(t, strings.HasSuffix(res.Content, "..."))
	}
}

func TestTopics(t *testing.T) {
	ts := newTestServer(t, true)

	resp, err := http.Get(ts.URL + "/topics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Topics []string `json:"topics"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []string{"Glow Serum (Beauty & Skincare)"}, out.Topics)
}

func TestInsightsAfterAsking(t *testing.T) {
	ts := newTestServer(t, true)

	body := bytes.NewBufferString(`{"question": "Which marketing campaign drove engagement?"}`)
	resp, err := http.Post(ts.URL+"/ask", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()

	resp2, err := http.Get(ts.URL + "/insights")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var insights agent.Insights
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&insights))
	assert.Equal(t, 1, insights.TotalQuestions)
}

func TestAnalysisTypes(t *testing.T) {
	ts := newTestServer(t, true)

	resp, err := http.Get(ts.URL + "/analysis-types")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		AnalysisTypes []struct {
			ID          string `json:"id"`
			Description string `json:"description"`
		} `json:"analysis_types"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.AnalysisTypes, 5)
	assert.Equal(t, "default", out.AnalysisTypes[0].ID)
}

func TestWebSocketQuestion(t *testing.T) {
	ts := newTestServer(t, true)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":    "question",
		"content": "Which marketing campaign drove engagement?",
	}))

	var msg struct {
		Type    string          `json:"type"`
		Content string          `json:"content"`
		Data    models.Response `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "response", msg.Type)
	assert.Contains(t, msg.Content, "the analysis")
	assert.Equal(t, "default_analysis", msg.Data.AgentType)
}

func TestWebSocketRejectsUnknownMessageType(t *testing.T) {
	ts := newTestServer(t, true)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	var msg struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
}
