package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/internal/types"
	"github.com/convotrack/insight/pkg/agent"
)

const requestTimeout = 5 * time.Minute

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Server exposes the question-answering agent over HTTP and WebSocket.
// It holds no request state of its own; the agent owns history.
type Server struct {
	mu        sync.RWMutex
	agent     *agent.Agent
	retriever types.Retriever
}

func New() *Server {
	return &Server{}
}

// Attach wires the ready pipeline into the server. Until called, every
// endpoint except /health returns 503, and /health reports not ready.
func (s *Server) Attach(a *agent.Agent, retriever types.Retriever) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agent = a
	s.retriever = retriever
}

func (s *Server) pipeline() (*agent.Agent, types.Retriever) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agent, s.retriever
}

// Handler returns the route table. Callers mount it on their own
// http.Server so tests can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ask", s.handleAsk)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/topics", s.handleTopics)
	mux.HandleFunc("/insights", s.handleInsights)
	mux.HandleFunc("/analysis-types", s.handleAnalysisTypes)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("starting insight server on %s", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: requestTimeout,
	}
	return srv.ListenAndServe()
}

type askRequest struct {
	Question     string `json:"question"`
	AnalysisType string `json:"analysis_type,omitempty"`
	Mode         string `json:"mode,omitempty"` // "synthesized" opts into the deep-report flow
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a, _ := s.pipeline()
	if a == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not ready")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := r.Context()

	var resp models.Response
	switch {
	case req.AnalysisType != "":
		typ, ok := models.ParseAnalysisType(strings.ToLower(req.AnalysisType))
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown analysis_type: "+req.AnalysisType)
			return
		}
		if req.Mode == "synthesized" {
			resp = a.AskSynthesized(ctx, req.Question, typ)
		} else {
			resp = a.AskWithType(ctx, req.Question, typ)
		}
	case req.Mode == "synthesized":
		resp = a.AskSynthesized(ctx, req.Question, models.AnalysisDefault)
	default:
		resp = a.Ask(ctx, req.Question)
	}

	writeJSON(w, http.StatusOK, resp)
}

// searchResultLimit caps how many excerpts /search returns.
const searchResultLimit = 5

type searchRequest struct {
	Question string `json:"question"`
	// Query is accepted as an alias for question.
	Query string `json:"query,omitempty"`
}

type searchResult struct {
	Content   string `json:"content"`
	SourceURL string `json:"source_url"`
	ArticleID string `json:"article_id"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_, retriever := s.pipeline()
	if retriever == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not ready")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		question = strings.TrimSpace(req.Query)
	}
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	chunks, err := retriever.Retrieve(r.Context(), question)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(chunks) > searchResultLimit {
		chunks = chunks[:searchResultLimit]
	}

	results := make([]searchResult, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, searchResult{
			Content:   excerpt(chunk.Content),
			SourceURL: chunk.SourceURL,
			ArticleID: chunk.ArticleID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	a, _ := s.pipeline()
	if a == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not ready")
		return
	}
	topics := a.Topics()
	if topics == nil {
		topics = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	a, _ := s.pipeline()
	if a == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not ready")
		return
	}
	writeJSON(w, http.StatusOK, a.Insights())
}

type analysisTypeInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

var analysisTypeDescriptions = map[models.AnalysisType]string{
	models.AnalysisDefault:     "General business intelligence analysis",
	models.AnalysisStrategic:   "Long-term positioning and competitive advantage",
	models.AnalysisTrends:      "Market evolution and forward-looking insights",
	models.AnalysisComparative: "Side-by-side performance benchmarking",
	models.AnalysisExecutive:   "Concise C-level decision brief",
}

func (s *Server) handleAnalysisTypes(w http.ResponseWriter, r *http.Request) {
	infos := make([]analysisTypeInfo, 0, len(models.AnalysisTypes))
	for _, typ := range models.AnalysisTypes {
		infos = append(infos, analysisTypeInfo{
			ID:          string(typ),
			Description: analysisTypeDescriptions[typ],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"analysis_types": infos})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	a, _ := s.pipeline()
	if a == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "initializing"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// wsMessage is the WebSocket chat frame in both directions.
type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("error reading message: %v", err)
			}
			return
		}

		if msg.Type != "question" {
			s.sendMessage(conn, wsMessage{Type: "error", Content: "unsupported message type: " + msg.Type})
			continue
		}

		a, _ := s.pipeline()
		if a == nil {
			s.sendMessage(conn, wsMessage{Type: "error", Content: "pipeline not ready"})
			continue
		}

		resp := a.Ask(r.Context(), msg.Content)
		s.sendMessage(conn, wsMessage{Type: "response", Content: resp.Answer, Data: resp})
	}
}

func (s *Server) sendMessage(conn *websocket.Conn, msg wsMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("error sending message: %v", err)
	}
}

// excerpt bounds chunk content for search responses, cutting on a rune
// boundary.
func excerpt(content string) string {
	const limit = 400
	if len(content) <= limit {
		return content
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
