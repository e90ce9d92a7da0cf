package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/internal/types"
	"github.com/convotrack/insight/pkg/analysis"
	"github.com/convotrack/insight/pkg/router"
)

// Config tunes the orchestrator's routing and synthesis behavior.
type Config struct {
	// UseModelRouter delegates type classification to the language model
	// instead of the keyword groups.
	UseModelRouter bool
	// Topics is the categorized case-study topic list exposed to callers.
	Topics []string
}

// Agent is the top-level entry point: it sequences router, retriever and
// synthesizer, owns the conversation history, and converts every internal
// fault into a terminal response. Safe for concurrent Ask calls; the only
// shared mutable state is the lock-protected history.
type Agent struct {
	retriever types.Retriever
	router    *router.Router
	synth     *analysis.Synthesizer
	config    Config

	mu      sync.Mutex
	history []models.HistoryEntry
}

func New(retriever types.Retriever, rt *router.Router, synth *analysis.Synthesizer, config Config) *Agent {
	return &Agent{
		retriever: retriever,
		router:    rt,
		synth:     synth,
		config:    config,
	}
}

// Ask answers one question end to end: validate, classify, retrieve,
// synthesize, assemble. Every question is answered independently of prior
// ones. Errors never propagate past this method.
func (a *Agent) Ask(ctx context.Context, question string) models.Response {
	question = strings.TrimSpace(question)
	if question == "" {
		return validationResponse()
	}

	if !a.router.InScope(question) {
		return a.router.Guidance(question)
	}

	intent, categories := a.router.ExtractIntent(question)

	var typ models.AnalysisType
	if a.config.UseModelRouter {
		typ = a.router.ClassifyTypeModel(ctx, question)
	} else {
		typ = a.router.ClassifyType(question)
		if typ == models.AnalysisDefault && intent == models.IntentTrend {
			typ = models.AnalysisTrends
		}
	}

	return a.answer(ctx, question, typ, intent, categories, false)
}

// AskWithType skips classification and analyses with the caller's chosen
// strategy, mirroring the API's explicit analysis_type parameter.
func (a *Agent) AskWithType(ctx context.Context, question string, typ models.AnalysisType) models.Response {
	question = strings.TrimSpace(question)
	if question == "" {
		return validationResponse()
	}

	intent, categories := a.router.ExtractIntent(question)
	return a.answer(ctx, question, typ, intent, categories, false)
}

// AskSynthesized runs the opt-in three-call deep-report flow for the given
// analysis type.
func (a *Agent) AskSynthesized(ctx context.Context, question string, typ models.AnalysisType) models.Response {
	question = strings.TrimSpace(question)
	if question == "" {
		return validationResponse()
	}

	intent, categories := a.router.ExtractIntent(question)
	return a.answer(ctx, question, typ, intent, categories, true)
}

func (a *Agent) answer(ctx context.Context, question string, typ models.AnalysisType, intent models.Intent, categories []string, synthesized bool) models.Response {
	chunks, err := a.retriever.RetrieveExpanded(ctx, question)
	if err != nil {
		return a.errorResponse(question, fmt.Errorf("retrieval failed: %w", err))
	}

	var raw string
	if synthesized {
		raw, err = a.synth.Synthesize(ctx, question, chunks, typ)
	} else {
		raw, err = a.synth.Analyze(ctx, question, chunks, typ)
	}
	if err != nil {
		return a.errorResponse(question, err)
	}

	confidence := a.synth.ConfidenceFor(len(chunks))
	answer := a.synth.Format(raw, typ) + metadataTrailer(intent, categories, confidence, len(chunks))

	resp := models.Response{
		Question:     question,
		Answer:       answer,
		Sources:      a.synth.SourcesFor(chunks),
		AgentType:    string(typ) + "_analysis",
		Confidence:   confidence,
		Intent:       intent,
		Categories:   categories,
		AnalysisType: typ,
		QuestionType: a.router.QuestionType(question),
	}

	a.appendHistory(models.HistoryEntry{
		Question:    question,
		Intent:      intent,
		Categories:  categories,
		SourceCount: len(resp.Sources),
	})

	return resp
}

func validationResponse() models.Response {
	return models.Response{
		Question:   "Empty question",
		Answer:     "Please provide a specific business question. I'm ready to analyze consumer insights, marketing strategies, and business trends from our case studies.",
		Sources:    []models.Source{},
		AgentType:  "validation_response",
		Confidence: models.ConfidenceLow,
	}
}

func (a *Agent) errorResponse(question string, err error) models.Response {
	answer := fmt.Sprintf(`I encountered a technical issue while processing your business question.

Error context: %v

What I can help you with right now:
- Market trends and consumer behavior analysis
- Marketing strategy effectiveness studies
- Brand engagement and performance insights
- Social media and digital marketing analytics
- Product innovation and competitive analysis

Quick business questions to try:
- "What are the top performing marketing strategies?"
- "How do consumer preferences differ by demographics?"
- "What social media trends are most effective?"
- "Which product features drive the most engagement?"`, err)

	return models.Response{
		Question:   question,
		Answer:     answer,
		Sources:    []models.Source{},
		AgentType:  "error_response",
		Confidence: models.ConfidenceLow,
		Error:      err.Error(),
	}
}

func metadataTrailer(intent models.Intent, categories []string, confidence models.Confidence, sourceCount int) string {
	cats := "General Business"
	if len(categories) > 0 {
		cats = strings.Join(categories, ", ")
	}
	return fmt.Sprintf(`

---
**Analysis Metadata:**
- Intent: %s
- Categories: %s
- Confidence Level: %s
- Sources Analyzed: %d case study segments`,
		strings.ReplaceAll(string(intent), "_", " "), cats,
		strings.ToUpper(string(confidence)), sourceCount)
}

// Topics returns the categorized case-study topic list.
func (a *Agent) Topics() []string {
	return a.config.Topics
}

func (a *Agent) appendHistory(entry models.HistoryEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, entry)
}

// History returns a copy of the interaction log.
func (a *Agent) History() []models.HistoryEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.HistoryEntry, len(a.history))
	copy(out, a.history)
	return out
}

// Insights summarizes conversation patterns for analytics.
type Insights struct {
	TotalQuestions int            `json:"total_questions"`
	TopIntents     map[string]int `json:"top_intents"`
	TopCategories  map[string]int `json:"top_categories"`
	AvgSources     float64        `json:"avg_sources_per_question"`
}

// Insights aggregates the history: question count, the three most common
// intents, the five most common categories and the mean source count.
func (a *Agent) Insights() Insights {
	history := a.History()

	insights := Insights{
		TotalQuestions: len(history),
		TopIntents:     map[string]int{},
		TopCategories:  map[string]int{},
	}
	if len(history) == 0 {
		return insights
	}

	intentCounts := map[string]int{}
	categoryCounts := map[string]int{}
	totalSources := 0
	for _, entry := range history {
		intentCounts[string(entry.Intent)]++
		for _, cat := range entry.Categories {
			categoryCounts[cat]++
		}
		totalSources += entry.SourceCount
	}

	insights.TopIntents = topN(intentCounts, 3)
	insights.TopCategories = topN(categoryCounts, 5)
	insights.AvgSources = float64(totalSources) / float64(len(history))
	return insights
}

func topN(counts map[string]int, n int) map[string]int {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	if len(keys) > n {
		keys = keys[:n]
	}
	top := make(map[string]int, len(keys))
	for _, k := range keys {
		top[k] = counts[k]
	}
	return top
}
