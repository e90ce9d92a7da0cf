package router

import (
	"context"
	"log"
	"strings"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/internal/types"
	"github.com/convotrack/insight/pkg/taxonomy"
)

// businessNouns are the generic domain nouns that keep a longer free-form
// question in scope even without a taxonomy keyword hit.
var businessNouns = []string{
	"business", "market", "customer", "brand", "product", "service", "company",
}

// Router classifies incoming questions: whether they are in scope, which
// analysis strategy applies, and what business intent they carry. The
// keyword variant is pure text scanning; an optional model-backed variant
// delegates type classification to a single constrained completion.
type Router struct {
	tax       *taxonomy.Taxonomy
	completer types.Completer
}

func New(tax *taxonomy.Taxonomy) *Router {
	return &Router{tax: tax}
}

// NewWithModel enables ClassifyTypeModel in addition to the keyword paths.
func NewWithModel(tax *taxonomy.Taxonomy, completer types.Completer) *Router {
	return &Router{tax: tax, completer: completer}
}

// InScope reports whether the question is business-related: a taxonomy
// keyword hit, a curated phrase pattern, or a longer question naming a
// generic business noun.
func (r *Router) InScope(question string) bool {
	if r.tax.MatchesAny(question) {
		return true
	}
	if r.tax.MatchesPattern(question) {
		return true
	}

	lower := strings.ToLower(question)
	if len(strings.Fields(question)) > 4 {
		for _, noun := range businessNouns {
			if strings.Contains(lower, noun) {
				return true
			}
		}
	}
	return false
}

// ClassifyType scans the ordered question-type keyword groups; the first
// match wins. Only comparison and trend groups select a specialized
// strategy; everything else analyses with the default template.
func (r *Router) ClassifyType(question string) models.AnalysisType {
	switch r.tax.QuestionType(question) {
	case "comparison":
		return models.AnalysisComparative
	case "trend":
		return models.AnalysisTrends
	default:
		return models.AnalysisDefault
	}
}

// QuestionType exposes the raw keyword group name for response metadata.
func (r *Router) QuestionType(question string) string {
	return r.tax.QuestionType(question)
}

// ClassifyTypeModel asks the language model for a single category ID. Any
// failure or unrecognized answer falls back to the keyword classification.
func (r *Router) ClassifyTypeModel(ctx context.Context, question string) models.AnalysisType {
	if r.completer == nil {
		return r.ClassifyType(question)
	}

	answer, err := r.completer.Complete(ctx, routerPrompt(question))
	if err != nil {
		log.Printf("model router failed, using keyword classification: %v", err)
		return r.ClassifyType(question)
	}

	cleaned := strings.ToLower(strings.Trim(strings.TrimSpace(answer), ".\"'`"))
	if typ, ok := models.ParseAnalysisType(cleaned); ok {
		return typ
	}
	log.Printf("model router returned unexpected type %q, falling back to default", cleaned)
	return models.AnalysisDefault
}

// ExtractIntent returns every matched taxonomy category in declaration
// order, plus a single primary intent from the priority rules.
func (r *Router) ExtractIntent(question string) (models.Intent, []string) {
	categories := r.tax.CategoriesFor(question)

	has := func(name string) bool {
		for _, c := range categories {
			if c == name {
				return true
			}
		}
		return false
	}

	switch {
	case has("strategy") || has("competitive"):
		return models.IntentStrategic, categories
	case has("performance") || has("analysis"):
		return models.IntentPerformance, categories
	case has("trends") || has("innovation"):
		return models.IntentTrend, categories
	case has("marketing") || has("consumer"):
		return models.IntentMarketing, categories
	default:
		return models.IntentGeneral, categories
	}
}

func routerPrompt(question string) string {
	return `You are an expert request router. Your job is to analyze a user's business question and classify it into one of the following categories based on its intent.

Here are the available categories:
- strategic: for questions about long-term planning, competitive advantage, market positioning, or business models.
- trends: for questions about market evolution, future predictions, emerging patterns, or changes over time.
- comparative: for questions that compare two or more items, strategies, or performance metrics.
- executive: for questions seeking high-level, concise summaries, financial implications, or C-level decision support.
- default: for general business intelligence questions, performance analysis, or when no other category fits perfectly.

Based on the question below, provide ONLY the single category ID that best fits. Do not add any explanation or punctuation.

Question: "` + question + `"
Category ID:`
}
