package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/internal/types"
	"github.com/convotrack/insight/pkg/taxonomy"
)

// chunkSeparator joins retrieved chunk contents inside the prompt.
const chunkSeparator = "\n\n---\n\n"

// highConfidenceSources is the context volume above which an answer is
// labeled high confidence.
const highConfidenceSources = 5

// Synthesizer turns a question plus retrieved context into a formatted
// report via the language model. One completion call per Analyze; the
// opt-in Synthesize mode trades two extra calls for report depth.
type Synthesizer struct {
	completer types.Completer
	tax       *taxonomy.Taxonomy
}

func New(completer types.Completer, tax *taxonomy.Taxonomy) *Synthesizer {
	return &Synthesizer{completer: completer, tax: tax}
}

// Analyze renders the type's template with the question and joined
// context, then issues exactly one completion call. Empty context is
// valid: the template receives an explicit placeholder so the model knows
// no case-study evidence was found.
func (s *Synthesizer) Analyze(ctx context.Context, question string, chunks []models.Chunk, typ models.AnalysisType) (string, error) {
	prompt := renderTemplate(strategyFor(typ).template, joinContext(chunks), question)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("analysis failed: %w", err)
	}
	return raw, nil
}

// Format wraps the raw completion in the type's header and footer. Purely
// textual and deterministic.
func (s *Synthesizer) Format(raw string, typ models.AnalysisType) string {
	st := strategyFor(typ)
	return st.header + raw + st.footer
}

// Synthesize is the three-call deep-report mode: a base pass with the
// default template, a specialized pass focused by the analysis type, and a
// merge pass instructed to integrate both without redundancy. Three
// sequential model calls; callers opt in explicitly.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, chunks []models.Chunk, typ models.AnalysisType) (string, error) {
	base, err := s.Analyze(ctx, question, chunks, models.AnalysisDefault)
	if err != nil {
		return "", err
	}

	st := strategyFor(typ)
	specializedQuestion := question
	if st.focus != "" {
		specializedQuestion = strings.ReplaceAll(st.focus, questionPlaceholder, question)
	}
	specialized, err := s.Analyze(ctx, specializedQuestion, chunks, typ)
	if err != nil {
		return "", err
	}

	mergeInstruction := st.merge
	if mergeInstruction == "" {
		mergeInstruction = fmt.Sprintf("Synthesize these analyses into a comprehensive %s report.", typ)
	}

	mergePrompt := fmt.Sprintf(`%s

Do not simply stack the analyses. Intelligently integrate findings, eliminate redundancy, and create a logical narrative specific to the %s analysis requirements.

**Base Analysis:**
%s

**Specialized Analysis:**
%s

Create a single, cohesive, and well-structured report that leverages the strengths of both analyses.`,
		mergeInstruction, typ, base, specialized)

	merged, err := s.completer.Complete(ctx, mergePrompt)
	if err != nil {
		return "", fmt.Errorf("synthesis merge failed: %w", err)
	}
	return merged, nil
}

// ConfidenceFor labels an answer by the volume of context behind it.
// A coarse proxy, not a calibrated probability: low is reserved for the
// validation and error paths.
func (s *Synthesizer) ConfidenceFor(sourceCount int) models.Confidence {
	if sourceCount >= highConfidenceSources {
		return models.ConfidenceHigh
	}
	return models.ConfidenceMedium
}

// RelevanceFor labels a chunk by its taxonomy keyword hits. Deterministic
// given a fixed taxonomy; a placeholder scoring policy, kept swappable.
func (s *Synthesizer) RelevanceFor(content string) (string, int) {
	score := s.tax.HitCount(content)
	switch {
	case score >= 3:
		return "High", score
	case score >= 1:
		return "Medium", score
	default:
		return "Low", score
	}
}

// SourcesFor builds the cited source list for a response, labeling each
// chunk's relevance and bounding excerpts to 400 characters.
func (s *Synthesizer) SourcesFor(chunks []models.Chunk) []models.Source {
	sources := make([]models.Source, 0, len(chunks))
	for i, chunk := range chunks {
		relevance, score := s.RelevanceFor(chunk.Content)

		excerpt := chunk.Content
		if len(excerpt) > 400 {
			excerpt = excerpt[:400] + "..."
		}

		article := chunk.ArticleID
		if article == "" {
			article = fmt.Sprintf("Source_%d", i+1)
		}

		sources = append(sources, models.Source{
			Content:        excerpt,
			SourceURL:      chunk.SourceURL,
			ArticleNumber:  article,
			Relevance:      relevance,
			RelevanceScore: score,
			ContentLength:  len(chunk.Content),
		})
	}
	return sources
}

func joinContext(chunks []models.Chunk) string {
	if len(chunks) == 0 {
		return "(no case-study context was retrieved for this question)"
	}
	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}
	return strings.Join(contents, chunkSeparator)
}

func renderTemplate(template, context, question string) string {
	out := strings.ReplaceAll(template, contextPlaceholder, context)
	return strings.ReplaceAll(out, questionPlaceholder, question)
}
