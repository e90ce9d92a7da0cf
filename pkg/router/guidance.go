package router

import (
	"fmt"
	"strings"

	"github.com/convotrack/insight/internal/models"
)

// categorySuggestions maps detected business areas to example questions
// the corpus can actually answer.
var categorySuggestions = map[string][]string{
	"marketing": {
		"What marketing strategies show the highest engagement rates?",
		"How do different content types perform across demographics?",
	},
	"consumer": {
		"What consumer behavior patterns emerge from the case studies?",
		"Which demographic segments show the strongest brand loyalty?",
	},
	"performance": {
		"What metrics indicate successful campaigns in our case studies?",
		"How do conversion rates vary across different platforms?",
	},
}

var genericSuggestions = []string{
	`"What are the most effective marketing strategies for beauty brands?"`,
	`"How do consumer preferences vary across different age groups?"`,
	`"What trends are driving growth in the food industry?"`,
	`"Which social media platforms show the best ROI?"`,
}

// Guidance builds the out-of-scope response: detected business areas with
// tailored rephrasing suggestions, or a generic capability overview. This
// path never touches the index or the model.
func (r *Router) Guidance(question string) models.Response {
	intent, categories := r.ExtractIntent(question)

	var b strings.Builder
	fmt.Fprintf(&b, "I noticed your question: %q\n\n", question)
	b.WriteString("I specialize in business intelligence from case studies, but I can help you reframe this question to get actionable insights.\n")

	if len(categories) > 0 {
		fmt.Fprintf(&b, "\nDetected business areas: %s\n", strings.Join(categories, ", "))
		b.WriteString("\nSuggested business questions:\n")
		for _, cat := range categories {
			for _, s := range categorySuggestions[cat] {
				fmt.Fprintf(&b, "- %s\n", s)
			}
		}
	} else {
		b.WriteString(`
My expertise areas:
- Consumer behavior analysis and market trends
- Brand performance and marketing effectiveness
- Strategic business insights and competitive analysis
- Social media and digital marketing analytics
- Product innovation and market research

Try asking:
`)
		for _, s := range genericSuggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	return models.Response{
		Question:   question,
		Answer:     b.String(),
		Sources:    []models.Source{},
		AgentType:  "scope_guidance",
		Confidence: models.ConfidenceMedium,
		Intent:     intent,
		Categories: categories,
	}
}
