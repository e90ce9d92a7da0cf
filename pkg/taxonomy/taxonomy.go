package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one named keyword group. Order inside the file is
// significant: scans report matches in declaration order.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Taxonomy is the curated business keyword mapping used for scope checks,
// question-type routing, intent extraction, query expansion and relevance
// scoring. It is data, not logic: tests and deployments can substitute a
// different file without touching any classifier.
type Taxonomy struct {
	Categories    []Category `yaml:"categories"`
	QuestionTypes []Category `yaml:"question_types"`
	Patterns      []string   `yaml:"patterns"`
}

// Load reads a taxonomy from a YAML file. An empty path yields the
// built-in default.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading taxonomy file: %w", err)
	}
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("error parsing taxonomy file: %w", err)
	}
	if len(t.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy file %s defines no categories", path)
	}
	d := Default()
	if len(t.QuestionTypes) == 0 {
		t.QuestionTypes = d.QuestionTypes
	}
	if len(t.Patterns) == 0 {
		t.Patterns = d.Patterns
	}
	return &t, nil
}

// CategoriesFor returns the names of every category with at least one
// keyword occurring in text, in declaration order.
func (t *Taxonomy) CategoriesFor(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, cat := range t.Categories {
		if containsAny(lower, cat.Keywords) {
			matched = append(matched, cat.Name)
		}
	}
	return matched
}

// MatchesAny reports whether any taxonomy keyword occurs in text.
func (t *Taxonomy) MatchesAny(text string) bool {
	lower := strings.ToLower(text)
	for _, cat := range t.Categories {
		if containsAny(lower, cat.Keywords) {
			return true
		}
	}
	return false
}

// MatchesPattern reports whether any curated business phrase occurs in text.
func (t *Taxonomy) MatchesPattern(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range t.Patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// RelatedTerms returns up to n sibling keywords for every category that
// contains term as an exact keyword. Used for query expansion.
func (t *Taxonomy) RelatedTerms(term string, n int) []string {
	term = strings.ToLower(term)
	var related []string
	for _, cat := range t.Categories {
		for _, kw := range cat.Keywords {
			if kw == term {
				limit := n
				if limit > len(cat.Keywords) {
					limit = len(cat.Keywords)
				}
				related = append(related, cat.Keywords[:limit]...)
				break
			}
		}
	}
	return related
}

// HitCount counts how many distinct taxonomy keywords occur in content.
// It is the raw relevance score for retrieved chunks.
func (t *Taxonomy) HitCount(content string) int {
	lower := strings.ToLower(content)
	count := 0
	for _, cat := range t.Categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
	}
	return count
}

// QuestionType scans the ordered question-type groups and returns the
// name of the first group with a keyword hit, or "general".
func (t *Taxonomy) QuestionType(question string) string {
	lower := strings.ToLower(question)
	for _, group := range t.QuestionTypes {
		if containsAny(lower, group.Keywords) {
			return group.Name
		}
	}
	return "general"
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Default returns the built-in business taxonomy for the case-study corpus.
func Default() *Taxonomy {
	return &Taxonomy{
		Categories: []Category{
			{Name: "strategy", Keywords: []string{"strategy", "strategic", "plan", "planning", "approach", "method"}},
			{Name: "marketing", Keywords: []string{"marketing", "campaign", "promotion", "advertising", "branding", "content"}},
			{Name: "consumer", Keywords: []string{"consumer", "customer", "user", "audience", "demographic", "behavior"}},
			{Name: "performance", Keywords: []string{"performance", "metrics", "kpi", "roi", "conversion", "engagement", "results"}},
			{Name: "trends", Keywords: []string{"trend", "trending", "popular", "emerging", "growth", "increase", "rise"}},
			{Name: "analysis", Keywords: []string{"analysis", "insight", "finding", "data", "research", "study", "report"}},
			{Name: "innovation", Keywords: []string{"innovation", "new", "creative", "unique", "novel", "breakthrough"}},
			{Name: "competitive", Keywords: []string{"competitive", "competition", "competitor", "market share", "advantage"}},
		},
		QuestionTypes: []Category{
			{Name: "comparison", Keywords: []string{"vs", "versus", "compare", "difference", "better", "best", "worst"}},
			{Name: "trend", Keywords: []string{"trend", "change", "evolving", "future", "prediction", "forecast"}},
			{Name: "how_to", Keywords: []string{"how to", "how can", "ways to", "methods", "approach", "strategy for"}},
			{Name: "metrics", Keywords: []string{"metrics", "measure", "kpi", "performance", "roi", "success rate"}},
			{Name: "recommendation", Keywords: []string{"recommend", "suggest", "advice", "should", "best practice"}},
		},
		Patterns: []string{
			"how to improve", "what strategy", "best practices", "market analysis",
			"consumer insights", "brand performance", "campaign effectiveness",
			"competitive advantage", "growth opportunities", "business impact",
		},
	}
}
