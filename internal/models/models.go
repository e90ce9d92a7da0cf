package models

import "strconv"

// AnalysisType selects which prompt template and report structure apply to
// a question. The set is closed; unknown values parse to AnalysisDefault.
type AnalysisType string

const (
	AnalysisDefault     AnalysisType = "default"
	AnalysisStrategic   AnalysisType = "strategic"
	AnalysisTrends      AnalysisType = "trends"
	AnalysisComparative AnalysisType = "comparative"
	AnalysisExecutive   AnalysisType = "executive"
)

// AnalysisTypes lists every valid type in presentation order.
var AnalysisTypes = []AnalysisType{
	AnalysisDefault,
	AnalysisStrategic,
	AnalysisTrends,
	AnalysisComparative,
	AnalysisExecutive,
}

// ParseAnalysisType maps a request string onto the closed enum. The second
// return reports whether the input named a known type.
func ParseAnalysisType(s string) (AnalysisType, bool) {
	switch AnalysisType(s) {
	case AnalysisStrategic, AnalysisTrends, AnalysisComparative, AnalysisExecutive:
		return AnalysisType(s), true
	case AnalysisDefault, "":
		return AnalysisDefault, true
	}
	return AnalysisDefault, false
}

// Confidence is a coarse heuristic label, not a calibrated probability.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Intent is the coarse business purpose derived from taxonomy matches.
type Intent string

const (
	IntentGeneral     Intent = "general_inquiry"
	IntentStrategic   Intent = "strategic_analysis"
	IntentPerformance Intent = "performance_analysis"
	IntentTrend       Intent = "trend_analysis"
	IntentMarketing   Intent = "marketing_analysis"
)

// Document is one normalized source article. Immutable once loaded.
type Document struct {
	ID        string
	SourceURL string
	ArticleID string
	Content   string
}

// Chunk is a bounded slice of a Document's content, the unit of embedding
// and retrieval. It carries the parent's metadata plus its position.
type Chunk struct {
	Content   string
	SourceURL string
	ArticleID string
	Index     int
}

// ID returns the stable identifier used for index upserts.
func (c Chunk) ID() string {
	if c.ArticleID == "" {
		return "chunk_" + strconv.Itoa(c.Index)
	}
	return c.ArticleID + "_" + strconv.Itoa(c.Index)
}

// Source describes one retrieved chunk cited in a response.
type Source struct {
	Content        string `json:"content"`
	SourceURL      string `json:"source_url"`
	ArticleNumber  string `json:"article_number"`
	Relevance      string `json:"relevance"`
	RelevanceScore int    `json:"relevance_score"`
	ContentLength  int    `json:"content_length,omitempty"`
}

// Response is the full answer contract returned to callers. Immutable
// once produced.
type Response struct {
	Question     string       `json:"question"`
	Answer       string       `json:"answer"`
	Sources      []Source     `json:"sources"`
	AgentType    string       `json:"agent_type"`
	Confidence   Confidence   `json:"confidence"`
	Intent       Intent       `json:"intent,omitempty"`
	Categories   []string     `json:"categories,omitempty"`
	AnalysisType AnalysisType `json:"analysis_type,omitempty"`
	QuestionType string       `json:"question_type,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// HistoryEntry records one answered question for aggregate analytics only.
// Prior entries never feed back into later answers.
type HistoryEntry struct {
	Question    string
	Intent      Intent
	Categories  []string
	SourceCount int
}
