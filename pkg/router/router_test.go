package router_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/convotrack/insight/internal/models"
	"github.com/convotrack/insight/pkg/router"
	"github.com/convotrack/insight/pkg/taxonomy"
)

type fakeCompleter struct {
	answer string
	err    error
	calls  int
}

func (f *fakeCompleter) Complete(context.Context, string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func TestInScope(t *testing.T) {
	r := router.New(taxonomy.Default())

	tests := []struct {
		question string
		want     bool
	}{
		{"What is the weather today?", false},
		{"What marketing strategies improve engagement for beauty brands?", true},
		{"how to improve things around here", true},                  // phrase pattern
		{"tell me about the new coffee company in town please", true}, // long + business noun
		{"hi", false},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, r.InScope(tt.question))
		})
	}
}

func TestClassifyType(t *testing.T) {
	r := router.New(taxonomy.Default())

	tests := []struct {
		question string
		want     models.AnalysisType
	}{
		{"Compare Instagram vs TikTok engagement", models.AnalysisComparative},
		{"What trends will shape skincare in 2026?", models.AnalysisTrends},
		{"How to improve brand loyalty?", models.AnalysisDefault},
		{"Tell me about ice cream", models.AnalysisDefault},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ClassifyType(tt.question))
		})
	}
}

func TestClassifyTypeModel(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
		want   models.AnalysisType
	}{
		{name: "clean answer", answer: "strategic", want: models.AnalysisStrategic},
		{name: "answer with punctuation", answer: " Comparative.\n", want: models.AnalysisComparative},
		{name: "unrecognized answer", answer: "philosophical", want: models.AnalysisDefault},
		{name: "model failure falls back to keywords", err: errors.New("timeout"), want: models.AnalysisTrends},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompleter{answer: tt.answer, err: tt.err}
			r := router.NewWithModel(taxonomy.Default(), fc)
			got := r.ClassifyTypeModel(context.Background(), "What future trends matter?")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, fc.calls)
		})
	}
}

func TestExtractIntent(t *testing.T) {
	r := router.New(taxonomy.Default())

	tests := []struct {
		question   string
		wantIntent models.Intent
	}{
		{"What strategy wins against competitors?", models.IntentStrategic},
		{"Show me engagement metrics and conversion data", models.IntentPerformance},
		{"What emerging trend matters most?", models.IntentTrend},
		{"Which advertising campaign reached the audience?", models.IntentMarketing},
		{"hello", models.IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			intent, _ := r.ExtractIntent(tt.question)
			assert.Equal(t, tt.wantIntent, intent)
		})
	}
}

func TestGuidanceWithCategories(t *testing.T) {
	r := router.New(taxonomy.Default())

	resp := r.Guidance("write a poem about marketing")
	assert.Equal(t, "scope_guidance", resp.AgentType)
	assert.Equal(t, models.ConfidenceMedium, resp.Confidence)
	assert.Contains(t, resp.Categories, "marketing")
	assert.Contains(t, resp.Answer, "Detected business areas")
	assert.Empty(t, resp.Sources)
}

func TestGuidanceGeneric(t *testing.T) {
	r := router.New(taxonomy.Default())

	resp := r.Guidance("what is the weather")
	assert.Empty(t, resp.Categories)
	assert.Contains(t, resp.Answer, "expertise areas")
}
