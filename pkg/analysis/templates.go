package analysis

import "github.com/convotrack/insight/internal/models"

// strategy carries everything one analysis type needs: the prompt
// template, presentation header/footer, the focus brief for the
// specialized pass of synthesized mode, and the merge instructions.
// Keeping these as data on a closed enum removes the stringly-typed
// template lookup the pipeline would otherwise need.
type strategy struct {
	template string
	header   string
	footer   string
	focus    string
	merge    string
}

// contextPlaceholder and questionPlaceholder are substituted verbatim.
const (
	contextPlaceholder  = "{context}"
	questionPlaceholder = "{question}"
)

var strategies = map[models.AnalysisType]strategy{
	models.AnalysisDefault: {
		header: "**BUSINESS INTELLIGENCE ANALYSIS**\n\n",
		template: `You are an elite business intelligence specialist with expertise in consumer psychology, market analysis, and strategic business insights.

MISSION: Transform raw case study data into actionable business intelligence that drives real-world results.

CASE STUDY INTELLIGENCE:
{context}

BUSINESS INQUIRY: {question}

COMPREHENSIVE ANALYSIS:
Provide a strategic business analysis that includes:

**Executive Summary**: Key takeaway in 2-3 sentences.

**Data-Driven Insights**: Specific findings from the case studies with numbers and percentages when available. Always include engagement rates, conversion rates, growth rates over time, comparative data between brands or platforms, and market share figures whenever the context mentions them.

**Strategic Implications**: What this means for business strategy and market positioning.

**Actionable Recommendations**: 3-4 specific, implementable actions.

**Future Outlook**: Trends and predictions based on the data, with projected figures when possible.

**Risk Considerations**: Potential challenges or limitations to consider.

When presenting data, always include specific numbers, percentages, and quantitative metrics from the case studies. Write in a professional yet engaging tone and back up every claim with evidence from the case studies.`,
	},
	models.AnalysisStrategic: {
		header: "**STRATEGIC BUSINESS ANALYSIS**\n\n",
		footer: "\n\n---\n*Strategic analysis focused on long-term positioning and competitive advantage*",
		template: `You are a senior business strategist specializing in long-term planning and market positioning.

STRATEGIC INTELLIGENCE DATA:
{context}

STRATEGIC INQUIRY: {question}

STRATEGIC ANALYSIS:
**Strategic Position Assessment**: Current market position with specific market share percentages and competitive standing.
**Market Opportunity Matrix**: Identified opportunities with market size, potential ROI percentages, and investment requirements.
**Competitive Advantage Analysis**: Unique value propositions with quantified performance advantages.
**Strategic Roadmap**: Phased implementation plan with timeline, resource allocation, and success metrics.
**Investment & Resource Strategy**: Budget allocation recommendations with expected ROI and payback periods.
**Strategic Risk Matrix**: Risk assessment with probability and impact levels.
**Success Metrics & KPIs**: Specific measurable outcomes with target percentages and benchmarks.

Focus on long-term value creation, sustainable competitive advantages, and scalable business models. Include specific ROI projections, market size opportunities, and strategic milestones with timelines.`,
		focus: `Perform a comprehensive strategic business analysis for: {question}

Focus on: market positioning, competitive advantages, strategic roadmap, investment requirements, partnership opportunities, long-term value creation, scalable business models, and strategic risk assessment. Provide specific ROI projections, market size opportunities, and strategic milestones with timelines.`,
		merge: `As a senior strategy consultant, synthesize these analyses into a comprehensive strategic business plan.

Structure with: Strategic Position, Market Opportunities, Competitive Advantages, Implementation Roadmap, Investment Strategy, Risk Management.

Emphasize long-term value creation, sustainable competitive advantages, and scalable business models.`,
	},
	models.AnalysisTrends: {
		header: "**TREND ANALYSIS & FUTURE OUTLOOK**\n\n",
		footer: "\n\n---\n*Trend analysis with forward-looking insights and market evolution*",
		template: `You are a trend forecasting expert specializing in consumer behavior and market evolution.

TREND INTELLIGENCE DATA:
{context}

TREND INQUIRY: {question}

TREND ANALYSIS:
**Current State**: What the data shows about the present situation with specific metrics.
**Evolution Pattern**: How things have changed over time with year-over-year growth rates.
**Emerging Trends**: New developments and patterns with adoption rates and market penetration data.
**Trend Drivers**: What is causing these changes, with supporting figures.
**Business Impact**: How these trends affect business strategy, with projected impact.
**Future Projections**: Where trends are heading over the next 1-2 years, with specific growth projections and timeframes.
**Revenue Opportunities**: How businesses can capitalize on these trends.

Always include specific data points, growth rates, adoption percentages, market share figures, and comparative metrics from the case studies.`,
		focus: `Generate a forward-looking trend analysis and market evolution report for: {question}

Focus on: current market state, evolution patterns, emerging trends, trend drivers, future projections, consumer behavior shifts, and market opportunity forecasting. Provide specific growth rates, adoption percentages, market penetration data, and timeline projections.`,
		merge: `As a trend forecasting expert, synthesize these analyses into a comprehensive trend intelligence report.

Structure with: Current Market State, Evolution Patterns, Emerging Trends, Future Projections, Business Opportunities.

Emphasize forward-looking insights, market evolution patterns, and opportunity forecasting.`,
	},
	models.AnalysisComparative: {
		header: "**COMPARATIVE MARKET ANALYSIS**\n\n",
		footer: "\n\n---\n*Comparative analysis with performance benchmarks and market positioning*",
		template: `You are a comparative business analyst specializing in market intelligence and competitive analysis.

COMPARATIVE INTELLIGENCE DATA:
{context}

COMPARISON REQUEST: {question}

COMPARATIVE ANALYSIS:
**Comparison Framework**: Establish clear criteria for comparison with baseline metrics.
**Side-by-Side Analysis**: Detailed comparison with specific metrics, percentages, and performance indicators.
**Winner/Leader Analysis**: Which approach, strategy, or brand performs better, with quantified performance gaps.
**Performance Gaps**: Quantify differences with exact percentages and ratios.
**Strategic Recommendations**: Which approach to adopt, with expected performance improvements.
**Trade-offs**: Pros and cons with risk and benefit figures when available.

Always provide numerical comparisons, percentage differences, performance ratios, and concrete examples from the case studies.`,
		focus: `Conduct a detailed comparative market analysis for: {question}

Focus on: side-by-side performance comparisons, market positioning differences, competitive benchmarking, performance gap analysis, winner identification, and strategic recommendations based on comparisons. Provide specific performance metrics and quantified gaps between options.`,
		merge: `As a comparative market analyst, synthesize these analyses into a definitive comparison report.

Structure with: Comparison Framework, Performance Analysis, Competitive Positioning, Winner Identification, Strategic Recommendations.

Emphasize quantified performance differences, clear winners and losers, and data-driven recommendations.`,
	},
	models.AnalysisExecutive: {
		header: "**EXECUTIVE BUSINESS BRIEF**\n\n",
		footer: "\n\n---\n*Executive summary designed for C-level decision making*",
		template: `You are a C-level executive consultant specializing in high-level business summaries and board-level insights.

EXECUTIVE INTELLIGENCE DATA:
{context}

EXECUTIVE INQUIRY: {question}

EXECUTIVE BRIEF:
**Executive Summary**: Critical insights in 3-4 sentences with key performance indicators and business impact.
**Business Impact Assessment**: Direct revenue and cost implications with specific financial metrics.
**Key Performance Indicators**: The 3-4 metrics that matter most, with current performance against benchmarks.
**Critical Success Factors**: Essential elements for success.
**Financial Implications**: Revenue opportunities, cost savings, and investment requirements with ROI projections.
**Risk Assessment**: Top risks with mitigation strategies.
**Implementation Priority**: High/medium/low priority actions with timeline and resource requirements.

Present concise, high-impact insights that support C-level decision making, with bullet points, percentages, and clear action items.`,
		focus: `Create a C-level executive brief and decision-making summary for: {question}

Focus on: business impact assessment, key performance indicators, critical success factors, financial implications, risk assessment, implementation priorities, and a decision matrix. Provide concise insights, financial metrics, ROI projections, and clear action items.`,
		merge: `As a C-level business consultant, synthesize these analyses into an executive decision brief.

Structure with: Executive Summary, Business Impact, Key Metrics, Critical Decisions, Action Plan.

Emphasize concise insights, financial implications, and clear decision points for executives.`,
	},
}

func strategyFor(typ models.AnalysisType) strategy {
	if s, ok := strategies[typ]; ok {
		return s
	}
	return strategies[models.AnalysisDefault]
}
