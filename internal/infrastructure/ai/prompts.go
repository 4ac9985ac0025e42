package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/meridiancap/riskradar/internal/domain/rating"
)

const analystSystemPromptHeader = `You are a senior private credit analyst at a major fund specializing in software and technology investments. You have deep expertise in evaluating AI disruption risk for software companies.

Your task is to perform a structured AI disruption risk assessment for a given software company. You must evaluate the company across 4 risk domains with specific sub-questions.

IMPORTANT CONTEXT - Sources of AI Disruption Risk for Software:
1. AI can make software production massively cheaper - IT departments may insource vs outsource, cheaper alternatives emerge from new vendors
2. AI natives can disrupt systems of record - AI-native tools bypass legacy systems with faster, simpler workflows; incumbents risk disruption from vertically focused agents
3. AI can reduce seat count - Productivity gains lead to lower seat counts; pricing pressure as customers rationalize licenses and seats

RISK RATING DEFINITIONS:
- "high" = High disruption risk (the company is highly vulnerable to AI disruption in this area)
- "medium" = Moderate disruption risk (some vulnerability, but with mitigating factors)
- "low" = Low disruption risk (the company is well-positioned or insulated from AI disruption in this area)

SUB-SECTOR REFERENCE CLASSIFICATIONS (for context only - do NOT substitute for company-level analysis):
`

const analystSystemPromptFooter = `
You must respond with ONLY valid JSON matching the exact schema specified. No markdown, no explanations outside the JSON.`

// analystSystemPrompt renders the fixed system prompt with the sector
// reference classifications inlined.
func analystSystemPrompt() string {
	classifications, _ := json.MarshalIndent(rating.SectorClassifications, "", "  ")
	return analystSystemPromptHeader + string(classifications) + analystSystemPromptFooter
}

// buildAnalysisPrompt renders the per-company user prompt from the question
// catalog.
func buildAnalysisPrompt(name string, sector, description *string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Perform a comprehensive AI disruption risk assessment for: %s\n", name)
	if sector != nil && *sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n", *sector)
	}
	if description != nil && *description != "" {
		fmt.Fprintf(&b, "Description: %s\n", *description)
	}

	b.WriteString("\nEvaluate across these 4 domains and their sub-questions:\n\n")
	for _, d := range rating.Domains {
		fmt.Fprintf(&b, "  Domain %d: %s\n", d.Number, d.Name)
		for _, q := range d.Questions {
			fmt.Fprintf(&b, "    - question_key: %q\n      question: %q\n      guidance: %q\n", q.Key, q.Text, q.Guidance)
		}
		b.WriteString("\n")
	}

	b.WriteString(`For each domain, provide a "summary" field: a single paragraph that synthesizes your analysis across all sub-questions in that domain.

Respond with this exact JSON structure:
{
  "company_name": "` + name + `",
  "sector": "<identified or provided sector>",
  "domains": [
    {
      "domain_number": 1,
      "domain_name": "Customer Demand",
      "overall_rating": "high|medium|low",
      "summary": "<single paragraph synthesizing all sub-question findings for this domain>",
      "questions": [
        {
          "question_key": "<from above>",
          "rating": "high|medium|low",
          "reasoning": "<2-4 sentence analysis>",
          "confidence": "high|medium|low"
        }
      ]
    }
  ],
  "narrative": "<2-3 paragraph narrative analysis covering key findings and overall risk posture. Do NOT include investment recommendations.>",
  "composite_score": <1-10 where 1=lowest risk, 10=highest risk>,
  "composite_rating": "High Risk|Medium-High Risk|Medium Risk|Medium-Low Risk|Low Risk"
}
All 4 domains must appear with every listed sub-question answered.`)
	return b.String()
}

// buildNewsSystemPrompt renders the competitive-news search instructions.
func buildNewsSystemPrompt(portfolioContext string, since time.Time, minRelevance, maxItems int) string {
	sinceDate := since.Format("2006-01-02")
	return fmt.Sprintf(`You are a competitive intelligence analyst specializing in AI disruption risk for software companies. You track AI product launches, partnerships, funding rounds, and feature announcements that could impact software companies.

Your job is to find recent, real news about competitor moves from:
(a) Foundation labs (Anthropic, OpenAI, Google DeepMind, Meta AI, xAI, Mistral, Cohere)
(b) AI-native startups (e.g. Cursor, Jasper, Harvey, Glean, etc.)
(c) Major incumbents adding AI capabilities (Microsoft, Google, Salesforce, Adobe, etc.)

...that create competitive pressure on the portfolio companies listed below.

PORTFOLIO COMPANIES:
%s

IMPORTANT: Only report news published on or after %s. Do NOT include older news.

INSTRUCTIONS:
1. Find AI-related competitive news published since %s.
2. For each news item, determine which portfolio companies it impacts and why.
3. Rate relevance 1-10 (10 = most impactful). Only include items with relevance >= %d.
4. Be selective - quality over quantity. Max %d alerts.
5. Return ONLY valid JSON, no markdown fences or commentary.

Return this exact JSON structure:
{
  "alerts": [
    {
      "headline": "Short headline of the news",
      "source": "Publication name (e.g. TechCrunch, Reuters)",
      "source_url": "URL of the article if available, or null",
      "published_date": "YYYY-MM-DD or null if unknown",
      "summary": "2-3 sentence description of the news and its significance",
      "competitor": "Name of the company making the move",
      "competitor_type": "foundation_lab" | "ai_native" | "incumbent",
      "relevance_score": 7,
      "impacted_companies": [
        {
          "company_name": "Exact name from portfolio",
          "impact_explanation": "1-2 sentences explaining how this news impacts this specific company"
        }
      ]
    }
  ]
}`, portfolioContext, sinceDate, sinceDate, minRelevance, maxItems)
}

func buildNewsUserPrompt(companies []string, since time.Time) string {
	return fmt.Sprintf(
		"Search for AI competitive news published since %s that could impact these portfolio companies: %s. Return the structured JSON as instructed.",
		since.Format("2006-01-02"), strings.Join(companies, ", "))
}
