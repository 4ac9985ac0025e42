package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/meridiancap/riskradar/internal/application/analysis"
	"github.com/meridiancap/riskradar/internal/domain/rating"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// Analyst implements analysis.Analyst over the LLM client.
type Analyst struct {
	client *Client
}

// NewAnalyst constructs the analyst capability.
func NewAnalyst(client *Client) *Analyst {
	return &Analyst{client: client}
}

// AnalyzeCompany runs one structured assessment.  The response is validated
// against the expected shape and rejected loudly on any structural defect;
// a degraded or partial result is never returned.
func (a *Analyst) AnalyzeCompany(ctx context.Context, in analysis.CompanyInput, progress func(string)) (*analysis.Result, error) {
	notify := func(msg string) {
		if progress != nil {
			progress(msg)
		}
	}

	notify("Sending request to the analysis model...")
	raw, err := a.client.complete(ctx, capabilityAnalysis, analystSystemPrompt(),
		buildAnalysisPrompt(in.Name, in.Sector, in.Description))
	if err != nil {
		return nil, err
	}

	notify("Parsing analysis response...")
	result, err := parseAnalysisResponse(raw)
	if err != nil {
		a.client.log.Error("analysis response rejected",
			logging.String("company", in.Name),
			logging.Err(err))
		return nil, err
	}
	result.Model = a.client.Model()

	notify("Analysis complete")
	return result, nil
}

// wire shapes mirror the JSON contract the prompt specifies.
type wireQuestion struct {
	QuestionKey string `json:"question_key"`
	Rating      string `json:"rating"`
	Reasoning   string `json:"reasoning"`
	Confidence  string `json:"confidence"`
}

type wireDomain struct {
	DomainNumber  int            `json:"domain_number"`
	DomainName    string         `json:"domain_name"`
	OverallRating string         `json:"overall_rating"`
	Summary       string         `json:"summary"`
	Questions     []wireQuestion `json:"questions"`
}

type wireAnalysis struct {
	CompanyName     string       `json:"company_name"`
	Sector          string       `json:"sector"`
	Domains         []wireDomain `json:"domains"`
	Narrative       string       `json:"narrative"`
	CompositeScore  float64      `json:"composite_score"`
	CompositeRating string       `json:"composite_rating"`
}

// parseAnalysisResponse strips markdown fences, decodes the JSON body, and
// validates the full structure.
func parseAnalysisResponse(raw string) (*analysis.Result, error) {
	body := stripJSONFences(raw)

	var wire wireAnalysis
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, errors.Wrap(err, errors.CodeAIResponseInvalid, "analysis response is not valid JSON")
	}

	if len(wire.Domains) != 4 {
		return nil, errors.Newf(errors.CodeAIResponseInvalid, "analysis response has %d domains, expected 4", len(wire.Domains))
	}
	if strings.TrimSpace(wire.Narrative) == "" {
		return nil, errors.New(errors.CodeAIResponseInvalid, "analysis response has an empty narrative")
	}
	if wire.CompositeScore < 1 || wire.CompositeScore > 10 {
		return nil, errors.Newf(errors.CodeAIResponseInvalid, "analysis composite score %.1f is outside 1-10", wire.CompositeScore)
	}
	label := rating.CompositeLabel(wire.CompositeRating)
	switch label {
	case rating.LabelLowRisk, rating.LabelMediumLowRisk, rating.LabelMediumRisk, rating.LabelMediumHighRisk, rating.LabelHighRisk:
	default:
		return nil, errors.Newf(errors.CodeAIResponseInvalid, "unknown composite rating %q", wire.CompositeRating)
	}

	result := &analysis.Result{
		CompanyName:    wire.CompanyName,
		Sector:         strings.TrimSpace(wire.Sector),
		Narrative:      wire.Narrative,
		CompositeScore: int(wire.CompositeScore),
		CompositeLabel: label,
	}

	seen := make(map[int]bool, 4)
	for _, d := range wire.Domains {
		if rating.DomainByNumber(d.DomainNumber) == nil {
			return nil, errors.Newf(errors.CodeAIResponseInvalid, "unknown domain number %d", d.DomainNumber)
		}
		if seen[d.DomainNumber] {
			return nil, errors.Newf(errors.CodeAIResponseInvalid, "domain %d appears twice", d.DomainNumber)
		}
		seen[d.DomainNumber] = true

		overall := rating.Rating(d.OverallRating)
		if !overall.Valid() {
			return nil, errors.Newf(errors.CodeAIResponseInvalid, "domain %d has invalid overall rating %q", d.DomainNumber, d.OverallRating)
		}
		if len(d.Questions) == 0 {
			return nil, errors.Newf(errors.CodeAIResponseInvalid, "domain %d has no question results", d.DomainNumber)
		}

		dr := analysis.DomainResult{
			DomainNumber:  d.DomainNumber,
			DomainName:    d.DomainName,
			OverallRating: overall,
			Summary:       d.Summary,
		}
		for _, q := range d.Questions {
			r := rating.Rating(q.Rating)
			if !r.Valid() {
				return nil, errors.Newf(errors.CodeAIResponseInvalid, "question %q has invalid rating %q", q.QuestionKey, q.Rating)
			}
			conf := rating.Confidence(q.Confidence)
			if !conf.Valid() {
				return nil, errors.Newf(errors.CodeAIResponseInvalid, "question %q has invalid confidence %q", q.QuestionKey, q.Confidence)
			}
			if strings.TrimSpace(q.QuestionKey) == "" {
				return nil, errors.Newf(errors.CodeAIResponseInvalid, "domain %d contains a question with no key", d.DomainNumber)
			}
			dr.Questions = append(dr.Questions, analysis.QuestionResult{
				QuestionKey: q.QuestionKey,
				Rating:      r,
				Reasoning:   q.Reasoning,
				Confidence:  conf,
			})
		}
		result.Domains = append(result.Domains, dr)
	}

	return result, nil
}

// stripJSONFences removes a surrounding markdown code fence, if present.
func stripJSONFences(raw string) string {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
