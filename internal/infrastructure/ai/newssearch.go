package ai

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	appnews "github.com/meridiancap/riskradar/internal/application/news"
	"github.com/meridiancap/riskradar/internal/domain/news"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// NewsSearcher implements news.Searcher over the LLM client.
type NewsSearcher struct {
	client *Client
}

// NewNewsSearcher constructs the news-search capability.
func NewNewsSearcher(client *Client) *NewsSearcher {
	return &NewsSearcher{client: client}
}

// Search asks the model for recent competitive news and parses the
// structured reply.  A reply that cannot be parsed fails the whole scan.
func (s *NewsSearcher) Search(ctx context.Context, in appnews.SearchInput, progress func(string)) ([]appnews.Candidate, error) {
	notify := func(msg string) {
		if progress != nil {
			progress(msg)
		}
	}

	notify("Searching for competitive news...")
	raw, err := s.client.complete(ctx, capabilityNewsSearch,
		buildNewsSystemPrompt(in.PortfolioContext, in.Since, in.MinRelevance, in.MaxItems),
		buildNewsUserPrompt(in.Companies, in.Since))
	if err != nil {
		return nil, err
	}

	notify("Processing news results...")
	candidates, err := parseNewsResponse(raw)
	if err != nil {
		s.client.log.Error("news response rejected", logging.Err(err))
		return nil, err
	}
	return candidates, nil
}

type wireImpact struct {
	CompanyName       string `json:"company_name"`
	ImpactExplanation string `json:"impact_explanation"`
}

type wireAlert struct {
	Headline       string       `json:"headline"`
	Source         string       `json:"source"`
	SourceURL      *string      `json:"source_url"`
	PublishedDate  *string      `json:"published_date"`
	Summary        string       `json:"summary"`
	Competitor     string       `json:"competitor"`
	CompetitorType string       `json:"competitor_type"`
	RelevanceScore int          `json:"relevance_score"`
	Impacted       []wireImpact `json:"impacted_companies"`
}

type wireNewsResponse struct {
	Alerts []wireAlert `json:"alerts"`
}

var alertsObjectRe = regexp.MustCompile(`(?s)\{.*"alerts".*\}`)

// parseNewsResponse extracts the alerts object from the reply text, which
// may be wrapped in fences or surrounded by commentary despite the prompt.
func parseNewsResponse(raw string) ([]appnews.Candidate, error) {
	body := alertsObjectRe.FindString(stripJSONFences(raw))
	if body == "" {
		return nil, errors.New(errors.CodeScanParseFailed, "news response contains no alerts object")
	}

	var wire wireNewsResponse
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, errors.Wrap(err, errors.CodeScanParseFailed, "news response is not valid JSON")
	}

	candidates := make([]appnews.Candidate, 0, len(wire.Alerts))
	for _, a := range wire.Alerts {
		if strings.TrimSpace(a.Headline) == "" {
			return nil, errors.New(errors.CodeScanParseFailed, "news alert has an empty headline")
		}
		if a.RelevanceScore < 1 || a.RelevanceScore > 10 {
			return nil, errors.Newf(errors.CodeScanParseFailed, "news alert %q has relevance %d outside 1-10", a.Headline, a.RelevanceScore)
		}

		c := appnews.Candidate{
			Headline:       strings.TrimSpace(a.Headline),
			Source:         a.Source,
			Summary:        a.Summary,
			Competitor:     a.Competitor,
			RelevanceScore: a.RelevanceScore,
		}
		if a.SourceURL != nil && strings.TrimSpace(*a.SourceURL) != "" {
			c.SourceURL = strings.TrimSpace(*a.SourceURL)
		}
		if a.PublishedDate != nil && strings.TrimSpace(*a.PublishedDate) != "" {
			published, err := time.Parse("2006-01-02", strings.TrimSpace(*a.PublishedDate))
			if err != nil {
				return nil, errors.Wrapf(err, errors.CodeScanParseFailed, "news alert %q has unparseable published date %q", a.Headline, *a.PublishedDate)
			}
			c.PublishedDate = &published
		}
		switch ct := news.CompetitorType(a.CompetitorType); ct {
		case news.CompetitorFoundationLab, news.CompetitorAINative, news.CompetitorIncumbent:
			c.CompetitorType = &ct
		case "":
			// optional, stays nil
		default:
			return nil, errors.Newf(errors.CodeScanParseFailed, "news alert %q has unknown competitor type %q", a.Headline, a.CompetitorType)
		}
		for _, imp := range a.Impacted {
			if strings.TrimSpace(imp.CompanyName) == "" {
				continue
			}
			c.Impacts = append(c.Impacts, appnews.CandidateImpact{
				CompanyName: imp.CompanyName,
				Explanation: imp.ImpactExplanation,
			})
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
