package assessment

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/google/uuid"

	domain "github.com/meridiancap/riskradar/internal/domain/assessment"
	"github.com/meridiancap/riskradar/internal/domain/rating"
)

// reportData feeds the export template.
type reportData struct {
	Assessment  *domain.Assessment
	Scores      []*domain.DomainScore
	Domains     []reportDomain
	GeneratedAt time.Time
}

type reportDomain struct {
	Name    string
	Rating  rating.Rating
	Summary string
	Scores  []*domain.DomainScore
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Assessment.CompanyName}} - AI Disruption Risk Report</title>
<style>
body { font-family: Georgia, serif; max-width: 800px; margin: 2rem auto; color: #1a1a2e; }
h1 { border-bottom: 2px solid #1a1a2e; padding-bottom: .5rem; }
.score { font-size: 2.5rem; font-weight: bold; }
.label { font-size: 1.2rem; color: #555; }
.domain { margin: 1.5rem 0; padding: 1rem; border: 1px solid #ddd; border-radius: 6px; }
.domain h2 { margin-top: 0; }
.rating-high { color: #c0392b; }
.rating-medium { color: #d68910; }
.rating-low { color: #1e8449; }
.question { margin: .75rem 0; padding-left: 1rem; border-left: 3px solid #eee; }
.meta { color: #888; font-size: .85rem; margin-top: 2rem; }
</style>
</head>
<body>
<h1>{{.Assessment.CompanyName}}</h1>
{{if .Assessment.CompanySector}}<p class="label">{{.Assessment.CompanySector}}</p>{{end}}
{{if .Assessment.CompositeScore}}
<p><span class="score">{{.Assessment.CompositeScore}}/10</span>
{{if .Assessment.CompositeLabel}}<span class="label"> {{.Assessment.CompositeLabel}}</span>{{end}}</p>
{{end}}
{{if .Assessment.Narrative}}<p>{{.Assessment.Narrative}}</p>{{end}}
{{range .Domains}}
<div class="domain">
<h2>{{.Name}} <span class="rating-{{.Rating}}">{{.Rating}}</span></h2>
{{if .Summary}}<p>{{.Summary}}</p>{{end}}
{{range .Scores}}
<div class="question">
<strong>{{.QuestionText}}</strong>
<p><span class="rating-{{.EffectiveRating}}">{{.EffectiveRating}}</span>
{{if .UserRating}} (analyst override; AI said {{.AIRating}}){{end}}
 &mdash; {{.AIReasoning}}</p>
{{if .UserReasoning}}<p><em>Analyst note: {{.UserReasoning}}</em></p>{{end}}
</div>
{{end}}
</div>
{{end}}
{{if .Assessment.Notes}}<h2>Notes</h2><p>{{.Assessment.Notes}}</p>{{end}}
<p class="meta">Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}{{if .Assessment.AIModel}} &middot; model {{.Assessment.AIModel}}{{end}}</p>
</body>
</html>
`))

// ExportHTML renders one owned assessment as a standalone HTML report.
func (s *Service) ExportHTML(ctx context.Context, ownerID uuid.UUID, id int64) ([]byte, error) {
	detail, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	data := reportData{
		Assessment:  detail.Assessment,
		Scores:      detail.Scores,
		GeneratedAt: time.Now(),
	}
	for _, d := range rating.Domains {
		rd := reportDomain{
			Name:    d.Name,
			Rating:  detail.Assessment.DomainRatings[d.Number],
			Summary: detail.Assessment.DomainSummaries[d.Number],
		}
		for _, score := range detail.Scores {
			if score.DomainNumber == d.Number {
				rd.Scores = append(rd.Scores, score)
			}
		}
		if len(rd.Scores) > 0 {
			data.Domains = append(data.Domains, rd)
		}
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
