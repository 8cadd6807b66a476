package usecase

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
)

//go:embed prompt/recommend.md
var recommendPromptTmpl string

var recommendPrompt = template.Must(template.New("recommend").Parse(recommendPromptTmpl))

// recommendPromptCase is one retrieved case as shown to the model
type recommendPromptCase struct {
	Number     int
	Score      string
	Category   string
	Resolution string
	Outcome    string
	Metadata   string
}

// recommendPromptData holds all data for the recommendation prompt template
type recommendPromptData struct {
	Summary string
	Cases   []recommendPromptCase
}

// buildPrompt renders the recommendation prompt. Output depends only on the
// arguments; metadata keys are serialized in sorted order.
func buildPrompt(summary string, cases []*model.HistoricalCase) (string, error) {
	data := recommendPromptData{
		Summary: summary,
		Cases:   make([]recommendPromptCase, 0, len(cases)),
	}

	for i, c := range cases {
		metadata := "{}"
		if len(c.Metadata) > 0 {
			raw, err := json.Marshal(c.Metadata)
			if err != nil {
				return "", goerr.Wrap(err, "failed to serialize case metadata", goerr.V(model.CaseIDKey, c.ID))
			}
			metadata = string(raw)
		}

		data.Cases = append(data.Cases, recommendPromptCase{
			Number:     i + 1,
			Score:      fmt.Sprintf("%.2f", c.Score),
			Category:   c.Category,
			Resolution: c.Resolution,
			Outcome:    c.Outcome,
			Metadata:   metadata,
		})
	}

	var buf bytes.Buffer
	if err := recommendPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute recommendation prompt template")
	}

	return buf.String(), nil
}
