package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"gopkg.in/yaml.v3"
)

// caseRecord is one historical case in an import file. Files are a JSON or
// YAML list of records; the format follows the file extension.
type caseRecord struct {
	ID            string         `json:"id" yaml:"id"`
	ComplaintType string         `json:"complaintType" yaml:"complaintType"`
	Resolution    string         `json:"resolution" yaml:"resolution"`
	Outcome       string         `json:"outcome" yaml:"outcome"`
	Embedding     []float32      `json:"embedding,omitempty" yaml:"embedding,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func (r caseRecord) toModel() *model.HistoricalCase {
	return &model.HistoricalCase{
		ID:         model.CaseID(r.ID),
		Category:   r.ComplaintType,
		Resolution: r.Resolution,
		Outcome:    r.Outcome,
		Embedding:  r.Embedding,
		Metadata:   r.Metadata,
	}
}

// loadCases reads historical cases from a JSON or YAML file
func loadCases(path string) ([]*model.HistoricalCase, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read case file", goerr.V("path", path))
	}

	var records []caseRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, goerr.Wrap(err, "failed to parse YAML case file", goerr.V("path", path))
		}
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, goerr.Wrap(err, "failed to parse JSON case file", goerr.V("path", path))
		}
	}

	cases := make([]*model.HistoricalCase, 0, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.Resolution) == "" {
			return nil, goerr.New("case has no resolution", goerr.V("path", path), goerr.V("index", i))
		}
		cases = append(cases, r.toModel())
	}

	return cases, nil
}
