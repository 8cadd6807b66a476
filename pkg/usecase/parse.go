package usecase

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/secmon-lab/smartresolve/pkg/domain/types"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
)

const (
	maxRecommendations = 3

	// defaultConfidence applies when nothing usable could be parsed
	defaultConfidence = 0.5
	// lenientConfidence applies when an extracted block has no confidence
	lenientConfidence = 0.8
)

// modelResponse is the JSON object the model is instructed to emit
type modelResponse struct {
	Recommendations []modelEntry `json:"recommendations"`
	Primary         string       `json:"primary"`
	Confidence      *float64     `json:"confidence"`
	Reasoning       string       `json:"reasoning"`
}

type modelEntry struct {
	Rank            modelRank `json:"rank"`
	Resolution      string    `json:"resolution"`
	ExpectedOutcome string    `json:"expectedOutcome"`
	Implementation  string    `json:"implementation"`
}

// modelRank accepts any JSON number or numeric string. Values that are not a
// usable positive rank decode to 0 and are renumbered by normalize.
type modelRank int

func (r *modelRank) UnmarshalJSON(data []byte) error {
	*r = 0

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if f = math.Round(f); f >= 1 && f <= math.MaxInt32 {
		*r = modelRank(f)
	}
	return nil
}

// parsedOutput is the normalized result of parsing raw model text
type parsedOutput struct {
	Entries    []model.RecommendationEntry
	Primary    string
	Confidence float64
	Reasoning  string
	Mode       types.ParseMode
}

// parseModelOutput turns raw model text into a parsedOutput. It never fails:
// strict decoding is tried first, then extraction of an embedded JSON block,
// then the fallback defaults.
func parseModelOutput(ctx context.Context, raw string) *parsedOutput {
	logger := logging.From(ctx)

	if resp, ok := parseStrict(raw); ok {
		return normalize(ctx, resp, types.ParseModeStrict)
	}

	if resp, ok := parseLenient(raw); ok {
		logger.Warn("model output was not strict JSON, extracted embedded block")
		if resp.Confidence == nil {
			c := lenientConfidence
			resp.Confidence = &c
		}
		return normalize(ctx, resp, types.ParseModeLenient)
	}

	logger.Warn("no usable JSON found in model output, using defaults", "output_length", len(raw))
	return &parsedOutput{
		Entries:    []model.RecommendationEntry{},
		Primary:    "",
		Confidence: defaultConfidence,
		Reasoning:  "",
		Mode:       types.ParseModeFallback,
	}
}

// parseStrict accepts raw only when the whole trimmed text is one JSON object
// with known fields that satisfies the response schema
func parseStrict(raw string) (*modelResponse, bool) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	dec.DisallowUnknownFields()

	var resp modelResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}

	if len(resp.Recommendations) == 0 || resp.Primary == "" || resp.Confidence == nil {
		return nil, false
	}
	if *resp.Confidence < 0 || *resp.Confidence > 1 {
		return nil, false
	}
	for _, e := range resp.Recommendations {
		if e.Resolution == "" {
			return nil, false
		}
	}

	return &resp, true
}

// parseLenient returns the first balanced {...} block in raw that decodes
// into a modelResponse and carries a "recommendations" key
func parseLenient(raw string) (*modelResponse, bool) {
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		if end := matchBrace(raw, start); end > start {
			block := []byte(raw[start : end+1])

			var keys map[string]json.RawMessage
			if err := json.Unmarshal(block, &keys); err == nil {
				if _, ok := keys["recommendations"]; ok {
					var resp modelResponse
					if err := json.Unmarshal(block, &resp); err == nil {
						return &resp, true
					}
				}
			}
		}

		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, false
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside JSON strings are ignored.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// normalize enforces the output invariants: entries with a resolution only,
// ordered by rank, at most three, confidence within [0,1] and a primary pick
// that names one of the entries
func normalize(ctx context.Context, resp *modelResponse, mode types.ParseMode) *parsedOutput {
	entries := make([]model.RecommendationEntry, 0, len(resp.Recommendations))
	for _, e := range resp.Recommendations {
		if strings.TrimSpace(e.Resolution) == "" {
			continue
		}
		entries = append(entries, model.RecommendationEntry{
			Rank:            int(e.Rank),
			Resolution:      e.Resolution,
			ExpectedOutcome: e.ExpectedOutcome,
			Implementation:  e.Implementation,
		})
	}

	for i := range entries {
		if entries[i].Rank <= 0 {
			entries[i].Rank = i + 1
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Rank < entries[j].Rank
	})
	if len(entries) > maxRecommendations {
		entries = entries[:maxRecommendations]
	}

	confidence := defaultConfidence
	if resp.Confidence != nil {
		confidence = min(max(*resp.Confidence, 0), 1)
	}

	primary := resp.Primary
	if len(entries) == 0 {
		primary = ""
	} else if !containsResolution(entries, primary) {
		logging.From(ctx).Warn("primary recommendation does not match any entry, using rank 1",
			"primary", primary,
			"replacement", entries[0].Resolution)
		primary = entries[0].Resolution
	}

	return &parsedOutput{
		Entries:    entries,
		Primary:    primary,
		Confidence: confidence,
		Reasoning:  resp.Reasoning,
		Mode:       mode,
	}
}

func containsResolution(entries []model.RecommendationEntry, resolution string) bool {
	for _, e := range entries {
		if e.Resolution == resolution {
			return true
		}
	}
	return false
}
