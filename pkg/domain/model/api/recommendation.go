package api

import (
	"time"

	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/secmon-lab/smartresolve/pkg/domain/types"
)

// Recommendation is the JSON representation returned by the HTTP API and
// written to the archive. Case embeddings are never included.
type Recommendation struct {
	ID                    model.RecommendationID     `json:"id"`
	ComplaintID           string                     `json:"complaintId"`
	Recommendations       []*RecommendationEntry     `json:"recommendations"`
	PrimaryRecommendation string                     `json:"primaryRecommendation"`
	ConfidenceScore       float64                    `json:"confidenceScore"`
	CitedCases            []*CitedCase               `json:"citedCases"`
	Reasoning             string                     `json:"reasoning"`
	Status                types.RecommendationStatus `json:"status"`
	Degradations          []types.Degradation        `json:"degradations"`
	ParseMode             types.ParseMode            `json:"parseMode"`
	CreatedAt             time.Time                  `json:"createdAt"`
	ProcessingTimeMs      float64                    `json:"processingTimeMs"`
}

type RecommendationEntry struct {
	Rank            int    `json:"rank"`
	Resolution      string `json:"resolution"`
	ExpectedOutcome string `json:"expectedOutcome"`
	Implementation  string `json:"implementation"`
}

type CitedCase struct {
	CaseID          model.CaseID   `json:"caseId"`
	ComplaintType   string         `json:"complaintType"`
	Resolution      string         `json:"resolution"`
	Outcome         string         `json:"outcome"`
	SimilarityScore float64        `json:"similarityScore"`
	Metadata        map[string]any `json:"metadata"`
}

// RecommendationList is one page of recommendations for a complaint
type RecommendationList struct {
	Items []*Recommendation `json:"items"`
	Total int               `json:"total"`
}

// NewRecommendation converts a domain recommendation. Slices are never nil so
// they encode as empty arrays.
func NewRecommendation(rec *model.Recommendation) *Recommendation {
	out := &Recommendation{
		ID:                    rec.ID,
		ComplaintID:           rec.ComplaintID,
		Recommendations:       make([]*RecommendationEntry, 0, len(rec.Recommendations)),
		PrimaryRecommendation: rec.PrimaryRecommendation,
		ConfidenceScore:       rec.ConfidenceScore,
		CitedCases:            make([]*CitedCase, 0, len(rec.CitedCases)),
		Reasoning:             rec.Reasoning,
		Status:                rec.Status,
		Degradations:          make([]types.Degradation, 0, len(rec.Degradations)),
		ParseMode:             rec.ParseMode,
		CreatedAt:             rec.CreatedAt,
		ProcessingTimeMs:      rec.ProcessingTimeMs,
	}

	for _, e := range rec.Recommendations {
		out.Recommendations = append(out.Recommendations, &RecommendationEntry{
			Rank:            e.Rank,
			Resolution:      e.Resolution,
			ExpectedOutcome: e.ExpectedOutcome,
			Implementation:  e.Implementation,
		})
	}

	for _, c := range rec.CitedCases {
		metadata := c.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		out.CitedCases = append(out.CitedCases, &CitedCase{
			CaseID:          c.ID,
			ComplaintType:   c.Category,
			Resolution:      c.Resolution,
			Outcome:         c.Outcome,
			SimilarityScore: c.Score,
			Metadata:        metadata,
		})
	}

	out.Degradations = append(out.Degradations, rec.Degradations...)

	return out
}

// NewRecommendationList converts a page of recommendations
func NewRecommendationList(recs []*model.Recommendation, total int) *RecommendationList {
	items := make([]*Recommendation, 0, len(recs))
	for _, rec := range recs {
		items = append(items, NewRecommendation(rec))
	}
	return &RecommendationList{
		Items: items,
		Total: total,
	}
}
