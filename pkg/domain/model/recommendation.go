package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/types"
)

// RecommendationID is a UUID-based identifier for Recommendation
type RecommendationID string

// NewRecommendationID generates a new UUID v4 RecommendationID
func NewRecommendationID() RecommendationID {
	return RecommendationID(uuid.New().String())
}

// RecommendationEntry is one ranked resolution proposed by the model
type RecommendationEntry struct {
	Rank            int
	Resolution      string
	ExpectedOutcome string
	Implementation  string
}

// Recommendation is the pipeline output for one complaint. It is built once
// per invocation and not modified afterwards.
type Recommendation struct {
	ID                    RecommendationID
	ComplaintID           string
	Recommendations       []RecommendationEntry
	PrimaryRecommendation string
	ConfidenceScore       float64
	CitedCases            []*HistoricalCase
	Reasoning             string
	Status                types.RecommendationStatus
	Degradations          []types.Degradation
	ParseMode             types.ParseMode
	CreatedAt             time.Time
	ProcessingTimeMs      float64
}

// IsDegraded reports whether any pipeline stage fell back to a default
func (r *Recommendation) IsDegraded() bool {
	return r.Status == types.RecommendationStatusDegraded
}

// Validate checks the invariants between entries, primary pick, confidence
// and cited cases. retrieved is the case list the pipeline got from the
// index; pass nil to skip the citation check.
func (r *Recommendation) Validate(retrieved []*HistoricalCase) error {
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		return goerr.Wrap(ErrInvalidRecommendation, "confidence score out of range",
			goerr.V("confidence", r.ConfidenceScore))
	}

	if len(r.Recommendations) == 0 {
		if r.PrimaryRecommendation != "" {
			return goerr.Wrap(ErrInvalidRecommendation, "primary recommendation set without entries",
				goerr.V("primary", r.PrimaryRecommendation))
		}
	} else {
		found := slices.ContainsFunc(r.Recommendations, func(e RecommendationEntry) bool {
			return e.Resolution == r.PrimaryRecommendation
		})
		if !found {
			return goerr.Wrap(ErrInvalidRecommendation, "primary recommendation is not one of the entries",
				goerr.V("primary", r.PrimaryRecommendation))
		}
	}

	if retrieved != nil {
		ids := make(map[CaseID]struct{}, len(retrieved))
		for _, c := range retrieved {
			ids[c.ID] = struct{}{}
		}
		for _, c := range r.CitedCases {
			if _, ok := ids[c.ID]; !ok {
				return goerr.Wrap(ErrInvalidRecommendation, "cited case was not retrieved",
					goerr.V(CaseIDKey, c.ID))
			}
		}
	}

	return nil
}
