package model

import "strings"

// RecommendationRequest is the boundary input of the recommendation pipeline
type RecommendationRequest struct {
	ComplaintSummary string
	ComplaintID      string
}

// Validate checks that both required fields are present
func (r *RecommendationRequest) Validate() error {
	var verr ValidationError
	if strings.TrimSpace(r.ComplaintSummary) == "" {
		verr.add("complaintSummary", "complaintSummary is required")
	}
	if strings.TrimSpace(r.ComplaintID) == "" {
		verr.add("complaintId", "complaintId is required")
	}

	if len(verr.Fields) > 0 {
		return &verr
	}
	return nil
}
