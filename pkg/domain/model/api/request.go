package api

import (
	"encoding/json"

	"github.com/secmon-lab/smartresolve/pkg/domain/model"
)

// CreateRecommendationRequest is the body of POST /api/recommendations
type CreateRecommendationRequest struct {
	ComplaintSummary string `json:"complaintSummary"`
	ComplaintID      string `json:"complaintId"`
}

// UnmarshalJSON also accepts the legacy "complainSummary" key that older
// clients still send
func (r *CreateRecommendationRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		ComplaintSummary string `json:"complaintSummary"`
		ComplainSummary  string `json:"complainSummary"`
		ComplaintID      string `json:"complaintId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.ComplaintSummary = raw.ComplaintSummary
	if r.ComplaintSummary == "" {
		r.ComplaintSummary = raw.ComplainSummary
	}
	r.ComplaintID = raw.ComplaintID
	return nil
}

// ToModel converts the body into a domain request
func (r *CreateRecommendationRequest) ToModel() model.RecommendationRequest {
	return model.RecommendationRequest{
		ComplaintSummary: r.ComplaintSummary,
		ComplaintID:      r.ComplaintID,
	}
}
