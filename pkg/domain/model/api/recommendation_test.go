package api_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/secmon-lab/smartresolve/pkg/domain/model/api"
	"github.com/secmon-lab/smartresolve/pkg/domain/types"
)

func TestNewRecommendation(t *testing.T) {
	rec := &model.Recommendation{
		ID:          "rec-1",
		ComplaintID: "C-1001",
		Recommendations: []model.RecommendationEntry{
			{Rank: 1, Resolution: "Refund", ExpectedOutcome: "Satisfied", Implementation: "Issue refund"},
		},
		PrimaryRecommendation: "Refund",
		ConfidenceScore:       0.9,
		CitedCases: []*model.HistoricalCase{
			{ID: "H-1", Category: "billing", Resolution: "Refund", Outcome: "Resolved", Embedding: []float32{0.1}, Score: 0.91},
		},
		Status:    types.RecommendationStatusComplete,
		ParseMode: types.ParseModeStrict,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(api.NewRecommendation(rec))
	gt.NoError(t, err).Required()

	var decoded map[string]any
	gt.NoError(t, json.Unmarshal(data, &decoded)).Required()

	gt.Value(t, decoded["id"]).Equal("rec-1")
	gt.Value(t, decoded["complaintId"]).Equal("C-1001")
	gt.Value(t, decoded["primaryRecommendation"]).Equal("Refund")
	gt.Value(t, decoded["status"]).Equal("complete")
	gt.Value(t, decoded["parseMode"]).Equal("strict")
	gt.Value(t, decoded["degradations"]).Equal([]any{})

	cited := decoded["citedCases"].([]any)
	gt.Array(t, cited).Length(1)
	c := cited[0].(map[string]any)
	gt.Value(t, c["caseId"]).Equal("H-1")
	gt.Value(t, c["complaintType"]).Equal("billing")
	gt.Value(t, c["similarityScore"]).Equal(0.91)
	gt.Value(t, c["metadata"]).Equal(map[string]any{})
	_, hasEmbedding := c["embedding"]
	gt.Bool(t, hasEmbedding).False()
}

func TestCreateRecommendationRequest(t *testing.T) {
	t.Run("canonical keys", func(t *testing.T) {
		var req api.CreateRecommendationRequest
		gt.NoError(t, json.Unmarshal([]byte(`{"complaintSummary":"late","complaintId":"C-1"}`), &req)).Required()
		gt.Value(t, req.ToModel()).Equal(model.RecommendationRequest{ComplaintSummary: "late", ComplaintID: "C-1"})
	})

	t.Run("legacy summary key", func(t *testing.T) {
		var req api.CreateRecommendationRequest
		gt.NoError(t, json.Unmarshal([]byte(`{"complainSummary":"late","complaintId":"C-1"}`), &req)).Required()
		gt.Value(t, req.ComplaintSummary).Equal("late")
	})

	t.Run("canonical key wins", func(t *testing.T) {
		var req api.CreateRecommendationRequest
		gt.NoError(t, json.Unmarshal([]byte(`{"complaintSummary":"a","complainSummary":"b","complaintId":"C-1"}`), &req)).Required()
		gt.Value(t, req.ComplaintSummary).Equal("a")
	})

	t.Run("malformed body", func(t *testing.T) {
		var req api.CreateRecommendationRequest
		gt.Value(t, json.Unmarshal([]byte(`{"complaintSummary":`), &req)).NotNil()
	})
}
