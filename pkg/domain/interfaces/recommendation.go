package interfaces

import (
	"context"

	"github.com/secmon-lab/smartresolve/pkg/domain/model"
)

// RecommendationRepository persists recommendations produced by the pipeline
type RecommendationRepository interface {
	// Save stores a recommendation
	Save(ctx context.Context, rec *model.Recommendation) error

	// Get retrieves a recommendation by ID
	Get(ctx context.Context, id model.RecommendationID) (*model.Recommendation, error)

	// ListByComplaintID returns recommendations for a complaint, newest first.
	// Returns recommendations, total count, and error
	ListByComplaintID(ctx context.Context, complaintID string, limit, offset int) ([]*model.Recommendation, int, error)
}
