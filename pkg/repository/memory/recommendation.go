package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
)

type recommendationRepository struct {
	mu              sync.RWMutex
	recommendations map[model.RecommendationID]*model.Recommendation
}

func newRecommendationRepository() *recommendationRepository {
	return &recommendationRepository{
		recommendations: make(map[model.RecommendationID]*model.Recommendation),
	}
}

// copyRecommendation creates a deep copy of a recommendation
func copyRecommendation(rec *model.Recommendation) *model.Recommendation {
	copied := *rec
	copied.Recommendations = slices.Clone(rec.Recommendations)
	copied.Degradations = slices.Clone(rec.Degradations)
	if rec.CitedCases != nil {
		copied.CitedCases = make([]*model.HistoricalCase, len(rec.CitedCases))
		for i, c := range rec.CitedCases {
			copied.CitedCases[i] = c.Copy()
		}
	}
	return &copied
}

func (r *recommendationRepository) Save(ctx context.Context, rec *model.Recommendation) error {
	if rec.ID == "" {
		return goerr.New("recommendation ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.recommendations[rec.ID] = copyRecommendation(rec)
	return nil
}

func (r *recommendationRepository) Get(ctx context.Context, id model.RecommendationID) (*model.Recommendation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.recommendations[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "recommendation not found", goerr.V(model.RecommendationIDKey, id))
	}
	return copyRecommendation(rec), nil
}

func (r *recommendationRepository) ListByComplaintID(ctx context.Context, complaintID string, limit, offset int) ([]*model.Recommendation, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.Recommendation
	for _, rec := range r.recommendations {
		if rec.ComplaintID == complaintID {
			matched = append(matched, rec)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*model.Recommendation{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	result := make([]*model.Recommendation, 0, end-offset)
	for _, rec := range matched[offset:end] {
		result = append(result, copyRecommendation(rec))
	}

	return result, total, nil
}
