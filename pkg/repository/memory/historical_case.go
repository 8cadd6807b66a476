package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
)

type historicalCaseRepository struct {
	mu    sync.RWMutex
	cases map[model.CaseID]*model.HistoricalCase
}

func newHistoricalCaseRepository() *historicalCaseRepository {
	return &historicalCaseRepository{
		cases: make(map[model.CaseID]*model.HistoricalCase),
	}
}

func (r *historicalCaseRepository) Put(ctx context.Context, c *model.HistoricalCase) error {
	if c.ID == "" {
		return goerr.New("case ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := c.Copy()
	stored.Score = 0
	r.cases[stored.ID] = stored
	return nil
}

func (r *historicalCaseRepository) Get(ctx context.Context, id model.CaseID) (*model.HistoricalCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "historical case not found", goerr.V(model.CaseIDKey, id))
	}
	return c.Copy(), nil
}

// FindNearest ranks every stored case by cosine similarity. Ties are broken
// by case ID so results are stable.
func (r *historicalCaseRepository) FindNearest(ctx context.Context, embedding []float32, limit int) ([]*model.HistoricalCase, error) {
	if limit <= 0 {
		return []*model.HistoricalCase{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := make([]*model.HistoricalCase, 0, len(r.cases))
	for _, c := range r.cases {
		if len(c.Embedding) == 0 {
			continue
		}
		scored := c.Copy()
		scored.Score = cosineSimilarity(embedding, c.Embedding)
		candidates = append(candidates, scored)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	return candidates[:limit], nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
