package interfaces

import (
	"context"

	"github.com/secmon-lab/smartresolve/pkg/domain/model"
)

// HistoricalCaseRepository stores historical cases and serves nearest
// neighbor lookups over their embeddings
type HistoricalCaseRepository interface {
	CaseIndex

	// Put creates or replaces a case by ID
	Put(ctx context.Context, c *model.HistoricalCase) error

	// Get retrieves a case by ID
	Get(ctx context.Context, id model.CaseID) (*model.HistoricalCase, error)
}
