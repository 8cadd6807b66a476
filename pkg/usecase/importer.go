package usecase

import (
	"context"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/interfaces"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultImportConcurrency is the number of cases embedded in parallel
const DefaultImportConcurrency = 4

// ImportUseCase loads historical cases into the case store, embedding those
// that arrive without a vector
type ImportUseCase struct {
	repo        interfaces.HistoricalCaseRepository
	embedder    interfaces.Embedder
	dimension   int
	concurrency int
}

// ImportOption configures an ImportUseCase
type ImportOption func(*ImportUseCase)

// WithImportConcurrency sets how many cases are processed at once
func WithImportConcurrency(n int) ImportOption {
	return func(uc *ImportUseCase) {
		if n > 0 {
			uc.concurrency = n
		}
	}
}

// WithEmbeddingDimension sets the dimension every stored vector must have
func WithEmbeddingDimension(dim int) ImportOption {
	return func(uc *ImportUseCase) {
		if dim > 0 {
			uc.dimension = dim
		}
	}
}

// NewImportUseCase creates an ImportUseCase
func NewImportUseCase(repo interfaces.HistoricalCaseRepository, embedder interfaces.Embedder, opts ...ImportOption) (*ImportUseCase, error) {
	if repo == nil {
		return nil, goerr.New("historical case repository is required")
	}
	if embedder == nil {
		return nil, goerr.New("embedder is required")
	}

	uc := &ImportUseCase{
		repo:        repo,
		embedder:    embedder,
		dimension:   model.DefaultEmbeddingDimension,
		concurrency: DefaultImportConcurrency,
	}
	for _, opt := range opts {
		opt(uc)
	}

	return uc, nil
}

// Import stores cases and returns how many were stored. Cases without an ID
// get a new one. An embedding failure or a vector of the wrong dimension
// aborts the import.
func (uc *ImportUseCase) Import(ctx context.Context, cases []*model.HistoricalCase) (int, error) {
	logger := logging.From(ctx)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)

	var imported atomic.Int64
	for _, src := range cases {
		if src == nil {
			continue
		}
		c := src.Copy()
		if c.ID == "" {
			c.ID = model.NewCaseID()
		}

		eg.Go(func() error {
			if len(c.Embedding) == 0 {
				embedding, err := uc.embedder.Embed(ctx, c.EmbeddingText(), uc.dimension)
				if err != nil {
					return goerr.Wrap(err, "failed to embed historical case", goerr.V(model.CaseIDKey, c.ID))
				}
				c.Embedding = embedding
			}
			if len(c.Embedding) != uc.dimension {
				return goerr.Wrap(ErrEmbeddingDimension, "historical case cannot be indexed",
					goerr.V(model.CaseIDKey, c.ID),
					goerr.V("expected", uc.dimension),
					goerr.V("actual", len(c.Embedding)))
			}

			if err := uc.repo.Put(ctx, c); err != nil {
				return goerr.Wrap(err, "failed to store historical case", goerr.V(model.CaseIDKey, c.ID))
			}

			imported.Add(1)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return int(imported.Load()), err
	}

	logger.Info("historical cases imported", "count", imported.Load())
	return int(imported.Load()), nil
}
