package interfaces

import (
	"context"

	"github.com/secmon-lab/smartresolve/pkg/domain/model"
)

// Embedder turns text into a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string, dimension int) ([]float32, error)
}

// CaseIndex returns the historical cases nearest to an embedding, ranked by
// similarity with Score set on each result
type CaseIndex interface {
	FindNearest(ctx context.Context, embedding []float32, limit int) ([]*model.HistoricalCase, error)
}

// TextGenerator sends a prompt to a language model and returns its raw text.
// The output-length bound is part of the generator's construction.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Archiver keeps a copy of a produced recommendation outside the main store
type Archiver interface {
	Archive(ctx context.Context, rec *model.Recommendation) error
}
