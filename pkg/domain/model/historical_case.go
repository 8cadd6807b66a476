package model

import (
	"maps"

	"github.com/google/uuid"
)

// DefaultEmbeddingDimension is the vector length produced for complaint
// summaries and stored for historical cases
const DefaultEmbeddingDimension = 1536

// CaseID identifies a historical case in the vector index
type CaseID string

// NewCaseID generates a new UUID v4 CaseID
func NewCaseID() CaseID {
	return CaseID(uuid.New().String())
}

// HistoricalCase is a past complaint together with how it was resolved.
// Score is assigned by the vector index at query time and is never stored.
type HistoricalCase struct {
	ID         CaseID
	Category   string
	Resolution string
	Outcome    string
	Embedding  []float32
	Score      float64
	Metadata   map[string]any
}

// Copy returns a deep copy of the case
func (c *HistoricalCase) Copy() *HistoricalCase {
	copied := &HistoricalCase{
		ID:         c.ID,
		Category:   c.Category,
		Resolution: c.Resolution,
		Outcome:    c.Outcome,
		Score:      c.Score,
	}
	if c.Embedding != nil {
		copied.Embedding = make([]float32, len(c.Embedding))
		copy(copied.Embedding, c.Embedding)
	}
	if c.Metadata != nil {
		copied.Metadata = maps.Clone(c.Metadata)
	}
	return copied
}

// EmbeddingText is the text embedded when a case is imported without a vector
func (c *HistoricalCase) EmbeddingText() string {
	return c.Category + "\n" + c.Resolution + "\n" + c.Outcome
}
