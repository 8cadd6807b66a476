package firestore

import "github.com/secmon-lab/smartresolve/pkg/domain/model"

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = model.ErrNotFound

const (
	// HistoricalCaseCollection holds historical cases and their embeddings
	HistoricalCaseCollection = "historical_cases"
	// RecommendationCollection holds produced recommendations
	RecommendationCollection = "recommendations"

	// EmbeddingField is the vector field searched by FindNearest
	EmbeddingField = "Embedding"

	// distanceField receives the vector distance of each FindNearest result
	distanceField = "VectorDistance"
)
