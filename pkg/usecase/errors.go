package usecase

import "errors"

// Sentinel errors for use case layer
var (
	ErrRecommendationNotFound  = errors.New("recommendation not found")
	ErrRepositoryNotConfigured = errors.New("recommendation repository is not configured")
	ErrEmbeddingDimension      = errors.New("unexpected embedding dimension")
)

// Context keys for error values
const (
	ComplaintIDKey      = "complaint_id"
	RecommendationIDKey = "recommendation_id"
)

const (
	// DefaultListLimit is used when a list request has no limit
	DefaultListLimit = 20
	// MaxListLimit caps the page size of a list request
	MaxListLimit = 100
)
