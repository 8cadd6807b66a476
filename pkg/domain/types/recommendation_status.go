package types

import "fmt"

// RecommendationStatus tells callers whether every pipeline stage ran on real
// collaborator output or at least one stage fell back to a default
type RecommendationStatus string

const (
	RecommendationStatusComplete RecommendationStatus = "complete"
	RecommendationStatusDegraded RecommendationStatus = "degraded"
)

// IsValid checks if the recommendation status is valid
func (s RecommendationStatus) IsValid() bool {
	switch s {
	case RecommendationStatusComplete, RecommendationStatusDegraded:
		return true
	default:
		return false
	}
}

// String returns the string representation of the recommendation status
func (s RecommendationStatus) String() string {
	return string(s)
}

// ParseRecommendationStatus parses a string into a RecommendationStatus
func ParseRecommendationStatus(s string) (RecommendationStatus, error) {
	status := RecommendationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid recommendation status: %s", s)
	}
	return status, nil
}

// Degradation names a pipeline stage that fell back to a default value
type Degradation string

const (
	DegradationEmbedding Degradation = "embedding"
	DegradationRetrieval Degradation = "retrieval"
	DegradationParse     Degradation = "parse"
)

// AllDegradations returns all valid degradations in pipeline order
func AllDegradations() []Degradation {
	return []Degradation{
		DegradationEmbedding,
		DegradationRetrieval,
		DegradationParse,
	}
}

// IsValid checks if the degradation is valid
func (d Degradation) IsValid() bool {
	switch d {
	case DegradationEmbedding, DegradationRetrieval, DegradationParse:
		return true
	default:
		return false
	}
}

// String returns the string representation of the degradation
func (d Degradation) String() string {
	return string(d)
}
