package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	HistoricalCase() HistoricalCaseRepository
	Recommendation() RecommendationRepository

	Close() error
}
