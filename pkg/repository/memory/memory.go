package memory

import (
	"github.com/secmon-lab/smartresolve/pkg/domain/interfaces"
)

type Memory struct {
	historicalCase *historicalCaseRepository
	recommendation *recommendationRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		historicalCase: newHistoricalCaseRepository(),
		recommendation: newRecommendationRepository(),
	}
}

func (m *Memory) HistoricalCase() interfaces.HistoricalCaseRepository {
	return m.historicalCase
}

func (m *Memory) Recommendation() interfaces.RecommendationRepository {
	return m.recommendation
}

func (m *Memory) Close() error {
	return nil
}
