package usecase

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/interfaces"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
)

type UseCases struct {
	repo              interfaces.Repository
	pipelineConfig    model.PipelineConfig
	archiver          interfaces.Archiver
	importConcurrency int
	Recommend         *RecommendUseCase
	Import            *ImportUseCase
}

type Option func(*UseCases)

func WithPipeline(cfg model.PipelineConfig) Option {
	return func(uc *UseCases) {
		uc.pipelineConfig = cfg
	}
}

func WithArchive(archiver interfaces.Archiver) Option {
	return func(uc *UseCases) {
		uc.archiver = archiver
	}
}

func WithImportWorkers(n int) Option {
	return func(uc *UseCases) {
		uc.importConcurrency = n
	}
}

// New wires the use cases over repo. The repository serves as both the
// vector index and the recommendation store.
func New(repo interfaces.Repository, embedder interfaces.Embedder, generator interfaces.TextGenerator, opts ...Option) (*UseCases, error) {
	if repo == nil {
		return nil, goerr.New("repository is required")
	}

	uc := &UseCases{
		repo:              repo,
		pipelineConfig:    model.DefaultPipelineConfig(),
		importConcurrency: DefaultImportConcurrency,
	}
	for _, opt := range opts {
		opt(uc)
	}

	recommendOpts := []RecommendOption{
		WithPipelineConfig(uc.pipelineConfig),
		WithRecommendationRepository(repo.Recommendation()),
	}
	if uc.archiver != nil {
		recommendOpts = append(recommendOpts, WithArchiver(uc.archiver))
	}

	recommend, err := NewRecommendUseCase(embedder, repo.HistoricalCase(), generator, recommendOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create recommend use case")
	}
	uc.Recommend = recommend

	importer, err := NewImportUseCase(repo.HistoricalCase(), embedder,
		WithImportConcurrency(uc.importConcurrency),
		WithEmbeddingDimension(uc.pipelineConfig.EmbeddingDimension))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create import use case")
	}
	uc.Import = importer

	return uc, nil
}
