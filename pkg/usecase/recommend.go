package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/interfaces"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/secmon-lab/smartresolve/pkg/domain/types"
	"github.com/secmon-lab/smartresolve/pkg/utils/async"
	"github.com/secmon-lab/smartresolve/pkg/utils/errutil"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
)

// RecommendUseCase runs the recommendation pipeline and manages produced
// recommendations
type RecommendUseCase struct {
	embedder  interfaces.Embedder
	index     interfaces.CaseIndex
	generator interfaces.TextGenerator
	repo      interfaces.RecommendationRepository
	archiver  interfaces.Archiver
	config    model.PipelineConfig
}

// RecommendOption configures a RecommendUseCase
type RecommendOption func(*RecommendUseCase)

// WithPipelineConfig overrides the default pipeline configuration
func WithPipelineConfig(cfg model.PipelineConfig) RecommendOption {
	return func(uc *RecommendUseCase) {
		uc.config = cfg
	}
}

// WithRecommendationRepository enables persistence and lookup
func WithRecommendationRepository(repo interfaces.RecommendationRepository) RecommendOption {
	return func(uc *RecommendUseCase) {
		uc.repo = repo
	}
}

// WithArchiver enables asynchronous archiving of created recommendations
func WithArchiver(archiver interfaces.Archiver) RecommendOption {
	return func(uc *RecommendUseCase) {
		uc.archiver = archiver
	}
}

// NewRecommendUseCase creates a RecommendUseCase. Embedder, index and
// generator are required.
func NewRecommendUseCase(embedder interfaces.Embedder, index interfaces.CaseIndex, generator interfaces.TextGenerator, opts ...RecommendOption) (*RecommendUseCase, error) {
	if embedder == nil {
		return nil, goerr.New("embedder is required")
	}
	if index == nil {
		return nil, goerr.New("case index is required")
	}
	if generator == nil {
		return nil, goerr.New("text generator is required")
	}

	uc := &RecommendUseCase{
		embedder:  embedder,
		index:     index,
		generator: generator,
		config:    model.DefaultPipelineConfig(),
	}
	for _, opt := range opts {
		opt(uc)
	}

	if err := uc.config.Validate(); err != nil {
		return nil, err
	}

	return uc, nil
}

// Generate runs embed, retrieve, prompt, infer and parse in order. Embedding,
// retrieval and parse failures degrade the result instead of failing it;
// an inference failure is returned as an error.
func (uc *RecommendUseCase) Generate(ctx context.Context, complaintSummary, complaintID string) (*model.Recommendation, error) {
	startedAt := time.Now()
	logger := logging.From(ctx).With("complaint_id", complaintID)
	var degradations []types.Degradation

	// 1. Embed
	embedding, err := uc.embedder.Embed(ctx, complaintSummary, uc.config.EmbeddingDimension)
	if err == nil && len(embedding) != uc.config.EmbeddingDimension {
		err = goerr.New("unexpected embedding dimension",
			goerr.V("expected", uc.config.EmbeddingDimension),
			goerr.V("actual", len(embedding)))
	}
	if err != nil {
		logger.Warn("embedding failed, using zero vector", "error", err)
		embedding = make([]float32, uc.config.EmbeddingDimension)
		degradations = append(degradations, types.DegradationEmbedding)
	} else {
		logger.Info("complaint embedded", "dimension", len(embedding))
	}

	// 2. Retrieve
	retrieved, err := uc.index.FindNearest(ctx, embedding, uc.config.TopK)
	if err != nil {
		logger.Warn("case retrieval failed, continuing without cases", "error", err)
		retrieved = nil
		degradations = append(degradations, types.DegradationRetrieval)
	}
	if len(retrieved) > uc.config.TopK {
		retrieved = retrieved[:uc.config.TopK]
	}
	cases := make([]*model.HistoricalCase, 0, len(retrieved))
	for _, c := range retrieved {
		cases = append(cases, c.Copy())
	}
	if len(cases) == 0 {
		logger.Warn("no similar cases found")
	} else {
		logger.Info("retrieved similar cases", "count", len(cases))
	}

	// 3. Assemble prompt
	prompt, err := buildPrompt(complaintSummary, cases)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build prompt", goerr.V(ComplaintIDKey, complaintID))
	}

	// 4. Infer
	raw, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("inference failed", "error", err)
		return nil, goerr.Wrap(err, "failed to generate recommendation", goerr.V(ComplaintIDKey, complaintID))
	}
	logger.Info("model responded", "output_length", len(raw))

	// 5. Parse
	parsed := parseModelOutput(ctx, raw)
	if parsed.Mode == types.ParseModeFallback {
		degradations = append(degradations, types.DegradationParse)
	}

	status := types.RecommendationStatusComplete
	if len(degradations) > 0 {
		status = types.RecommendationStatusDegraded
	}

	rec := &model.Recommendation{
		ID:                    model.NewRecommendationID(),
		ComplaintID:           complaintID,
		Recommendations:       parsed.Entries,
		PrimaryRecommendation: parsed.Primary,
		ConfidenceScore:       parsed.Confidence,
		CitedCases:            cases,
		Reasoning:             parsed.Reasoning,
		Status:                status,
		Degradations:          degradations,
		ParseMode:             parsed.Mode,
		CreatedAt:             time.Now().UTC(),
		ProcessingTimeMs:      float64(time.Since(startedAt).Microseconds()) / 1000,
	}

	if err := rec.Validate(retrieved); err != nil {
		return nil, goerr.Wrap(err, "generated recommendation is inconsistent", goerr.V(ComplaintIDKey, complaintID))
	}

	logger.Info("recommendation generated",
		"recommendation_id", rec.ID,
		"status", rec.Status,
		"parse_mode", rec.ParseMode,
		"confidence", rec.ConfidenceScore,
		"processing_time_ms", rec.ProcessingTimeMs)

	return rec, nil
}

// Create validates req, generates a recommendation, stores it when a
// repository is configured and hands it to the archiver in the background.
// No collaborator is called when req is invalid.
func (uc *RecommendUseCase) Create(ctx context.Context, req model.RecommendationRequest) (*model.Recommendation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rec, err := uc.Generate(ctx, req.ComplaintSummary, req.ComplaintID)
	if err != nil {
		return nil, err
	}

	if uc.repo != nil {
		if err := uc.repo.Save(ctx, rec); err != nil {
			return nil, goerr.Wrap(err, "failed to save recommendation",
				goerr.V(RecommendationIDKey, rec.ID),
				goerr.V(ComplaintIDKey, rec.ComplaintID))
		}
	}

	if uc.archiver != nil {
		archiver := uc.archiver
		async.Dispatch(ctx, func(ctx context.Context) error {
			if err := archiver.Archive(ctx, rec); err != nil {
				errutil.Handle(ctx, goerr.Wrap(err, "failed to archive recommendation",
					goerr.V(RecommendationIDKey, rec.ID),
					goerr.V(ComplaintIDKey, rec.ComplaintID)), "failed to archive recommendation")
			}
			return nil
		})
	}

	return rec, nil
}

// Get returns a stored recommendation
func (uc *RecommendUseCase) Get(ctx context.Context, id model.RecommendationID) (*model.Recommendation, error) {
	if uc.repo == nil {
		return nil, goerr.Wrap(ErrRepositoryNotConfigured, "cannot get recommendation")
	}

	rec, err := uc.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(ErrRecommendationNotFound, "recommendation not found", goerr.V(RecommendationIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get recommendation", goerr.V(RecommendationIDKey, id))
	}

	return rec, nil
}

// ListByComplaint returns recommendations for a complaint, newest first, and
// the total count. An empty complaint ID yields an empty page.
func (uc *RecommendUseCase) ListByComplaint(ctx context.Context, complaintID string, limit, offset int) ([]*model.Recommendation, int, error) {
	if uc.repo == nil {
		return nil, 0, goerr.Wrap(ErrRepositoryNotConfigured, "cannot list recommendations")
	}
	if complaintID == "" {
		return []*model.Recommendation{}, 0, nil
	}

	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset = max(offset, 0)

	recs, total, err := uc.repo.ListByComplaintID(ctx, complaintID, limit, offset)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to list recommendations", goerr.V(ComplaintIDKey, complaintID))
	}

	return recs, total, nil
}
