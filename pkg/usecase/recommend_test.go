package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/secmon-lab/smartresolve/pkg/domain/types"
	"github.com/secmon-lab/smartresolve/pkg/repository/memory"
	"github.com/secmon-lab/smartresolve/pkg/usecase"
	"github.com/secmon-lab/smartresolve/pkg/utils/async"
)

// ----- mock collaborators -----

type mockEmbedder struct {
	mu      sync.Mutex
	calls   int
	embedFn func(ctx context.Context, text string, dimension int) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string, dimension int) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.embedFn != nil {
		return m.embedFn(ctx, text, dimension)
	}
	vec := make([]float32, dimension)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec, nil
}

func (m *mockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockCaseIndex struct {
	calls         int
	lastEmbedding []float32
	lastLimit     int
	findNearestFn func(ctx context.Context, embedding []float32, limit int) ([]*model.HistoricalCase, error)
}

func (m *mockCaseIndex) FindNearest(ctx context.Context, embedding []float32, limit int) ([]*model.HistoricalCase, error) {
	m.calls++
	m.lastEmbedding = embedding
	m.lastLimit = limit
	if m.findNearestFn != nil {
		return m.findNearestFn(ctx, embedding, limit)
	}
	return nil, nil
}

type mockGenerator struct {
	calls      int
	lastPrompt string
	generateFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return strictOutput, nil
}

type mockArchiver struct {
	archived chan *model.Recommendation
	err      error
}

func (m *mockArchiver) Archive(ctx context.Context, rec *model.Recommendation) error {
	m.archived <- rec
	return m.err
}

type failingRecommendationRepo struct {
	err error
}

func (r *failingRecommendationRepo) Save(ctx context.Context, rec *model.Recommendation) error {
	return r.err
}

func (r *failingRecommendationRepo) Get(ctx context.Context, id model.RecommendationID) (*model.Recommendation, error) {
	return nil, r.err
}

func (r *failingRecommendationRepo) ListByComplaintID(ctx context.Context, complaintID string, limit, offset int) ([]*model.Recommendation, int, error) {
	return nil, 0, r.err
}

func twoCases() []*model.HistoricalCase {
	return []*model.HistoricalCase{
		{ID: "H-1", Category: "billing", Resolution: "Refund duplicate charge", Outcome: "Customer satisfied", Score: 0.91},
		{ID: "H-2", Category: "billing", Resolution: "Offer store credit", Outcome: "Customer retained", Score: 0.78},
	}
}

func newRecommendUseCase(t *testing.T, embedder *mockEmbedder, index *mockCaseIndex, generator *mockGenerator, opts ...usecase.RecommendOption) *usecase.RecommendUseCase {
	t.Helper()
	uc, err := usecase.NewRecommendUseCase(embedder, index, generator, opts...)
	gt.NoError(t, err).Required()
	return uc
}

func TestNewRecommendUseCase(t *testing.T) {
	t.Run("requires collaborators", func(t *testing.T) {
		_, err := usecase.NewRecommendUseCase(nil, &mockCaseIndex{}, &mockGenerator{})
		gt.Value(t, err).NotNil()
		_, err = usecase.NewRecommendUseCase(&mockEmbedder{}, nil, &mockGenerator{})
		gt.Value(t, err).NotNil()
		_, err = usecase.NewRecommendUseCase(&mockEmbedder{}, &mockCaseIndex{}, nil)
		gt.Value(t, err).NotNil()
	})

	t.Run("rejects invalid pipeline config", func(t *testing.T) {
		cfg := model.DefaultPipelineConfig()
		cfg.TopK = 0
		_, err := usecase.NewRecommendUseCase(&mockEmbedder{}, &mockCaseIndex{}, &mockGenerator{}, usecase.WithPipelineConfig(cfg))
		gt.Error(t, err).Is(model.ErrInvalidPipelineConfig)
	})
}

func TestRecommendUseCase_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("double charge scenario cites both cases", func(t *testing.T) {
		index := &mockCaseIndex{
			findNearestFn: func(ctx context.Context, embedding []float32, limit int) ([]*model.HistoricalCase, error) {
				return twoCases(), nil
			},
		}
		generator := &mockGenerator{}
		uc := newRecommendUseCase(t, &mockEmbedder{}, index, generator)

		rec, err := uc.Generate(ctx, "Customer charged twice for the same order", "C-1001")
		gt.NoError(t, err).Required()

		gt.Value(t, rec.ComplaintID).Equal("C-1001")
		gt.Value(t, rec.ID).NotEqual(model.RecommendationID(""))
		gt.Array(t, rec.CitedCases).Length(2)
		gt.Value(t, rec.CitedCases[0].ID).Equal(model.CaseID("H-1"))
		gt.Value(t, rec.CitedCases[0].Score).Equal(0.91)
		gt.Value(t, rec.CitedCases[1].ID).Equal(model.CaseID("H-2"))
		gt.Value(t, rec.CitedCases[1].Score).Equal(0.78)
		gt.Bool(t, len(rec.Recommendations) <= 3).True()
		gt.Number(t, rec.ConfidenceScore).GreaterOrEqual(0.0)
		gt.Bool(t, rec.ConfidenceScore <= 1).True()
		gt.Value(t, rec.Status).Equal(types.RecommendationStatusComplete)
		gt.Array(t, rec.Degradations).Length(0)
		gt.Value(t, rec.ParseMode).Equal(types.ParseModeStrict)
		gt.Number(t, rec.ProcessingTimeMs).GreaterOrEqual(0.0)
		gt.Bool(t, rec.CreatedAt.IsZero()).False()
		gt.Value(t, rec.CreatedAt.Location()).Equal(time.UTC)

		gt.Value(t, index.lastLimit).Equal(model.DefaultTopK)
		gt.String(t, generator.lastPrompt).Contains("Customer charged twice for the same order")
		gt.String(t, generator.lastPrompt).Contains("Case 1 (Similarity: 0.91):")
		gt.String(t, generator.lastPrompt).Contains("Case 2 (Similarity: 0.78):")

		gt.NoError(t, rec.Validate(twoCases()))
	})

	t.Run("primary recommendation names an entry", func(t *testing.T) {
		generator := &mockGenerator{
			generateFn: func(ctx context.Context, prompt string) (string, error) {
				return `{"recommendations":[{"rank":1,"resolution":"A"},{"rank":2,"resolution":"B"}],"primary":"Z","confidence":0.9,"reasoning":"r"}`, nil
			},
		}
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, generator)

		rec, err := uc.Generate(ctx, "summary", "C-2")
		gt.NoError(t, err).Required()
		found := false
		for _, e := range rec.Recommendations {
			if e.Resolution == rec.PrimaryRecommendation {
				found = true
			}
		}
		gt.Bool(t, found).True()
	})

	t.Run("zero retrieved cases still completes", func(t *testing.T) {
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, &mockGenerator{})

		rec, err := uc.Generate(ctx, "summary", "C-3")
		gt.NoError(t, err).Required()
		gt.Array(t, rec.CitedCases).Length(0)
		gt.Value(t, rec.Status).Equal(types.RecommendationStatusComplete)
	})

	t.Run("embedding failure uses zero vector", func(t *testing.T) {
		embedder := &mockEmbedder{
			embedFn: func(ctx context.Context, text string, dimension int) ([]float32, error) {
				return nil, goerr.New("embedding timeout")
			},
		}
		index := &mockCaseIndex{}
		uc := newRecommendUseCase(t, embedder, index, &mockGenerator{})

		rec, err := uc.Generate(ctx, "summary", "C-4")
		gt.NoError(t, err).Required()
		gt.Value(t, rec.ComplaintID).Equal("C-4")
		gt.Array(t, index.lastEmbedding).Length(model.DefaultEmbeddingDimension)
		for _, v := range index.lastEmbedding {
			gt.Value(t, v).Equal(float32(0))
		}
		gt.Value(t, rec.Status).Equal(types.RecommendationStatusDegraded)
		gt.Value(t, rec.Degradations).Equal([]types.Degradation{types.DegradationEmbedding})
	})

	t.Run("embedding of wrong length is treated as failure", func(t *testing.T) {
		embedder := &mockEmbedder{
			embedFn: func(ctx context.Context, text string, dimension int) ([]float32, error) {
				return []float32{1, 2, 3}, nil
			},
		}
		index := &mockCaseIndex{}
		uc := newRecommendUseCase(t, embedder, index, &mockGenerator{})

		rec, err := uc.Generate(ctx, "summary", "C-5")
		gt.NoError(t, err).Required()
		gt.Array(t, index.lastEmbedding).Length(model.DefaultEmbeddingDimension)
		gt.Value(t, rec.Degradations).Equal([]types.Degradation{types.DegradationEmbedding})
	})

	t.Run("retrieval failure continues with no cases", func(t *testing.T) {
		index := &mockCaseIndex{
			findNearestFn: func(ctx context.Context, embedding []float32, limit int) ([]*model.HistoricalCase, error) {
				return nil, goerr.New("index unavailable")
			},
		}
		generator := &mockGenerator{}
		uc := newRecommendUseCase(t, &mockEmbedder{}, index, generator)

		rec, err := uc.Generate(ctx, "summary", "C-6")
		gt.NoError(t, err).Required()
		gt.Array(t, rec.CitedCases).Length(0)
		gt.Value(t, generator.calls).Equal(1)
		gt.Value(t, rec.Degradations).Equal([]types.Degradation{types.DegradationRetrieval})
	})

	t.Run("unparseable output falls back to defaults", func(t *testing.T) {
		generator := &mockGenerator{
			generateFn: func(ctx context.Context, prompt string) (string, error) {
				return "Sorry, I can't produce JSON right now.", nil
			},
		}
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, generator)

		rec, err := uc.Generate(ctx, "summary", "C-7")
		gt.NoError(t, err).Required()
		gt.Array(t, rec.Recommendations).Length(0)
		gt.Value(t, rec.PrimaryRecommendation).Equal("")
		gt.Value(t, rec.ConfidenceScore).Equal(0.5)
		gt.Value(t, rec.Reasoning).Equal("")
		gt.Value(t, rec.ParseMode).Equal(types.ParseModeFallback)
		gt.Value(t, rec.Degradations).Equal([]types.Degradation{types.DegradationParse})
	})

	t.Run("inference failure is propagated", func(t *testing.T) {
		outage := goerr.New("provider outage")
		generator := &mockGenerator{
			generateFn: func(ctx context.Context, prompt string) (string, error) {
				return "", outage
			},
		}
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, generator)

		rec, err := uc.Generate(ctx, "summary", "C-8")
		gt.Value(t, rec).Nil()
		gt.Error(t, err).Is(outage)
	})

	t.Run("each call gets a fresh ID", func(t *testing.T) {
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, &mockGenerator{})

		a, err := uc.Generate(ctx, "summary", "C-9")
		gt.NoError(t, err).Required()
		b, err := uc.Generate(ctx, "summary", "C-9")
		gt.NoError(t, err).Required()
		gt.Value(t, a.ID).NotEqual(b.ID)
	})

	t.Run("cited cases are copies", func(t *testing.T) {
		source := twoCases()
		index := &mockCaseIndex{
			findNearestFn: func(ctx context.Context, embedding []float32, limit int) ([]*model.HistoricalCase, error) {
				return source, nil
			},
		}
		uc := newRecommendUseCase(t, &mockEmbedder{}, index, &mockGenerator{})

		rec, err := uc.Generate(ctx, "summary", "C-10")
		gt.NoError(t, err).Required()
		source[0].Category = "mutated"
		gt.Value(t, rec.CitedCases[0].Category).Equal("billing")
	})

	t.Run("uses configured top K", func(t *testing.T) {
		cfg := model.DefaultPipelineConfig()
		cfg.TopK = 1
		index := &mockCaseIndex{
			findNearestFn: func(ctx context.Context, embedding []float32, limit int) ([]*model.HistoricalCase, error) {
				return twoCases(), nil
			},
		}
		uc := newRecommendUseCase(t, &mockEmbedder{}, index, &mockGenerator{}, usecase.WithPipelineConfig(cfg))

		rec, err := uc.Generate(ctx, "summary", "C-11")
		gt.NoError(t, err).Required()
		gt.Value(t, index.lastLimit).Equal(1)
		gt.Array(t, rec.CitedCases).Length(1)
	})
}

func TestRecommendUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid request calls no collaborator", func(t *testing.T) {
		embedder := &mockEmbedder{}
		index := &mockCaseIndex{}
		generator := &mockGenerator{}
		uc := newRecommendUseCase(t, embedder, index, generator)

		for _, req := range []model.RecommendationRequest{
			{ComplaintID: "C-1"},
			{ComplaintSummary: "summary"},
			{},
		} {
			rec, err := uc.Create(ctx, req)
			gt.Value(t, rec).Nil()
			gt.Error(t, err).Is(model.ErrInvalidRequest)
		}

		gt.Value(t, embedder.Calls()).Equal(0)
		gt.Value(t, index.calls).Equal(0)
		gt.Value(t, generator.calls).Equal(0)
	})

	t.Run("stores, archives and retrieves", func(t *testing.T) {
		repo := memory.New()
		archiver := &mockArchiver{archived: make(chan *model.Recommendation, 1)}
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, &mockGenerator{},
			usecase.WithRecommendationRepository(repo.Recommendation()),
			usecase.WithArchiver(archiver))

		rec, err := uc.Create(ctx, model.RecommendationRequest{ComplaintSummary: "summary", ComplaintID: "C-20"})
		gt.NoError(t, err).Required()

		got, err := uc.Get(ctx, rec.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(rec.ID)
		gt.Value(t, got.PrimaryRecommendation).Equal(rec.PrimaryRecommendation)

		select {
		case archived := <-archiver.archived:
			gt.Value(t, archived.ID).Equal(rec.ID)
		case <-time.After(time.Second):
			t.Fatal("recommendation was not archived")
		}
	})

	t.Run("archive failure does not fail creation", func(t *testing.T) {
		repo := memory.New()
		archiver := &mockArchiver{
			archived: make(chan *model.Recommendation, 1),
			err:      errors.New("bucket unavailable"),
		}
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, &mockGenerator{},
			usecase.WithRecommendationRepository(repo.Recommendation()),
			usecase.WithArchiver(archiver))

		rec, err := uc.Create(ctx, model.RecommendationRequest{ComplaintSummary: "summary", ComplaintID: "C-22"})
		gt.NoError(t, err).Required()

		waitCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		gt.NoError(t, async.Wait(waitCtx))

		archived := <-archiver.archived
		gt.Value(t, archived.ID).Equal(rec.ID)

		got, err := uc.Get(ctx, rec.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(rec.ID)
	})

	t.Run("save failure is fatal", func(t *testing.T) {
		saveErr := errors.New("store down")
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, &mockGenerator{},
			usecase.WithRecommendationRepository(&failingRecommendationRepo{err: saveErr}))

		rec, err := uc.Create(ctx, model.RecommendationRequest{ComplaintSummary: "summary", ComplaintID: "C-21"})
		gt.Value(t, rec).Nil()
		gt.Error(t, err).Is(saveErr)
	})

	t.Run("works without repository", func(t *testing.T) {
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, &mockGenerator{})

		rec, err := uc.Create(ctx, model.RecommendationRequest{ComplaintSummary: "summary", ComplaintID: "C-22"})
		gt.NoError(t, err).Required()
		gt.Value(t, rec.ComplaintID).Equal("C-22")
	})
}

func TestRecommendUseCase_GetAndList(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown ID is not found", func(t *testing.T) {
		repo := memory.New()
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, &mockGenerator{},
			usecase.WithRecommendationRepository(repo.Recommendation()))

		_, err := uc.Get(ctx, model.NewRecommendationID())
		gt.Error(t, err).Is(usecase.ErrRecommendationNotFound)
	})

	t.Run("without repository", func(t *testing.T) {
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, &mockGenerator{})

		_, err := uc.Get(ctx, model.NewRecommendationID())
		gt.Error(t, err).Is(usecase.ErrRepositoryNotConfigured)
		_, _, err = uc.ListByComplaint(ctx, "C-1", 10, 0)
		gt.Error(t, err).Is(usecase.ErrRepositoryNotConfigured)
	})

	t.Run("lists newest first with paging", func(t *testing.T) {
		repo := memory.New()
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, &mockGenerator{},
			usecase.WithRecommendationRepository(repo.Recommendation()))

		var created []*model.Recommendation
		for range 3 {
			rec, err := uc.Create(ctx, model.RecommendationRequest{ComplaintSummary: "summary", ComplaintID: "C-30"})
			gt.NoError(t, err).Required()
			created = append(created, rec)
			time.Sleep(2 * time.Millisecond)
		}
		_, err := uc.Create(ctx, model.RecommendationRequest{ComplaintSummary: "summary", ComplaintID: "C-31"})
		gt.NoError(t, err).Required()

		recs, total, err := uc.ListByComplaint(ctx, "C-30", 0, 0)
		gt.NoError(t, err).Required()
		gt.Value(t, total).Equal(3)
		gt.Array(t, recs).Length(3)
		gt.Value(t, recs[0].ID).Equal(created[2].ID)

		recs, total, err = uc.ListByComplaint(ctx, "C-30", 1, 1)
		gt.NoError(t, err).Required()
		gt.Value(t, total).Equal(3)
		gt.Array(t, recs).Length(1)
		gt.Value(t, recs[0].ID).Equal(created[1].ID)
	})

	t.Run("empty complaint ID yields empty page", func(t *testing.T) {
		repo := memory.New()
		uc := newRecommendUseCase(t, &mockEmbedder{}, &mockCaseIndex{}, &mockGenerator{},
			usecase.WithRecommendationRepository(repo.Recommendation()))

		recs, total, err := uc.ListByComplaint(ctx, "", 10, 0)
		gt.NoError(t, err).Required()
		gt.Value(t, total).Equal(0)
		gt.Array(t, recs).Length(0)
	})
}

func TestNew(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	gt.NoError(t, repo.HistoricalCase().Put(ctx, &model.HistoricalCase{
		ID:         "H-1",
		Category:   "billing",
		Resolution: "Refund duplicate charge",
		Outcome:    "Customer satisfied",
		Embedding:  make([]float32, 4),
	})).Required()

	cfg := model.DefaultPipelineConfig()
	cfg.EmbeddingDimension = 4
	embedder := &mockEmbedder{
		embedFn: func(ctx context.Context, text string, dimension int) ([]float32, error) {
			return []float32{1, 0, 0, 0}, nil
		},
	}

	uc, err := usecase.New(repo, embedder, &mockGenerator{}, usecase.WithPipeline(cfg))
	gt.NoError(t, err).Required()

	rec, err := uc.Recommend.Create(ctx, model.RecommendationRequest{ComplaintSummary: "charged twice", ComplaintID: "C-40"})
	gt.NoError(t, err).Required()
	gt.Array(t, rec.CitedCases).Length(1)

	stored, err := uc.Recommend.Get(ctx, rec.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.ComplaintID).Equal("C-40")
}
