package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/cli/config"
	"github.com/secmon-lab/smartresolve/pkg/service/llm"
	"github.com/secmon-lab/smartresolve/pkg/usecase"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
)

// runtime bundles the collaborators a command needs and releases them on Close
type runtime struct {
	uc      *usecase.UseCases
	closers []func()
}

func (x *runtime) Close() {
	for i := len(x.closers) - 1; i >= 0; i-- {
		x.closers[i]()
	}
}

// setupRuntime configures repository, LLM client and use cases from the
// shared flag groups. archiveCfg may be nil.
func setupRuntime(ctx context.Context, repoCfg *config.Repository, llmCfg *config.LLM, pipelineCfg *config.Pipeline, archiveCfg *config.Archive, opts ...usecase.Option) (*runtime, error) {
	logger := logging.From(ctx)
	rt := &runtime{}

	pipeline, err := pipelineCfg.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure pipeline")
	}
	logger.Info("Pipeline configured",
		"top_k", pipeline.TopK,
		"embedding_dimension", pipeline.EmbeddingDimension,
		"max_output_tokens", pipeline.MaxOutputTokens,
	)

	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}
	rt.closers = append(rt.closers, func() {
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	})

	llmClient, err := llmCfg.Configure(ctx, pipeline.MaxOutputTokens)
	if err != nil {
		rt.Close()
		return nil, goerr.Wrap(err, "failed to configure LLM client")
	}

	embedder, err := llm.NewEmbedder(llmClient)
	if err != nil {
		rt.Close()
		return nil, goerr.Wrap(err, "failed to create embedder")
	}
	generator, err := llm.NewGenerator(llmClient)
	if err != nil {
		rt.Close()
		return nil, goerr.Wrap(err, "failed to create generator")
	}

	ucOpts := append([]usecase.Option{
		usecase.WithPipeline(pipeline),
	}, opts...)
	if archiveCfg != nil {
		archiver, closeArchive, err := archiveCfg.Configure(ctx)
		if err != nil {
			rt.Close()
			return nil, goerr.Wrap(err, "failed to configure archive")
		}
		rt.closers = append(rt.closers, closeArchive)
		if archiver != nil {
			ucOpts = append(ucOpts, usecase.WithArchive(archiver))
		}
	}

	uc, err := usecase.New(repo, embedder, generator, ucOpts...)
	if err != nil {
		rt.Close()
		return nil, goerr.Wrap(err, "failed to initialize use cases")
	}
	rt.uc = uc

	return rt, nil
}
