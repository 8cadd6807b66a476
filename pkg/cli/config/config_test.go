package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/smartresolve/pkg/cli/config"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestPipeline_Configure(t *testing.T) {
	t.Run("defaults without file or flags", func(t *testing.T) {
		cfg, err := config.NewPipelineForTest("", 0, 0, 0).Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, cfg).Equal(model.DefaultPipelineConfig())
	})

	t.Run("file values overlay defaults", func(t *testing.T) {
		path := writeFile(t, "pipeline.toml", `
[pipeline]
top_k = 3
embedding_dimension = 768
`)
		cfg, err := config.NewPipelineForTest(path, 0, 0, 0).Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.TopK).Equal(3)
		gt.Value(t, cfg.EmbeddingDimension).Equal(768)
		gt.Value(t, cfg.MaxOutputTokens).Equal(model.DefaultMaxOutputTokens)
	})

	t.Run("flags override file", func(t *testing.T) {
		path := writeFile(t, "pipeline.toml", `
[pipeline]
top_k = 3
max_output_tokens = 800
`)
		cfg, err := config.NewPipelineForTest(path, 7, 0, 0).Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.TopK).Equal(7)
		gt.Value(t, cfg.MaxOutputTokens).Equal(800)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.NewPipelineForTest(filepath.Join(t.TempDir(), "none.toml"), 0, 0, 0).Configure()
		gt.Error(t, err).Is(config.ErrConfigNotFound)
	})

	t.Run("broken TOML", func(t *testing.T) {
		path := writeFile(t, "pipeline.toml", "[pipeline\ntop_k = ")
		_, err := config.NewPipelineForTest(path, 0, 0, 0).Configure()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("negative value is rejected", func(t *testing.T) {
		_, err := config.NewPipelineForTest("", -1, 0, 0).Configure()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}

func TestRepository_Configure(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest(config.BackendMemory, "").Configure(t.Context())
		gt.NoError(t, err).Required()
		gt.Value(t, repo).NotNil()
		gt.NoError(t, repo.Close())
	})

	t.Run("firestore backend requires project", func(t *testing.T) {
		_, err := config.NewRepositoryForTest(config.BackendFirestore, "").Configure(t.Context())
		gt.Error(t, err).Is(config.ErrMissingCredential)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("dynamodb", "").Configure(t.Context())
		gt.Error(t, err).Is(config.ErrInvalidBackend)
	})
}

func TestLLM_Configure(t *testing.T) {
	t.Run("gemini requires project", func(t *testing.T) {
		_, err := config.NewLLMForTest(config.LLMProviderGemini, "", "").Configure(t.Context(), 1500)
		gt.Error(t, err).Is(config.ErrMissingCredential)
	})

	t.Run("openai requires API key", func(t *testing.T) {
		_, err := config.NewLLMForTest(config.LLMProviderOpenAI, "", "").Configure(t.Context(), 1500)
		gt.Error(t, err).Is(config.ErrMissingCredential)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := config.NewLLMForTest("sagemaker", "", "").Configure(t.Context(), 1500)
		gt.Error(t, err).Is(config.ErrInvalidLLMProvider)
	})

	t.Run("returns flags", func(t *testing.T) {
		var cfg config.LLM
		gt.Value(t, len(cfg.Flags())).Equal(6)
	})
}

func TestLogger_Configure(t *testing.T) {
	orig := logging.Default()
	t.Cleanup(func() { logging.SetDefault(orig) })

	t.Run("json output redacts secrets", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		closer, err := config.NewLoggerForTest("info", "json", path).Configure()
		gt.NoError(t, err).Required()

		logging.Default().Info("configured", "secret_api_key", "sk-should-not-appear", "bucket", "archive")
		logging.Default().Debug("below level")
		closer()

		data, err := os.ReadFile(path)
		gt.NoError(t, err).Required()
		gt.String(t, string(data)).Contains("configured")
		gt.String(t, string(data)).Contains("archive")
		gt.String(t, string(data)).NotContains("sk-should-not-appear")
		gt.String(t, string(data)).NotContains("below level")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("verbose", "json", "stdout").Configure()
		gt.Error(t, err).Is(config.ErrInvalidLogLevel)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml", "stdout").Configure()
		gt.Error(t, err).Is(config.ErrInvalidLogFormat)
	})
}

func TestSentry_Configure(t *testing.T) {
	t.Run("disabled without DSN", func(t *testing.T) {
		cfg := config.NewSentryForTest("", "test")
		gt.Bool(t, cfg.IsEnabled()).False()

		flush, err := cfg.Configure("dev")
		gt.NoError(t, err).Required()
		flush()
	})

	t.Run("invalid DSN", func(t *testing.T) {
		_, err := config.NewSentryForTest("not a dsn", "test").Configure("dev")
		gt.Error(t, err)
	})
}

func TestArchive_Configure(t *testing.T) {
	var cfg config.Archive
	gt.Bool(t, cfg.IsEnabled()).False()

	a, closer, err := cfg.Configure(t.Context())
	gt.NoError(t, err).Required()
	gt.Value(t, a).Nil()
	closer()
}
