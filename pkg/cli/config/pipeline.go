package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// pipelineFile is the TOML layout of the pipeline configuration file:
//
//	[pipeline]
//	top_k = 5
//	embedding_dimension = 1536
//	max_output_tokens = 1500
type pipelineFile struct {
	Pipeline struct {
		TopK               int `toml:"top_k"`
		EmbeddingDimension int `toml:"embedding_dimension"`
		MaxOutputTokens    int `toml:"max_output_tokens"`
	} `toml:"pipeline"`
}

// Pipeline holds CLI flags tuning the recommendation pipeline. Values are
// resolved as defaults, then the TOML file, then non-zero flags.
type Pipeline struct {
	configPath         string
	topK               int
	embeddingDimension int
	maxOutputTokens    int
}

func (x *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "pipeline-config",
			Usage:       "Path to pipeline TOML configuration file",
			Category:    "Pipeline",
			Sources:     cli.EnvVars("SMARTRESOLVE_PIPELINE_CONFIG"),
			Destination: &x.configPath,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of similar historical cases retrieved per request",
			Category:    "Pipeline",
			Sources:     cli.EnvVars("SMARTRESOLVE_TOP_K"),
			Destination: &x.topK,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Embedding vector dimension",
			Category:    "Pipeline",
			Sources:     cli.EnvVars("SMARTRESOLVE_EMBEDDING_DIMENSION"),
			Destination: &x.embeddingDimension,
		},
		&cli.IntFlag{
			Name:        "max-output-tokens",
			Usage:       "Maximum tokens generated by the model per request",
			Category:    "Pipeline",
			Sources:     cli.EnvVars("SMARTRESOLVE_MAX_OUTPUT_TOKENS"),
			Destination: &x.maxOutputTokens,
		},
	}
}

func (x Pipeline) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("config_path", x.configPath),
		slog.Int("top_k", x.topK),
		slog.Int("embedding_dimension", x.embeddingDimension),
		slog.Int("max_output_tokens", x.maxOutputTokens),
	)
}

// Configure resolves and validates the pipeline configuration
func (x *Pipeline) Configure() (model.PipelineConfig, error) {
	cfg := model.DefaultPipelineConfig()

	if x.configPath != "" {
		loaded, err := LoadPipelineConfig(x.configPath, cfg)
		if err != nil {
			return model.PipelineConfig{}, err
		}
		cfg = loaded
	}

	if x.topK != 0 {
		cfg.TopK = x.topK
	}
	if x.embeddingDimension != 0 {
		cfg.EmbeddingDimension = x.embeddingDimension
	}
	if x.maxOutputTokens != 0 {
		cfg.MaxOutputTokens = x.maxOutputTokens
	}

	if err := cfg.Validate(); err != nil {
		return model.PipelineConfig{}, goerr.Wrap(ErrInvalidConfig, "invalid pipeline configuration",
			goerr.V("cause", err.Error()))
	}

	return cfg, nil
}

// LoadPipelineConfig reads a TOML file and overlays its non-zero values on
// base. The result is not validated.
func LoadPipelineConfig(path string, base model.PipelineConfig) (model.PipelineConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return base, goerr.Wrap(ErrConfigNotFound, "pipeline config file not found", goerr.V(ConfigPathKey, path))
		}
		return base, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file pipelineFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return base, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	cfg := base
	if v := file.Pipeline.TopK; v != 0 {
		cfg.TopK = v
	}
	if v := file.Pipeline.EmbeddingDimension; v != 0 {
		cfg.EmbeddingDimension = v
	}
	if v := file.Pipeline.MaxOutputTokens; v != 0 {
		cfg.MaxOutputTokens = v
	}

	return cfg, nil
}
