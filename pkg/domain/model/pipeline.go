package model

import "github.com/m-mizutani/goerr/v2"

const (
	DefaultTopK            = 5
	DefaultMaxOutputTokens = 1500
)

// PipelineConfig tunes the recommendation pipeline
type PipelineConfig struct {
	TopK               int
	EmbeddingDimension int
	MaxOutputTokens    int
}

// DefaultPipelineConfig returns the configuration used when nothing is set
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TopK:               DefaultTopK,
		EmbeddingDimension: DefaultEmbeddingDimension,
		MaxOutputTokens:    DefaultMaxOutputTokens,
	}
}

// Validate rejects non-positive values
func (c PipelineConfig) Validate() error {
	if c.TopK <= 0 {
		return goerr.Wrap(ErrInvalidPipelineConfig, "top_k must be positive", goerr.V("top_k", c.TopK))
	}
	if c.EmbeddingDimension <= 0 {
		return goerr.Wrap(ErrInvalidPipelineConfig, "embedding_dimension must be positive", goerr.V("embedding_dimension", c.EmbeddingDimension))
	}
	if c.MaxOutputTokens <= 0 {
		return goerr.Wrap(ErrInvalidPipelineConfig, "max_output_tokens must be positive", goerr.V("max_output_tokens", c.MaxOutputTokens))
	}
	return nil
}
