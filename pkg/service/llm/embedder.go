package llm

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/smartresolve/pkg/domain/interfaces"
)

// Embedder produces embeddings through a gollem LLM client
type Embedder struct {
	llmClient gollem.LLMClient
}

var _ interfaces.Embedder = &Embedder{}

// NewEmbedder creates an Embedder backed by llmClient
func NewEmbedder(llmClient gollem.LLMClient) (*Embedder, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Embedder{llmClient: llmClient}, nil
}

// Embed generates an embedding vector of the given dimension for text
func (e *Embedder) Embed(ctx context.Context, text string, dimension int) ([]float32, error) {
	embeddings, err := e.llmClient.GenerateEmbedding(ctx, dimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding", goerr.V("dimension", dimension))
	}

	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.New("no embedding returned", goerr.V("dimension", dimension))
	}

	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}

	return result, nil
}
