package llm

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/smartresolve/pkg/domain/interfaces"
)

const systemPrompt = "You are a customer service expert. You recommend complaint resolutions based on how similar past complaints were resolved. Always answer with a single JSON object."

// Generator sends prompts to a gollem LLM client and returns the raw text.
// The output token bound is configured on the client itself.
type Generator struct {
	llmClient    gollem.LLMClient
	systemPrompt string
}

var _ interfaces.TextGenerator = &Generator{}

// NewGenerator creates a Generator backed by llmClient
func NewGenerator(llmClient gollem.LLMClient) (*Generator, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	return &Generator{
		llmClient:    llmClient,
		systemPrompt: systemPrompt,
	}, nil
}

// Generate runs prompt in a new JSON-mode session and joins the response texts
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	session, err := g.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(ResponseSchema()),
		gollem.WithSessionSystemPrompt(g.systemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(prompt)})
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM")
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.New("empty response from LLM")
	}

	return strings.Join(resp.Texts, ""), nil
}

// ResponseSchema describes the JSON object the model is asked to return
func ResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "ResolutionRecommendation",
		Description: "Ranked resolutions for a customer complaint",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"recommendations": {
				Type:        gollem.TypeArray,
				Required:    true,
				Description: "Three resolutions ordered by rank",
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"rank": {
							Type:        gollem.TypeInteger,
							Required:    true,
							Description: "1 for the best resolution",
						},
						"resolution": {
							Type:        gollem.TypeString,
							Required:    true,
							Description: "Specific resolution action",
						},
						"expectedOutcome": {
							Type:        gollem.TypeString,
							Required:    true,
							Description: "Expected customer outcome",
						},
						"implementation": {
							Type:        gollem.TypeString,
							Required:    true,
							Description: "Steps to implement the resolution",
						},
					},
				},
			},
			"primary": {
				Type:        gollem.TypeString,
				Required:    true,
				Description: "The resolution of the top recommendation",
			},
			"confidence": {
				Type:        gollem.TypeNumber,
				Required:    true,
				Description: "Confidence between 0.0 and 1.0",
			},
			"reasoning": {
				Type:        gollem.TypeString,
				Required:    true,
				Description: "Why these resolutions fit the complaint",
			},
		},
	}
}
