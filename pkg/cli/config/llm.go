package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	LLMProviderGemini = "gemini"
	LLMProviderOpenAI = "openai"
)

// LLM holds CLI flags selecting and configuring the LLM client used for both
// embedding and text generation
type LLM struct {
	provider string

	geminiProject  string
	geminiLocation string
	geminiModel    string

	openaiAPIKey string
	openaiModel  string
}

func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider [gemini|openai]",
			Category:    "LLM",
			Value:       LLMProviderGemini,
			Sources:     cli.EnvVars("SMARTRESOLVE_LLM_PROVIDER"),
			Destination: &x.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("SMARTRESOLVE_GEMINI_PROJECT"),
			Destination: &x.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Category:    "LLM",
			Value:       "us-central1",
			Sources:     cli.EnvVars("SMARTRESOLVE_GEMINI_LOCATION"),
			Destination: &x.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name (provider default if empty)",
			Category:    "LLM",
			Sources:     cli.EnvVars("SMARTRESOLVE_GEMINI_MODEL"),
			Destination: &x.geminiModel,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("SMARTRESOLVE_OPENAI_API_KEY"),
			Destination: &x.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI model name (provider default if empty)",
			Category:    "LLM",
			Sources:     cli.EnvVars("SMARTRESOLVE_OPENAI_MODEL"),
			Destination: &x.openaiModel,
		},
	}
}

func (x LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", x.provider),
		slog.String("gemini_project", x.geminiProject),
		slog.String("gemini_location", x.geminiLocation),
		slog.String("gemini_model", x.geminiModel),
		slog.Int("openai_api_key.len", len(x.openaiAPIKey)),
		slog.String("openai_model", x.openaiModel),
	)
}

// Configure creates the LLM client for the selected provider. maxOutputTokens
// caps every generation made through the client.
func (x *LLM) Configure(ctx context.Context, maxOutputTokens int) (gollem.LLMClient, error) {
	switch x.provider {
	case LLMProviderGemini:
		if x.geminiProject == "" {
			return nil, goerr.Wrap(ErrMissingCredential, "gemini-project is required",
				goerr.V(ProviderKey, x.provider), goerr.V(FlagKey, "gemini-project"))
		}

		opts := []gemini.Option{
			gemini.WithMaxTokens(int32(maxOutputTokens)), // #nosec G115 - validated positive and small
		}
		if x.geminiModel != "" {
			opts = append(opts, gemini.WithModel(x.geminiModel))
		}

		client, err := gemini.New(ctx, x.geminiProject, x.geminiLocation, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		logging.From(ctx).Info("Using Gemini LLM client",
			"project_id", x.geminiProject,
			"location", x.geminiLocation,
		)
		return client, nil

	case LLMProviderOpenAI:
		if x.openaiAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingCredential, "openai-api-key is required",
				goerr.V(ProviderKey, x.provider), goerr.V(FlagKey, "openai-api-key"))
		}

		opts := []openai.Option{
			openai.WithMaxTokens(maxOutputTokens),
		}
		if x.openaiModel != "" {
			opts = append(opts, openai.WithModel(x.openaiModel))
		}

		client, err := openai.New(ctx, x.openaiAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		logging.From(ctx).Info("Using OpenAI LLM client", "model", x.openaiModel)
		return client, nil

	default:
		return nil, goerr.Wrap(ErrInvalidLLMProvider, "unknown LLM provider", goerr.V(ProviderKey, x.provider))
	}
}
