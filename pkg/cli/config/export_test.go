package config

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, geminiProject, openaiAPIKey string) *LLM {
	return &LLM{
		provider:       provider,
		geminiProject:  geminiProject,
		geminiLocation: "us-central1",
		openaiAPIKey:   openaiAPIKey,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{
		backend:   backend,
		projectID: projectID,
	}
}

// NewPipelineForTest creates a Pipeline config for testing purposes
func NewPipelineForTest(configPath string, topK, embeddingDimension, maxOutputTokens int) *Pipeline {
	return &Pipeline{
		configPath:         configPath,
		topK:               topK,
		embeddingDimension: embeddingDimension,
		maxOutputTokens:    maxOutputTokens,
	}
}

// NewSentryForTest creates a Sentry config for testing purposes
func NewSentryForTest(dsn, env string) *Sentry {
	return &Sentry{
		dsn: dsn,
		env: env,
	}
}
