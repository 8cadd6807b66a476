package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound     = goerr.New("configuration file not found")
	ErrInvalidConfig      = goerr.New("invalid configuration")
	ErrInvalidLogLevel    = goerr.New("invalid log level")
	ErrInvalidLogFormat   = goerr.New("invalid log format")
	ErrInvalidBackend     = goerr.New("invalid repository backend")
	ErrInvalidLLMProvider = goerr.New("invalid LLM provider")
	ErrMissingCredential  = goerr.New("required credential is not set")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	BackendKey    = "backend"
	ProviderKey   = "provider"
	FlagKey       = "flag"
)
