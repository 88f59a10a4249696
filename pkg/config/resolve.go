package config

import (
	"os"
)

// AgentSettings is the resolved downstream agent configuration.
type AgentSettings struct {
	Model           string
	BaseURL         string
	APIKey          string
	MaxPromptTokens int
}

// ResolveAgent merges agent settings with precedence:
// CLI flags > Environment variables > Config file > Defaults
func ResolveAgent(cliModel, cliBaseURL, cliAPIKey, defaultModel string) AgentSettings {
	out := AgentSettings{
		Model:           cliModel,
		BaseURL:         cliBaseURL,
		APIKey:          cliAPIKey,
		MaxPromptTokens: DefaultMaxPromptTokens,
	}

	if out.APIKey == "" {
		out.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if out.BaseURL == "" {
		out.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}

	if file := GetAgent(); file != nil {
		if out.Model == "" {
			out.Model = file.GetModel()
		}
		if out.BaseURL == "" {
			out.BaseURL = file.GetBaseURL()
		}
		if out.APIKey == "" {
			out.APIKey = file.GetAPIKey()
		}
		out.MaxPromptTokens = file.GetMaxPromptTokens()
	}

	if out.Model == "" {
		out.Model = defaultModel
	}
	return out
}

// ResolveStorage applies non-empty CLI overrides on top of the storage
// section. Without an initialized config it starts from the file backend.
func ResolveStorage(cliBackend, cliDir, cliRedisURL, cliSQLitePath string) StorageSettings {
	out := StorageSettings{Backend: BackendFile}
	if file := GetStorage(); file != nil {
		out = file.Settings()
	}
	if cliBackend != "" {
		out.Backend = cliBackend
	}
	if cliDir != "" {
		out.Dir = cliDir
	}
	if cliRedisURL != "" {
		out.RedisURL = cliRedisURL
	}
	if cliSQLitePath != "" {
		out.SQLitePath = cliSQLitePath
	}
	return out
}
