package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAgent(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")

	t.Run("defaults without config", func(t *testing.T) {
		resetGlobal(t)
		got := ResolveAgent("", "", "", "gpt-4o")
		assert.Equal(t, AgentSettings{Model: "gpt-4o", MaxPromptTokens: DefaultMaxPromptTokens}, got)
	})

	t.Run("flag beats env beats file", func(t *testing.T) {
		resetGlobal(t)
		require.NoError(t, Initialize(filepath.Join(t.TempDir(), "config.json")))
		require.NoError(t, GetAgent().SetData(map[string]any{
			"model":             "file-model",
			"base_url":          "http://file",
			"api_key":           "file-key",
			"max_prompt_tokens": 100,
		}))

		got := ResolveAgent("", "", "", "gpt-4o")
		assert.Equal(t, AgentSettings{Model: "file-model", BaseURL: "http://file", APIKey: "file-key", MaxPromptTokens: 100}, got)

		t.Setenv("OPENAI_API_KEY", "env-key")
		got = ResolveAgent("", "", "", "gpt-4o")
		assert.Equal(t, "env-key", got.APIKey)

		got = ResolveAgent("flag-model", "http://flag", "flag-key", "gpt-4o")
		assert.Equal(t, AgentSettings{Model: "flag-model", BaseURL: "http://flag", APIKey: "flag-key", MaxPromptTokens: 100}, got)
	})
}

func TestResolveStorage(t *testing.T) {
	resetGlobal(t)
	assert.Equal(t, StorageSettings{Backend: BackendFile}, ResolveStorage("", "", "", ""))

	require.NoError(t, Initialize(filepath.Join(t.TempDir(), "config.json")))
	require.NoError(t, GetStorage().SetData(map[string]any{"backend": "redis", "redis_url": "redis://file"}))

	assert.Equal(t, StorageSettings{Backend: "redis", RedisURL: "redis://file"}, ResolveStorage("", "", "", ""))
	assert.Equal(t, StorageSettings{Backend: "sqlite", RedisURL: "redis://file", SQLitePath: "x.db"}, ResolveStorage("sqlite", "", "", "x.db"))
}
