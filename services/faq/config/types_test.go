// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/FaqSync/services/faq/chat"
)

// ----------------------------------------------------------------------------
// Default Tests
// ----------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "data", cfg.Corpus.DataDir)
	assert.Equal(t, ".txt", cfg.Corpus.Extension)
	assert.Equal(t, "http://localhost:8080", cfg.Store.URL)
	assert.Equal(t, "MarsFaq", cfg.Store.ClassName)
	assert.Equal(t, 100, cfg.Store.BatchSize)
	assert.Equal(t, 500, cfg.Store.PageSize)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.ChatModel)
	assert.Equal(t, "text-embedding-ada-002", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, "OPENAI_API_KEY", cfg.OpenAI.APIKeyEnv)
	assert.Equal(t, float64(5), cfg.OpenAI.RequestsPerSecond)
	assert.Equal(t, 5, cfg.OpenAI.Burst)
	assert.Empty(t, cfg.OpenAI.CacheDir)
	assert.Equal(t, chat.DefaultSystemPrompt, cfg.Chat.SystemPrompt)
	assert.Equal(t, 3, cfg.Chat.TopK)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.HasAPIKey())
}

// ----------------------------------------------------------------------------
// Validation Tests
// ----------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("missing data dir fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Corpus.DataDir = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("extension without leading dot fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Corpus.Extension = "txt"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing store url fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store.URL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero batch size fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store.BatchSize = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero top-k fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Chat.TopK = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown log level fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Log.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("warning is an accepted level spelling", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Log.Level = "warning"
		assert.NoError(t, cfg.Validate())
	})
}

// ----------------------------------------------------------------------------
// API Key Tests
// ----------------------------------------------------------------------------

func TestConfig_APIKey(t *testing.T) {
	t.Run("round-trips through the enclave", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SetAPIKey("sk-test-key")
		assert.True(t, cfg.HasAPIKey())

		key, err := cfg.OpenAIAPIKey()
		require.NoError(t, err)
		assert.Equal(t, "sk-test-key", key)

		// The enclave survives repeated opens.
		key, err = cfg.OpenAIAPIKey()
		require.NoError(t, err)
		assert.Equal(t, "sk-test-key", key)
	})

	t.Run("missing key is an error", func(t *testing.T) {
		cfg := DefaultConfig()
		_, err := cfg.OpenAIAPIKey()
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("blank key is ignored", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SetAPIKey("   ")
		assert.False(t, cfg.HasAPIKey())
	})

	t.Run("key is trimmed", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SetAPIKey("  sk-test \n")
		key, err := cfg.OpenAIAPIKey()
		require.NoError(t, err)
		assert.Equal(t, "sk-test", key)
	})
}
