// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates FaqSync configuration.
//
// Configuration comes from three layers, later layers winning: built-in
// defaults, an optional faqsync.yaml file, and environment variables. The
// OpenAI API key is never part of the file; it is resolved from the
// environment (or a container secret) and sealed in a memguard enclave so
// it only exists in plaintext at client construction.
//
// There is no package-level singleton. Load returns a *Config that the
// caller passes into constructors.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/FaqSync/pkg/logging"
	"github.com/AleutianAI/FaqSync/services/faq/chat"
)

// ErrMissingAPIKey indicates no OpenAI API key could be resolved.
var ErrMissingAPIKey = errors.New("openai api key not set")

// =============================================================================
// Shared Validator Instance
// =============================================================================

// configValidate is the validator instance for configuration structs.
// Initialized in init() with custom validators.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("loglevel", validateLogLevel)
}

// validateLogLevel accepts any level string pkg/logging can parse.
func validateLogLevel(fl validator.FieldLevel) bool {
	_, err := logging.ParseLevel(fl.Field().String())
	return err == nil
}

// =============================================================================
// Configuration Types
// =============================================================================

// CorpusConfig locates the FAQ corpus on disk.
type CorpusConfig struct {
	// DataDir is the directory holding the FAQ files.
	// Default: "data"
	DataDir string `yaml:"data_dir" validate:"required"`

	// Extension filters which files are parsed, leading dot included.
	// Default: ".txt"
	Extension string `yaml:"extension" validate:"required,startswith=."`
}

// StoreConfig locates the Weaviate document store.
type StoreConfig struct {
	// URL is the Weaviate endpoint.
	// Default: "http://localhost:8080"
	URL string `yaml:"url" validate:"required"`

	// ClassName is the Weaviate class holding FAQ documents.
	// Default: "MarsFaq"
	ClassName string `yaml:"class_name" validate:"required"`

	// BatchSize bounds objects per insert or delete batch.
	// Default: 100
	BatchSize int `yaml:"batch_size" validate:"gt=0"`

	// PageSize bounds objects per enumeration page.
	// Default: 500
	PageSize int `yaml:"page_size" validate:"gt=0"`
}

// OpenAIConfig selects the OpenAI models and client behavior. The API key
// itself never appears here; see Config.OpenAIAPIKey.
type OpenAIConfig struct {
	// ChatModel is the chat completion model.
	// Default: "gpt-3.5-turbo"
	ChatModel string `yaml:"chat_model" validate:"required"`

	// EmbeddingModel is the embeddings model.
	// Default: "text-embedding-ada-002"
	EmbeddingModel string `yaml:"embedding_model" validate:"required"`

	// APIKeyEnv names the environment variable holding the API key.
	// Default: "OPENAI_API_KEY"
	APIKeyEnv string `yaml:"api_key_env" validate:"required"`

	// RequestsPerSecond throttles embedding calls.
	// Default: 5
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gt=0"`

	// Burst is the embedding rate limiter burst size.
	// Default: 5
	Burst int `yaml:"burst" validate:"gt=0"`

	// CacheDir enables the persistent embedding cache when set.
	// Default: "" (cache disabled)
	CacheDir string `yaml:"cache_dir"`
}

// ChatConfig shapes the question-answering assistant.
type ChatConfig struct {
	// SystemPrompt grounds the model in retrieved context.
	// Default: chat.DefaultSystemPrompt
	SystemPrompt string `yaml:"system_prompt" validate:"required"`

	// TopK is how many documents to retrieve per question.
	// Default: 3
	TopK int `yaml:"top_k" validate:"gt=0"`
}

// LogConfig shapes the logger built in main.
type LogConfig struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level" validate:"loglevel"`

	// Dir enables JSON file logging when set.
	// Default: "" (file logging disabled)
	Dir string `yaml:"dir"`

	// JSON switches stderr output to JSON.
	// Default: false
	JSON bool `yaml:"json"`
}

// Config is the root FaqSync configuration.
type Config struct {
	Corpus CorpusConfig `yaml:"corpus"`
	Store  StoreConfig  `yaml:"store"`
	OpenAI OpenAIConfig `yaml:"openai"`
	Chat   ChatConfig   `yaml:"chat"`
	Log    LogConfig    `yaml:"log"`

	// apiKey holds the sealed OpenAI API key. Set by the loader, read
	// through OpenAIAPIKey.
	apiKey *memguard.Enclave
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			DataDir:   "data",
			Extension: ".txt",
		},
		Store: StoreConfig{
			URL:       "http://localhost:8080",
			ClassName: "MarsFaq",
			BatchSize: 100,
			PageSize:  500,
		},
		OpenAI: OpenAIConfig{
			ChatModel:         "gpt-3.5-turbo",
			EmbeddingModel:    "text-embedding-ada-002",
			APIKeyEnv:         "OPENAI_API_KEY",
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Chat: ChatConfig{
			SystemPrompt: chat.DefaultSystemPrompt,
			TopK:         3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// applyDefaults fills in zero values with defaults after unmarshal.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Corpus.DataDir == "" {
		c.Corpus.DataDir = defaults.Corpus.DataDir
	}
	if c.Corpus.Extension == "" {
		c.Corpus.Extension = defaults.Corpus.Extension
	}
	if c.Store.URL == "" {
		c.Store.URL = defaults.Store.URL
	}
	if c.Store.ClassName == "" {
		c.Store.ClassName = defaults.Store.ClassName
	}
	if c.Store.BatchSize <= 0 {
		c.Store.BatchSize = defaults.Store.BatchSize
	}
	if c.Store.PageSize <= 0 {
		c.Store.PageSize = defaults.Store.PageSize
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = defaults.OpenAI.ChatModel
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = defaults.OpenAI.EmbeddingModel
	}
	if c.OpenAI.APIKeyEnv == "" {
		c.OpenAI.APIKeyEnv = defaults.OpenAI.APIKeyEnv
	}
	if c.OpenAI.RequestsPerSecond <= 0 {
		c.OpenAI.RequestsPerSecond = defaults.OpenAI.RequestsPerSecond
	}
	if c.OpenAI.Burst <= 0 {
		c.OpenAI.Burst = defaults.OpenAI.Burst
	}
	if c.Chat.SystemPrompt == "" {
		c.Chat.SystemPrompt = defaults.Chat.SystemPrompt
	}
	if c.Chat.TopK <= 0 {
		c.Chat.TopK = defaults.Chat.TopK
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// Validate checks the configuration against its struct tags.
//
// Description:
//
//	Runs go-playground/validator over the whole tree. The API key is not
//	part of validation; its presence is enforced by the loader and by
//	OpenAIAPIKey.
//
// Outputs:
//
//	error - Non-nil with the failing field when validation fails
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// =============================================================================
// API Key Handling
// =============================================================================

// SetAPIKey seals the OpenAI API key into an encrypted enclave. Blank keys
// are ignored.
func (c *Config) SetAPIKey(key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	c.apiKey = memguard.NewEnclave([]byte(key))
}

// HasAPIKey reports whether an API key has been sealed.
func (c *Config) HasAPIKey() bool {
	return c.apiKey != nil
}

// OpenAIAPIKey returns the plaintext API key for client construction.
//
// Description:
//
//	Opens the enclave, copies the key out, and destroys the locked buffer.
//	Call once at startup when building the OpenAI client; do not hold the
//	returned string longer than needed and never log it.
//
// Outputs:
//
//	string - The API key
//	error - ErrMissingAPIKey if no key was sealed, or an enclave failure
func (c *Config) OpenAIAPIKey() (string, error) {
	if c.apiKey == nil {
		return "", ErrMissingAPIKey
	}
	buf, err := c.apiKey.Open()
	if err != nil {
		return "", fmt.Errorf("opening api key enclave: %w", err)
	}
	defer buf.Destroy()
	return strings.Clone(buf.String()), nil
}
