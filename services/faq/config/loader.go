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
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked for in the working directory when Load is
// called without an explicit path.
const DefaultConfigFile = "faqsync.yaml"

// apiKeySecretPath is where container runtimes mount the OpenAI key when it
// is provided as a secret instead of an environment variable.
const apiKeySecretPath = "/run/secrets/openai_api_key"

// Load builds the configuration from defaults, an optional YAML file, and
// the environment.
//
// Description:
//
//	Loads .env if present, then layers: built-in defaults, the YAML file,
//	environment overrides. The API key is resolved from the environment
//	variable named by openai.api_key_env, falling back to the container
//	secret path, and sealed into the returned Config. The result is
//	validated before it is returned.
//
// Inputs:
//
//	path - YAML file path. Empty means "faqsync.yaml if it exists".
//	       A non-empty path that does not exist is an error.
//
// Outputs:
//
//	*Config - The validated configuration
//	error - Non-nil on unreadable file, bad YAML, missing API key, or
//	        failed validation
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.applyDefaults()
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No file; defaults plus environment cover it.
	default:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := resolveAPIKey(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers environment variables over the file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Corpus.DataDir = v
	}
	if v := os.Getenv("WEAVIATE_SERVICE_URL"); v != "" {
		cfg.Store.URL = v
	}
	if v := os.Getenv("WEAVIATE_CLASS_NAME"); v != "" {
		cfg.Store.ClassName = v
	}
	if v := os.Getenv("OPENAI_MODEL_NAME"); v != "" {
		cfg.OpenAI.ChatModel = v
	}
	if v := os.Getenv("EMBEDDING_MODEL_NAME"); v != "" {
		cfg.OpenAI.EmbeddingModel = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.Log.Dir = v
	}
}

// resolveAPIKey finds the OpenAI API key and seals it into the config. The
// environment variable named by openai.api_key_env wins; the container
// secret file is the fallback.
func resolveAPIKey(cfg *Config) error {
	envName := cfg.OpenAI.APIKeyEnv
	key := os.Getenv(envName)
	if key == "" {
		if data, err := os.ReadFile(apiKeySecretPath); err == nil {
			key = strings.TrimSpace(string(data))
		}
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: set %s or provide %s", ErrMissingAPIKey, envName, apiKeySecretPath)
	}
	cfg.SetAPIKey(key)
	return nil
}
