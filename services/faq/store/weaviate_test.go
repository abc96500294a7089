// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/FaqSync/pkg/logging"
)

// fakeEmbedder satisfies embed.Embedder without network calls.
type fakeEmbedder struct{}

func (fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 1}
	}
	return vectors, nil
}

func (fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{0, 1}, nil
}

func newTestLogger() *logging.Logger {
	return logging.New(logging.Config{Quiet: true})
}

// -----------------------------------------------------------------------------
// WeaviateStore Construction Tests
// -----------------------------------------------------------------------------

func TestNewWeaviateStore(t *testing.T) {
	t.Run("constructs without contacting the server", func(t *testing.T) {
		s, err := NewWeaviateStore(DefaultStoreConfig(), fakeEmbedder{}, newTestLogger())
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.NotNil(t, s.client)
	})

	t.Run("applies defaults to zero config", func(t *testing.T) {
		s, err := NewWeaviateStore(StoreConfig{}, fakeEmbedder{}, newTestLogger())
		require.NoError(t, err)
		assert.Equal(t, "MarsFaq", s.config.ClassName)
		assert.Equal(t, 100, s.config.BatchSize)
		assert.Equal(t, 500, s.config.PageSize)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewWeaviateStore(DefaultStoreConfig(), nil, newTestLogger())
		assert.ErrorIs(t, err, ErrNilEmbedder)
	})

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewWeaviateStore(DefaultStoreConfig(), fakeEmbedder{}, nil)
		assert.ErrorIs(t, err, ErrNilLogger)
	})

	t.Run("invalid class name", func(t *testing.T) {
		cfg := DefaultStoreConfig()
		cfg.ClassName = "mars faq"
		_, err := NewWeaviateStore(cfg, fakeEmbedder{}, newTestLogger())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "class name")
	})
}

// -----------------------------------------------------------------------------
// Result Map Helper Tests
// -----------------------------------------------------------------------------

func TestGetString(t *testing.T) {
	m := map[string]interface{}{
		"text":   "value",
		"number": 42,
	}
	assert.Equal(t, "value", getString(m, "text"))
	assert.Equal(t, "", getString(m, "number"))
	assert.Equal(t, "", getString(m, "missing"))
}

func TestGetFloat64(t *testing.T) {
	m := map[string]interface{}{
		"f64":  0.82,
		"f32":  float32(0.5),
		"int":  7,
		"text": "nope",
	}
	assert.Equal(t, 0.82, getFloat64(m, "f64"))
	assert.Equal(t, 0.5, getFloat64(m, "f32"))
	assert.Equal(t, 7.0, getFloat64(m, "int"))
	assert.Equal(t, 0.0, getFloat64(m, "text"))
	assert.Equal(t, 0.0, getFloat64(m, "missing"))
}

func TestHashPrefix(t *testing.T) {
	assert.Equal(t, "73445e25", hashPrefix(marsHash))
	assert.Equal(t, "short", hashPrefix("short"))
	assert.Equal(t, "", hashPrefix(""))
}
