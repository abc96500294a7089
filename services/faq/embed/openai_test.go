// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/FaqSync/pkg/logging"
)

// embeddingsPayload mirrors the provider's embeddings response shape.
type embeddingsPayload struct {
	Object string          `json:"object"`
	Data   []embeddingItem `json:"data"`
	Model  string          `json:"model"`
}

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

func writeEmbeddings(w http.ResponseWriter, items []embeddingItem) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(embeddingsPayload{
		Object: "list",
		Data:   items,
		Model:  "text-embedding-ada-002",
	})
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "server_error",
		},
	})
}

// newTestEmbedder points an OpenAIEmbedder at the given handler with fast
// retry settings.
func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *OpenAIEmbedder {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	client := openai.NewClientWithConfig(cfg)

	embedder, err := NewOpenAIEmbedder(client, EmbedderConfig{
		RequestsPerSecond: 1000,
		Burst:             1000,
		MaxRetries:        3,
		RetryBackoff:      time.Millisecond,
	}, logging.New(logging.Config{Quiet: true}))
	require.NoError(t, err)
	return embedder
}

func TestNewOpenAIEmbedder(t *testing.T) {
	log := logging.New(logging.Config{Quiet: true})

	t.Run("nil client returns error", func(t *testing.T) {
		_, err := NewOpenAIEmbedder(nil, DefaultEmbedderConfig(), log)
		assert.ErrorIs(t, err, ErrNilClient)
	})

	t.Run("nil logger returns error", func(t *testing.T) {
		_, err := NewOpenAIEmbedder(openai.NewClient("k"), DefaultEmbedderConfig(), nil)
		assert.ErrorIs(t, err, ErrNilLogger)
	})

	t.Run("zero config takes defaults", func(t *testing.T) {
		embedder, err := NewOpenAIEmbedder(openai.NewClient("k"), EmbedderConfig{}, log)
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-ada-002", embedder.config.Model)
		assert.Equal(t, 3, embedder.config.MaxRetries)
	})
}

func TestOpenAIEmbedder_EmbedTexts(t *testing.T) {
	t.Run("returns vectors in input order", func(t *testing.T) {
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			// Deliberately out of order; placement must follow index.
			writeEmbeddings(w, []embeddingItem{
				{Object: "embedding", Embedding: []float32{0.3, 0.4}, Index: 1},
				{Object: "embedding", Embedding: []float32{0.1, 0.2}, Index: 0},
			})
		})

		vectors, err := embedder.EmbedTexts(context.Background(), []string{"first", "second"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
		assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
	})

	t.Run("empty input makes no request", func(t *testing.T) {
		var calls atomic.Int32
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeEmbeddings(w, nil)
		})

		vectors, err := embedder.EmbedTexts(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vectors)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("retries throttled requests", func(t *testing.T) {
		var calls atomic.Int32
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				writeAPIError(w, http.StatusTooManyRequests, "rate limited")
				return
			}
			writeEmbeddings(w, []embeddingItem{
				{Object: "embedding", Embedding: []float32{1}, Index: 0},
			})
		})

		vectors, err := embedder.EmbedTexts(context.Background(), []string{"text"})
		require.NoError(t, err)
		assert.Equal(t, []float32{1}, vectors[0])
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("retries server errors until exhausted", func(t *testing.T) {
		var calls atomic.Int32
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeAPIError(w, http.StatusInternalServerError, "boom")
		})

		_, err := embedder.EmbedTexts(context.Background(), []string{"text"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 3 retries")
		// Initial attempt plus three retries.
		assert.Equal(t, int32(4), calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeAPIError(w, http.StatusBadRequest, "bad input")
		})

		_, err := embedder.EmbedTexts(context.Background(), []string{"text"})
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("vector count mismatch is an error", func(t *testing.T) {
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			writeEmbeddings(w, []embeddingItem{
				{Object: "embedding", Embedding: []float32{1}, Index: 0},
			})
		})

		_, err := embedder.EmbedTexts(context.Background(), []string{"one", "two"})
		assert.ErrorIs(t, err, ErrVectorCountMismatch)
	})

	t.Run("empty vector is an error", func(t *testing.T) {
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			writeEmbeddings(w, []embeddingItem{
				{Object: "embedding", Embedding: []float32{}, Index: 0},
			})
		})

		_, err := embedder.EmbedTexts(context.Background(), []string{"one"})
		assert.ErrorIs(t, err, ErrEmptyVector)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
			cancel()
			writeAPIError(w, http.StatusInternalServerError, "boom")
		})

		_, err := embedder.EmbedTexts(ctx, []string{"text"})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestOpenAIEmbedder_EmbedQuery(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, []embeddingItem{
			{Object: "embedding", Embedding: []float32{0.5, 0.6}, Index: 0},
		})
	})

	vector, err := embedder.EmbedQuery(context.Background(), "Is Mars cold?")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6}, vector)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"throttled", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"server error", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, true},
		{"bad gateway", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, false},
		{"unauthorized", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, false},
		{"transport error", errors.New("connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}

func TestRetryDelay(t *testing.T) {
	base := 200 * time.Millisecond
	assert.Equal(t, 200*time.Millisecond, retryDelay(base, 0))
	assert.Equal(t, 400*time.Millisecond, retryDelay(base, 1))
	assert.Equal(t, 800*time.Millisecond, retryDelay(base, 2))
	assert.Equal(t, 5*time.Second, retryDelay(base, 10))
	assert.Equal(t, 200*time.Millisecond, retryDelay(base, -1))
}
