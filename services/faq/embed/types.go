// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package embed turns text into vectors for the document store.
//
// The OpenAI-backed implementation batches texts per request, throttles with
// a token-bucket rate limiter, and retries throttled or failed calls with
// exponential backoff. An optional BadgerDB cache keyed by the hash of the
// exact text keeps re-syncs from re-embedding unchanged documents.
package embed

import (
	"context"
	"errors"
)

// Sentinel errors for the embed package.
var (
	// ErrNilClient indicates the OpenAI client is nil.
	ErrNilClient = errors.New("openai client must not be nil")

	// ErrNilLogger indicates the injected logger is nil.
	ErrNilLogger = errors.New("logger must not be nil")

	// ErrNilProvider indicates the wrapped embedder is nil.
	ErrNilProvider = errors.New("embedding provider must not be nil")

	// ErrNilCache indicates the embedding cache is nil.
	ErrNilCache = errors.New("embedding cache must not be nil")

	// ErrVectorCountMismatch indicates the provider returned a different
	// number of vectors than texts submitted.
	ErrVectorCountMismatch = errors.New("provider returned mismatched vector count")

	// ErrEmptyVector indicates the provider returned an empty vector.
	ErrEmptyVector = errors.New("provider returned an empty vector")

	// ErrCachePath indicates the cache directory is unset for a
	// persistent cache.
	ErrCachePath = errors.New("cache directory must not be empty")
)

// Embedder converts text into embedding vectors.
type Embedder interface {
	// EmbedTexts vectorizes a batch of texts. The result has one vector
	// per input text, in input order. An empty input returns (nil, nil).
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery vectorizes a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
