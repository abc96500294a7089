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
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/FaqSync/pkg/logging"
)

// EmbedderConfig configures the OpenAI embedder.
type EmbedderConfig struct {
	// Model is the embeddings model name.
	// Default: "text-embedding-ada-002"
	Model string

	// RequestsPerSecond throttles calls to the provider.
	// Default: 5
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	// Default: 5
	Burst int

	// MaxRetries is the number of retries after a throttled or failed
	// request. The first attempt is not a retry.
	// Default: 3
	MaxRetries int

	// RetryBackoff is the initial backoff between retries. Doubles per
	// attempt, capped at 5s.
	// Default: 200ms
	RetryBackoff time.Duration
}

// DefaultEmbedderConfig returns sensible defaults.
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		Model:             "text-embedding-ada-002",
		RequestsPerSecond: 5,
		Burst:             5,
		MaxRetries:        3,
		RetryBackoff:      200 * time.Millisecond,
	}
}

// applyDefaults fills in zero values with defaults.
func (c *EmbedderConfig) applyDefaults() {
	defaults := DefaultEmbedderConfig()
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = defaults.Burst
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaults.RetryBackoff
	}
}

// OpenAIEmbedder vectorizes text through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client  *openai.Client
	config  EmbedderConfig
	limiter *rate.Limiter
	log     *logging.Logger
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI API.
//
// Description:
//
//	Creates an OpenAIEmbedder with request throttling and retry. The
//	client carries the credentials; this package never sees the key.
//
// Inputs:
//
//	client - OpenAI client. Must not be nil.
//	config - Embedder configuration. Zero fields take defaults.
//	log - Logger. Must not be nil.
//
// Outputs:
//
//	*OpenAIEmbedder - The configured embedder
//	error - Non-nil if client or log is nil
func NewOpenAIEmbedder(client *openai.Client, config EmbedderConfig, log *logging.Logger) (*OpenAIEmbedder, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if log == nil {
		return nil, ErrNilLogger
	}
	config.applyDefaults()
	return &OpenAIEmbedder{
		client:  client,
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		log:     log,
	}, nil
}

// EmbedTexts vectorizes a batch of texts in a single provider call.
//
// Description:
//
//	Submits all texts in one embeddings request and returns the vectors
//	in input order. Requests are throttled by the rate limiter. Throttled
//	(429) and server (5xx) responses are retried with exponential backoff;
//	other API errors fail immediately.
//
// Inputs:
//
//	ctx - Context for cancellation, honored between retries
//	texts - Texts to vectorize
//
// Outputs:
//
//	[][]float32 - One vector per text, in input order
//	error - Non-nil if the provider fails after retries
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.config.Model),
	}

	var resp openai.EmbeddingResponse
	var err error
	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(e.config.RetryBackoff, attempt-1)
			e.log.Warn("Retrying embeddings request",
				"attempt", attempt, "delay", delay, "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err = e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err = e.client.CreateEmbeddings(ctx, req)
		if err == nil {
			break
		}
		if !retryable(err) {
			return nil, fmt.Errorf("embeddings request: %w", err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("embeddings request after %d retries: %w", e.config.MaxRetries, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: %d texts, %d vectors",
			ErrVectorCountMismatch, len(texts), len(resp.Data))
	}

	// The API reports each vector's input position; place by index rather
	// than trusting response order.
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrVectorCountMismatch, item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: position %d", ErrEmptyVector, i)
		}
	}

	e.log.Debug("Embedded batch", "texts", len(texts), "dim", len(vectors[0]))
	return vectors, nil
}

// EmbedQuery vectorizes a single query string.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// retryable reports whether the request should be attempted again.
// Throttling and server-side failures are retryable; other API errors
// (bad request, auth) are not. Transport errors are retryable.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return true
}

// retryDelay computes exponential backoff capped at 5s.
func retryDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
