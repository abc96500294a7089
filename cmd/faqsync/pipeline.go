// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/FaqSync/services/faq/corpus"
	"github.com/AleutianAI/FaqSync/services/faq/embed"
	"github.com/AleutianAI/FaqSync/services/faq/store"
)

// pipeline bundles the wired dependencies a subcommand needs: the OpenAI
// client, the embedder (optionally cache-backed), the document store, and
// the corpus scanner.
type pipeline struct {
	client    *openai.Client
	embedder  embed.Embedder
	documents *store.WeaviateStore
	scanner   *corpus.Scanner
	cache     *embed.EmbeddingCache
}

// Close releases the embedding cache, if one was opened.
func (p *pipeline) Close() {
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			logger.Warn("Closing embedding cache failed", "error", err)
		}
	}
}

// buildPipeline wires the loaded configuration into runnable components.
//
// Description:
//
//	Resolves the OpenAI API key, builds the embedder (wrapping it in the
//	persistent cache when openai.cache_dir is set), connects the Weaviate
//	document store, and creates the corpus scanner. Callers must Close
//	the returned pipeline.
//
// Outputs:
//
//	*pipeline - The wired components
//	error - Non-nil if the key is missing or any component rejects its config
func buildPipeline() (*pipeline, error) {
	apiKey, err := cfg.OpenAIAPIKey()
	if err != nil {
		return nil, err
	}
	client := openai.NewClient(apiKey)

	base, err := embed.NewOpenAIEmbedder(client, embed.EmbedderConfig{
		Model:             cfg.OpenAI.EmbeddingModel,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		Burst:             cfg.OpenAI.Burst,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("building embedder: %w", err)
	}

	var embedder embed.Embedder = base
	var cache *embed.EmbeddingCache
	if cfg.OpenAI.CacheDir != "" {
		cache, err = embed.NewEmbeddingCache(embed.CacheConfig{Dir: cfg.OpenAI.CacheDir}, logger)
		if err != nil {
			return nil, fmt.Errorf("opening embedding cache: %w", err)
		}
		caching, err := embed.NewCachingEmbedder(base, cache, logger)
		if err != nil {
			cache.Close()
			return nil, fmt.Errorf("building caching embedder: %w", err)
		}
		embedder = caching
	}

	documents, err := store.NewWeaviateStore(store.StoreConfig{
		URL:       cfg.Store.URL,
		ClassName: cfg.Store.ClassName,
		BatchSize: cfg.Store.BatchSize,
		PageSize:  cfg.Store.PageSize,
	}, embedder, logger)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, fmt.Errorf("connecting document store: %w", err)
	}

	scanner, err := corpus.NewScanner(corpus.ScannerConfig{Extension: cfg.Corpus.Extension}, logger)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, fmt.Errorf("building scanner: %w", err)
	}

	return &pipeline{
		client:    client,
		embedder:  embedder,
		documents: documents,
		scanner:   scanner,
		cache:     cache,
	}, nil
}

// corpusDir returns the corpus directory, preferring the --data-dir flag
// over the configuration.
func corpusDir() string {
	if dataDir != "" {
		return dataDir
	}
	return cfg.Corpus.DataDir
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
