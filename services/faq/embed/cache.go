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
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/FaqSync/pkg/logging"
)

// CacheConfig holds configuration for the embedding cache.
type CacheConfig struct {
	// Dir is the directory for BadgerDB files.
	// Required unless InMemory is true.
	Dir string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	// Default: false. A lost cache entry only costs one re-embed.
	SyncWrites bool
}

// InMemoryCacheConfig returns configuration optimized for testing.
func InMemoryCacheConfig() CacheConfig {
	return CacheConfig{
		InMemory:   true,
		SyncWrites: false,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// EmbeddingCache is a content-addressed vector cache on BadgerDB.
//
// Keys are the SHA-256 of the exact text that was embedded, so an entry can
// never go stale: any change to the text is a different key. Values are the
// raw vector, little-endian float32s.
type EmbeddingCache struct {
	db  *badger.DB
	log *logging.Logger
}

// NewEmbeddingCache opens the cache database.
//
// Description:
//
//	Opens a BadgerDB at the configured directory, creating it if needed,
//	or in memory when InMemory is set. Badger's internal logging is
//	routed through the injected logger at its own levels.
//
// Inputs:
//
//	config - Cache configuration. Dir is required unless InMemory.
//	log - Logger. Must not be nil.
//
// Outputs:
//
//	*EmbeddingCache - The opened cache. Caller must Close when done.
//	error - Non-nil if the database cannot be opened
func NewEmbeddingCache(config CacheConfig, log *logging.Logger) (*EmbeddingCache, error) {
	if log == nil {
		return nil, ErrNilLogger
	}
	if !config.InMemory && config.Dir == "" {
		return nil, ErrCachePath
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(config.Dir, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", config.Dir, err)
		}
		opts = badger.DefaultOptions(config.Dir)
	}
	opts = opts.WithSyncWrites(config.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)
	opts = opts.WithLogger(&badgerLogger{logger: log.Slog()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	return &EmbeddingCache{db: db, log: log}, nil
}

// Get looks up the cached vector for a text. The second result reports
// whether the entry was present.
func (c *EmbeddingCache) Get(text string) ([]float32, bool, error) {
	key := cacheKey(text)
	var vector []float32

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := decodeVector(val)
			if err != nil {
				return err
			}
			vector = decoded
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache read: %w", err)
	}
	return vector, true, nil
}

// Set stores the vector for a text.
func (c *EmbeddingCache) Set(text string, vector []float32) error {
	key := cacheKey(text)
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, encodeVector(vector))
	})
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

// Close releases the database.
func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}

// cacheKey derives the storage key for a text.
func cacheKey(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return sum[:]
}

// encodeVector packs a vector as little-endian float32s.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks a vector encoded by encodeVector.
func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("malformed vector value: %d bytes", len(buf))
	}
	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vector, nil
}

// CachingEmbedder wraps an Embedder with the cache.
//
// Batch embedding consults the cache per text and only sends misses to the
// wrapped provider; fresh vectors are written back. Query embedding always
// goes to the provider, since ad-hoc questions rarely repeat.
type CachingEmbedder struct {
	provider Embedder
	cache    *EmbeddingCache
	log      *logging.Logger
}

// NewCachingEmbedder wraps provider with cache.
func NewCachingEmbedder(provider Embedder, cache *EmbeddingCache, log *logging.Logger) (*CachingEmbedder, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if cache == nil {
		return nil, ErrNilCache
	}
	if log == nil {
		return nil, ErrNilLogger
	}
	return &CachingEmbedder{
		provider: provider,
		cache:    cache,
		log:      log,
	}, nil
}

// EmbedTexts vectorizes texts, serving cached entries without a provider
// call. Cache read and write failures degrade to provider calls; they are
// logged and never fail the batch.
func (e *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIndexes []int

	for i, text := range texts {
		vector, ok, err := e.cache.Get(text)
		if err != nil {
			e.log.Warn("Embedding cache read failed", "error", err)
		}
		if ok {
			vectors[i] = vector
			continue
		}
		missTexts = append(missTexts, text)
		missIndexes = append(missIndexes, i)
	}

	if len(missTexts) > 0 {
		fresh, err := e.provider.EmbedTexts(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(fresh) != len(missTexts) {
			return nil, fmt.Errorf("%w: %d texts, %d vectors",
				ErrVectorCountMismatch, len(missTexts), len(fresh))
		}
		for j, vector := range fresh {
			vectors[missIndexes[j]] = vector
			if err := e.cache.Set(missTexts[j], vector); err != nil {
				e.log.Warn("Embedding cache write failed", "error", err)
			}
		}
	}

	e.log.Debug("Embedded batch through cache",
		"texts", len(texts),
		"hits", len(texts)-len(missTexts),
		"misses", len(missTexts))
	return vectors, nil
}

// EmbedQuery vectorizes a single query through the provider, bypassing
// the cache.
func (e *CachingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.provider.EmbedQuery(ctx, text)
}

var _ Embedder = (*CachingEmbedder)(nil)
