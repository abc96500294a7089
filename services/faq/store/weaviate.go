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
	"fmt"
	"sort"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/AleutianAI/FaqSync/pkg/logging"
	"github.com/AleutianAI/FaqSync/services/faq/embed"
)

// WeaviateStore persists QnA documents in a Weaviate class.
//
// Vectors are computed client-side through the injected embedder, one
// batch per insert chunk. The store assumes a single writer; concurrent
// writers can interleave deletes and inserts.
type WeaviateStore struct {
	client   *weaviate.Client
	config   StoreConfig
	embedder embed.Embedder
	log      *logging.Logger
}

var _ DocumentStore = (*WeaviateStore)(nil)

// NewWeaviateStore creates a store backed by a Weaviate instance.
//
// Description:
//
//	Builds the client without contacting the server, so construction
//	succeeds even when Weaviate is down. Call Ready before the first
//	operation to find out.
//
// Inputs:
//
//	config - Store configuration. Zero fields get defaults.
//	embedder - Computes document vectors before insert
//	log - Structured logger
//
// Outputs:
//
//	*WeaviateStore - Ready-to-use store
//	error - Non-nil if the config is invalid or a dependency is nil
func NewWeaviateStore(config StoreConfig, embedder embed.Embedder, log *logging.Logger) (*WeaviateStore, error) {
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	if log == nil {
		return nil, ErrNilLogger
	}

	scheme, host := parseURL(config.URL)
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   host,
		Scheme: scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	return &WeaviateStore{
		client:   client,
		config:   config,
		embedder: embedder,
		log:      log,
	}, nil
}

// Ready reports whether the Weaviate instance answers its readiness probe.
// Returns an error wrapping ErrStoreNotReady when it does not.
func (s *WeaviateStore) Ready(ctx context.Context) error {
	ready, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreNotReady, err)
	}
	if !ready {
		return ErrStoreNotReady
	}
	return nil
}

// EnumerateIdentifiers reads the hash-to-object-ID mapping for every
// stored document.
//
// Description:
//
//	Pages through the configured class reading qna_hash and the object
//	ID. Objects without a qna_hash are counted and skipped. When two
//	objects carry the same hash the later read overwrites the earlier
//	one; deletes match by hash, so both copies still go away.
//
//	Limit/offset pagination is bounded by Weaviate's
//	QUERY_MAXIMUM_RESULTS (10000 by default): a class larger than that
//	enumerates partially and the diff over-plans inserts. Corpora near
//	that size need the server limit raised or cursor-based pagination.
//
// Inputs:
//
//	ctx - Context for cancellation
//
// Outputs:
//
//	StoreSnapshot - Hash-to-object-ID mapping, empty for an empty class
//	*EnumerateStats - Read counters, non-nil even on error
//	error - Non-nil if a page read fails
func (s *WeaviateStore) EnumerateIdentifiers(ctx context.Context) (StoreSnapshot, *EnumerateStats, error) {
	snapshot := make(StoreSnapshot)
	stats := &EnumerateStats{}

	fields := []graphql.Field{
		{Name: "qna_hash"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "id"},
		}},
	}

	for offset := 0; ; offset += s.config.PageSize {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		result, err := s.client.GraphQL().Get().
			WithClassName(s.config.ClassName).
			WithFields(fields...).
			WithLimit(s.config.PageSize).
			WithOffset(offset).
			Do(ctx)
		if err != nil {
			return nil, stats, fmt.Errorf("listing documents: %w", err)
		}
		if result.Errors != nil && len(result.Errors) > 0 {
			return nil, stats, fmt.Errorf("listing documents: %s", result.Errors[0].Message)
		}

		data, ok := result.Data["Get"].(map[string]interface{})
		if !ok {
			break
		}
		objects, ok := data[s.config.ClassName].([]interface{})
		if !ok || len(objects) == 0 {
			break
		}

		for _, obj := range objects {
			m, ok := obj.(map[string]interface{})
			if !ok {
				continue // skip malformed objects
			}
			stats.Objects++

			var id string
			if additional, ok := m["_additional"].(map[string]interface{}); ok {
				id = getString(additional, "id")
			}

			hash := getString(m, "qna_hash")
			if hash == "" {
				stats.MissingHash++
				s.log.Warn("Stored document has no qna_hash", "id", id)
				continue
			}
			if previous, exists := snapshot[hash]; exists {
				stats.DuplicateHashes++
				s.log.Warn("Duplicate qna_hash in store, keeping last read",
					"hash", hashPrefix(hash), "id", id, "previous_id", previous)
			}
			snapshot[hash] = id
		}

		if len(objects) < s.config.PageSize {
			break
		}
	}

	s.log.Info("Store enumeration complete",
		"objects", stats.Objects,
		"unique_hashes", len(snapshot),
		"missing_hash", stats.MissingHash,
		"duplicate_hashes", stats.DuplicateHashes)
	return snapshot, stats, nil
}

// DeleteByIdentifiers removes every object whose qna_hash is in ids.
//
// Description:
//
//	Sorts the hashes and deletes them in chunks of BatchSize using a
//	ContainsAny filter, so duplicate objects sharing a hash are all
//	removed. An empty set is a no-op.
//
// Inputs:
//
//	ctx - Context for cancellation
//	ids - Content hashes to delete
//
// Outputs:
//
//	*DeleteStats - Delete counters, non-nil even on error
//	error - Non-nil if a batch could not be submitted
func (s *WeaviateStore) DeleteByIdentifiers(ctx context.Context, ids []string) (*DeleteStats, error) {
	stats := &DeleteStats{}
	if len(ids) == 0 {
		s.log.Info("No stale documents to delete")
		return stats, nil
	}

	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	for start := 0; start < len(sorted); start += s.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		end := start + s.config.BatchSize
		if end > len(sorted) {
			end = len(sorted)
		}
		chunk := sorted[start:end]

		where := filters.Where().
			WithPath([]string{"qna_hash"}).
			WithOperator(filters.ContainsAny).
			WithValueText(chunk...)

		response, err := s.client.Batch().ObjectsBatchDeleter().
			WithClassName(s.config.ClassName).
			WithOutput("minimal").
			WithWhere(where).
			Do(ctx)
		if err != nil {
			return stats, fmt.Errorf("deleting %d documents: %w", len(chunk), err)
		}

		stats.Requested += len(chunk)
		if response != nil && response.Results != nil {
			stats.Matched += int(response.Results.Matches)
			stats.Successful += int(response.Results.Successful)
			stats.Failed += int(response.Results.Failed)
		}
	}

	s.log.Info("Deleted stale documents",
		"requested", stats.Requested,
		"matched", stats.Matched,
		"successful", stats.Successful,
		"failed", stats.Failed)
	return stats, nil
}

// InsertDocuments embeds and stores the given documents.
//
// Description:
//
//	Sorts documents by content hash and inserts them in chunks of
//	BatchSize. Each chunk is embedded in a single provider call, then
//	written with deterministic object IDs so a retried insert lands on
//	the same objects. Per-object failures are counted in the stats; the
//	error return is reserved for batches that could not be submitted
//	at all.
//
// Inputs:
//
//	ctx - Context for cancellation
//	docs - Documents to store
//
// Outputs:
//
//	*InsertStats - Insert counters, non-nil even on error
//	error - Non-nil if embedding or a batch submission fails
func (s *WeaviateStore) InsertDocuments(ctx context.Context, docs []Document) (*InsertStats, error) {
	stats := &InsertStats{}
	if len(docs) == 0 {
		s.log.Info("No new documents to insert")
		return stats, nil
	}

	ordered := make([]Document, len(docs))
	copy(ordered, docs)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ContentHash < ordered[j].ContentHash
	})

	for start := 0; start < len(ordered); start += s.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		end := start + s.config.BatchSize
		if end > len(ordered) {
			end = len(ordered)
		}
		chunk := ordered[start:end]

		bodies := make([]string, len(chunk))
		for i, doc := range chunk {
			bodies[i] = doc.Body
		}
		vectors, err := s.embedder.EmbedTexts(ctx, bodies)
		if err != nil {
			return stats, fmt.Errorf("embedding %d documents: %w", len(chunk), err)
		}
		if len(vectors) != len(chunk) {
			return stats, fmt.Errorf("embedder returned %d vectors for %d documents",
				len(vectors), len(chunk))
		}

		objects := make([]*models.Object, len(chunk))
		for i, doc := range chunk {
			objects[i] = &models.Object{
				Class:      s.config.ClassName,
				ID:         doc.ObjectID(),
				Vector:     vectors[i],
				Properties: doc.ToMap(),
			}
		}

		resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return stats, fmt.Errorf("inserting %d documents: %w", len(chunk), err)
		}

		stats.Requested += len(chunk)
		for _, item := range resp {
			if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
				stats.Inserted++
				continue
			}
			stats.Failed++
			if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
				for _, errItem := range item.Result.Errors.Error {
					stats.Errors = append(stats.Errors, errItem.Message)
					s.log.Warn("Error in batch insert item", "error", errItem.Message)
				}
			} else {
				s.log.Warn("Failed batch insert item, no error provided")
			}
		}
	}

	s.log.Info("Inserted new documents",
		"requested", stats.Requested,
		"inserted", stats.Inserted,
		"failed", stats.Failed)
	return stats, nil
}

// Count returns the number of objects in the document class.
func (s *WeaviateStore) Count(ctx context.Context) (int, error) {
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(s.config.ClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{
			{Name: "count"},
		}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	if result.Errors != nil && len(result.Errors) > 0 {
		return 0, fmt.Errorf("counting documents: %s", result.Errors[0].Message)
	}

	data, ok := result.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	entries, ok := data[s.config.ClassName].([]interface{})
	if !ok || len(entries) == 0 {
		return 0, nil
	}
	entry, ok := entries[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := entry["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	return int(getFloat64(meta, "count")), nil
}

// Search returns the documents nearest to the given query vector.
//
// Certainty comes from Weaviate's _additional block and is normalized
// to [0, 1]. Results arrive ordered nearest first.
func (s *WeaviateStore) Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 3
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "file_path"},
		{Name: "subject"},
		{Name: "question"},
		{Name: "qna_hash"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(s.config.ClassName).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	if result.Errors != nil && len(result.Errors) > 0 {
		return nil, fmt.Errorf("searching documents: %s", result.Errors[0].Message)
	}

	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return []SearchResult{}, nil // No results
	}
	objects, ok := data[s.config.ClassName].([]interface{})
	if !ok {
		return []SearchResult{}, nil // No results
	}

	results := make([]SearchResult, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue // skip malformed objects
		}
		r := SearchResult{
			Content:     getString(m, "content"),
			FilePath:    getString(m, "file_path"),
			Subject:     getString(m, "subject"),
			Question:    getString(m, "question"),
			ContentHash: getString(m, "qna_hash"),
		}
		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			r.Certainty = getFloat64(additional, "certainty")
		}
		results = append(results, r)
	}
	return results, nil
}

// getString safely extracts a string from a map.
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getFloat64 safely extracts a numeric value from a map.
func getFloat64(m map[string]interface{}, key string) float64 {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		}
	}
	return 0
}

// hashPrefix shortens a content hash for log output.
func hashPrefix(hash string) string {
	if len(hash) <= 8 {
		return hash
	}
	return hash[:8]
}
