// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists QnA documents in Weaviate and reads them back by
// content hash.
//
// Every stored object carries its pair's content hash in the qna_hash
// property, and its object ID is derived deterministically from that hash.
// Enumeration returns the hash-to-object-ID mapping the reconciler diffs
// against the corpus; deletes and inserts operate on the hash sets the
// reconciler selects.
package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/AleutianAI/FaqSync/services/faq/corpus"
)

// Sentinel errors for the store package.
var (
	// ErrNilEmbedder indicates the injected embedder is nil.
	ErrNilEmbedder = errors.New("embedder must not be nil")

	// ErrNilLogger indicates the injected logger is nil.
	ErrNilLogger = errors.New("logger must not be nil")

	// ErrStoreNotReady indicates the Weaviate instance did not answer its
	// readiness check.
	ErrStoreNotReady = errors.New("document store is not ready")
)

// Document is one QnA pair shaped for storage.
type Document struct {
	// ContentHash is the pair's content hash (see corpus.HashPair).
	ContentHash string `json:"qna_hash"`

	// Body is the text that gets embedded and stored as the document
	// content. It includes the subject, so two pairs with equal hashes
	// can still carry different bodies.
	Body string `json:"content"`

	// FilePath is the corpus file the pair was parsed from.
	FilePath string `json:"file_path"`

	// Subject is the subject line of the source file.
	Subject string `json:"subject"`

	// Question is the question text.
	Question string `json:"question"`
}

// NewDocument shapes a corpus record for storage under the given hash.
func NewDocument(record corpus.QnaRecord, contentHash string) Document {
	return Document{
		ContentHash: contentHash,
		Body: fmt.Sprintf("Subject: %s\nQuestion: %s\nAnswer: %s",
			record.Subject, record.Question, record.Answer),
		FilePath: record.SourcePath,
		Subject:  record.Subject,
		Question: record.Question,
	}
}

// ObjectID derives the document's Weaviate object ID.
//
// Weaviate requires UUIDs, so the ID is a UUID built from the first 16
// bytes of the SHA-256 of the content hash. The same pair always maps to
// the same object, which makes inserts idempotent.
func (d Document) ObjectID() strfmt.UUID {
	hash := sha256.Sum256([]byte(d.ContentHash))
	id, _ := uuid.FromBytes(hash[:16])
	return strfmt.UUID(id.String())
}

// ToMap returns the document's Weaviate properties.
func (d Document) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"content":   d.Body,
		"file_path": d.FilePath,
		"subject":   d.Subject,
		"question":  d.Question,
		"qna_hash":  d.ContentHash,
	}
}

// StoreSnapshot maps stored content hashes to Weaviate object IDs.
//
// When the store holds several objects with the same hash, the snapshot
// keeps the last one read. The reconciler deletes by hash, so every copy
// is removed regardless of which ID the snapshot kept.
type StoreSnapshot map[string]string

// Hashes returns the snapshot's content hashes in sorted order.
func (s StoreSnapshot) Hashes() []string {
	hashes := make([]string, 0, len(s))
	for hash := range s {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)
	return hashes
}

// EnumerateStats contains counters from a store enumeration.
type EnumerateStats struct {
	// Objects is the number of stored objects read.
	Objects int `json:"objects"`

	// MissingHash is the number of objects skipped because they carry
	// no qna_hash property.
	MissingHash int `json:"missing_hash"`

	// DuplicateHashes is the number of objects whose hash was already
	// seen; the later read wins.
	DuplicateHashes int `json:"duplicate_hashes"`
}

// DeleteStats contains counters from a batch delete.
type DeleteStats struct {
	// Requested is the number of content hashes submitted for deletion.
	Requested int `json:"requested"`

	// Matched is the number of stored objects the delete filters matched.
	// Duplicates in the store make this exceed Requested.
	Matched int `json:"matched"`

	// Successful is the number of objects Weaviate deleted.
	Successful int `json:"successful"`

	// Failed is the number of matched objects Weaviate failed to delete.
	Failed int `json:"failed"`
}

// InsertStats contains counters from a batch insert.
type InsertStats struct {
	// Requested is the number of documents submitted.
	Requested int `json:"requested"`

	// Inserted is the number of documents the store accepted.
	Inserted int `json:"inserted"`

	// Failed is the number of documents the store rejected.
	Failed int `json:"failed"`

	// Errors contains per-object error messages for rejected documents.
	Errors []string `json:"errors,omitempty"`
}

// SearchResult is one document returned by a vector search.
type SearchResult struct {
	// Content is the stored document body.
	Content string `json:"content"`

	// FilePath is the corpus file the document came from.
	FilePath string `json:"file_path"`

	// Subject is the subject line of the source file.
	Subject string `json:"subject"`

	// Question is the stored question text.
	Question string `json:"question"`

	// ContentHash is the document's content hash.
	ContentHash string `json:"qna_hash"`

	// Certainty is Weaviate's normalized similarity in [0, 1].
	Certainty float64 `json:"certainty"`
}

// DocumentStore is the persistence surface the reconciler works against.
//
// Implementations must treat the content hash as the document key:
// enumeration reports the hashes currently stored, deletion removes every
// object carrying a given hash, and insertion stores documents under IDs
// derived from their hashes.
type DocumentStore interface {
	// EnumerateIdentifiers reads the hash-to-object-ID mapping for every
	// stored document. An empty store yields an empty snapshot, not an
	// error.
	EnumerateIdentifiers(ctx context.Context) (StoreSnapshot, *EnumerateStats, error)

	// DeleteByIdentifiers removes every object whose hash is in ids.
	// An empty set is a no-op.
	DeleteByIdentifiers(ctx context.Context, ids []string) (*DeleteStats, error)

	// InsertDocuments embeds and stores the given documents. An empty
	// slice is a no-op. On partial failure the returned stats carry
	// per-object errors while err stays nil; err is non-nil only when a
	// whole batch could not be submitted.
	InsertDocuments(ctx context.Context, docs []Document) (*InsertStats, error)
}
