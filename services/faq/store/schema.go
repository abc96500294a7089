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

	"github.com/weaviate/weaviate/entities/models"
)

// classSchema returns the Weaviate class definition for QnA documents.
//
// Vectorization is "none" because vectors are computed client-side before
// insert. The qna_hash property is filterable with field tokenization so
// deletes can match exact hashes.
func classSchema(className string) *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       className,
		Description: "Question/answer pairs keyed by content hash",
		Vectorizer:  "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{
			IndexTimestamps: true,
		},
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "Document body: subject, question, and answer",
				Tokenization: "word",
			},
			{
				Name:            "file_path",
				DataType:        []string{"text"},
				Description:     "Corpus file the pair was parsed from",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "subject",
				DataType:     []string{"text"},
				Description:  "Subject line of the source file",
				Tokenization: "word",
			},
			{
				Name:         "question",
				DataType:     []string{"text"},
				Description:  "Question text",
				Tokenization: "word",
			},
			{
				Name:            "qna_hash",
				DataType:        []string{"text"},
				Description:     "SHA-256 content hash of the question/answer pair",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
		},
	}
}

// EnsureSchema creates the document class if it does not exist.
//
// Description:
//
//	Checks whether the configured class is already defined and creates it
//	with classSchema otherwise. Safe to call on every run.
//
// Inputs:
//
//	ctx - Context for cancellation
//
// Outputs:
//
//	error - Non-nil if schema creation fails
func (s *WeaviateStore) EnsureSchema(ctx context.Context) error {
	_, err := s.client.Schema().ClassGetter().
		WithClassName(s.config.ClassName).
		Do(ctx)
	if err == nil {
		s.log.Info("Weaviate class already exists", "class", s.config.ClassName)
		return nil
	}

	s.log.Info("Creating Weaviate class", "class", s.config.ClassName)
	schema := classSchema(s.config.ClassName)
	if err := s.client.Schema().ClassCreator().WithClass(schema).Do(ctx); err != nil {
		return fmt.Errorf("creating class %s: %w", s.config.ClassName, err)
	}

	s.log.Info("Weaviate class created", "class", s.config.ClassName)
	return nil
}

// DropClass deletes the document class and everything stored in it.
//
// Description:
//
//	Removes the configured class from the Weaviate schema. Used by the
//	store wipe command; the next sync recreates the class and reseeds it
//	from the corpus.
//
// Inputs:
//
//	ctx - Context for cancellation
//
// Outputs:
//
//	error - Non-nil if deletion fails
func (s *WeaviateStore) DropClass(ctx context.Context) error {
	if err := s.client.Schema().ClassDeleter().
		WithClassName(s.config.ClassName).
		Do(ctx); err != nil {
		return fmt.Errorf("deleting class %s: %w", s.config.ClassName, err)
	}

	s.log.Info("Weaviate class deleted", "class", s.config.ClassName)
	return nil
}
