// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package chat answers questions against the synced FAQ store.
//
// The assistant embeds the question, retrieves the nearest stored
// documents, and asks the chat model to answer from that context alone.
// Every answer carries the documents that backed it so the caller can
// render a sources list.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/FaqSync/services/faq/store"
)

// Sentinel errors for the chat package.
var (
	// ErrNilClient indicates the injected OpenAI client is nil.
	ErrNilClient = errors.New("openai client must not be nil")

	// ErrNilEmbedder indicates the injected embedder is nil.
	ErrNilEmbedder = errors.New("embedder must not be nil")

	// ErrNilRetriever indicates the injected retriever is nil.
	ErrNilRetriever = errors.New("retriever must not be nil")

	// ErrNilLogger indicates the injected logger is nil.
	ErrNilLogger = errors.New("logger must not be nil")

	// ErrEmptyQuestion indicates the question was blank.
	ErrEmptyQuestion = errors.New("question must not be empty")
)

// Retriever finds stored documents near a query vector.
// *store.WeaviateStore implements it.
type Retriever interface {
	Search(ctx context.Context, vector []float32, limit int) ([]store.SearchResult, error)
}

// Source identifies one retrieved document backing an answer.
type Source struct {
	// Index is the 1-based rank in the retrieval order.
	Index int `json:"index"`

	// FileName is the base name of the corpus file.
	FileName string `json:"file_name"`

	// Subject is the stored subject line.
	Subject string `json:"subject"`

	// Question is the stored question text.
	Question string `json:"question"`

	// Score is the retrieval certainty in [0, 1].
	Score float64 `json:"score"`
}

// Answer is the assistant's reply with its supporting documents.
type Answer struct {
	// Text is the answer text.
	Text string `json:"text"`

	// Sources lists the retrieved documents in rank order. Empty when
	// nothing was retrieved.
	Sources []Source `json:"sources,omitempty"`
}

// Render returns the answer text followed by a numbered sources block,
// or just the text when no documents backed it.
func (a *Answer) Render() string {
	if len(a.Sources) == 0 {
		return a.Text
	}

	var b strings.Builder
	b.WriteString(a.Text)
	b.WriteString("\n\nSources:\n")
	for _, src := range a.Sources {
		fmt.Fprintf(&b, "%d. %s (score: %.3f)\n   Subject: %s\n   Q: %s\n",
			src.Index, src.FileName, src.Score, src.Subject, src.Question)
	}
	return strings.TrimRight(b.String(), "\n")
}
