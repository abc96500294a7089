// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sync

import (
	"context"
	"fmt"
	"sort"

	"github.com/AleutianAI/FaqSync/pkg/logging"
	"github.com/AleutianAI/FaqSync/services/faq/corpus"
	"github.com/AleutianAI/FaqSync/services/faq/store"
)

// Diff computes the minimal mutation set between corpus and store.
//
// Description:
//
//	ToAdd is every corpus hash absent from the store, ToDelete every
//	store hash absent from the corpus. The two sets are disjoint by
//	construction. Both come back sorted.
//
// Inputs:
//
//	corpusSnap - Content hashes derived from the files
//	storeSnap - Content hashes currently stored
//
// Outputs:
//
//	Plan - Sorted hash sets to insert and delete
func Diff(corpusSnap corpus.CorpusSnapshot, storeSnap store.StoreSnapshot) Plan {
	var plan Plan
	for hash := range corpusSnap {
		if _, ok := storeSnap[hash]; !ok {
			plan.ToAdd = append(plan.ToAdd, hash)
		}
	}
	for hash := range storeSnap {
		if _, ok := corpusSnap[hash]; !ok {
			plan.ToDelete = append(plan.ToDelete, hash)
		}
	}
	sort.Strings(plan.ToAdd)
	sort.Strings(plan.ToDelete)
	return plan
}

// Reconciler applies mutation plans through a document store.
type Reconciler struct {
	store store.DocumentStore
	log   *logging.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(documents store.DocumentStore, log *logging.Logger) (*Reconciler, error) {
	if documents == nil {
		return nil, ErrNilStore
	}
	if log == nil {
		return nil, ErrNilLogger
	}
	return &Reconciler{
		store: documents,
		log:   log,
	}, nil
}

// Apply executes a plan: deletions first, then insertions.
//
// Description:
//
//	An empty plan short-circuits without touching the store. Otherwise
//	stale hashes are deleted, then documents are built from the corpus
//	records behind the ToAdd hashes and inserted. Deletions are never
//	rolled back when insertion fails afterwards; the next run's diff
//	re-proposes whatever is missing.
//
// Inputs:
//
//	ctx - Context for cancellation
//	plan - Mutation sets, normally from Diff
//	corpusSnap - The snapshot the plan was computed against
//
// Outputs:
//
//	*store.DeleteStats - Deletion counters, nil if deletion never ran
//	*store.InsertStats - Insertion counters, nil if insertion never ran
//	error - Non-nil when a store call fails or the snapshot does not
//	        contain a planned hash
func (r *Reconciler) Apply(ctx context.Context, plan Plan, corpusSnap corpus.CorpusSnapshot) (*store.DeleteStats, *store.InsertStats, error) {
	if plan.Empty() {
		r.log.Info("Store already matches corpus, nothing to apply")
		return &store.DeleteStats{}, &store.InsertStats{}, nil
	}

	deleteStats, err := r.store.DeleteByIdentifiers(ctx, plan.ToDelete)
	if err != nil {
		return deleteStats, nil, fmt.Errorf("applying deletions: %w", err)
	}

	docs := make([]store.Document, 0, len(plan.ToAdd))
	for _, hash := range plan.ToAdd {
		record, ok := corpusSnap[hash]
		if !ok {
			return deleteStats, nil, fmt.Errorf("corpus snapshot is missing planned record %s", hash)
		}
		docs = append(docs, store.NewDocument(record, hash))
	}

	insertStats, err := r.store.InsertDocuments(ctx, docs)
	if err != nil {
		return deleteStats, insertStats, fmt.Errorf("applying insertions: %w", err)
	}
	return deleteStats, insertStats, nil
}
