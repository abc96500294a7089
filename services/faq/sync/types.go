// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sync keeps the document store aligned with the FAQ corpus.
//
// A run rebuilds the corpus snapshot from the files, reads the store's
// current hash set, and applies the minimal delete/insert plan that makes
// the two key sets equal. Runs are idempotent: an unchanged corpus yields
// an empty plan, and a run interrupted anywhere leaves a state the next
// run repairs by recomputing the same diff.
package sync

import (
	"errors"
	"time"

	"github.com/AleutianAI/FaqSync/services/faq/corpus"
)

// Sentinel errors for the sync package.
var (
	// ErrNilScanner indicates the injected corpus scanner is nil.
	ErrNilScanner = errors.New("scanner must not be nil")

	// ErrNilStore indicates the injected document store is nil.
	ErrNilStore = errors.New("document store must not be nil")

	// ErrNilLogger indicates the injected logger is nil.
	ErrNilLogger = errors.New("logger must not be nil")

	// ErrNoDataDir indicates the run was configured without a corpus
	// directory.
	ErrNoDataDir = errors.New("data directory is required")
)

// Outcome classifies a reconciliation run.
type Outcome string

const (
	// OutcomeSuccess means the store converged with nothing skipped.
	OutcomeSuccess Outcome = "success"

	// OutcomeDegraded means the run converged as far as it could but
	// skipped unreadable files or lost part of an insert batch. The next
	// run re-proposes whatever is still missing.
	OutcomeDegraded Outcome = "degraded"

	// OutcomeFatal means the run could not reconcile at all: the data
	// directory is missing or the store is unreachable.
	OutcomeFatal Outcome = "fatal"
)

// Plan is the minimal mutation set that makes the store match the corpus.
//
// Both sides are sorted so logs and tests see stable output regardless of
// map iteration order.
type Plan struct {
	// ToAdd holds content hashes present in the corpus but not the store.
	ToAdd []string `json:"to_add"`

	// ToDelete holds content hashes present in the store but not the
	// corpus.
	ToDelete []string `json:"to_delete"`
}

// Empty reports whether the plan carries no mutations.
func (p Plan) Empty() bool {
	return len(p.ToAdd) == 0 && len(p.ToDelete) == 0
}

// RunReport summarizes one reconciliation run.
//
// A report is always produced, even when the run fails early; counters
// hold whatever was gathered before the failure.
type RunReport struct {
	// Outcome classifies the run.
	Outcome Outcome `json:"outcome"`

	// Scan holds the corpus scan counters, nil when the scan never ran.
	Scan *corpus.ScanStats `json:"scan,omitempty"`

	// StoreObjects is the number of stored objects enumerated before
	// the diff.
	StoreObjects int `json:"store_objects"`

	// PlannedAdds and PlannedDeletes are the diff set sizes.
	PlannedAdds    int `json:"planned_adds"`
	PlannedDeletes int `json:"planned_deletes"`

	// Deleted is the number of stored objects removed.
	Deleted int `json:"deleted"`

	// Inserted is the number of documents the store accepted.
	Inserted int `json:"inserted"`

	// InsertFailures is the number of documents the store rejected.
	InsertFailures int `json:"insert_failures"`

	// DryRun marks a run that computed the plan but applied nothing.
	DryRun bool `json:"dry_run,omitempty"`

	// Discrepancies holds content hashes still misaligned after the
	// run, sorted. Populated by the post-sync verification and reported
	// as a warning, never as a failure.
	Discrepancies []string `json:"discrepancies,omitempty"`

	// Error carries the failure message when Outcome is OutcomeFatal.
	Error string `json:"error,omitempty"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`
}
