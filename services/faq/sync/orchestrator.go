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
	"sort"
	"time"

	"github.com/AleutianAI/FaqSync/pkg/logging"
	"github.com/AleutianAI/FaqSync/services/faq/corpus"
	"github.com/AleutianAI/FaqSync/services/faq/store"
)

// Store is the persistence surface a full run needs. *store.WeaviateStore
// implements it.
type Store interface {
	store.DocumentStore

	// Ready reports whether the store answers its readiness probe.
	Ready(ctx context.Context) error

	// EnsureSchema creates the document class if it does not exist.
	EnsureSchema(ctx context.Context) error
}

// OrchestratorConfig configures a reconciliation run.
type OrchestratorConfig struct {
	// DataDir is the corpus directory to scan.
	DataDir string

	// DryRun computes and logs the plan without mutating the store.
	DryRun bool
}

// Orchestrator sequences one reconciliation run: readiness probe, schema
// check, corpus scan, store enumeration, diff, apply, verification.
//
// Runs assume a single writer per store. Concurrent runs can interleave
// deletes and inserts, but every run is idempotent, so a later solo run
// converges the store regardless of interleaving.
type Orchestrator struct {
	scanner    *corpus.Scanner
	store      Store
	reconciler *Reconciler
	config     OrchestratorConfig
	log        *logging.Logger
}

// NewOrchestrator creates an orchestrator.
//
// Description:
//
//	Wires the scanner and store into a runnable pipeline. The store must
//	satisfy the full Store surface, including readiness and schema
//	management.
//
// Inputs:
//
//	config - Run configuration. DataDir is required.
//	scanner - Corpus scanner
//	documents - Document store
//	log - Structured logger
//
// Outputs:
//
//	*Orchestrator - Ready-to-run orchestrator
//	error - Non-nil if a dependency is nil or DataDir is empty
func NewOrchestrator(config OrchestratorConfig, scanner *corpus.Scanner, documents Store, log *logging.Logger) (*Orchestrator, error) {
	if scanner == nil {
		return nil, ErrNilScanner
	}
	if documents == nil {
		return nil, ErrNilStore
	}
	if log == nil {
		return nil, ErrNilLogger
	}
	if config.DataDir == "" {
		return nil, ErrNoDataDir
	}

	reconciler, err := NewReconciler(documents, log)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		scanner:    scanner,
		store:      documents,
		reconciler: reconciler,
		config:     config,
		log:        log,
	}, nil
}

// Run executes one reconciliation pass.
//
// Description:
//
//	Probes the store, ensures the schema, scans the corpus, enumerates
//	the store, then diffs and applies. A dry run stops after logging the
//	plan. Otherwise the store is re-read afterwards and any residual key
//	difference lands in the report as a warning; repeated runs converge.
//	The report is always populated with whatever the run gathered, and
//	the error return is non-nil only for fatal outcomes: missing data
//	directory, unreachable store, or a store call that could not be
//	submitted.
//
// Inputs:
//
//	ctx - Context for cancellation
//
// Outputs:
//
//	*RunReport - Run summary, never nil
//	error - Non-nil when Outcome is OutcomeFatal
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	started := time.Now()
	report := &RunReport{
		Outcome: OutcomeSuccess,
		DryRun:  o.config.DryRun,
	}

	fail := func(err error) (*RunReport, error) {
		report.Outcome = OutcomeFatal
		report.Error = err.Error()
		report.Duration = time.Since(started)
		o.log.Error("Sync run failed", "error", err)
		return report, err
	}

	if err := o.store.Ready(ctx); err != nil {
		return fail(err)
	}
	if err := o.store.EnsureSchema(ctx); err != nil {
		return fail(err)
	}

	corpusSnap, scanStats, err := o.scanner.Scan(ctx, o.config.DataDir)
	report.Scan = scanStats
	if err != nil {
		return fail(err)
	}
	if scanStats.FilesSkipped > 0 {
		report.Outcome = OutcomeDegraded
	}

	storeSnap, enumStats, err := o.store.EnumerateIdentifiers(ctx)
	if err != nil {
		return fail(err)
	}
	report.StoreObjects = enumStats.Objects

	plan := Diff(corpusSnap, storeSnap)
	report.PlannedAdds = len(plan.ToAdd)
	report.PlannedDeletes = len(plan.ToDelete)
	o.log.Info("Computed sync plan",
		"corpus_records", len(corpusSnap),
		"store_records", len(storeSnap),
		"to_add", len(plan.ToAdd),
		"to_delete", len(plan.ToDelete))

	if o.config.DryRun {
		o.logPlan(plan)
		report.Duration = time.Since(started)
		return report, nil
	}

	deleteStats, insertStats, err := o.reconciler.Apply(ctx, plan, corpusSnap)
	if deleteStats != nil {
		report.Deleted = deleteStats.Successful
	}
	if insertStats != nil {
		report.Inserted = insertStats.Inserted
		report.InsertFailures = insertStats.Failed
	}
	if err != nil {
		return fail(err)
	}
	if report.InsertFailures > 0 {
		report.Outcome = OutcomeDegraded
	}

	report.Discrepancies = o.verify(ctx, corpusSnap)
	report.Duration = time.Since(started)

	o.log.Info("Sync run complete",
		"outcome", string(report.Outcome),
		"files_processed", scanStats.FilesProcessed,
		"files_skipped", scanStats.FilesSkipped,
		"parse_warnings", scanStats.Warnings,
		"inserted", report.Inserted,
		"deleted", report.Deleted,
		"insert_failures", report.InsertFailures,
		"discrepancies", len(report.Discrepancies),
		"duration", report.Duration)
	return report, nil
}

// logPlan prints the sorted mutation sets without applying them.
func (o *Orchestrator) logPlan(plan Plan) {
	o.log.Info("Dry run, store not modified",
		"to_add", len(plan.ToAdd),
		"to_delete", len(plan.ToDelete))
	for _, hash := range plan.ToAdd {
		o.log.Info("Would insert", "hash", hash)
	}
	for _, hash := range plan.ToDelete {
		o.log.Info("Would delete", "hash", hash)
	}
}

// verify re-reads the store and reports residual key differences.
//
// Mismatches are warnings: the run already applied its best-effort diff,
// and the next run recomputes from scratch.
func (o *Orchestrator) verify(ctx context.Context, corpusSnap corpus.CorpusSnapshot) []string {
	storeSnap, _, err := o.store.EnumerateIdentifiers(ctx)
	if err != nil {
		o.log.Warn("Post-sync verification read failed", "error", err)
		return nil
	}

	residual := Diff(corpusSnap, storeSnap)
	if residual.Empty() {
		o.log.Info("Post-sync verification passed", "records", len(corpusSnap))
		return nil
	}

	discrepancies := append(residual.ToAdd, residual.ToDelete...)
	sort.Strings(discrepancies)
	o.log.Warn("Store still differs from corpus after sync",
		"missing", len(residual.ToAdd),
		"stale", len(residual.ToDelete),
		"hashes", discrepancies)
	return discrepancies
}
