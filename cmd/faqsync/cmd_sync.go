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
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/FaqSync/pkg/ux"
	"github.com/AleutianAI/FaqSync/services/faq/sync"
)

// watchDebounce batches rapid corpus edits into one reconciliation run.
const watchDebounce = 2 * time.Second

func runSync(cmd *cobra.Command, args []string) {
	p, err := buildPipeline()
	if err != nil {
		log.Fatalf("Error building sync pipeline: %v", err)
	}
	defer p.Close()

	orch, err := sync.NewOrchestrator(sync.OrchestratorConfig{
		DataDir: corpusDir(),
		DryRun:  dryRun,
	}, p.scanner, p.documents, logger)
	if err != nil {
		log.Fatalf("Error building orchestrator: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, err := orch.Run(ctx)
	printReport(report)
	if err != nil {
		os.Exit(1)
	}

	if watchMode {
		if err := watchCorpus(ctx, corpusDir(), orch); err != nil {
			log.Fatalf("Error watching corpus: %v", err)
		}
	}
}

// printReport renders a run report for the terminal.
func printReport(report *sync.RunReport) {
	if report == nil {
		return
	}

	ux.Title("Sync Report")
	if report.Scan != nil {
		ux.Info(fmt.Sprintf("corpus: %d records from %d files (%d skipped)",
			report.Scan.UniqueRecords, report.Scan.FilesProcessed, report.Scan.FilesSkipped))
		if report.Scan.Warnings > 0 {
			ux.Warning(fmt.Sprintf("%d parse warnings: malformed or unpaired lines were discarded",
				report.Scan.Warnings))
		}
	}
	ux.Info(fmt.Sprintf("store: %d objects before sync", report.StoreObjects))
	ux.Info(fmt.Sprintf("plan: %d to insert, %d to delete", report.PlannedAdds, report.PlannedDeletes))
	if !report.DryRun && report.Outcome != sync.OutcomeFatal {
		ux.Info(fmt.Sprintf("applied: %d inserted, %d deleted, %d insert failures",
			report.Inserted, report.Deleted, report.InsertFailures))
	}
	if len(report.Discrepancies) > 0 {
		ux.Warning(fmt.Sprintf("%d documents still differ after sync; the next run retries them",
			len(report.Discrepancies)))
	}

	elapsed := report.Duration.Round(time.Millisecond)
	switch {
	case report.Outcome == sync.OutcomeFatal:
		ux.Error(fmt.Sprintf("Sync failed after %s: %s", elapsed, report.Error))
	case report.DryRun:
		ux.Muted(fmt.Sprintf("Dry run, store not modified (%s)", elapsed))
	case report.Outcome == sync.OutcomeDegraded:
		skipped := 0
		if report.Scan != nil {
			skipped = report.Scan.FilesSkipped
		}
		ux.Warning(fmt.Sprintf("Sync converged with gaps after %s: %d files skipped, %d inserts failed",
			elapsed, skipped, report.InsertFailures))
	default:
		ux.Success(fmt.Sprintf("Store and corpus are in sync (%s)", elapsed))
	}
}

// watchCorpus re-runs the orchestrator whenever a corpus file changes.
//
// Description:
//
//	Watches the corpus directory (non-recursive, matching the scanner)
//	and debounces events so an editor save storm triggers one run. A
//	failed run keeps the watch alive; the next change retries. Returns
//	when ctx is cancelled.
//
// Inputs:
//
//	ctx - Context for cancellation
//	dir - Corpus directory to watch
//	orch - Orchestrator to re-run on changes
//
// Outputs:
//
//	error - Non-nil if the watcher could not be created or attached
func watchCorpus(ctx context.Context, dir string, orch *sync.Orchestrator) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ux.Info(fmt.Sprintf("Watching %s for changes, Ctrl+C to stop", dir))

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	dirty := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantChange(event) {
				continue
			}
			logger.Debug("Corpus change detected", "path", event.Name, "op", event.Op.String())
			dirty = true
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "error", err)

		case <-timer.C:
			if !dirty {
				continue
			}
			dirty = false
			report, err := orch.Run(ctx)
			printReport(report)
			if err != nil && ctx.Err() != nil {
				return nil
			}
		}
	}
}

// relevantChange reports whether the event touches a corpus file.
func relevantChange(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), cfg.Corpus.Extension)
}
