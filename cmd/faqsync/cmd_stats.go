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
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/FaqSync/pkg/ux"
	"github.com/AleutianAI/FaqSync/services/faq/sync"
)

// runStats reports corpus and store counts plus the drift between them.
// It never mutates the store: a missing class surfaces as an error rather
// than being created.
func runStats(cmd *cobra.Command, args []string) {
	p, err := buildPipeline()
	if err != nil {
		log.Fatalf("Error building pipeline: %v", err)
	}
	defer p.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := p.documents.Ready(ctx); err != nil {
		log.Fatalf("Store not ready: %v", err)
	}

	corpusSnap, scanStats, err := p.scanner.Scan(ctx, corpusDir())
	if err != nil {
		log.Fatalf("Error scanning corpus: %v", err)
	}

	storeSnap, enumStats, err := p.documents.EnumerateIdentifiers(ctx)
	if err != nil {
		log.Fatalf("Error reading store: %v", err)
	}

	plan := sync.Diff(corpusSnap, storeSnap)

	ux.Title("Corpus")
	ux.Info(fmt.Sprintf("directory: %s", corpusDir()))
	ux.Info(fmt.Sprintf("files: %d processed, %d skipped", scanStats.FilesProcessed, scanStats.FilesSkipped))
	ux.Info(fmt.Sprintf("pairs: %d parsed, %d duplicates collapsed, %d parse warnings",
		scanStats.PairsParsed, scanStats.DuplicatePairs, scanStats.Warnings))
	ux.Info(fmt.Sprintf("records: %d unique", scanStats.UniqueRecords))

	ux.Title("Store")
	ux.Info(fmt.Sprintf("class: %s at %s", cfg.Store.ClassName, cfg.Store.URL))
	ux.Info(fmt.Sprintf("objects: %d (%d missing a hash, %d duplicate hashes)",
		enumStats.Objects, enumStats.MissingHash, enumStats.DuplicateHashes))

	if plan.Empty() {
		ux.Success("Store matches the corpus")
	} else {
		ux.Warning(fmt.Sprintf("Store differs from the corpus: %d to insert, %d to delete. Run 'faqsync sync'.",
			len(plan.ToAdd), len(plan.ToDelete)))
	}
}
