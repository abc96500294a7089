// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AleutianAI/FaqSync/pkg/logging"
)

// ScannerConfig configures the corpus scanner.
type ScannerConfig struct {
	// Extension filters which files are parsed, matched
	// case-insensitively. Must include the leading dot.
	Extension string
}

// DefaultScannerConfig returns sensible defaults.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		Extension: ".txt",
	}
}

// Scanner reads FAQ files from a directory into a corpus snapshot.
type Scanner struct {
	config ScannerConfig
	log    *logging.Logger
}

// NewScanner creates a corpus scanner.
//
// Description:
//
//	Creates a Scanner that parses FAQ files with the configured
//	extension. An empty extension falls back to the default.
//
// Inputs:
//
//	config - Scanner configuration
//	log - Logger for scan diagnostics. Must not be nil.
//
// Outputs:
//
//	*Scanner - The configured scanner
//	error - Non-nil if log is nil
func NewScanner(config ScannerConfig, log *logging.Logger) (*Scanner, error) {
	if log == nil {
		return nil, ErrNilLogger
	}
	if config.Extension == "" {
		config.Extension = DefaultScannerConfig().Extension
	}
	return &Scanner{
		config: config,
		log:    log,
	}, nil
}

// Scan reads every matching file under dataDir into a corpus snapshot.
//
// Description:
//
//	Lists dataDir without recursing, parses each regular file whose
//	extension matches, and hashes every parsed pair into the snapshot.
//	Files are visited in lexical name order. A file that cannot be read
//	is skipped, counted, and recorded in the stats; it never aborts the
//	scan. When two pairs hash identically the first occurrence wins and
//	the duplicate is reported.
//
// Inputs:
//
//	ctx - Context for cancellation, checked between files
//	dataDir - Directory containing FAQ text files
//
// Outputs:
//
//	CorpusSnapshot - Content hash to record mapping
//	*ScanStats - Scan counters and per-file errors
//	error - Non-nil if dataDir cannot be listed or ctx is done
func (s *Scanner) Scan(ctx context.Context, dataDir string) (CorpusSnapshot, *ScanStats, error) {
	start := time.Now()
	snapshot := make(CorpusSnapshot)
	stats := &ScanStats{}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snapshot, stats, fmt.Errorf("%w: %s", ErrDataDirMissing, dataDir)
		}
		return snapshot, stats, fmt.Errorf("listing %s: %w", dataDir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return snapshot, stats, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), s.config.Extension) {
			continue
		}

		path := filepath.Join(dataDir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			stats.FilesSkipped++
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", name, err))
			s.log.Error("Failed to read corpus file", "file", name, "error", err)
			continue
		}

		doc := ParseDocument(string(content))
		stats.FilesProcessed++

		if doc.Truncated {
			stats.Warnings++
			s.log.Warn("Question does not end with '?', dropping rest of file",
				"file", name, "line", doc.TruncatedLine)
		}
		if doc.OddTrailing {
			stats.Warnings++
			s.log.Warn("Unpaired trailing line ignored", "file", name)
		}

		if !doc.HasSubject {
			s.log.Warn("File is empty or whitespace only", "file", name)
			continue
		}
		if len(doc.Pairs) == 0 {
			s.log.Warn("File has a subject but no valid pairs",
				"file", name, "subject", doc.Subject)
			continue
		}

		stats.PairsParsed += len(doc.Pairs)

		for _, pair := range doc.Pairs {
			hash := HashPair(pair.Question, pair.Answer)
			if existing, ok := snapshot[hash]; ok {
				stats.DuplicatePairs++
				s.log.Warn("Duplicate content hash, keeping first occurrence",
					"hash", hash[:8],
					"file", name,
					"question", snippet(pair.Question, 50),
					"existing_file", filepath.Base(existing.SourcePath))
				continue
			}
			snapshot[hash] = QnaRecord{
				Subject:    doc.Subject,
				Question:   pair.Question,
				Answer:     pair.Answer,
				SourcePath: path,
			}
		}
	}

	stats.UniqueRecords = len(snapshot)
	s.log.Info("Corpus scan complete",
		"dir", dataDir,
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"pairs_parsed", stats.PairsParsed,
		"unique_records", stats.UniqueRecords,
		"duplicates", stats.DuplicatePairs,
		"warnings", stats.Warnings,
		"duration", time.Since(start))

	return snapshot, stats, nil
}

// snippet shortens s for log output.
func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
