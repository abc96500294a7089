// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package corpus turns FAQ text files into content-addressed QnA records.
//
// A corpus is a flat directory of text files. Each file carries a subject
// on its first non-blank line followed by alternating question/answer
// lines. The scanner parses every matching file, hashes each pair, and
// builds a snapshot keyed by content hash. Identity is content-only:
// moving a pair between files changes nothing, while editing either side
// of a pair produces a new record.
package corpus

import (
	"errors"
	"sort"
)

// Sentinel errors for the corpus package.
var (
	// ErrNilLogger indicates the injected logger is nil.
	ErrNilLogger = errors.New("logger must not be nil")

	// ErrDataDirMissing indicates the data directory does not exist.
	ErrDataDirMissing = errors.New("data directory not found")
)

// QnaPair is one question and its answer, in file order.
type QnaPair struct {
	// Question is the question text. Always ends with '?'.
	Question string `json:"question"`

	// Answer is the answer text on the line following the question.
	Answer string `json:"answer"`
}

// QnaRecord is a parsed pair resolved against its source file.
type QnaRecord struct {
	// Subject is the first non-blank line of the source file.
	Subject string `json:"subject"`

	// Question is the question text.
	Question string `json:"question"`

	// Answer is the answer text.
	Answer string `json:"answer"`

	// SourcePath is the path of the file the pair was parsed from.
	SourcePath string `json:"source_path"`
}

// CorpusSnapshot maps content hashes to the records that produced them.
//
// The key is the lowercase hex SHA-256 over the question bytes followed
// by the answer bytes (see HashPair). When two files contain an identical
// pair, the snapshot holds the first occurrence in scan order.
type CorpusSnapshot map[string]QnaRecord

// Hashes returns the snapshot's content hashes in sorted order.
func (s CorpusSnapshot) Hashes() []string {
	hashes := make([]string, 0, len(s))
	for hash := range s {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)
	return hashes
}

// ParsedDocument is the outcome of parsing a single FAQ file.
type ParsedDocument struct {
	// Subject is the first non-blank line of the file.
	Subject string

	// HasSubject is false when the file had no content lines at all.
	HasSubject bool

	// Pairs holds the question/answer pairs in file order.
	Pairs []QnaPair

	// Truncated indicates parsing stopped at a line that was expected
	// to be a question but did not end with '?'. Pairs collected before
	// that line are kept.
	Truncated bool

	// TruncatedLine is the offending line when Truncated is set.
	TruncatedLine string

	// OddTrailing indicates the content lines after the subject ended
	// with an unpaired line, which was discarded.
	OddTrailing bool
}

// ScanStats contains counters from a directory scan.
type ScanStats struct {
	// FilesProcessed is the number of files parsed.
	FilesProcessed int `json:"files_processed"`

	// FilesSkipped is the number of files skipped due to read errors.
	FilesSkipped int `json:"files_skipped"`

	// PairsParsed is the total number of pairs parsed across all files,
	// counted before duplicate collapsing.
	PairsParsed int `json:"pairs_parsed"`

	// UniqueRecords is the number of distinct content hashes produced.
	UniqueRecords int `json:"unique_records"`

	// DuplicatePairs is the number of pairs discarded because an
	// earlier file already produced the same content hash.
	DuplicatePairs int `json:"duplicate_pairs"`

	// Warnings is the number of parse anomalies that discarded content:
	// a malformed question truncating its file, or an unpaired trailing
	// line. Each anomaly counts once.
	Warnings int `json:"warnings"`

	// Errors contains non-fatal per-file errors encountered during the scan.
	Errors []string `json:"errors,omitempty"`
}
