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

import "strings"

// ParseDocument parses FAQ file content into a subject and QnA pairs.
//
// Description:
//
//	Splits the content into lines, trims surrounding whitespace, and
//	drops blank lines. The first remaining line is the subject; the
//	rest are read as alternating question/answer pairs. A question must
//	end with '?': the first line that does not stops parsing and keeps
//	the pairs collected so far. An unpaired trailing line is discarded.
//	A file whose content lines cannot hold a subject plus at least one
//	pair yields no pairs.
//
// Inputs:
//
//	content - Raw file content
//
// Outputs:
//
//	ParsedDocument - Subject, pairs, and any parse anomalies
func ParseDocument(content string) ParsedDocument {
	var lines []string
	for _, raw := range strings.Split(content, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}

	var doc ParsedDocument
	if len(lines) == 0 {
		return doc
	}

	doc.Subject = lines[0]
	doc.HasSubject = true
	if len(lines) < 3 {
		return doc
	}

	body := lines[1:]
	for i := 0; i+1 < len(body); i += 2 {
		question, answer := body[i], body[i+1]
		if !strings.HasSuffix(question, "?") {
			doc.Truncated = true
			doc.TruncatedLine = question
			break
		}
		doc.Pairs = append(doc.Pairs, QnaPair{Question: question, Answer: answer})
	}
	if len(body)%2 != 0 {
		doc.OddTrailing = true
	}

	return doc
}
