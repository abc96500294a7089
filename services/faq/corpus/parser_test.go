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

import "testing"

func TestParseDocument(t *testing.T) {
	t.Run("parses subject and pairs", func(t *testing.T) {
		content := "Mars Climate\nIs Mars cold?\nYes.\nDoes Mars have seasons?\nIt does.\n"

		doc := ParseDocument(content)

		if !doc.HasSubject {
			t.Fatal("HasSubject = false, want true")
		}
		if doc.Subject != "Mars Climate" {
			t.Errorf("Subject = %q, want %q", doc.Subject, "Mars Climate")
		}
		if len(doc.Pairs) != 2 {
			t.Fatalf("len(Pairs) = %d, want 2", len(doc.Pairs))
		}
		if doc.Pairs[0].Question != "Is Mars cold?" || doc.Pairs[0].Answer != "Yes." {
			t.Errorf("Pairs[0] = %+v, want Is Mars cold?/Yes.", doc.Pairs[0])
		}
		if doc.Pairs[1].Question != "Does Mars have seasons?" || doc.Pairs[1].Answer != "It does." {
			t.Errorf("Pairs[1] = %+v, want Does Mars have seasons?/It does.", doc.Pairs[1])
		}
		if doc.Truncated {
			t.Error("Truncated = true, want false")
		}
		if doc.OddTrailing {
			t.Error("OddTrailing = true, want false")
		}
	})

	t.Run("drops blank lines and trims whitespace", func(t *testing.T) {
		content := "\n  Mars Climate  \n\n\n\tIs Mars cold?\t\n\n   Yes.   \n\n"

		doc := ParseDocument(content)

		if doc.Subject != "Mars Climate" {
			t.Errorf("Subject = %q, want %q", doc.Subject, "Mars Climate")
		}
		if len(doc.Pairs) != 1 {
			t.Fatalf("len(Pairs) = %d, want 1", len(doc.Pairs))
		}
		if doc.Pairs[0].Question != "Is Mars cold?" {
			t.Errorf("Question = %q, want %q", doc.Pairs[0].Question, "Is Mars cold?")
		}
		if doc.Pairs[0].Answer != "Yes." {
			t.Errorf("Answer = %q, want %q", doc.Pairs[0].Answer, "Yes.")
		}
	})

	t.Run("handles CRLF line endings", func(t *testing.T) {
		content := "Mars Climate\r\nIs Mars cold?\r\nYes.\r\n"

		doc := ParseDocument(content)

		if len(doc.Pairs) != 1 {
			t.Fatalf("len(Pairs) = %d, want 1", len(doc.Pairs))
		}
		if doc.Pairs[0].Question != "Is Mars cold?" {
			t.Errorf("Question = %q, want %q", doc.Pairs[0].Question, "Is Mars cold?")
		}
	})

	t.Run("empty content yields no subject", func(t *testing.T) {
		doc := ParseDocument("")

		if doc.HasSubject {
			t.Error("HasSubject = true, want false")
		}
		if len(doc.Pairs) != 0 {
			t.Errorf("len(Pairs) = %d, want 0", len(doc.Pairs))
		}
	})

	t.Run("whitespace only content yields no subject", func(t *testing.T) {
		doc := ParseDocument("\n   \n\t\n")

		if doc.HasSubject {
			t.Error("HasSubject = true, want false")
		}
		if len(doc.Pairs) != 0 {
			t.Errorf("len(Pairs) = %d, want 0", len(doc.Pairs))
		}
	})

	t.Run("subject only yields no pairs", func(t *testing.T) {
		doc := ParseDocument("Mars Climate\n")

		if !doc.HasSubject {
			t.Fatal("HasSubject = false, want true")
		}
		if doc.Subject != "Mars Climate" {
			t.Errorf("Subject = %q, want %q", doc.Subject, "Mars Climate")
		}
		if len(doc.Pairs) != 0 {
			t.Errorf("len(Pairs) = %d, want 0", len(doc.Pairs))
		}
	})

	t.Run("fewer than three content lines yields no pairs", func(t *testing.T) {
		doc := ParseDocument("Mars Climate\nIs Mars cold?\n")

		if !doc.HasSubject {
			t.Fatal("HasSubject = false, want true")
		}
		if len(doc.Pairs) != 0 {
			t.Errorf("len(Pairs) = %d, want 0", len(doc.Pairs))
		}
		if doc.OddTrailing {
			t.Error("OddTrailing = true, want false for short file")
		}
	})

	t.Run("invalid question stops parsing and keeps earlier pairs", func(t *testing.T) {
		content := "Mars Climate\n" +
			"Is Mars cold?\nYes.\n" +
			"Mars has no oceans\nTrue.\n" +
			"Does Mars have seasons?\nIt does.\n"

		doc := ParseDocument(content)

		if len(doc.Pairs) != 1 {
			t.Fatalf("len(Pairs) = %d, want 1", len(doc.Pairs))
		}
		if doc.Pairs[0].Question != "Is Mars cold?" {
			t.Errorf("Pairs[0].Question = %q, want %q", doc.Pairs[0].Question, "Is Mars cold?")
		}
		if !doc.Truncated {
			t.Error("Truncated = false, want true")
		}
		if doc.TruncatedLine != "Mars has no oceans" {
			t.Errorf("TruncatedLine = %q, want %q", doc.TruncatedLine, "Mars has no oceans")
		}
	})

	t.Run("invalid first question yields no pairs", func(t *testing.T) {
		content := "Mars Climate\nMars is cold\nYes.\n"

		doc := ParseDocument(content)

		if len(doc.Pairs) != 0 {
			t.Errorf("len(Pairs) = %d, want 0", len(doc.Pairs))
		}
		if !doc.Truncated {
			t.Error("Truncated = false, want true")
		}
	})

	t.Run("odd trailing line is discarded and flagged", func(t *testing.T) {
		content := "Mars Climate\nIs Mars cold?\nYes.\nDoes Mars have seasons?\n"

		doc := ParseDocument(content)

		if len(doc.Pairs) != 1 {
			t.Fatalf("len(Pairs) = %d, want 1", len(doc.Pairs))
		}
		if !doc.OddTrailing {
			t.Error("OddTrailing = false, want true")
		}
		if doc.Truncated {
			t.Error("Truncated = true, want false")
		}
	})

	t.Run("question must end with question mark", func(t *testing.T) {
		tests := []struct {
			name     string
			question string
			valid    bool
		}{
			{"plain question", "Is Mars cold?", true},
			{"question mark only", "?", true},
			{"trailing period", "Is Mars cold.", false},
			{"question mark mid line", "Is Mars? cold", false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				doc := ParseDocument("Subject\n" + tt.question + "\nAnswer.\n")
				got := len(doc.Pairs) == 1
				if got != tt.valid {
					t.Errorf("pair parsed = %v, want %v", got, tt.valid)
				}
			})
		}
	})
}
