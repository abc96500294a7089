// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// Helper to capture stdout
func captureStdout(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// Helper to capture stderr
func captureStderr(f func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	f()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// =============================================================================
// Icon.Render Tests
// =============================================================================

func TestIcon_Render_Success(t *testing.T) {
	result := IconSuccess.Render()
	if result == "" {
		t.Error("expected non-empty result for IconSuccess")
	}
}

func TestIcon_Render_Warning(t *testing.T) {
	result := IconWarning.Render()
	if result == "" {
		t.Error("expected non-empty result for IconWarning")
	}
}

func TestIcon_Render_Error(t *testing.T) {
	result := IconError.Render()
	if result == "" {
		t.Error("expected non-empty result for IconError")
	}
}

func TestIcon_Render_Default(t *testing.T) {
	// Icons without dedicated styling render muted but keep their glyph
	icons := []Icon{IconArrow, IconBullet}
	for _, icon := range icons {
		result := icon.Render()
		if !strings.Contains(result, string(icon)) {
			t.Errorf("expected %q to contain glyph %q", result, string(icon))
		}
	}
}

// =============================================================================
// Title Tests
// =============================================================================

func TestTitle_PrintsText(t *testing.T) {
	output := captureStdout(func() {
		Title("Sync Report")
	})

	if !strings.Contains(output, "Sync Report") {
		t.Errorf("expected title text in output, got %q", output)
	}
}

// =============================================================================
// Success Tests
// =============================================================================

func TestSuccess_PrintsMessage(t *testing.T) {
	output := captureStdout(func() {
		Success("Store and corpus are in sync")
	})

	if !strings.Contains(output, "Store and corpus are in sync") {
		t.Errorf("expected success text in output, got %q", output)
	}
}

// =============================================================================
// Warning Tests
// =============================================================================

func TestWarning_PrintsMessage(t *testing.T) {
	output := captureStdout(func() {
		Warning("2 files could not be parsed")
	})

	if !strings.Contains(output, "2 files could not be parsed") {
		t.Errorf("expected warning text in output, got %q", output)
	}
}

// =============================================================================
// Error Tests
// =============================================================================

func TestError_GoesToStderr(t *testing.T) {
	var stdout string
	stderr := captureStderr(func() {
		stdout = captureStdout(func() {
			Error("store unreachable")
		})
	})

	if !strings.Contains(stderr, "store unreachable") {
		t.Errorf("expected error text on stderr, got %q", stderr)
	}
	if stdout != "" {
		t.Errorf("expected nothing on stdout, got %q", stdout)
	}
}

// =============================================================================
// Info Tests
// =============================================================================

func TestInfo_PrefixesMessage(t *testing.T) {
	output := captureStdout(func() {
		Info("Scanned 12 files")
	})

	if !strings.Contains(output, "│") {
		t.Errorf("expected prefix bar in output, got %q", output)
	}
	if !strings.Contains(output, "Scanned 12 files") {
		t.Errorf("expected info text in output, got %q", output)
	}
}

// =============================================================================
// Muted Tests
// =============================================================================

func TestMuted_PrintsText(t *testing.T) {
	output := captureStdout(func() {
		Muted("nothing to do")
	})

	if !strings.Contains(output, "nothing to do") {
		t.Errorf("expected muted text in output, got %q", output)
	}
}

// =============================================================================
// Box Tests
// =============================================================================

func TestBox_ContainsTitleAndContent(t *testing.T) {
	output := captureStdout(func() {
		Box("Sync Summary", "inserted: 3\ndeleted: 1")
	})

	if !strings.Contains(output, "Sync Summary") {
		t.Errorf("expected box title in output, got %q", output)
	}
	if !strings.Contains(output, "inserted: 3") {
		t.Errorf("expected box content in output, got %q", output)
	}
}

// =============================================================================
// Style Constants Tests
// =============================================================================

func TestColorConstants(t *testing.T) {
	colors := map[string]string{
		"RustBright": string(ColorRustBright),
		"Rust":       string(ColorRust),
		"Dust":       string(ColorDust),
		"Canyon":     string(ColorCanyon),
		"Basalt":     string(ColorBasalt),
		"Regolith":   string(ColorRegolith),
		"Success":    string(ColorSuccess),
		"Warning":    string(ColorWarning),
		"Error":      string(ColorError),
	}

	for name, c := range colors {
		if c == "" {
			t.Errorf("color %s is empty", name)
		}
	}
}

func TestIconConstants(t *testing.T) {
	icons := map[string]Icon{
		"Success": IconSuccess,
		"Warning": IconWarning,
		"Error":   IconError,
		"Arrow":   IconArrow,
		"Bullet":  IconBullet,
	}

	for name, icon := range icons {
		if string(icon) == "" {
			t.Errorf("icon %s is empty", name)
		}
	}
}
