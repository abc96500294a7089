// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"fmt"
	"regexp"
	"strings"
)

// classNamePattern matches valid Weaviate class names.
var classNamePattern = regexp.MustCompile(`^[A-Z][_0-9A-Za-z]*$`)

// StoreConfig configures the Weaviate-backed document store.
type StoreConfig struct {
	// URL is the Weaviate server URL. Default: "http://localhost:8080"
	URL string

	// ClassName is the Weaviate class holding QnA documents. Must start
	// with an uppercase letter. Default: "MarsFaq"
	ClassName string

	// BatchSize caps how many documents each insert or delete batch
	// carries. Default: 100
	BatchSize int

	// PageSize caps how many objects each enumeration page reads.
	// Default: 500
	PageSize int
}

// DefaultStoreConfig returns a config for a local Weaviate instance.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		URL:       "http://localhost:8080",
		ClassName: "MarsFaq",
		BatchSize: 100,
		PageSize:  500,
	}
}

// applyDefaults fills zero-valued fields with defaults.
func (c *StoreConfig) applyDefaults() {
	defaults := DefaultStoreConfig()
	if c.URL == "" {
		c.URL = defaults.URL
	}
	if c.ClassName == "" {
		c.ClassName = defaults.ClassName
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.PageSize <= 0 {
		c.PageSize = defaults.PageSize
	}
}

// Validate checks the configuration for errors.
func (c *StoreConfig) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("store URL is required")
	}
	if !classNamePattern.MatchString(c.ClassName) {
		return fmt.Errorf("class name %q must start with an uppercase letter "+
			"and contain only letters, digits, and underscores", c.ClassName)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	return nil
}

// parseURL splits a Weaviate URL into the scheme and host the client
// config wants. URLs without a scheme default to http.
func parseURL(raw string) (scheme, host string) {
	host = strings.TrimSpace(raw)
	scheme = "http"
	if strings.HasPrefix(host, "https://") {
		scheme = "https"
		host = host[len("https://"):]
	} else if strings.HasPrefix(host, "http://") {
		host = host[len("http://"):]
	}
	return scheme, strings.TrimSuffix(host, "/")
}
