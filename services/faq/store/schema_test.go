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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
)

func findProperty(t *testing.T, class *models.Class, name string) *models.Property {
	t.Helper()
	for _, prop := range class.Properties {
		if prop.Name == name {
			return prop
		}
	}
	t.Fatalf("property %q not found in class %s", name, class.Class)
	return nil
}

func TestClassSchema(t *testing.T) {
	class := classSchema("MarsFaq")

	require.NotNil(t, class)
	assert.Equal(t, "MarsFaq", class.Class)
	assert.Equal(t, "none", class.Vectorizer)
	assert.Len(t, class.Properties, 5)

	t.Run("qna_hash is filterable with field tokenization", func(t *testing.T) {
		prop := findProperty(t, class, "qna_hash")
		require.NotNil(t, prop.IndexFilterable)
		assert.True(t, *prop.IndexFilterable)
		assert.Equal(t, "field", prop.Tokenization)
		assert.Equal(t, []string{"text"}, prop.DataType)
	})

	t.Run("file_path is filterable with field tokenization", func(t *testing.T) {
		prop := findProperty(t, class, "file_path")
		require.NotNil(t, prop.IndexFilterable)
		assert.True(t, *prop.IndexFilterable)
		assert.Equal(t, "field", prop.Tokenization)
	})

	t.Run("content uses word tokenization", func(t *testing.T) {
		prop := findProperty(t, class, "content")
		assert.Equal(t, "word", prop.Tokenization)
		assert.Nil(t, prop.IndexFilterable)
	})

	t.Run("subject and question are plain text", func(t *testing.T) {
		assert.Equal(t, "word", findProperty(t, class, "subject").Tokenization)
		assert.Equal(t, "word", findProperty(t, class, "question").Tokenization)
	})

	t.Run("class name flows through", func(t *testing.T) {
		assert.Equal(t, "SupportFaq", classSchema("SupportFaq").Class)
	})
}
