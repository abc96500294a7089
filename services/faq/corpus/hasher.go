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
	"crypto/sha256"
	"encoding/hex"
)

// HashPair derives the content hash for a question/answer pair.
//
// Description:
//
//	Computes the SHA-256 digest over the question bytes followed by the
//	answer bytes and returns it as lowercase hex. The hash is the
//	identity of a pair: the same text always produces the same hash no
//	matter which file it lives in, and any edit to either side produces
//	a new one. Text is hashed exactly as parsed, so a whitespace change
//	that survives line trimming changes the identity.
//
// Inputs:
//
//	question - Question text, exactly as parsed
//	answer - Answer text, exactly as parsed
//
// Outputs:
//
//	string - 64-character lowercase hex digest
func HashPair(question, answer string) string {
	h := sha256.New()
	h.Write([]byte(question))
	h.Write([]byte(answer))
	return hex.EncodeToString(h.Sum(nil))
}
