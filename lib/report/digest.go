// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/hex"
	"fmt"

	"github.com/gowebpki/jcs"
	"github.com/zeebo/blake3"
)

// Digest returns the hex BLAKE3-256 hash of the RFC 8785 canonical
// form of data. Two encodings of the same JSON value (different key
// order, whitespace, or number spelling) have the same digest.
func Digest(data []byte) (string, error) {
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("canonicalizing report: %w", err)
	}
	sum := blake3.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
