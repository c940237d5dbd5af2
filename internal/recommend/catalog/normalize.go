// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a title for lookup. It is the only normalization
// used, both when the title index is built and when a query is resolved.
//
// Steps: NFKD decomposition with combining marks dropped, lower-casing,
// every rune outside [a-z0-9] and whitespace replaced by a space, whitespace
// runs collapsed to one space, and the result trimmed.
//
//	Normalize("  Amélie (2001) ") == "amelie 2001"
//	Normalize("WALL·E")           == "wall e"
func Normalize(s string) string {
	decomposed := norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	pendingSpace := false
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}
