// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package textnorm normalises text before muted-word matching.

A naive strings.ToLower is ASCII-only; full-width characters, Turkish
dotless-i, and combining diacritics all defeat a plain case-fold substring
match. Package textnorm runs content and muted words through the same
Unicode normalisation pipeline — width-folding then case-folding — so
"ｓｐａｍ" (full-width) and "SPAM" both fold to the same comparison key.

Matching stays a documented substring check (spec.md §9 permits substring
as a fallback when word-boundary matching isn't available); this package
only closes the Unicode gap, not the word-boundary one.
*/
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// caseFolder performs Unicode default case folding, which is deliberately
// locale-independent (unlike cases.Lower/Upper/Title, which take a
// language.Tag) — mute matching must be deterministic regardless of an
// accept-language header, so there is no tag to plumb through here.
var caseFolder = cases.Fold()

// Fold width-folds (full-width/half-width forms collapse to one) then
// case-folds s, producing a comparison key suitable for substring
// muted-word matching.
func Fold(s string) string {
	return caseFolder.String(width.Fold.String(s))
}

// ContainsAny reports whether content (already or not yet folded) contains
// any of words as a folded substring. words are expected to already be
// folded (as stored by user.NormalizeMutedWords); content is folded here.
func ContainsAny(content string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	folded := Fold(content)
	for _, w := range words {
		if w == "" {
			continue
		}
		if strings.Contains(folded, w) {
			return true
		}
	}
	return false
}
