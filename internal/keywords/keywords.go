// Package keywords implements the shared keyword-extraction pipeline used by
// the classifier, the memory store and the training subsystem.
package keywords

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"
)

// MinLength is the shortest token kept by Extract.
const MinLength = 3

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "has": true,
	"have": true, "had": true, "what": true, "when": true, "where": true,
	"who": true, "which": true, "why": true, "how": true, "this": true,
	"that": true, "these": true, "those": true, "with": true, "from": true,
	"they": true, "them": true, "then": true, "than": true, "will": true,
	"would": true, "could": true, "should": true, "there": true, "their": true,
	"about": true, "into": true, "over": true, "your": true, "just": true,
	"some": true, "any": true, "does": true, "did": true, "been": true,
	"being": true, "were": true, "its": true, "also": true, "very": true,
	"much": true, "more": true, "most": true, "such": true, "only": true,
	"other": true, "please": true, "want": true, "need": true, "like": true,
}

// Extract tokenizes text, drops stop words and tokens shorter than MinLength,
// and returns the deduplicated keyword set in sorted order.
func Extract(text string) []string {
	seen := map[string]bool{}
	for _, tok := range tokenize(text) {
		if len(tok) < MinLength || stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// tokenize lowercases text and splits it on non-alphanumeric runes.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return toks
}

// Overlap returns how many keywords the two sets share.
func Overlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, k := range a {
		set[k] = true
	}
	n := 0
	for _, k := range b {
		if set[k] {
			n++
		}
	}
	return n
}

// MatchesText reports whether any keyword appears as a substring of text
// (case-insensitive).
func MatchesText(text string, kws []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, k := range kws {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Hash returns the canonical content hash for a keyword set: a hex SHA-256
// over the sorted, deduplicated keywords. Equivalent content hashes to the
// same value regardless of token order, which backs the store's uniqueness
// constraint on first sightings.
func Hash(kws []string) string {
	uniq := make([]string, len(kws))
	copy(uniq, kws)
	sort.Strings(uniq)
	h := sha256.New()
	for _, k := range uniq {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashText is shorthand for Hash(Extract(text)).
func HashText(text string) string {
	return Hash(Extract(text))
}
