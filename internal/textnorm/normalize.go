// Package textnorm folds user input and authored keywords onto the same
// ASCII-like baseline so the matcher can compare them with plain substring
// checks.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// dotless i has no canonical decomposition, so NFD alone leaves it in place.
var foldReplacer = strings.NewReplacer("ı", "i")

// Normalize lowercases text with Turkish casing rules, strips combining marks
// and collapses every run of non-alphanumeric characters into a single space.
func Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	lowered := cases.Lower(language.Turkish).String(text)
	lowered = foldReplacer.Replace(lowered)

	// transformers are stateful; build one per call so Normalize stays reentrant
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripper, lowered)
	if err != nil {
		folded = lowered
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
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

// Set is a normalized keyword set that preserves authoring order.
type Set struct {
	items []string
	index map[string]bool
}

// NewSet normalizes every keyword and drops blanks and duplicates.
func NewSet(keywords ...string) Set {
	s := Set{index: make(map[string]bool)}
	for _, kw := range keywords {
		n := Normalize(kw)
		if n == "" || s.index[n] {
			continue
		}
		s.index[n] = true
		s.items = append(s.items, n)
	}
	return s
}

// Len reports the number of distinct keywords.
func (s Set) Len() int { return len(s.items) }

// Items returns a copy of the keywords in authoring order.
func (s Set) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Text is an input that has been normalized once and can be checked
// for keywords many times.
type Text struct {
	padded string
}

// NewText normalizes raw input for keyword matching.
func NewText(raw string) Text {
	n := Normalize(raw)
	if n == "" {
		return Text{}
	}
	return Text{padded: " " + n + " "}
}

// Empty reports whether the input carried no tokens.
func (t Text) Empty() bool { return t.padded == "" }

// String returns the normalized input without padding.
func (t Text) String() string { return strings.TrimSpace(t.padded) }

// Contains reports whether a normalized keyword occurs in the text. Keywords
// match as substrings so stems like "agri" hit inflected forms like "agrisi".
func (t Text) Contains(keyword string) bool {
	if t.padded == "" || keyword == "" {
		return false
	}
	return strings.Contains(t.padded, keyword)
}

// CountHits returns how many distinct keywords of s occur in the text.
func (t Text) CountHits(s Set) int {
	hits := 0
	for _, kw := range s.items {
		if t.Contains(kw) {
			hits++
		}
	}
	return hits
}

// ContainsAll reports whether every keyword of s occurs in the text. An empty
// set never matches.
func (t Text) ContainsAll(s Set) bool {
	if s.Len() == 0 {
		return false
	}
	for _, kw := range s.items {
		if !t.Contains(kw) {
			return false
		}
	}
	return true
}
