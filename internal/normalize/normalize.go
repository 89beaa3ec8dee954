// Package normalize builds comparison keys for album titles and artists.
//
// Two levels of matching exist. Keys (DisplayKeyFor, GroupKeyFor) only
// trim and case-fold, so "OK Computer " and "ok computer" collide but
// "OK Computer (Remastered)" does not. Tokens additionally strips
// diacritics and punctuation and is used by imports to recognise an album
// that a different provider spelled slightly differently.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DisplayKey identifies a logical album for read-time ranking merges.
type DisplayKey struct {
	Title  string
	Artist string
}

// GroupKey identifies a logical album for destructive reconciliation.
// It is stricter than DisplayKey: releases from different years stay apart.
type GroupKey struct {
	Title   string
	Artist  string
	Year    int
	HasYear bool
}

// Key trims surrounding whitespace and case-folds s.
func Key(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// DisplayKeyFor returns the ranking aggregation key for an album.
func DisplayKeyFor(title, artist string) DisplayKey {
	return DisplayKey{Title: Key(title), Artist: Key(artist)}
}

// GroupKeyFor returns the reconciliation key for an album.
// A nil year only matches other nil years.
func GroupKeyFor(title, artist string, year *int) GroupKey {
	k := GroupKey{Title: Key(title), Artist: Key(artist)}
	if year != nil {
		k.Year = *year
		k.HasYear = true
	}
	return k
}

// Tokens reduces s to lower-case alphanumeric tokens separated by single
// spaces, with diacritics removed ("Beyoncé – Lemonade!" → "beyonce lemonade").
func Tokens(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range cases.Fold().String(stripped) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// MatchKey is the token-normalized (title, artist) pair used by imports.
func MatchKey(title, artist string) DisplayKey {
	return DisplayKey{Title: Tokens(title), Artist: Tokens(artist)}
}
