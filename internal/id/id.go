// Package id generates identifiers for users, tokens and judgments.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used for nanoid-based identifiers.
const (
	PrefixUser  = "usr"
	PrefixToken = "tok"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "usr-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Judgment returns a time-ordered UUIDv7 string for a comparison record.
// Lexical order of these IDs follows creation order, which keeps the
// judgments table naturally sorted by insertion.
func Judgment() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid v7: %w", err)
	}
	return u.String(), nil
}
