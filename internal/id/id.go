// Package id generates prefixed identifiers for stored entities and print attempts.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for entity IDs.
const (
	PrefixRecord  = "rec"
	PrefixProduct = "prod"
	PrefixBrand   = "brand"
	PrefixCounter = "ctr"
	PrefixClient  = "sse"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "rec-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Only for seeding and startup paths where failure should crash the program.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Attempt returns a correlation id for one print attempt.
// It only ties log lines and events together and is never persisted as a key.
func Attempt() string {
	return uuid.NewString()
}
