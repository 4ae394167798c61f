// Package validate rejects malformed or unsafe queries before they reach the
// classifier, the embedding service, or the LLM.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	ErrEmpty        = errors.New("validate: query is empty")
	ErrTooShort     = errors.New("validate: query is too short")
	ErrTooLong      = errors.New("validate: query is too long")
	ErrControlChars = errors.New("validate: query contains control characters")
	ErrNoContent    = errors.New("validate: query has no readable content")
	ErrGibberish    = errors.New("validate: query appears to be gibberish")
)

var (
	specialOnly  = regexp.MustCompile(`^[^a-zA-Z0-9\s]+$`)
	repeatedRune = regexp.MustCompile(`^(.)\1{10,}$`)
	alphanumeric = regexp.MustCompile(`[a-zA-Z0-9]`)
	angleBracket = regexp.MustCompile(`[<>]`)
)

// Validator enforces length bounds and content checks on raw queries.
type Validator struct {
	minLength int
	maxLength int
}

// New returns a Validator with the given length bounds.
func New(minLength, maxLength int) *Validator {
	return &Validator{minLength: minLength, maxLength: maxLength}
}

// Validate checks the raw query and returns the sanitized form. A failure
// here never reaches retrieval or any external service.
func (v *Validator) Validate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmpty
	}
	if len(trimmed) < v.minLength {
		return "", fmt.Errorf("%w: minimum %d characters", ErrTooShort, v.minLength)
	}
	if len(raw) > v.maxLength {
		return "", fmt.Errorf("%w: maximum %d characters", ErrTooLong, v.maxLength)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) && r != '\t' {
			return "", ErrControlChars
		}
	}
	if specialOnly.MatchString(trimmed) {
		return "", ErrNoContent
	}
	if !alphanumeric.MatchString(trimmed) {
		return "", ErrNoContent
	}
	if repeatedRune.MatchString(trimmed) {
		return "", ErrGibberish
	}
	return sanitize(trimmed), nil
}

// sanitize collapses runs of whitespace and strips angle brackets.
func sanitize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(angleBracket.ReplaceAllString(s, ""))
}
