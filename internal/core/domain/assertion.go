package domain

import (
	"errors"
	"time"
)

// Assertion is the validated identity claim produced by a ticket validator.
// This is the core domain model - it has no external dependencies.
// Treat an Assertion as immutable once constructed; validators build it
// exactly once from a successful server response.
type Assertion struct {
	// PrincipalName is the authenticated user identifier. Never empty.
	PrincipalName string

	// ValidFrom is when the assertion becomes valid.
	ValidFrom time.Time

	// ValidUntil is when the assertion stops being valid.
	// The zero value means the server placed no upper bound on it.
	ValidUntil time.Time

	// Attributes holds the attribute statement released with the
	// assertion. Value order within a key is preserved as received.
	Attributes map[string][]string
}

// ErrEmptyPrincipal is returned when an assertion is built without a subject.
var ErrEmptyPrincipal = errors.New("assertion principal name is required")

// NewAssertion builds an Assertion, copying the attribute map so later
// mutation of the caller's map cannot reach the assertion.
func NewAssertion(principalName string, validFrom, validUntil time.Time, attributes map[string][]string) (*Assertion, error) {
	if principalName == "" {
		return nil, ErrEmptyPrincipal
	}

	copied := make(map[string][]string, len(attributes))
	for key, values := range attributes {
		copied[key] = append([]string(nil), values...)
	}

	return &Assertion{
		PrincipalName: principalName,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
		Attributes:    copied,
	}, nil
}

// HasUpperBound reports whether the server bounded the assertion's validity.
func (a *Assertion) HasUpperBound() bool {
	return !a.ValidUntil.IsZero()
}

// AttributeValue returns the first value for key, or "" if the key is absent.
func (a *Assertion) AttributeValue(key string) string {
	values := a.Attributes[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// ValidAt reports whether the assertion's own window covers the given instant.
func (a *Assertion) ValidAt(now time.Time) bool {
	if now.Before(a.ValidFrom) {
		return false
	}
	if a.HasUpperBound() && now.After(a.ValidUntil) {
		return false
	}
	return true
}
