// Package id generates identifiers for transactions and stored rows.
// UUIDv7 values sort by creation time, so transaction IDs in logs and
// primary keys in postgres follow begin order.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// ID identifies a row or a logical transaction.
type ID = uuid.UUID

// New returns a UUIDv7, falling back to v4 when the clock source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse reads an ID from its string form.
func Parse(s string) (ID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse id %q: %w", s, err)
	}
	return v, nil
}

// Short returns the random tail of v (last 12 hex digits), enough to tell
// entries apart within one run.
func Short(v ID) string {
	s := v.String()
	return s[len(s)-12:]
}
