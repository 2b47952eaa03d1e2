package domain

import (
	"errors"
	"fmt"
)

// ErrParticipantNotFound is returned by perspective queries when the given
// account id is in neither roster. It signals caller misuse, not bad data.
var ErrParticipantNotFound = errors.New("participant not found in replay")

// ValidationError reports a bounded-field constraint violation detected
// while finalizing a parsed payload.
type ValidationError struct {
	Field string
	Value any
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v (%s)", e.Field, e.Value, e.Rule)
}

// ClassificationError reports a region lookup on an account id outside the
// known id ranges.
type ClassificationError struct {
	AccountID int64
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("account_id %d is out of known id range", e.AccountID)
}

// EncodingOverflowError reports a stat id component that exceeds its segment
// width. Silent truncation would break id round-tripping, so it is rejected.
type EncodingOverflowError struct {
	Field string
	Value uint64
	Bits  int
}

func (e *EncodingOverflowError) Error() string {
	return fmt.Sprintf("%s %d exceeds %d bits", e.Field, e.Value, e.Bits)
}
