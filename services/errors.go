package services

import (
	"errors"
	"fmt"
	"strings"

	"genesis-intake/models"
)

// Sentinel errors shared by the store and its callers.
var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidStatus      = errors.New("invalid submission status")
)

// ValidationKind distinguishes the ways an intake payload can be rejected.
type ValidationKind string

const (
	MissingFields     ValidationKind = "MissingFields"
	InvalidWeight     ValidationKind = "InvalidWeight"
	InvalidBody       ValidationKind = "InvalidBody"
	InvalidReferralID ValidationKind = "InvalidReferralID"
)

// ValidationError is a recoverable rejection of an intake payload.
type ValidationError struct {
	Kind   ValidationKind
	Fields []string // populated for MissingFields
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingFields:
		return "Missing required fields"
	case InvalidWeight:
		return "Invalid proposed_weight"
	case InvalidReferralID:
		return "Invalid referral_id"
	default:
		return "Invalid JSON body"
	}
}

// DuplicateError reports a uniqueness violation on insert. Field is
// "submission_id" or "referral_id".
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s %q", e.Field, e.Value)
}

// NotificationError is a per-channel delivery failure. It is carried as a
// value in NotificationOutcome and never returned as a request failure.
type NotificationError struct {
	Channel models.NotificationChannel `json:"channel"`
	Message string                     `json:"message"`
}

func (e NotificationError) Error() string {
	return string(e.Channel) + ": " + e.Message
}

// IsDuplicate reports whether err is a DuplicateError, optionally for a specific field.
func IsDuplicate(err error, field string) bool {
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		return false
	}
	return field == "" || strings.EqualFold(dup.Field, field)
}
