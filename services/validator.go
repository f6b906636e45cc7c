package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"genesis-intake/models"

	"github.com/shopspring/decimal"
)

// RequiredFields lists, in reporting order, every field an intake payload must carry.
var RequiredFields = []string{
	"submission_id",
	"timestamp",
	"name",
	"email",
	"jurisdiction",
	"role",
	"metal",
	"unit",
	"proposed_weight",
	"referral_id",
}

// ValidatedSubmission is an intake payload that passed validation, with every
// string trimmed and optional fields defaulted.
type ValidatedSubmission struct {
	SubmissionID string
	RawTimestamp string
	Timestamp    time.Time // zero when RawTimestamp is not RFC 3339
	Name         string
	Email        string
	Organization *string
	Jurisdiction string
	Wallet       *string
	Role         string
	Metal        string
	Unit         string

	ProposedWeight decimal.Decimal
	IntendedUse    string
	ReferralID     string
	ReferredBy     *string
	Status         models.SubmissionStatus
}

// ValidationResult is either a normalized submission or a validation failure.
type ValidationResult struct {
	Submission *ValidatedSubmission
	Err        *ValidationError
}

// OK reports whether the payload was accepted.
func (r ValidationResult) OK() bool { return r.Err == nil && r.Submission != nil }

// ValidateSubmission checks an untyped intake payload. It has no side effects.
func ValidateSubmission(payload map[string]any) ValidationResult {
	if payload == nil {
		return ValidationResult{Err: &ValidationError{Kind: InvalidBody}}
	}

	var missing []string
	for _, field := range RequiredFields {
		if _, ok := textField(payload, field); !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return ValidationResult{Err: &ValidationError{Kind: MissingFields, Fields: missing}}
	}

	weight, ok := parseWeight(payload["proposed_weight"])
	if !ok {
		return ValidationResult{Err: &ValidationError{Kind: InvalidWeight}}
	}

	get := func(field string) string {
		v, _ := textField(payload, field)
		return v
	}

	// referral_id is held to the same form as an inbound referred_by.
	referralID := NormalizeReferralCode(get("referral_id"))
	if referralID == nil {
		return ValidationResult{Err: &ValidationError{Kind: InvalidReferralID}}
	}

	raw := get("timestamp")
	out := &ValidatedSubmission{
		SubmissionID:   get("submission_id"),
		RawTimestamp:   raw,
		Timestamp:      parseTimestamp(raw),
		Name:           get("name"),
		Email:          get("email"),
		Organization:   optionalField(payload, "organization"),
		Jurisdiction:   get("jurisdiction"),
		Wallet:         optionalField(payload, "wallet"),
		Role:           get("role"),
		Metal:          get("metal"),
		Unit:           get("unit"),
		ProposedWeight: weight,
		IntendedUse:    models.DefaultIntendedUse,
		ReferralID:     *referralID,
		ReferredBy:     optionalField(payload, "referred_by"),
		Status:         models.StatusPending,
	}
	if use, ok := textField(payload, "intended_use"); ok {
		out.IntendedUse = use
	}
	if status, ok := textField(payload, "status"); ok {
		if s := models.SubmissionStatus(strings.ToUpper(status)); s.Valid() {
			out.Status = s
		}
	}

	return ValidationResult{Submission: out}
}

// textField returns the trimmed text form of payload[field]; ok is false when
// the key is absent, null, or blank.
func textField(payload map[string]any, field string) (string, bool) {
	v, present := payload[field]
	if !present || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func optionalField(payload map[string]any, field string) *string {
	if v, ok := textField(payload, field); ok {
		return &v
	}
	return nil
}

// parseWeight accepts JSON numbers and numeric strings that are finite and > 0.
func parseWeight(v any) (decimal.Decimal, bool) {
	var text string
	switch t := v.(type) {
	case float64:
		text = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		text = strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		text = strconv.Itoa(t)
	case int64:
		text = strconv.FormatInt(t, 10)
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
	default:
		return decimal.Zero, false
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		d = decimal.NewFromFloat(f)
	}
	if !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
