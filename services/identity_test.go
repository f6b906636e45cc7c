package services

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSubmissionIDIsDeterministic(t *testing.T) {
	fields := SubmissionFields{
		Name:           "Ann",
		Email:          "ann@example.com",
		Jurisdiction:   "US",
		Role:           "Investor",
		Metal:          "gold",
		Unit:           "oz",
		ProposedWeight: "10",
	}
	ts := "2025-03-01T12:00:00.000Z"

	a := DeriveSubmissionID(fields, ts)
	b := DeriveSubmissionID(fields, ts)
	assert.Equal(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), a)

	assert.NotEqual(t, a, DeriveSubmissionID(fields, "2025-03-01T12:00:00.001Z"))

	ref := "AAAA1111"
	fields.ReferredBy = &ref
	assert.NotEqual(t, a, DeriveSubmissionID(fields, ts))
}

func TestDeriveReferralIDShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	ts := "2025-03-01T12:00:00.000Z"

	id := DeriveReferralID("ann@example.com", ts, 0)
	assert.Regexp(t, pattern, id)
	assert.Equal(t, id, DeriveReferralID("  ANN@example.com ", ts, 0), "email is case and space insensitive")

	retry := DeriveReferralID("ann@example.com", ts, 1)
	assert.Regexp(t, pattern, retry)
	assert.NotEqual(t, id, retry)

	seen := make(map[string]bool)
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io"} {
		code := DeriveReferralID(email, ts, 0)
		assert.False(t, seen[code], "unexpected collision for %s", email)
		seen[code] = true
	}
}

func TestNormalizeReferralCode(t *testing.T) {
	got := NormalizeReferralCode("  aaaa1111 ")
	require.NotNil(t, got)
	assert.Equal(t, "AAAA1111", *got)

	assert.Nil(t, NormalizeReferralCode(""))
	assert.Nil(t, NormalizeReferralCode("abc"))
	assert.Nil(t, NormalizeReferralCode("not-a-code"))
	assert.Nil(t, NormalizeReferralCode("<script>"))
}
