package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
)

// ReferralIDLength is the length of every generated referral code.
const ReferralIDLength = 8

var referralCodePattern = regexp.MustCompile(`^[A-Z0-9]{4,16}$`)

// SubmissionFields are the user-supplied fields that feed the submission id.
// Field order is the canonical serialization order.
type SubmissionFields struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Organization   string  `json:"organization"`
	Jurisdiction   string  `json:"jurisdiction"`
	Wallet         string  `json:"wallet"`
	Role           string  `json:"role"`
	Metal          string  `json:"metal"`
	Unit           string  `json:"unit"`
	ProposedWeight string  `json:"proposed_weight"`
	IntendedUse    string  `json:"intended_use"`
	ReferredBy     *string `json:"referred_by"`
}

// DeriveSubmissionID returns the hex SHA-256 of the canonical JSON encoding of
// fields plus the creation timestamp. Identical input always yields the same id.
func DeriveSubmissionID(fields SubmissionFields, timestamp string) string {
	canonical := struct {
		SubmissionFields
		Timestamp string `json:"timestamp"`
	}{fields, timestamp}

	// Marshal of a struct of strings cannot fail.
	payload, _ := json.Marshal(canonical)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// DeriveReferralID returns an 8-character uppercase alphanumeric code for the
// registrant. attempt > 0 salts the hash so a collision can be retried with a
// fresh code.
func DeriveReferralID(email, timestamp string, attempt int) string {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(email))))
	h.Write([]byte(timestamp))
	if attempt > 0 {
		h.Write([]byte{'#'})
		h.Write([]byte(strconv.Itoa(attempt)))
	}

	code := strings.ToUpper(strconv.FormatUint(h.Sum64(), 36))
	if len(code) > ReferralIDLength {
		return code[:ReferralIDLength]
	}
	return code + strings.Repeat("0", ReferralIDLength-len(code))
}

// NormalizeReferralCode turns an inbound ?ref= value into a referred_by code.
// Anything that does not look like a referral code is a direct signup (nil).
// Whether the code belongs to an existing submission is not checked here.
func NormalizeReferralCode(raw string) *string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !referralCodePattern.MatchString(code) {
		return nil
	}
	return &code
}
