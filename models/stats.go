package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// StatsSnapshot is the on-demand aggregate shown on the admin dashboard.
// It is never persisted.
type StatsSnapshot struct {
	Total               int64
	WeightByMetal       map[string]decimal.Decimal // keyed by lower-case metal name
	UniqueJurisdictions int64
}

// Weight returns the total proposed weight recorded for metal (lower-case).
func (s StatsSnapshot) Weight(metal string) decimal.Decimal {
	if w, ok := s.WeightByMetal[metal]; ok {
		return w
	}
	return decimal.Zero
}

// MarshalJSON flattens per-metal weights into total_weight_<metal> keys.
func (s StatsSnapshot) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"total":                s.Total,
		"unique_jurisdictions": s.UniqueJurisdictions,
	}
	metals := make([]string, 0, len(s.WeightByMetal))
	for m := range s.WeightByMetal {
		metals = append(metals, m)
	}
	sort.Strings(metals)
	for _, m := range metals {
		out["total_weight_"+m] = s.WeightByMetal[m].InexactFloat64()
	}
	return json.Marshal(out)
}

// LeaderboardEntry is one ranked referrer.
type LeaderboardEntry struct {
	Name          string `json:"name"`
	ReferralID    string `json:"referral_id"`
	ReferralCount int64  `json:"referral_count"`
}

// ReferralEdge links a referrer's code to a submission that registered with it.
type ReferralEdge struct {
	ReferrerID           string    `json:"referrer_id"`
	ReferredSubmissionID string    `json:"referred_submission_id"`
	ReferredName         string    `json:"referred_name"`
	ReferredAt           time.Time `json:"referred_at"`
}

// ReferralStats summarizes one referrer: its count, leaderboard rank and chain.
type ReferralStats struct {
	ReferralID    string         `json:"referral_id"`
	Name          string         `json:"name"`
	ReferralCount int64          `json:"referral_count"`
	Rank          int            `json:"rank"` // 0 when the code has no referrals yet
	Referrals     []ReferralEdge `json:"referrals"`
}

// DashboardView is the read-only admin view model, rebuilt wholesale from a
// single fetch of every submission.
type DashboardView struct {
	Pending      []SubmissionView   `json:"pending"`
	Stats        StatsSnapshot      `json:"stats"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	ReferralRate int                `json:"referral_rate"` // percent of submissions that carry a referral
	GeneratedAt  time.Time          `json:"generated_at"`
}
