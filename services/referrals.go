package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"genesis-intake/models"

	"github.com/gosimple/unidecode"
	"github.com/shopspring/decimal"
)

// Leaderboard sizes used when the caller does not ask for one.
const (
	DefaultLeaderboardLimit   = 100
	DefaultLeaderboardDisplay = 10
)

// CountReferrals maps every referral_id to the number of other submissions
// whose referred_by equals it. Codes with no referrals are absent from the map;
// referred_by values that match no submission are never counted.
func CountReferrals(subs []models.Submission) map[string]int64 {
	known := make(map[string]struct{}, len(subs))
	for i := range subs {
		known[subs[i].ReferralID] = struct{}{}
	}

	counts := make(map[string]int64)
	for i := range subs {
		s := &subs[i]
		if s.IsDirect() || *s.ReferredBy == s.ReferralID {
			continue
		}
		if _, ok := known[*s.ReferredBy]; ok {
			counts[*s.ReferredBy]++
		}
	}
	return counts
}

// RankReferrers returns referrers with at least one referral ordered by count
// (desc), then earliest registration, then referral_id. limit <= 0 means no cap.
func RankReferrers(subs []models.Submission, limit int) []models.LeaderboardEntry {
	ranked := rankedSubmissions(subs)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]models.LeaderboardEntry, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, models.LeaderboardEntry{
			Name:          r.sub.Name,
			ReferralID:    r.sub.ReferralID,
			ReferralCount: r.count,
		})
	}
	return out
}

type rankedSubmission struct {
	sub   *models.Submission
	count int64
}

func rankedSubmissions(subs []models.Submission) []rankedSubmission {
	counts := CountReferrals(subs)
	ranked := make([]rankedSubmission, 0, len(counts))
	for i := range subs {
		if c := counts[subs[i].ReferralID]; c > 0 {
			ranked = append(ranked, rankedSubmission{sub: &subs[i], count: c})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.count != b.count {
			return a.count > b.count
		}
		if !a.sub.Timestamp.Equal(b.sub.Timestamp) {
			return a.sub.Timestamp.Before(b.sub.Timestamp)
		}
		return a.sub.ReferralID < b.sub.ReferralID
	})
	return ranked
}

// SummarizeSubmissions computes the admin stats strip. Every metal in metals
// appears in the snapshot, with zero weight when nothing was registered.
// Jurisdictions are counted once regardless of case, accents or spacing.
func SummarizeSubmissions(subs []models.Submission, metals []string) models.StatsSnapshot {
	snap := models.StatsSnapshot{
		Total:         int64(len(subs)),
		WeightByMetal: make(map[string]decimal.Decimal, len(metals)),
	}
	for _, m := range metals {
		snap.WeightByMetal[strings.ToLower(m)] = decimal.Zero
	}

	jurisdictions := make(map[string]struct{})
	for i := range subs {
		s := &subs[i]
		metal := strings.ToLower(strings.TrimSpace(s.Metal))
		if total, ok := snap.WeightByMetal[metal]; ok {
			snap.WeightByMetal[metal] = total.Add(s.ProposedWeight)
		}
		if j := normalizeJurisdiction(s.Jurisdiction); j != "" {
			jurisdictions[j] = struct{}{}
		}
	}
	snap.UniqueJurisdictions = int64(len(jurisdictions))
	return snap
}

// normalizeJurisdiction folds case and accents so "Côte d'Ivoire" and
// "cote d'ivoire" count once.
func normalizeJurisdiction(j string) string {
	return strings.ToLower(strings.Join(strings.Fields(unidecode.Unidecode(j)), " "))
}

// ReferralStatsFor summarizes one referral code. ok is false when no
// submission owns the code.
func ReferralStatsFor(subs []models.Submission, referralID string) (models.ReferralStats, bool) {
	var owner *models.Submission
	for i := range subs {
		if subs[i].ReferralID == referralID {
			owner = &subs[i]
			break
		}
	}
	if owner == nil {
		return models.ReferralStats{}, false
	}

	stats := models.ReferralStats{
		ReferralID: owner.ReferralID,
		Name:       owner.Name,
		Referrals:  []models.ReferralEdge{},
	}
	for i := range subs {
		s := &subs[i]
		if s == owner || s.IsDirect() || *s.ReferredBy != referralID {
			continue
		}
		stats.Referrals = append(stats.Referrals, models.ReferralEdge{
			ReferrerID:           referralID,
			ReferredSubmissionID: s.SubmissionID,
			ReferredName:         s.Name,
			ReferredAt:           s.Timestamp,
		})
	}
	sort.SliceStable(stats.Referrals, func(i, j int) bool {
		return stats.Referrals[i].ReferredAt.After(stats.Referrals[j].ReferredAt)
	})
	stats.ReferralCount = int64(len(stats.Referrals))

	if stats.ReferralCount > 0 {
		for i, r := range rankedSubmissions(subs) {
			if r.sub.ReferralID == referralID {
				stats.Rank = i + 1
				break
			}
		}
	}
	return stats, true
}

// PendingViews returns PENDING submissions, newest first, each with its
// referral count.
func PendingViews(subs []models.Submission) []models.SubmissionView {
	counts := CountReferrals(subs)
	views := make([]models.SubmissionView, 0)
	for i := range subs {
		if subs[i].Status != models.StatusPending {
			continue
		}
		views = append(views, models.SubmissionView{
			Submission:    subs[i],
			ReferralCount: counts[subs[i].ReferralID],
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Timestamp.After(views[j].Timestamp)
	})
	return views
}

// BuildDashboard assembles the admin view model from the full submission set.
func BuildDashboard(subs []models.Submission, metals []string, display int, now time.Time) models.DashboardView {
	if display <= 0 {
		display = DefaultLeaderboardDisplay
	}
	view := models.DashboardView{
		Pending:     PendingViews(subs),
		Stats:       SummarizeSubmissions(subs, metals),
		Leaderboard: RankReferrers(subs, display),
		GeneratedAt: now,
	}
	if len(subs) > 0 {
		var referred int
		for i := range subs {
			if !subs[i].IsDirect() {
				referred++
			}
		}
		view.ReferralRate = int(math.Round(float64(referred) * 100 / float64(len(subs))))
	}
	return view
}
