package services

import (
	"context"
	"time"

	"genesis-intake/models"
)

// UnnotifiedQuery selects submissions that still have an undelivered channel.
type UnnotifiedQuery struct {
	Since  time.Time // created at or after
	Before time.Time // created at or before; zero means no upper bound
	// RegistrantOnly ignores the internal flag, for deployments without
	// internal recipients where it never becomes true.
	RegistrantOnly bool
}

// SubmissionStore owns the canonical submission records. Aggregates are
// computed from its current contents on every call.
type SubmissionStore interface {
	// --- Writes ---
	Insert(ctx context.Context, sub *models.Submission) error
	UpdateStatus(ctx context.Context, submissionID string, status models.SubmissionStatus, reviewer, notes string) (*models.Submission, error)
	MarkNotificationSent(ctx context.Context, submissionID string, channel models.NotificationChannel) error

	// --- Lookups ---
	FindPending(ctx context.Context) ([]models.SubmissionView, error)
	FindBySubmissionID(ctx context.Context, submissionID string) (*models.Submission, error)
	FindByReferralID(ctx context.Context, referralID string) (*models.Submission, error)
	ReferralIDExists(ctx context.Context, referralID string) (bool, error)
	ListUnnotified(ctx context.Context, q UnnotifiedQuery) ([]models.Submission, error)
	All(ctx context.Context) ([]models.Submission, error)

	// --- Derived ---
	AggregateStats(ctx context.Context) (models.StatsSnapshot, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	ReferralStats(ctx context.Context, referralID string) (*models.ReferralStats, error)
}
