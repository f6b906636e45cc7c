package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"genesis-intake/models"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Compile-time check: *GormSubmissionStore must satisfy SubmissionStore.
var _ SubmissionStore = (*GormSubmissionStore)(nil)

// GormSubmissionStore keeps submissions in a relational database through GORM.
// Uniqueness of submission_id and referral_id is enforced by the schema's
// unique indexes, not by application locking.
type GormSubmissionStore struct {
	DB     *gorm.DB
	Metals []string
	Now    func() time.Time
}

func NewSubmissionStore(db *gorm.DB, metals []string) *GormSubmissionStore {
	return &GormSubmissionStore{DB: db, Metals: metals, Now: time.Now}
}

// Insert creates the submission in a single statement. A clash on either
// unique column is reported as *DuplicateError and leaves the table untouched.
func (s *GormSubmissionStore) Insert(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Status == "" {
		sub.Status = models.StatusPending
	}
	if sub.IntendedUse == "" {
		sub.IntendedUse = models.DefaultIntendedUse
	}

	if err := s.DB.WithContext(ctx).Create(sub).Error; err != nil {
		if dup := classifyDuplicate(err, sub); dup != nil {
			return dup
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// classifyDuplicate maps a unique violation from Postgres or SQLite onto the
// column that clashed. It returns nil for any other error.
func classifyDuplicate(err error, sub *models.Submission) *DuplicateError {
	var detail string
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		if pgErr.Code != pgerrcode.UniqueViolation {
			return nil
		}
		detail = pgErr.ConstraintName + " " + pgErr.Detail
	case errors.Is(err, gorm.ErrDuplicatedKey):
		detail = err.Error()
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		detail = err.Error()
	default:
		return nil
	}

	switch {
	case strings.Contains(detail, "referral_id"):
		return &DuplicateError{Field: "referral_id", Value: sub.ReferralID}
	case strings.Contains(detail, "submission_id"):
		return &DuplicateError{Field: "submission_id", Value: sub.SubmissionID}
	default:
		return &DuplicateError{Field: "id", Value: sub.ID}
	}
}

// UpdateStatus records a review decision. Re-applying the same decision leaves
// the business fields unchanged; review_date always moves to now.
func (s *GormSubmissionStore) UpdateStatus(ctx context.Context, submissionID string, status models.SubmissionStatus, reviewer, notes string) (*models.Submission, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	updates := map[string]any{
		"status":      status,
		"reviewed_by": nullableText(reviewer),
		"review_date": s.Now().UTC(),
		"notes":       nullableText(notes),
	}
	res := s.DB.WithContext(ctx).
		Model(&models.Submission{}).
		Where("submission_id = ?", submissionID).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update submission status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrSubmissionNotFound
	}

	zap.L().Info("✅ Submission status updated",
		zap.String("submission_id", submissionID),
		zap.String("status", string(status)),
		zap.String("reviewed_by", reviewer))
	return s.FindBySubmissionID(ctx, submissionID)
}

// MarkNotificationSent flags one delivery channel as done.
func (s *GormSubmissionStore) MarkNotificationSent(ctx context.Context, submissionID string, channel models.NotificationChannel) error {
	var updates map[string]any
	switch channel {
	case models.ChannelRegistrant:
		updates = map[string]any{"email_sent": true, "email_sent_at": s.Now().UTC()}
	case models.ChannelInternal:
		updates = map[string]any{"internal_notification_sent": true}
	default:
		return fmt.Errorf("unknown notification channel %q", channel)
	}

	res := s.DB.WithContext(ctx).
		Model(&models.Submission{}).
		Where("submission_id = ?", submissionID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("mark %s notification: %w", channel, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (s *GormSubmissionStore) FindPending(ctx context.Context) ([]models.SubmissionView, error) {
	subs, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return PendingViews(subs), nil
}

func (s *GormSubmissionStore) FindBySubmissionID(ctx context.Context, submissionID string) (*models.Submission, error) {
	return s.findOne(ctx, "submission_id = ?", submissionID)
}

func (s *GormSubmissionStore) FindByReferralID(ctx context.Context, referralID string) (*models.Submission, error) {
	return s.findOne(ctx, "referral_id = ?", referralID)
}

func (s *GormSubmissionStore) findOne(ctx context.Context, query string, arg string) (*models.Submission, error) {
	var sub models.Submission
	if err := s.DB.WithContext(ctx).Where(query, arg).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &sub, nil
}

func (s *GormSubmissionStore) ReferralIDExists(ctx context.Context, referralID string) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).
		Model(&models.Submission{}).
		Where("referral_id = ?", referralID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check referral id: %w", err)
	}
	return count > 0, nil
}

// ListUnnotified returns submissions created inside the query's window that
// still have an undelivered email channel, oldest first.
func (s *GormSubmissionStore) ListUnnotified(ctx context.Context, q UnnotifiedQuery) ([]models.Submission, error) {
	tx := s.DB.WithContext(ctx).Where("created_at >= ?", q.Since.UTC())
	if !q.Before.IsZero() {
		tx = tx.Where("created_at <= ?", q.Before.UTC())
	}
	if q.RegistrantOnly {
		tx = tx.Where("email_sent = ?", false)
	} else {
		tx = tx.Where("email_sent = ? OR internal_notification_sent = ?", false, false)
	}

	var subs []models.Submission
	if err := tx.Order("created_at ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list unnotified submissions: %w", err)
	}
	return subs, nil
}

// All returns every submission ordered by registration time.
func (s *GormSubmissionStore) All(ctx context.Context) ([]models.Submission, error) {
	return s.load(ctx)
}

func (s *GormSubmissionStore) load(ctx context.Context, columns ...string) ([]models.Submission, error) {
	var subs []models.Submission
	q := s.DB.WithContext(ctx).Model(&models.Submission{})
	if len(columns) > 0 {
		q = q.Select(columns)
	}
	err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}}).
		Order("id").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	return subs, nil
}

func (s *GormSubmissionStore) AggregateStats(ctx context.Context) (models.StatsSnapshot, error) {
	subs, err := s.load(ctx, "id", "metal", "proposed_weight", "jurisdiction")
	if err != nil {
		return models.StatsSnapshot{}, err
	}
	return SummarizeSubmissions(subs, s.Metals), nil
}

func (s *GormSubmissionStore) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	subs, err := s.load(ctx, "id", "name", "referral_id", "referred_by", "timestamp")
	if err != nil {
		return nil, err
	}
	return RankReferrers(subs, limit), nil
}

func (s *GormSubmissionStore) ReferralStats(ctx context.Context, referralID string) (*models.ReferralStats, error) {
	subs, err := s.load(ctx, "id", "submission_id", "name", "referral_id", "referred_by", "timestamp")
	if err != nil {
		return nil, err
	}
	stats, ok := ReferralStatsFor(subs, referralID)
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	return &stats, nil
}

func nullableText(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
