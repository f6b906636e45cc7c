package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"genesis-intake/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testMetals = []string{"gold", "silver"}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func setupTestStore(t *testing.T) *GormSubmissionStore {
	t.Helper()
	return NewSubmissionStore(setupTestDB(t), testMetals)
}

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newSubmission builds a valid stored submission; n orders timestamps.
func newSubmission(referralID string, n int, referredBy string) *models.Submission {
	sub := &models.Submission{
		SubmissionID:   "sub-" + referralID,
		ReferralID:     referralID,
		Timestamp:      baseTime.Add(time.Duration(n) * time.Minute),
		Name:           "Registrant " + referralID,
		Email:          referralID + "@example.com",
		Jurisdiction:   "US",
		Role:           "Investor",
		Metal:          "gold",
		Unit:           "oz",
		ProposedWeight: decimal.NewFromInt(10),
	}
	if referredBy != "" {
		sub.ReferredBy = &referredBy
	}
	return sub
}

func validPayload() map[string]any {
	return map[string]any{
		"submission_id":   "abc123",
		"timestamp":       "2025-03-01T12:00:00.000Z",
		"name":            "Ann",
		"email":           "ann@example.com",
		"jurisdiction":    "US",
		"role":            "Investor",
		"metal":           "gold",
		"unit":            "oz",
		"proposed_weight": 10,
		"referral_id":     "AAAA1111",
	}
}

// fakeMailer records messages and fails for recipients listed in failFor.
type fakeMailer struct {
	mu      sync.Mutex
	sent    []EmailMessage
	failFor map[string]error
}

func (m *fakeMailer) Send(_ context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, to := range msg.To {
		if err, ok := m.failFor[to]; ok {
			return err
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmailMessage(nil), m.sent...)
}

func newTestDispatcher(mailer Mailer, internal ...string) *NotificationDispatcher {
	return &NotificationDispatcher{
		Mailer:             mailer,
		FromEmail:          "genesis@example.com",
		FromName:           "Genesis",
		InternalRecipients: internal,
		BaseURL:            "https://genesis.example.com",
	}
}
