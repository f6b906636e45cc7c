package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Weights go over the wire as JSON numbers, the way the intake form sends them.
	decimal.MarshalJSONWithoutQuotes = true
}

// SubmissionStatus is the review state of a registration.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "PENDING"
	StatusApproved SubmissionStatus = "APPROVED"
	StatusDeferred SubmissionStatus = "DEFERRED"
	StatusRejected SubmissionStatus = "REJECTED"
)

// Valid reports whether s is one of the known review states.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeferred, StatusRejected:
		return true
	}
	return false
}

// NotificationChannel names an email destination tracked on a submission.
type NotificationChannel string

const (
	ChannelRegistrant NotificationChannel = "registrant"
	ChannelInternal   NotificationChannel = "internal"
)

// DefaultIntendedUse is stored when the registrant leaves intended use blank.
const DefaultIntendedUse = "Undecided"

// Submission is one Genesis allocation registration. Rows are append-only:
// identity and payload fields never change after insert, only the review and
// notification columns do.
type Submission struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	SubmissionID string  `gorm:"uniqueIndex;not null;size:128" json:"submission_id"`
	ReferralID   string  `gorm:"uniqueIndex;not null;size:16" json:"referral_id"`
	ReferredBy   *string `gorm:"index;size:16" json:"referred_by,omitempty"`

	Timestamp    time.Time `gorm:"index;not null" json:"timestamp"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"index;not null" json:"email"`
	Organization *string   `json:"organization,omitempty"`
	Jurisdiction string    `gorm:"not null" json:"jurisdiction"`
	Wallet       *string   `json:"wallet,omitempty"`
	Role         string    `gorm:"not null" json:"role"`

	Metal          string          `gorm:"not null;index" json:"metal"`
	Unit           string          `gorm:"not null" json:"unit"`
	ProposedWeight decimal.Decimal `gorm:"type:numeric;not null" json:"proposed_weight"`
	IntendedUse    string          `gorm:"not null;default:'Undecided'" json:"intended_use"`

	// Review
	Status     SubmissionStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	ReviewedBy *string          `json:"reviewed_by,omitempty"`
	ReviewDate *time.Time       `json:"review_date,omitempty"`
	Notes      *string          `gorm:"type:text" json:"notes,omitempty"`

	// Notification bookkeeping
	EmailSent                bool       `gorm:"not null;default:false" json:"email_sent"`
	EmailSentAt              *time.Time `json:"email_sent_at,omitempty"`
	InternalNotificationSent bool       `gorm:"not null;default:false" json:"internal_notification_sent"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsDirect reports whether the registration arrived without a referral code.
func (s *Submission) IsDirect() bool {
	return s.ReferredBy == nil || *s.ReferredBy == ""
}

// SubmissionView is a stored submission plus its computed referral count.
type SubmissionView struct {
	Submission
	ReferralCount int64 `json:"referral_count"`
}

// AutoMigrate creates or updates every table owned by the service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Submission{})
}
