package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"genesis-intake/metrics"
	"genesis-intake/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// maxReferralAttempts bounds how many referral codes are tried for one
// registration before a collision is reported to the caller.
const maxReferralAttempts = 3

// IntakeService runs the public registration flow: validate, attribute the
// referral, store, archive, notify.
type IntakeService struct {
	Store      SubmissionStore
	Dispatcher *NotificationDispatcher
	Archiver   Archiver
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

func NewIntakeService(store SubmissionStore, dispatcher *NotificationDispatcher, archiver Archiver, m *metrics.Metrics) *IntakeService {
	if archiver == nil {
		archiver = NoopArchiver{}
	}
	return &IntakeService{
		Store:      store,
		Dispatcher: dispatcher,
		Archiver:   archiver,
		Metrics:    m,
		Now:        time.Now,
	}
}

// IntakeResult is the stored submission and what happened to its notifications.
type IntakeResult struct {
	Submission    *models.Submission
	Notifications NotificationOutcome
}

// Submit registers one payload. inboundRef is the ?ref= value of the landing
// URL and is only used when the body carries no referred_by.
//
// Errors are *ValidationError, *DuplicateError or an internal error.
// Notification failures are reported in the result, never as an error.
func (s *IntakeService) Submit(ctx context.Context, payload map[string]any, inboundRef string) (*IntakeResult, error) {
	v := ValidateSubmission(payload)
	if !v.OK() {
		s.Metrics.Submission(metrics.ResultInvalid)
		return nil, v.Err
	}

	sub := s.buildSubmission(v.Submission, inboundRef)
	if err := s.insert(ctx, sub, v.Submission.RawTimestamp); err != nil {
		if IsDuplicate(err, "") {
			s.Metrics.Submission(metrics.ResultDuplicate)
		} else {
			s.Metrics.Submission(metrics.ResultError)
		}
		return nil, err
	}
	s.Metrics.Submission(metrics.ResultAccepted)
	zap.L().Info("✅ [INTAKE] submission stored",
		zap.String("submission_id", sub.SubmissionID),
		zap.String("referral_id", sub.ReferralID),
		zap.Bool("referred", !sub.IsDirect()))

	if err := s.Archiver.Archive(ctx, sub); err != nil {
		zap.L().Warn("⚠️ [INTAKE] receipt archive failed", zap.String("submission_id", sub.SubmissionID), zap.Error(err))
	}

	result := &IntakeResult{Submission: sub}
	if s.Dispatcher != nil {
		result.Notifications = s.Dispatcher.SendAll(ctx, sub)
		s.recordDelivery(ctx, sub, result.Notifications)
	}
	return result, nil
}

func (s *IntakeService) buildSubmission(v *ValidatedSubmission, inboundRef string) *models.Submission {
	referredBy := inboundRef
	if v.ReferredBy != nil {
		referredBy = *v.ReferredBy
	}

	ts := v.Timestamp
	if ts.IsZero() {
		ts = s.Now().UTC()
	}

	return &models.Submission{
		SubmissionID:   v.SubmissionID,
		ReferralID:     v.ReferralID,
		ReferredBy:     NormalizeReferralCode(referredBy),
		Timestamp:      ts,
		Name:           v.Name,
		Email:          v.Email,
		Organization:   v.Organization,
		Jurisdiction:   v.Jurisdiction,
		Wallet:         v.Wallet,
		Role:           v.Role,
		Metal:          v.Metal,
		Unit:           v.Unit,
		ProposedWeight: v.ProposedWeight,
		IntendedUse:    v.IntendedUse,
		// Review state is never taken from the public form.
		Status: models.StatusPending,
	}
}

// insert stores sub, deriving a fresh referral code when the supplied one is
// already taken. A submission_id clash is returned unchanged.
func (s *IntakeService) insert(ctx context.Context, sub *models.Submission, rawTimestamp string) error {
	for attempt := 1; ; attempt++ {
		err := s.Store.Insert(ctx, sub)
		if err == nil || !IsDuplicate(err, "referral_id") || attempt >= maxReferralAttempts {
			return err
		}
		previous := sub.ReferralID
		sub.ReferralID = DeriveReferralID(sub.Email, rawTimestamp, attempt)
		zap.L().Warn("🔁 [INTAKE] referral id taken, regenerated",
			zap.String("previous", previous),
			zap.String("referral_id", sub.ReferralID))
	}
}

func (s *IntakeService) recordDelivery(ctx context.Context, sub *models.Submission, out NotificationOutcome) {
	now := s.Now().UTC()
	if out.RegistrantSent {
		if err := s.Store.MarkNotificationSent(ctx, sub.SubmissionID, models.ChannelRegistrant); err != nil {
			zap.L().Warn("⚠️ [INTAKE] could not flag registrant email", zap.String("submission_id", sub.SubmissionID), zap.Error(err))
		} else {
			sub.EmailSent = true
			sub.EmailSentAt = &now
		}
	}
	if out.InternalSent {
		if err := s.Store.MarkNotificationSent(ctx, sub.SubmissionID, models.ChannelInternal); err != nil {
			zap.L().Warn("⚠️ [INTAKE] could not flag internal notice", zap.String("submission_id", sub.SubmissionID), zap.Error(err))
		} else {
			sub.InternalNotificationSent = true
		}
	}
}

// HandleSubmit is POST /api/submit.
func (s *IntakeService) HandleSubmit(c *fiber.Ctx) error {
	payload, err := decodePayload(c.Body())
	if err != nil {
		s.Metrics.Submission(metrics.ResultInvalid)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   (&ValidationError{Kind: InvalidBody}).Error(),
		})
	}

	result, err := s.Submit(c.UserContext(), payload, c.Query("ref"))
	if err != nil {
		return submitError(c, err)
	}

	resp := fiber.Map{
		"success":           true,
		"submission_id":     result.Submission.SubmissionID,
		"referral_id":       result.Submission.ReferralID,
		"email_sent":        result.Notifications.RegistrantSent,
		"internal_notified": result.Notifications.InternalSent,
	}
	if len(result.Notifications.Errors) > 0 {
		resp["errors"] = result.Notifications.Errors
	}
	return c.JSON(resp)
}

func decodePayload(body []byte) (map[string]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if payload == nil {
		return nil, errors.New("body is null")
	}
	return payload, nil
}

func submitError(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	var dup *DuplicateError
	switch {
	case errors.As(err, &verr):
		body := fiber.Map{"success": false, "error": verr.Error()}
		if verr.Kind == MissingFields {
			body["missing"] = verr.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.As(err, &dup):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Duplicate submission",
			"field":   dup.Field,
		})
	default:
		zap.L().Error("❌ [INTAKE] submission failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Internal server error",
			"message": "submission could not be stored",
		})
	}
}
