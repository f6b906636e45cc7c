package services

import (
	"context"
	"strings"

	"genesis-intake/metrics"
	"genesis-intake/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NotificationOutcome reports which channels were delivered for one submission.
type NotificationOutcome struct {
	RegistrantSent bool                `json:"email_sent"`
	InternalSent   bool                `json:"internal_notified"`
	Errors         []NotificationError `json:"errors,omitempty"`
}

// NotificationDispatcher sends the registrant confirmation and the internal
// notice for a stored submission. A failure on one channel never affects the
// other, and neither is ever returned as an error.
type NotificationDispatcher struct {
	Mailer             Mailer
	FromEmail          string
	FromName           string
	InternalRecipients []string
	BaseURL            string
	Metrics            *metrics.Metrics
}

// SendAll attempts both channels concurrently.
func (d *NotificationDispatcher) SendAll(ctx context.Context, sub *models.Submission) NotificationOutcome {
	var (
		out                   NotificationOutcome
		registrantErr, intErr error
		g                     errgroup.Group
	)

	g.Go(func() error {
		out.RegistrantSent, registrantErr = d.SendRegistrant(ctx, sub)
		return nil
	})
	g.Go(func() error {
		out.InternalSent, intErr = d.SendInternal(ctx, sub)
		return nil
	})
	_ = g.Wait()

	if registrantErr != nil {
		out.Errors = append(out.Errors, NotificationError{Channel: models.ChannelRegistrant, Message: registrantErr.Error()})
	}
	if intErr != nil {
		out.Errors = append(out.Errors, NotificationError{Channel: models.ChannelInternal, Message: intErr.Error()})
	}
	return out
}

// SendRegistrant mails the confirmation with the registrant's referral link.
// sent is false without error when the submission has no email address.
func (d *NotificationDispatcher) SendRegistrant(ctx context.Context, sub *models.Submission) (sent bool, err error) {
	to := strings.TrimSpace(sub.Email)
	if to == "" {
		return false, nil
	}
	subject, body, err := RenderRegistrantEmail(sub, d.BaseURL)
	if err != nil {
		return false, err
	}
	return d.deliver(ctx, models.ChannelRegistrant, sub, EmailMessage{
		To:        []string{to},
		FromEmail: d.FromEmail,
		FromName:  d.FromName,
		Subject:   subject,
		Text:      body,
	})
}

// SendInternal mails the review team. sent is false without error when no
// internal recipients are configured.
func (d *NotificationDispatcher) SendInternal(ctx context.Context, sub *models.Submission) (sent bool, err error) {
	if len(d.InternalRecipients) == 0 {
		return false, nil
	}
	subject, body, err := RenderInternalEmail(sub)
	if err != nil {
		return false, err
	}
	return d.deliver(ctx, models.ChannelInternal, sub, EmailMessage{
		To:        d.InternalRecipients,
		FromEmail: d.FromEmail,
		FromName:  d.FromName,
		Subject:   subject,
		Text:      body,
	})
}

// SendDigest mails a dashboard summary to the internal recipients.
func (d *NotificationDispatcher) SendDigest(ctx context.Context, view models.DashboardView) error {
	if len(d.InternalRecipients) == 0 {
		return nil
	}
	subject, body, err := RenderDigestEmail(view)
	if err != nil {
		return err
	}
	return d.Mailer.Send(ctx, EmailMessage{
		To:        d.InternalRecipients,
		FromEmail: d.FromEmail,
		FromName:  d.FromName,
		Subject:   subject,
		Text:      body,
	})
}

func (d *NotificationDispatcher) deliver(ctx context.Context, channel models.NotificationChannel, sub *models.Submission, msg EmailMessage) (bool, error) {
	if err := d.Mailer.Send(ctx, msg); err != nil {
		d.Metrics.Notification(string(channel), metrics.ResultFailed)
		zap.L().Warn("❌ [NOTIFY] delivery failed",
			zap.String("channel", string(channel)),
			zap.String("submission_id", sub.SubmissionID),
			zap.Error(err))
		return false, err
	}
	d.Metrics.Notification(string(channel), metrics.ResultSent)
	zap.L().Info("📧 [NOTIFY] delivered",
		zap.String("channel", string(channel)),
		zap.String("submission_id", sub.SubmissionID))
	return true, nil
}
