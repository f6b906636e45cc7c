// workers/notification_retry_worker.go
package workers

import (
	"context"
	"time"

	"genesis-intake/models"
	"genesis-intake/services"

	"go.uber.org/zap"
)

// NotificationRetryWorker resends emails that failed at intake time.
//
// Submissions younger than Grace are left alone: intake may still be sending
// their emails and has not flagged them yet.
type NotificationRetryWorker struct {
	Store      services.SubmissionStore
	Dispatcher *services.NotificationDispatcher
	Window     time.Duration
	Grace      time.Duration
	Now        func() time.Time
}

func NewNotificationRetryWorker(store services.SubmissionStore, dispatcher *services.NotificationDispatcher, window, grace time.Duration) *NotificationRetryWorker {
	return &NotificationRetryWorker{
		Store:      store,
		Dispatcher: dispatcher,
		Window:     window,
		Grace:      grace,
		Now:        time.Now,
	}
}

// RunOnce retries every undelivered channel of submissions created between
// Window and Grace ago and returns how many deliveries succeeded.
func (w *NotificationRetryWorker) RunOnce(ctx context.Context) (int, error) {
	now := w.Now().UTC()
	internal := len(w.Dispatcher.InternalRecipients) > 0
	subs, err := w.Store.ListUnnotified(ctx, services.UnnotifiedQuery{
		Since:          now.Add(-w.Window),
		Before:         now.Add(-w.Grace),
		RegistrantOnly: !internal,
	})
	if err != nil {
		return 0, err
	}
	if len(subs) == 0 {
		return 0, nil
	}
	zap.L().Info("🔁 [RETRY] undelivered notifications found", zap.Int("submissions", len(subs)))

	delivered := 0
	for i := range subs {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		sub := &subs[i]
		if !sub.EmailSent {
			delivered += w.retry(ctx, sub, models.ChannelRegistrant, w.Dispatcher.SendRegistrant)
		}
		if internal && !sub.InternalNotificationSent {
			delivered += w.retry(ctx, sub, models.ChannelInternal, w.Dispatcher.SendInternal)
		}
	}
	return delivered, nil
}

func (w *NotificationRetryWorker) retry(
	ctx context.Context,
	sub *models.Submission,
	channel models.NotificationChannel,
	send func(context.Context, *models.Submission) (bool, error),
) int {
	sent, err := send(ctx, sub)
	if err != nil || !sent {
		return 0
	}
	if err := w.Store.MarkNotificationSent(ctx, sub.SubmissionID, channel); err != nil {
		zap.L().Warn("⚠️ [RETRY] delivered but not flagged",
			zap.String("submission_id", sub.SubmissionID),
			zap.String("channel", string(channel)),
			zap.Error(err))
		return 0
	}
	return 1
}
