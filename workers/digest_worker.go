// workers/digest_worker.go
package workers

import (
	"context"
	"fmt"

	"genesis-intake/services"

	"go.uber.org/zap"
)

// DigestWorker mails the back-office dashboard to the internal recipients.
type DigestWorker struct {
	Admin      *services.AdminService
	Dispatcher *services.NotificationDispatcher
}

func NewDigestWorker(admin *services.AdminService, dispatcher *services.NotificationDispatcher) *DigestWorker {
	return &DigestWorker{Admin: admin, Dispatcher: dispatcher}
}

func (w *DigestWorker) RunOnce(ctx context.Context) error {
	view, err := w.Admin.Dashboard(ctx)
	if err != nil {
		return err
	}
	if err := w.Dispatcher.SendDigest(ctx, view); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	zap.L().Info("📊 [DIGEST] sent",
		zap.Int64("submissions", view.Stats.Total),
		zap.Int("pending", len(view.Pending)))
	return nil
}
