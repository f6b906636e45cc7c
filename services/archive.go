package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"genesis-intake/metrics"
	"genesis-intake/models"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Archiver keeps an immutable receipt of every accepted submission.
type Archiver interface {
	Archive(ctx context.Context, sub *models.Submission) error
}

// ObjectWriter stores one object in a bucket.
type ObjectWriter interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

// NoopArchiver is used when no object storage is configured.
type NoopArchiver struct{}

func (NoopArchiver) Archive(context.Context, *models.Submission) error { return nil }

// ObjectArchiver writes submission receipts as JSON objects.
type ObjectArchiver struct {
	Writer  ObjectWriter
	Metrics *metrics.Metrics
}

func NewObjectArchiver(w ObjectWriter, m *metrics.Metrics) *ObjectArchiver {
	return &ObjectArchiver{Writer: w, Metrics: m}
}

func (a *ObjectArchiver) Archive(ctx context.Context, sub *models.Submission) error {
	body, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		a.Metrics.Archive(metrics.ResultFailed)
		return fmt.Errorf("encode receipt: %w", err)
	}

	key := ArchiveKey(sub)
	if err := a.Writer.PutObject(ctx, key, body, "application/json"); err != nil {
		a.Metrics.Archive(metrics.ResultFailed)
		return fmt.Errorf("archive %s: %w", key, err)
	}

	a.Metrics.Archive(metrics.ResultStored)
	zap.L().Info("🗄️ [ARCHIVE] receipt stored", zap.String("key", key))
	return nil
}

// ArchiveKey is submissions/<yyyy>/<mm>/<slug(name)>-<referral_id>.json,
// dated by the registration timestamp (creation time when unset).
func ArchiveKey(sub *models.Submission) string {
	ts := sub.Timestamp
	if ts.IsZero() {
		ts = sub.CreatedAt
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()

	name := slug.Make(sub.Name)
	if name == "" {
		name = "registrant"
	}
	return fmt.Sprintf("submissions/%04d/%02d/%s-%s.json", ts.Year(), int(ts.Month()), name, sub.ReferralID)
}
