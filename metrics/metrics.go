package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultAccepted  = "accepted"
	ResultInvalid   = "invalid"
	ResultDuplicate = "duplicate"
	ResultError     = "error"
	ResultSent      = "sent"
	ResultFailed    = "failed"
	ResultStored    = "stored"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing, which keeps tests and CLI commands free of a registry.
type Metrics struct {
	Registry *prometheus.Registry

	submissions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	archive       *prometheus.CounterVec
	adminRequests *prometheus.CounterVec
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genesis_submissions_total",
			Help: "intake submissions by outcome",
		}, []string{"result"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genesis_notifications_total",
			Help: "notification emails by channel and outcome",
		}, []string{"channel", "result"}),
		archive: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genesis_archive_total",
			Help: "receipt archive writes by outcome",
		}, []string{"result"}),
		adminRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genesis_admin_requests_total",
			Help: "admin query requests by action",
		}, []string{"action"}),
	}
}

func (m *Metrics) Submission(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) Notification(channel, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

func (m *Metrics) Archive(result string) {
	if m == nil {
		return
	}
	m.archive.WithLabelValues(result).Inc()
}

func (m *Metrics) AdminRequest(action string) {
	if m == nil {
		return
	}
	m.adminRequests.WithLabelValues(action).Inc()
}
