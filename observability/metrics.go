// Package observability exposes the Prometheus counters of the sync core.
// A nil *Metrics is valid and records nothing.
package observability

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	MessagesSent      prometheus.Counter
	SendFailures      *prometheus.CounterVec
	AttachmentsUpload prometheus.Counter
	ReceiptsWritten   prometheus.Counter
	SnapshotsApplied  prometheus.Counter
	PagesFetched      prometheus.Counter
	OpenSessions      prometheus.Gauge
	RPCs              *prometheus.CounterVec
	ProcessRSS        prometheus.Gauge
	ProcessCPU        prometheus.Gauge
}

// NewMetrics registers every collector on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatsync",
			Name:      "messages_sent_total",
			Help:      "Messages committed by the send coordinator.",
		}),
		SendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatsync",
			Name:      "send_failures_total",
			Help:      "Failed sends by stage.",
		}, []string{"stage"}),
		AttachmentsUpload: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatsync",
			Name:      "attachments_uploaded_total",
			Help:      "Attachments uploaded to the blob store.",
		}),
		ReceiptsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatsync",
			Name:      "read_receipts_written_total",
			Help:      "Messages acknowledged through batch read writes.",
		}),
		SnapshotsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatsync",
			Name:      "live_snapshots_applied_total",
			Help:      "Live snapshots merged into a timeline.",
		}),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatsync",
			Name:      "pages_fetched_total",
			Help:      "History pages merged into a timeline.",
		}),
		OpenSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatsync",
			Name:      "open_sessions",
			Help:      "Conversation sessions currently open.",
		}),
		RPCs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatsync",
			Name:      "rpc_requests_total",
			Help:      "Handled gRPC requests by method and code.",
		}, []string{"method", "code"}),
		ProcessRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatsync",
			Name:      "process_rss_bytes",
			Help:      "Resident memory of the daemon, sampled by the process stats worker.",
		}),
		ProcessCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatsync",
			Name:      "process_cpu_percent",
			Help:      "CPU usage of the daemon, sampled by the process stats worker.",
		}),
	}
	reg.MustRegister(
		m.MessagesSent, m.SendFailures, m.AttachmentsUpload, m.ReceiptsWritten,
		m.SnapshotsApplied, m.PagesFetched, m.OpenSessions, m.RPCs, m.ProcessRSS, m.ProcessCPU,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "chatsync",
			Name:      "heap_alloc_bytes",
			Help:      "Current heap allocation in bytes.",
		}, func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.HeapAlloc)
		}),
	)
	return m
}

func (m *Metrics) IncSent() {
	if m != nil {
		m.MessagesSent.Inc()
	}
}

func (m *Metrics) IncSendFailure(stage string) {
	if m != nil {
		m.SendFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) IncUploads(n int) {
	if m != nil {
		m.AttachmentsUpload.Add(float64(n))
	}
}

func (m *Metrics) IncReceipts(n int) {
	if m != nil {
		m.ReceiptsWritten.Add(float64(n))
	}
}

func (m *Metrics) IncSnapshot() {
	if m != nil {
		m.SnapshotsApplied.Inc()
	}
}

func (m *Metrics) IncPage() {
	if m != nil {
		m.PagesFetched.Inc()
	}
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.OpenSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.OpenSessions.Dec()
	}
}

func (m *Metrics) IncRPC(method, code string) {
	if m != nil {
		m.RPCs.WithLabelValues(method, code).Inc()
	}
}

func (m *Metrics) SetProcessStats(rss uint64, cpuPercent float64) {
	if m != nil {
		m.ProcessRSS.Set(float64(rss))
		m.ProcessCPU.Set(cpuPercent)
	}
}
