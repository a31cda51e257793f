package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mailspool_mails_sent_total",
			Help: "Total individual mails dispatched to the transport",
		},
	)

	SendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mailspool_send_failures_total",
			Help: "Total failed batch send attempts",
		},
	)

	JobsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mailspool_jobs_completed_total",
			Help: "Total jobs fully drained and removed from the queue",
		},
	)

	JobsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mailspool_jobs_failed_total",
			Help: "Total jobs marked failed by a transport error",
		},
	)

	DrainCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mailspool_drain_cycles_total",
			Help: "Total worker drain cycles executed",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mailspool_queue_depth",
			Help: "Live jobs currently in the mail queue",
		},
	)
)

func Init() {
	prometheus.MustRegister(
		MailsSent,
		SendFailures,
		JobsCompleted,
		JobsFailed,
		DrainCycles,
		QueueDepth,
	)
}
