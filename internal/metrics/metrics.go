// Package metrics holds the prometheus collectors of the bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Link outcomes.
const (
	OutcomeShortened = "shortened"
	OutcomeFallback  = "fallback"
	OutcomeExcluded  = "excluded"
)

// Metrics is safe for use from many goroutines. A nil *Metrics records nothing.
type Metrics struct {
	LinksTotal      *prometheus.CounterVec
	MessagesTotal   *prometheus.CounterVec
	RewriteDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LinksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlinkbot_links_total",
				Help: "Links seen in messages, by outcome.",
			},
			[]string{"outcome"},
		),
		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlinkbot_messages_total",
				Help: "Inbound messages, by kind.",
			},
			[]string{"kind"},
		),
		RewriteDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shortlinkbot_rewrite_duration_seconds",
				Help:    "Time spent rewriting the links of one message.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.LinksTotal, m.MessagesTotal, m.RewriteDuration)
	return m
}

func (m *Metrics) Link(outcome string) {
	if m == nil {
		return
	}
	m.LinksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Message(kind string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRewrite(d time.Duration) {
	if m == nil {
		return
	}
	m.RewriteDuration.Observe(d.Seconds())
}
