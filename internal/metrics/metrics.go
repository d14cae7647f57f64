// Package metrics holds the process-wide Prometheus registry: counters
// for ingestion/matching/alerting and gauges for trending candidates and
// cooldown map size, per spec.md §4.7. The registry is internally
// synchronized (prometheus.Registry already is) and safe to share across
// every task in the orchestrator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry wraps a dedicated prometheus.Registry — not the global
// DefaultRegisterer — so tests can construct isolated instances.
type Registry struct {
	reg *prometheus.Registry

	MessagesProcessed   prometheus.Counter
	MatchesInserted     prometheus.Counter
	MatchesDuplicate    prometheus.Counter
	AlertsEmitted       prometheus.Counter
	TrendingCandidates  prometheus.Gauge
	CooldownMapSize     prometheus.Gauge
}

// New builds a Registry with every metric registered under it.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		MessagesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alpha_radar",
			Name:      "messages_processed_total",
			Help:      "Total chat messages processed by the ingress path.",
		}),
		MatchesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alpha_radar",
			Name:      "matches_inserted_total",
			Help:      "Total matches newly persisted to the mention repository.",
		}),
		MatchesDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alpha_radar",
			Name:      "matches_duplicate_total",
			Help:      "Total matches rejected as duplicates by the mention repository.",
		}),
		AlertsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alpha_radar",
			Name:      "alerts_emitted_total",
			Help:      "Total alerts admitted by the cooldown gate and sent to the notifier.",
		}),
		TrendingCandidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "alpha_radar",
			Name:      "trending_candidates",
			Help:      "Number of trending candidates produced by the most recent scan.",
		}),
		CooldownMapSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "alpha_radar",
			Name:      "cooldown_map_size",
			Help:      "Current number of entries in the in-memory cooldown map.",
		}),
	}

	reg.MustRegister(
		r.MessagesProcessed,
		r.MatchesInserted,
		r.MatchesDuplicate,
		r.AlertsEmitted,
		r.TrendingCandidates,
		r.CooldownMapSize,
	)
	return r
}

// Gatherer exposes the underlying registry to promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
