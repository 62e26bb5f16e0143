package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Tracker counts external API calls and cache traffic per provider. All
// methods are safe on a nil receiver so callers can skip wiring it in tests.
type Tracker struct {
	apiCalls  *prometheus.CounterVec
	cacheOps  *prometheus.CounterVec
	decisions *prometheus.CounterVec
}

// New creates a Tracker and registers its collectors.
func New(reg prometheus.Registerer) *Tracker {
	t := &Tracker{
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geotale_api_calls_total",
			Help: "External API calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geotale_cache_ops_total",
			Help: "Cache lookups by provider and outcome.",
		}, []string{"provider", "outcome"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geotale_decisions_total",
			Help: "Narration decisions by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(t.apiCalls, t.cacheOps, t.decisions)
	return t
}

func (t *Tracker) TrackAPISuccess(provider string) {
	if t == nil {
		return
	}
	t.apiCalls.WithLabelValues(provider, "success").Inc()
}

func (t *Tracker) TrackAPIFailure(provider string) {
	if t == nil {
		return
	}
	t.apiCalls.WithLabelValues(provider, "failure").Inc()
}

func (t *Tracker) TrackCacheHit(provider string) {
	if t == nil {
		return
	}
	t.cacheOps.WithLabelValues(provider, "hit").Inc()
}

func (t *Tracker) TrackCacheMiss(provider string) {
	if t == nil {
		return
	}
	t.cacheOps.WithLabelValues(provider, "miss").Inc()
}

// TrackDecision counts one orchestrator decision by reason.
func (t *Tracker) TrackDecision(reason string) {
	if t == nil {
		return
	}
	t.decisions.WithLabelValues(reason).Inc()
}
