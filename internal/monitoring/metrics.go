package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects pipeline counters. A nil *Metrics is valid and
// turns every method into a no-op, which keeps tests free of registry
// setup.
type Metrics struct {
	itemsIngested   *prometheus.CounterVec
	ingestFailures  prometheus.Counter
	itemsClassified *prometheus.CounterVec
	leadsCreated    *prometheus.CounterVec
}

// New registers the pipeline metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(nil)
}

// NewWithRegistry registers on the given registry; nil means the
// default one.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	if reg == nil {
		factory = promauto.With(prometheus.DefaultRegisterer)
	}
	return &Metrics{
		itemsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadscout_items_ingested_total",
			Help: "Items fetched and upserted, by kind.",
		}, []string{"kind"}),
		ingestFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadscout_ingest_failures_total",
			Help: "Subreddit ingestions that failed.",
		}),
		itemsClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadscout_items_classified_total",
			Help: "Items run through the classifier, by kind.",
		}, []string{"kind"}),
		leadsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadscout_leads_created_total",
			Help: "Lead records created, by kind.",
		}, []string{"kind"}),
	}
}

// IncIngested counts ingested items of one kind.
func (m *Metrics) IncIngested(kind string, n int) {
	if m == nil {
		return
	}
	m.itemsIngested.WithLabelValues(kind).Add(float64(n))
}

// IncIngestFailure counts one failed subreddit ingestion.
func (m *Metrics) IncIngestFailure() {
	if m == nil {
		return
	}
	m.ingestFailures.Inc()
}

// IncClassified counts one classified item.
func (m *Metrics) IncClassified(kind string) {
	if m == nil {
		return
	}
	m.itemsClassified.WithLabelValues(kind).Inc()
}

// IncLead counts one created lead.
func (m *Metrics) IncLead(kind string) {
	if m == nil {
		return
	}
	m.leadsCreated.WithLabelValues(kind).Inc()
}
