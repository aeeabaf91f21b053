package monitoring

import (
	"context"
	"events-api/internal/status"
	"events-api/internal/store"
	"events-api/models"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	storeOperations *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	eventsListed    prometheus.Histogram
}

// NewMetrics registers the store metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		storeOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_store_operations_total",
				Help: "Total event store operations",
			},
			[]string{"backend", "operation", "status"},
		),
		storeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "events_store_operation_duration_seconds",
				Help:    "Duration of event store operations",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"backend", "operation"},
		),
		eventsListed: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "events_list_size",
				Help:    "Number of events returned by a list call",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
}

// Track store operations
func (m *Metrics) TrackStoreOperation(backend, operation string, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = string(status.KindOf(err))
	}

	m.storeOperations.WithLabelValues(backend, operation, result).Inc()
	m.storeDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// InstrumentedStore records every call made to the wrapped store.
type InstrumentedStore struct {
	next    store.EventStore
	backend string
	metrics *Metrics
}

func (m *Metrics) Instrument(backend string, next store.EventStore) *InstrumentedStore {
	return &InstrumentedStore{next: next, backend: backend, metrics: m}
}

func (s *InstrumentedStore) List(ctx context.Context) ([]models.Event, error) {
	start := time.Now()
	events, err := s.next.List(ctx)
	s.metrics.TrackStoreOperation(s.backend, "list", err, time.Since(start))
	if err == nil {
		s.metrics.eventsListed.Observe(float64(len(events)))
	}
	return events, err
}

func (s *InstrumentedStore) Create(ctx context.Context, event models.Event) error {
	start := time.Now()
	err := s.next.Create(ctx, event)
	s.metrics.TrackStoreOperation(s.backend, "create", err, time.Since(start))
	return err
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
