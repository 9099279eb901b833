// Package service provides the core aggregation service that implements
// the dependencies required by the HTTP API. It fetches raw records from
// the ERP, runs the domain aggregators over them and caches each
// dashboard's result in the snapshot store.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/harborline/erpmetrics/internal/adapters/repository"
	"github.com/harborline/erpmetrics/internal/domain/model"
	"github.com/harborline/erpmetrics/pkg/logger"
	"github.com/harborline/erpmetrics/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Querier runs a bulk tabular query against the ERP and returns every row
// up to maxRows. *erp.Client satisfies it.
type Querier interface {
	RunQueryAll(ctx context.Context, queryText string, maxRows int) ([]json.RawMessage, error)
}

// Snapshot keys, one per dashboard. Distributor snapshots are keyed per
// distributor name.
const (
	snapshotKeyOrders    = "orders"
	snapshotKeyInventory = "inventory"
	snapshotKeyWIP       = "wip"

	snapshotKeyDistributorPrefix = "distributor:"
)

// Service implements the API dependencies for the metrics dashboards.
type Service struct {
	mu sync.RWMutex

	// Core components
	querier   Querier
	snapshots repository.Store

	// Configuration
	lookbackMonths    int
	maxQueryRows      int
	lowStockThreshold decimal.Decimal
	snapshotTTL       time.Duration

	// State
	started bool
	now     func() time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQuerier sets the ERP query client. Required before Start.
func WithQuerier(q Querier) Option {
	return func(s *Service) {
		if q != nil {
			s.querier = q
		}
	}
}

// WithSnapshotStore sets a custom snapshot store.
func WithSnapshotStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.snapshots = store
		}
	}
}

// WithLookbackMonths sets the open-order lookback window.
func WithLookbackMonths(months int) Option {
	return func(s *Service) {
		if months > 0 {
			s.lookbackMonths = months
		}
	}
}

// WithMaxQueryRows caps the total rows pulled by any single bulk query.
func WithMaxQueryRows(rows int) Option {
	return func(s *Service) {
		if rows > 0 {
			s.maxQueryRows = rows
		}
	}
}

// WithLowStockRevenueThreshold sets the blocked-revenue floor above which
// a low-stock item produces a critical action item.
func WithLowStockRevenueThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold >= 0 {
			s.lowStockThreshold = decimal.NewFromFloat(threshold)
		}
	}
}

// WithSnapshotTTL sets how long a computed dashboard snapshot is served
// before the next read recomputes it.
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.snapshotTTL = ttl
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		lookbackMonths:    24,
		maxQueryRows:      50_000,
		lowStockThreshold: decimal.NewFromInt(10_000),
		snapshotTTL:       5 * time.Minute,
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.querier == nil {
		return ErrNoQuerier
	}
	if s.snapshots == nil {
		s.snapshots = repository.NewMemoryStore(repository.WithTTL(s.snapshotTTL))
	}

	s.started = true
	s.logger.Info(ctx, "aggregation service started",
		logger.Int("lookbackMonths", s.lookbackMonths),
		logger.Int("maxQueryRows", s.maxQueryRows),
		logger.Duration("snapshotTTL", s.snapshotTTL),
	)

	return nil
}

// Stop shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "aggregation service stopped")
}

// OrderAging returns the order-aging dashboard, recomputing when refresh
// is set or the snapshot has expired.
func (s *Service) OrderAging(ctx context.Context, refresh bool) (model.OrderAgingMetrics, error) {
	return cached(ctx, s, snapshotKeyOrders, "orders", refresh, s.buildOrderAging)
}

// Inventory returns the inventory dashboard.
func (s *Service) Inventory(ctx context.Context, refresh bool) (model.InventoryMetrics, error) {
	return cached(ctx, s, snapshotKeyInventory, "inventory", refresh, s.buildInventory)
}

// WIPCosts returns the work-in-process dashboard.
func (s *Service) WIPCosts(ctx context.Context, refresh bool) (model.WIPCostMetrics, error) {
	return cached(ctx, s, snapshotKeyWIP, "wip", refresh, s.buildWIP)
}

// Distributor returns the distributor-insight dashboard for one
// distributor, keyed per name.
func (s *Service) Distributor(ctx context.Context, name string, refresh bool) (model.DistributorMetrics, error) {
	if name == "" {
		return model.DistributorMetrics{}, ErrMissingDistributor
	}
	key := snapshotKeyDistributorPrefix + name
	return cached(ctx, s, key, "distributors", refresh, func(ctx context.Context) (model.DistributorMetrics, error) {
		return s.buildDistributor(ctx, name)
	})
}

// cached serves a dashboard from the snapshot store, rebuilding on miss
// or when refresh bypasses the cache.
func cached[T any](
	ctx context.Context,
	s *Service,
	key, dashboard string,
	refresh bool,
	build func(context.Context) (T, error),
) (T, error) {
	var zero T

	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return zero, ErrNotStarted
	}

	if !refresh {
		if snap, err := s.snapshots.Get(ctx, key); err == nil {
			if payload, ok := snap.Payload.(T); ok {
				return payload, nil
			}
		}
	}

	start := time.Now()
	out, err := build(ctx)
	metrics.RecordAggregationDuration(dashboard, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordAggregationRun(dashboard, "error")
		return zero, fmt.Errorf("%w: %s: %w", ErrAggregationFailed, dashboard, err)
	}

	metrics.RecordAggregationRun(dashboard, "ok")
	s.snapshots.Put(ctx, key, out)
	return out, nil
}

// degrade downgrades a fetch failure to an empty result for the fetches
// the error policy allows, logging and counting the degradation.
func (s *Service) degrade(ctx context.Context, fetch string, err error) error {
	s.logger.Warn(ctx, "fetch degraded to empty result",
		logger.String("fetch", fetch),
		logger.Error(err),
	)
	metrics.RecordDegradedFetch(fetch)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"lookbackMonths": s.lookbackMonths,
		"maxQueryRows":   s.maxQueryRows,
		"snapshotTTL":    s.snapshotTTL.String(),
	}

	if s.started {
		ctx := context.Background()
		stats["snapshotCount"] = s.snapshots.Count(ctx)
		stats["snapshotKeys"] = s.snapshots.Keys(ctx)
	}

	return stats
}
