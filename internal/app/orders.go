package service

import (
	"context"
	"sort"
	"time"

	"github.com/harborline/erpmetrics/internal/domain/aging"
	"github.com/harborline/erpmetrics/internal/domain/model"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// buildOrderAging fetches open-order lines and fulfillments in parallel
// and runs the aging aggregation over them. Both fetches are required;
// either failing aborts the run.
func (s *Service) buildOrderAging(ctx context.Context) (model.OrderAgingMetrics, error) {
	var (
		lines        []orderLineRow
		fulfillments []fulfillmentRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lines, err = s.fetchOpenOrderLines(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fulfillments, err = s.fetchFulfillments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.OrderAgingMetrics{}, err
	}

	orders := foldOrders(lines, s.now())

	totalValue := decimal.Zero
	countBySplit := make(map[string]int)
	for _, o := range orders {
		totalValue = totalValue.Add(o.Total)
		countBySplit[o.RevenueSplit]++
	}

	pct, shipped, onTime := aging.OnTimePercentage(mapFulfillments(fulfillments))

	return model.OrderAgingMetrics{
		GeneratedAt:     s.now(),
		TotalOpenOrders: len(orders),
		TotalOpenValue:  totalValue,
		Buckets:         aging.BucketOrders(orders),
		RevenueAtRisk:   aging.RevenueAtRisk(orders),
		OnTimePct:       pct,
		ShippedCount:    shipped,
		OnTimeCount:     onTime,
		CountBySplit:    countBySplit,
	}, nil
}

// foldOrders groups line rows into one record per order, splitting line
// value by posting-account prefix. Output is sorted by order number for
// deterministic payloads.
func foldOrders(lines []orderLineRow, now time.Time) []model.SalesOrderRecord {
	byID := make(map[string]*model.SalesOrderRecord)
	for _, line := range lines {
		o, ok := byID[line.OrderID]
		if !ok {
			o = &model.SalesOrderRecord{
				ID:               line.OrderID,
				Number:           line.OrderNumber,
				Date:             line.TranDate.Time,
				CustomerID:       line.CustomerID,
				CustomerName:     line.CustomerName,
				AgeDays:          ageDays(line.TranDate.Time, now),
				ExpectedShipDate: datePtr(line.ShipDate),
			}
			byID[line.OrderID] = o
		}

		o.Total = o.Total.Add(line.Amount)
		manufacturing, deferred := aging.ClassifyAccount(line.AccountNumber)
		switch {
		case manufacturing:
			o.ManufacturingValue = o.ManufacturingValue.Add(line.Amount)
		case deferred:
			o.DeferredValue = o.DeferredValue.Add(line.Amount)
		}
	}

	orders := make([]model.SalesOrderRecord, 0, len(byID))
	for _, o := range byID {
		o.RevenueSplit = aging.ClassifyRevenueSplit(o.ManufacturingValue, o.DeferredValue)
		orders = append(orders, *o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].Number < orders[j].Number })
	return orders
}

func mapFulfillments(rows []fulfillmentRow) []model.FulfillmentRecord {
	out := make([]model.FulfillmentRecord, 0, len(rows))
	for _, r := range rows {
		expected := datePtr(r.ExpectedDate)
		out = append(out, model.FulfillmentRecord{
			ID:           r.ID,
			OrderID:      r.OrderID,
			ShipDate:     r.ShipDate.Time,
			ExpectedDate: expected,
			OnTime:       aging.DeriveOnTime(r.ShipDate.Time, expected),
		})
	}
	return out
}

// ageDays counts whole days between the order date and now, never
// negative.
func ageDays(orderDate, now time.Time) int {
	days := int(now.Sub(orderDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
