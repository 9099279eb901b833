package service

import (
	"context"
	"sort"

	"github.com/harborline/erpmetrics/internal/domain/inventory"
	"github.com/harborline/erpmetrics/internal/domain/model"
	"github.com/harborline/erpmetrics/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Per-fetch error policy for the inventory dashboard. Item balances and
// stale orders are required and abort the run; blocked-order lines and
// pending POs degrade to an empty result so the dashboard still renders,
// minus enrichment.
const (
	fetchBlockedOrders = "blocked_orders"
	fetchPendingPOs    = "pending_pos"
)

func (s *Service) buildInventory(ctx context.Context) (model.InventoryMetrics, error) {
	var (
		itemRows    []inventoryItemRow
		blockedRows []blockedLineRow
		poRows      []pendingPORow
		staleRows   []staleOrderRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		itemRows, err = s.fetchInventoryItems(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		staleRows, err = s.fetchStaleOrders(gctx)
		return err
	})
	g.Go(func() error {
		rows, err := s.fetchBlockedLines(gctx)
		if err != nil {
			return s.degrade(gctx, fetchBlockedOrders, err)
		}
		blockedRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.fetchPendingPOs(gctx)
		if err != nil {
			return s.degrade(gctx, fetchPendingPOs, err)
		}
		poRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.InventoryMetrics{}, err
	}

	items := mapInventoryItems(itemRows)
	blocked := mapBlockedLines(blockedRows)
	byItem := inventory.FoldBlockedOrders(blocked)
	earliestPO := earliestPOByItem(poRows)

	stockouts := 0
	lowStock := 0
	for i := range items {
		it := &items[i]

		if agg, ok := byItem[it.ItemID]; ok {
			it.OrdersBlocked = len(agg.OrderIDs)
			it.CustomersBlocked = len(agg.CustomerIDs)
			it.RevenueBlocked = agg.Revenue
		}

		po, hasPO := earliestPO[it.ItemID]
		if hasPO {
			date := po.ExpectedDate
			it.NextPODate = &date
			it.NextPONumber = po.PONumber
			it.CanExpedite = true
		}

		it.RootCause = inventory.ClassifyRootCause(it.OnHand, it.ReorderPoint, hasPO)
		if !it.OnHand.IsPositive() {
			stockouts++
		}
		if it.IsLowStock {
			lowStock++
		}
	}

	staleOrders := s.mapStaleOrders(staleRows)
	actions := inventory.BuildActionQueue(items, staleOrders, s.lowStockThreshold)
	recordActionItems(actions)

	return model.InventoryMetrics{
		GeneratedAt:   s.now(),
		TotalValue:    inventory.TotalValue(items),
		ValueByType:   inventory.ValueByType(items),
		LowStockCount: lowStock,
		StockoutCount: stockouts,
		BlastRadius:   inventory.ComputeBlastRadius(blocked, s.now()),
		Items:         items,
		StaleOrders:   staleOrders,
		Actions:       actions,
	}, nil
}

func mapInventoryItems(rows []inventoryItemRow) []model.InventoryItemRecord {
	items := make([]model.InventoryItemRecord, 0, len(rows))
	for _, r := range rows {
		items = append(items, model.InventoryItemRecord{
			ItemID:       r.ItemID,
			Name:         r.Name,
			Type:         r.Type,
			OnHand:       r.OnHand,
			Available:    r.Available,
			BackOrdered:  r.BackOrdered,
			UnitCost:     r.UnitCost,
			ReorderPoint: r.ReorderPoint,
			Location:     r.Location,
			IsLowStock:   inventory.IsLowStock(r.OnHand, r.ReorderPoint),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

func mapBlockedLines(rows []blockedLineRow) []inventory.BlockedLine {
	lines := make([]inventory.BlockedLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, inventory.BlockedLine{
			ItemID:           r.ItemID,
			OrderID:          r.OrderID,
			CustomerID:       r.CustomerID,
			OrderRevenue:     r.OrderRevenue,
			ExpectedShipDate: datePtr(r.ExpectedShipDate),
		})
	}
	return lines
}

// earliestPOByItem keeps the earliest expected receipt per item across
// every open purchase order line.
func earliestPOByItem(rows []pendingPORow) map[string]model.PendingPORecord {
	byItem := make(map[string]model.PendingPORecord)
	for _, r := range rows {
		cur, ok := byItem[r.ItemID]
		if ok && !r.ExpectedDate.Before(cur.ExpectedDate) {
			continue
		}
		byItem[r.ItemID] = model.PendingPORecord{
			ItemID:       r.ItemID,
			PONumber:     r.PONumber,
			ExpectedDate: r.ExpectedDate.Time,
		}
	}
	return byItem
}

func (s *Service) mapStaleOrders(rows []staleOrderRow) []model.StaleOrderRecord {
	now := s.now()
	out := make([]model.StaleOrderRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.StaleOrderRecord{
			ID:           r.ID,
			Number:       r.Number,
			CustomerName: r.CustomerName,
			Total:        r.Total,
			LastModified: r.LastModified.Time,
			DaysStale:    ageDays(r.LastModified.Time, now),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DaysStale > out[j].DaysStale })
	return out
}

func recordActionItems(actions []model.ActionItem) {
	bySeverity := make(map[string]int)
	for _, a := range actions {
		bySeverity[a.Severity]++
	}
	for _, severity := range []string{model.SeverityCritical, model.SeverityWarning, model.SeverityInfo} {
		metrics.UpdateActionItems(severity, bySeverity[severity])
	}
}
