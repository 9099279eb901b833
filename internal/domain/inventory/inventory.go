// Package inventory computes blast-radius, root-cause and action-queue
// metrics over inventory and blocked-order snapshots. All functions are
// pure; grouping is map-based with stable output ordering.
package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/harborline/erpmetrics/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Root-cause classifications for a short item, first match wins.
const (
	RootCauseNoPO        = "No PO"
	RootCauseVendorDelay = "Vendor Delay"
	RootCauseInventory   = "Inventory"
	RootCauseUnknown     = "Unknown"
)

// Action item types and owning teams.
const (
	ActionLowStock   = "low_stock"
	ActionStaleOrder = "stale_order"

	teamSupplyChain = "Supply Chain"
	teamSales       = "Sales"
)

// staleCriticalDays is the staleness beyond which a stale order escalates
// from warning to critical.
const staleCriticalDays = 60

// shipWindowDays bounds the blast-radius "shipping soon" count.
const shipWindowDays = 30

// BlockedLine is one open-order line item that is blocking: backordered
// quantity positive, or committed short of ordered. Lines arrive at
// line-item granularity; folding deduplicates them.
type BlockedLine struct {
	ItemID           string
	OrderID          string
	CustomerID       string
	OrderRevenue     decimal.Decimal
	ExpectedShipDate *time.Time
}

// IsLowStock applies the low-stock predicate: reorder point is set AND
// on-hand > 0 AND on-hand < reorder point. A stockout (on-hand <= 0) is
// deliberately not low stock; the root-cause classifier owns that branch.
func IsLowStock(onHand decimal.Decimal, reorderPoint *decimal.Decimal) bool {
	if reorderPoint == nil {
		return false
	}
	return onHand.IsPositive() && onHand.LessThan(*reorderPoint)
}

// FoldBlockedOrders groups blocking lines into per-item aggregates with
// set semantics: a given order or customer counts at most once per item,
// and an order's revenue is added once per item no matter how many of its
// lines block.
func FoldBlockedOrders(lines []BlockedLine) map[string]*model.BlockedOrderAggregate {
	byItem := make(map[string]*model.BlockedOrderAggregate)
	for _, line := range lines {
		agg, ok := byItem[line.ItemID]
		if !ok {
			agg = model.NewBlockedOrderAggregate(line.ItemID)
			byItem[line.ItemID] = agg
		}

		if _, seen := agg.OrderIDs[line.OrderID]; !seen {
			agg.OrderIDs[line.OrderID] = struct{}{}
			agg.Revenue = agg.Revenue.Add(line.OrderRevenue)
			agg.ExpectedShipDates[line.OrderID] = line.ExpectedShipDate
		}
		agg.CustomerIDs[line.CustomerID] = struct{}{}
	}
	return byItem
}

// ClassifyRootCause explains why an item is short. Decision order, first
// match wins: stockout with no pending PO, stockout with a vendor on the
// hook, low stock with positive on-hand, otherwise unknown.
func ClassifyRootCause(onHand decimal.Decimal, reorderPoint *decimal.Decimal, hasPendingPO bool) string {
	stockout := !onHand.IsPositive()
	switch {
	case stockout && !hasPendingPO:
		return RootCauseNoPO
	case stockout && hasPendingPO:
		return RootCauseVendorDelay
	case IsLowStock(onHand, reorderPoint):
		return RootCauseInventory
	default:
		return RootCauseUnknown
	}
}

// TotalValue sums on-hand quantity x unit cost over every item.
func TotalValue(items []model.InventoryItemRecord) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.OnHand.Mul(it.UnitCost))
	}
	return total
}

// ValueByType groups the same product by item type.
func ValueByType(items []model.InventoryItemRecord) map[string]decimal.Decimal {
	byType := make(map[string]decimal.Decimal)
	for _, it := range items {
		byType[it.Type] = byType[it.Type].Add(it.OnHand.Mul(it.UnitCost))
	}
	return byType
}

// ComputeBlastRadius aggregates distinct blocked orders, customers and
// revenue across all items, plus the count of blocked orders promised to
// ship within the next 30 days (past-due promises included).
func ComputeBlastRadius(lines []BlockedLine, now time.Time) model.BlastRadius {
	orders := make(map[string]struct{})
	customers := make(map[string]struct{})
	revenue := decimal.Zero
	shippingSoon := 0
	cutoff := now.AddDate(0, 0, shipWindowDays)

	for _, line := range lines {
		customers[line.CustomerID] = struct{}{}
		if _, seen := orders[line.OrderID]; seen {
			continue
		}
		orders[line.OrderID] = struct{}{}
		revenue = revenue.Add(line.OrderRevenue)
		if line.ExpectedShipDate != nil && !line.ExpectedShipDate.After(cutoff) {
			shippingSoon++
		}
	}

	return model.BlastRadius{
		OrdersBlocked:        len(orders),
		CustomersBlocked:     len(customers),
		RevenueBlocked:       revenue,
		ShippingWithin30Days: shippingSoon,
	}
}

// BuildActionQueue emits one action item per low-stock item whose blocked
// revenue exceeds revenueThreshold (critical), and one per stale order
// (critical past 60 days stale, warning otherwise). The combined list is
// sorted by severity, critical first; ties keep their input order.
func BuildActionQueue(
	items []model.InventoryItemRecord,
	staleOrders []model.StaleOrderRecord,
	revenueThreshold decimal.Decimal,
) []model.ActionItem {
	var actions []model.ActionItem

	for _, it := range items {
		if !it.IsLowStock || !it.RevenueBlocked.GreaterThan(revenueThreshold) {
			continue
		}
		actions = append(actions, model.ActionItem{
			Severity: model.SeverityCritical,
			Type:     ActionLowStock,
			Title:    fmt.Sprintf("Low stock: %s", it.Name),
			Description: fmt.Sprintf("%s is below its reorder point and is blocking %d orders across %d customers",
				it.Name, it.OrdersBlocked, it.CustomersBlocked),
			Metric:   "$" + it.RevenueBlocked.StringFixed(2) + " blocked",
			Team:     teamSupplyChain,
			Deadline: it.NextPODate,
		})
	}

	for _, so := range staleOrders {
		severity := model.SeverityWarning
		if so.DaysStale > staleCriticalDays {
			severity = model.SeverityCritical
		}
		actions = append(actions, model.ActionItem{
			Severity: severity,
			Type:     ActionStaleOrder,
			Title:    fmt.Sprintf("Stale order %s", so.Number),
			Description: fmt.Sprintf("Order %s for %s has not been touched in %d days",
				so.Number, so.CustomerName, so.DaysStale),
			Metric: "$" + so.Total.StringFixed(2) + " open",
			Team:   teamSales,
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return severityRank(actions[i].Severity) < severityRank(actions[j].Severity)
	})
	return actions
}

func severityRank(severity string) int {
	switch severity {
	case model.SeverityCritical:
		return 0
	case model.SeverityWarning:
		return 1
	default:
		return 2
	}
}
