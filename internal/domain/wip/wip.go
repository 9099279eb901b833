// Package wip rolls open work-order line items into cost categories and
// margin. All functions are pure.
package wip

import (
	"sort"
	"strings"

	"github.com/harborline/erpmetrics/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Cost categories for a work-order posting line.
const (
	CategoryLabor    = "labor"
	CategoryMaterial = "material"
	CategoryFreight  = "freight"
	CategoryExpense  = "expense"
	CategoryBilled   = "billed"
)

// CostCategory classifies a posting line by its account name. Revenue
// accounts count toward billed value rather than cost; anything not
// recognizably labor, material or freight falls through to expense.
func CostCategory(account string) string {
	name := strings.ToLower(account)
	switch {
	case containsAny(name, "income", "revenue", "billing"):
		return CategoryBilled
	case containsAny(name, "labor", "wage", "payroll"):
		return CategoryLabor
	case containsAny(name, "freight", "shipping"):
		return CategoryFreight
	case containsAny(name, "material", "inventory", "component", "raw"):
		return CategoryMaterial
	default:
		return CategoryExpense
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Rollup folds work-order lines into per-order and overall cost
// categories. Work orders are emitted in ascending number order.
func Rollup(lines []model.WorkOrderLine) model.WIPCostMetrics {
	byOrder := make(map[string]*model.WorkOrderRollup)
	for _, line := range lines {
		r, ok := byOrder[line.WorkOrderID]
		if !ok {
			r = &model.WorkOrderRollup{
				WorkOrderID:     line.WorkOrderID,
				WorkOrderNumber: line.WorkOrderNumber,
			}
			byOrder[line.WorkOrderID] = r
		}

		switch CostCategory(line.Account) {
		case CategoryBilled:
			r.Billed = r.Billed.Add(line.Amount)
		case CategoryLabor:
			r.Labor = r.Labor.Add(line.Amount)
		case CategoryFreight:
			r.Freight = r.Freight.Add(line.Amount)
		case CategoryMaterial:
			r.Material = r.Material.Add(line.Amount)
		default:
			r.Expense = r.Expense.Add(line.Amount)
		}
	}

	var metrics model.WIPCostMetrics
	rollups := make([]model.WorkOrderRollup, 0, len(byOrder))
	for _, r := range byOrder {
		r.TotalCost = r.Labor.Add(r.Material).Add(r.Freight).Add(r.Expense)
		r.MarginPct = marginPct(r.Billed, r.TotalCost)
		rollups = append(rollups, *r)

		metrics.Labor = metrics.Labor.Add(r.Labor)
		metrics.Material = metrics.Material.Add(r.Material)
		metrics.Freight = metrics.Freight.Add(r.Freight)
		metrics.Expense = metrics.Expense.Add(r.Expense)
		metrics.Billed = metrics.Billed.Add(r.Billed)
		metrics.TotalCost = metrics.TotalCost.Add(r.TotalCost)
	}

	sort.Slice(rollups, func(i, j int) bool {
		return rollups[i].WorkOrderNumber < rollups[j].WorkOrderNumber
	})

	metrics.MarginPct = marginPct(metrics.Billed, metrics.TotalCost)
	metrics.WorkOrders = rollups
	return metrics
}

// marginPct returns (billed - cost) / billed x 100, or zero for unbilled
// work (no billed value means margin is undefined, not infinite).
func marginPct(billed, cost decimal.Decimal) float64 {
	if !billed.IsPositive() {
		return 0
	}
	margin, _ := billed.Sub(cost).Div(billed).Mul(decimal.NewFromInt(100)).Float64()
	return margin
}
