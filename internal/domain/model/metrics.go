package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgingBucket tracks the count and summed value of orders in one fixed
// day-range partition.
type AgingBucket struct {
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// AgingBuckets partitions the open-order set exactly: every order falls in
// exactly one bucket.
type AgingBuckets struct {
	Days0to30  AgingBucket `json:"days_0_to_30"`
	Days31to60 AgingBucket `json:"days_31_to_60"`
	Days61to90 AgingBucket `json:"days_61_to_90"`
	Days90Plus AgingBucket `json:"days_90_plus"`
}

// OrderAgingMetrics is the order-aging dashboard payload.
type OrderAgingMetrics struct {
	GeneratedAt     time.Time       `json:"generated_at"`
	TotalOpenOrders int             `json:"total_open_orders"`
	TotalOpenValue  decimal.Decimal `json:"total_open_value"`
	Buckets         AgingBuckets    `json:"buckets"`
	RevenueAtRisk   decimal.Decimal `json:"revenue_at_risk"`
	OnTimePct       float64         `json:"on_time_pct"`
	ShippedCount    int             `json:"shipped_count"`
	OnTimeCount     int             `json:"on_time_count"`

	// CountBySplit groups open orders by revenue split tag.
	CountBySplit map[string]int `json:"count_by_split"`
}

// BlastRadius aggregates distinct blocked orders, customers and revenue
// across all short items.
type BlastRadius struct {
	OrdersBlocked    int             `json:"orders_blocked"`
	CustomersBlocked int             `json:"customers_blocked"`
	RevenueBlocked   decimal.Decimal `json:"revenue_blocked"`

	// ShippingWithin30Days counts blocked orders whose promised ship date
	// falls within 30 days of now.
	ShippingWithin30Days int `json:"shipping_within_30_days"`
}

// InventoryMetrics is the inventory dashboard payload.
type InventoryMetrics struct {
	GeneratedAt   time.Time                  `json:"generated_at"`
	TotalValue    decimal.Decimal            `json:"total_value"`
	ValueByType   map[string]decimal.Decimal `json:"value_by_type"`
	LowStockCount int                        `json:"low_stock_count"`
	StockoutCount int                        `json:"stockout_count"`
	BlastRadius   BlastRadius                `json:"blast_radius"`
	Items         []InventoryItemRecord      `json:"items"`
	StaleOrders   []StaleOrderRecord         `json:"stale_orders"`
	Actions       []ActionItem               `json:"actions"`
}

// WorkOrderRollup is one work order's cost categories and margin.
type WorkOrderRollup struct {
	WorkOrderID     string          `json:"work_order_id"`
	WorkOrderNumber string          `json:"work_order_number"`
	Labor           decimal.Decimal `json:"labor"`
	Material        decimal.Decimal `json:"material"`
	Freight         decimal.Decimal `json:"freight"`
	Expense         decimal.Decimal `json:"expense"`
	Billed          decimal.Decimal `json:"billed"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	MarginPct       float64         `json:"margin_pct"`
}

// WIPCostMetrics is the work-in-process dashboard payload.
type WIPCostMetrics struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Labor       decimal.Decimal   `json:"labor"`
	Material    decimal.Decimal   `json:"material"`
	Freight     decimal.Decimal   `json:"freight"`
	Expense     decimal.Decimal   `json:"expense"`
	Billed      decimal.Decimal   `json:"billed"`
	TotalCost   decimal.Decimal   `json:"total_cost"`
	MarginPct   float64           `json:"margin_pct"`
	WorkOrders  []WorkOrderRollup `json:"work_orders"`
}

// DistributorMetrics is the distributor-insight payload.
type DistributorMetrics struct {
	GeneratedAt    time.Time                   `json:"generated_at"`
	Distributor    string                      `json:"distributor"`
	AverageRevenue decimal.Decimal             `json:"average_revenue"`
	Opportunities  int                         `json:"opportunities"`
	Locations      []DistributorLocationRecord `json:"locations"`
}
