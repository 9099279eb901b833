// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Revenue split classifications for an order's line posting accounts.
const (
	SplitManufacturing = "Manufacturing"
	SplitDeferredOnly  = "Deferred Only"
	SplitMixed         = "Mixed"
)

// SalesOrderRecord is a read-only snapshot of one open order pulled from
// the ERP; it is never mutated locally.
type SalesOrderRecord struct {
	ID           string          `json:"id"`
	Number       string          `json:"number"`
	Date         time.Time       `json:"date"`
	Status       string          `json:"status"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	AgeDays      int             `json:"age_days"`

	// ExpectedShipDate is nil when the order has no promised date.
	ExpectedShipDate *time.Time `json:"expected_ship_date,omitempty"`

	// ManufacturingValue and DeferredValue split the order's line total by
	// posting-account prefix; RevenueSplit is the derived tag.
	ManufacturingValue decimal.Decimal `json:"manufacturing_value"`
	DeferredValue      decimal.Decimal `json:"deferred_value"`
	RevenueSplit       string          `json:"revenue_split"`
}

// FulfillmentRecord is one shipment joined back to its originating order.
type FulfillmentRecord struct {
	ID           string     `json:"id"`
	OrderID      string     `json:"order_id"`
	ShipDate     time.Time  `json:"ship_date"`
	ExpectedDate *time.Time `json:"expected_date,omitempty"`

	// OnTime is derived: ship date <= expected date, vacuously true when
	// no expected date exists.
	OnTime bool `json:"on_time"`
}

// InventoryItemRecord joins item master data to a location balance, with
// enrichment fields populated by a second aggregation pass.
type InventoryItemRecord struct {
	ItemID       string           `json:"item_id"`
	Name         string           `json:"name"`
	Type         string           `json:"type"`
	OnHand       decimal.Decimal  `json:"on_hand"`
	Available    decimal.Decimal  `json:"available"`
	BackOrdered  decimal.Decimal  `json:"back_ordered"`
	UnitCost     decimal.Decimal  `json:"unit_cost"`
	ReorderPoint *decimal.Decimal `json:"reorder_point,omitempty"`
	Location     string           `json:"location"`
	IsLowStock   bool             `json:"is_low_stock"`

	// Enrichment from the blocked-order and purchase-order passes.
	OrdersBlocked    int             `json:"orders_blocked"`
	CustomersBlocked int             `json:"customers_blocked"`
	RevenueBlocked   decimal.Decimal `json:"revenue_blocked"`
	RootCause        string          `json:"root_cause"`
	NextPODate       *time.Time      `json:"next_po_date,omitempty"`
	NextPONumber     string          `json:"next_po_number,omitempty"`
	CanExpedite      bool            `json:"can_expedite"`
}

// BlockedOrderAggregate folds blocking line items into per-item sets so a
// given order or customer is counted at most once per item, and revenue is
// attributed once per order.
type BlockedOrderAggregate struct {
	ItemID      string
	OrderIDs    map[string]struct{}
	CustomerIDs map[string]struct{}
	Revenue     decimal.Decimal

	// ExpectedShipDates keyed by order id, for the blast-radius ship-window
	// count. Nil values mean the order has no promised date.
	ExpectedShipDates map[string]*time.Time
}

// NewBlockedOrderAggregate initializes the aggregate's sets.
func NewBlockedOrderAggregate(itemID string) *BlockedOrderAggregate {
	return &BlockedOrderAggregate{
		ItemID:            itemID,
		OrderIDs:          make(map[string]struct{}),
		CustomerIDs:       make(map[string]struct{}),
		ExpectedShipDates: make(map[string]*time.Time),
	}
}

// PendingPORecord is the earliest expected receipt per item across open
// purchase orders.
type PendingPORecord struct {
	ItemID       string    `json:"item_id"`
	PONumber     string    `json:"po_number"`
	ExpectedDate time.Time `json:"expected_date"`
}

// StaleOrderRecord is an open order with no modification in 30+ days.
type StaleOrderRecord struct {
	ID           string          `json:"id"`
	Number       string          `json:"number"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	LastModified time.Time       `json:"last_modified"`
	DaysStale    int             `json:"days_stale"`
}

// WorkOrderLine is one posting line on an open work order.
type WorkOrderLine struct {
	WorkOrderID     string          `json:"work_order_id"`
	WorkOrderNumber string          `json:"work_order_number"`
	Item            string          `json:"item"`
	Account         string          `json:"account"`
	Amount          decimal.Decimal `json:"amount"`
}

// Action item severities, ordered critical < warning < info.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// ActionItem is a synthesized, never persisted, work queue entry.
type ActionItem struct {
	Severity    string     `json:"severity"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Metric      string     `json:"metric"`
	Team        string     `json:"team"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// Growth tiers for the composite opportunity score.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// GrowthScore carries the four sub-scores and their weighted composite.
// Every component is clamped to [0,100].
type GrowthScore struct {
	RevenueGap   float64 `json:"revenue_gap"`
	TrendScore   float64 `json:"trend_score"`
	CategoryGap  float64 `json:"category_gap"`
	MarginHealth float64 `json:"margin_health"`
	Composite    float64 `json:"composite"`
	Tier         string  `json:"tier"`
}

// DistributorLocationRecord is one customer of a distributor with its
// inferred location and growth assessment.
type DistributorLocationRecord struct {
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Location     string          `json:"location"`
	State        string          `json:"state,omitempty"`
	Confidence   int             `json:"confidence"`
	Revenue      decimal.Decimal `json:"revenue"`
	Cost         decimal.Decimal `json:"cost"`
	Margin       decimal.Decimal `json:"margin"`
	YoYChange    float64         `json:"yoy_change"`
	Growth       GrowthScore     `json:"growth"`
	IsGrowthOpp  bool            `json:"is_growth_opportunity"`
}
