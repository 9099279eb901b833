package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harborline/erpmetrics/internal/adapters/erp"
	"github.com/shopspring/decimal"
)

// Transaction statuses excluded from every open-order query: closed,
// cancelled and fully billed orders are not open.
var closedOrderStatuses = []string{"SalesOrd:C", "SalesOrd:G", "SalesOrd:H"}

// testCustomerMarker filters internal test accounts out of every
// customer-facing query.
const testCustomerMarker = "%TEST%"

// Stale-order window: open orders untouched for 30+ days within the
// trailing twelve months.
const (
	staleDaysFloor      = 30
	staleLookbackMonths = 12
)

// Query templates. Placeholders are expanded by erp.BuildQuery with typed,
// escaped literals; raw strings never reach the query text.
const (
	openOrderLinesQuery = `
SELECT t.id AS order_id, t.tranid AS order_number, t.entity AS customer_id,
       c.companyname AS customer_name, t.trandate AS tran_date,
       t.shipdate AS ship_date, a.acctnumber AS account_number,
       tl.netamount AS amount
FROM transaction t
JOIN transactionline tl ON tl.transaction = t.id
JOIN account a ON a.id = tl.account
JOIN customer c ON c.id = t.entity
WHERE t.type = 'SalesOrd'
  AND t.status NOT IN ({closed_statuses})
  AND t.trandate >= {since}
  AND UPPER(c.companyname) NOT LIKE {test_marker}`

	fulfillmentsQuery = `
SELECT f.id AS id, f.createdfrom AS order_id, f.trandate AS ship_date,
       o.shipdate AS expected_date
FROM transaction f
JOIN transaction o ON o.id = f.createdfrom
WHERE f.type = 'ItemShip'
  AND f.trandate >= {since}`

	inventoryItemsQuery = `
SELECT i.id AS item_id, i.itemid AS name, i.itemtype AS item_type,
       l.name AS location, b.quantityonhand AS on_hand,
       b.quantityavailable AS available, b.quantitybackordered AS back_ordered,
       i.averagecost AS unit_cost, b.reorderpoint AS reorder_point
FROM item i
JOIN inventoryitemlocations b ON b.item = i.id
JOIN location l ON l.id = b.location
WHERE i.isinactive = 'F'`

	blockedOrderLinesQuery = `
SELECT tl.item AS item_id, t.id AS order_id, t.entity AS customer_id,
       t.foreigntotal AS order_revenue, t.shipdate AS expected_ship_date
FROM transaction t
JOIN transactionline tl ON tl.transaction = t.id
JOIN customer c ON c.id = t.entity
WHERE t.type = 'SalesOrd'
  AND t.status NOT IN ({closed_statuses})
  AND (tl.quantitybackordered > 0 OR tl.quantitycommitted < tl.quantity)
  AND UPPER(c.companyname) NOT LIKE {test_marker}`

	pendingPOsQuery = `
SELECT tl.item AS item_id, t.tranid AS po_number,
       tl.expectedreceiptdate AS expected_date
FROM transaction t
JOIN transactionline tl ON tl.transaction = t.id
WHERE t.type = 'PurchOrd'
  AND t.status NOT IN ('PurchOrd:C', 'PurchOrd:G')
  AND tl.expectedreceiptdate IS NOT NULL`

	staleOrdersQuery = `
SELECT t.id AS id, t.tranid AS order_number, c.companyname AS customer_name,
       t.foreigntotal AS total, t.lastmodifieddate AS last_modified
FROM transaction t
JOIN customer c ON c.id = t.entity
WHERE t.type = 'SalesOrd'
  AND t.status NOT IN ({closed_statuses})
  AND t.trandate >= {since}
  AND t.lastmodifieddate <= {stale_cutoff}
  AND UPPER(c.companyname) NOT LIKE {test_marker}`

	workOrderLinesQuery = `
SELECT t.id AS work_order_id, t.tranid AS work_order_number,
       tl.item AS item, a.fullname AS account, tl.netamount AS amount
FROM transaction t
JOIN transactionline tl ON tl.transaction = t.id
JOIN account a ON a.id = tl.account
WHERE t.type = 'WorkOrd'
  AND t.status NOT IN ('WorkOrd:C', 'WorkOrd:H')`

	distributorCustomersQuery = `
SELECT c.id AS customer_id, c.companyname AS customer_name,
       SUM(CASE WHEN t.trandate >= {year_start} THEN t.foreigntotal ELSE 0 END) AS revenue,
       SUM(CASE WHEN t.trandate < {year_start} THEN t.foreigntotal ELSE 0 END) AS prior_revenue,
       SUM(CASE WHEN t.trandate >= {year_start} THEN t.foreigncostestimate ELSE 0 END) AS cost
FROM customer c
JOIN transaction t ON t.entity = c.id
JOIN customer parent ON parent.id = c.parent
WHERE t.type = 'CustInvc'
  AND t.trandate >= {prior_year_start}
  AND UPPER(parent.companyname) = UPPER({distributor})
  AND UPPER(c.companyname) NOT LIKE {test_marker}
GROUP BY c.id, c.companyname`
)

// isoDate unmarshals the platform's YYYY-MM-DD date strings. Empty
// strings decode to the zero time.
type isoDate struct {
	time.Time
}

func (d *isoDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("%w: date %q", ErrBadRow, s)
	}
	d.Time = t
	return nil
}

// datePtr converts an optional row date into the model's nil-able form.
func datePtr(d *isoDate) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// Row shapes, one per query.
type orderLineRow struct {
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	TranDate      isoDate         `json:"tran_date"`
	ShipDate      *isoDate        `json:"ship_date"`
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
}

type fulfillmentRow struct {
	ID           string   `json:"id"`
	OrderID      string   `json:"order_id"`
	ShipDate     isoDate  `json:"ship_date"`
	ExpectedDate *isoDate `json:"expected_date"`
}

type inventoryItemRow struct {
	ItemID       string           `json:"item_id"`
	Name         string           `json:"name"`
	Type         string           `json:"item_type"`
	Location     string           `json:"location"`
	OnHand       decimal.Decimal  `json:"on_hand"`
	Available    decimal.Decimal  `json:"available"`
	BackOrdered  decimal.Decimal  `json:"back_ordered"`
	UnitCost     decimal.Decimal  `json:"unit_cost"`
	ReorderPoint *decimal.Decimal `json:"reorder_point"`
}

type blockedLineRow struct {
	ItemID           string          `json:"item_id"`
	OrderID          string          `json:"order_id"`
	CustomerID       string          `json:"customer_id"`
	OrderRevenue     decimal.Decimal `json:"order_revenue"`
	ExpectedShipDate *isoDate        `json:"expected_ship_date"`
}

type pendingPORow struct {
	ItemID       string  `json:"item_id"`
	PONumber     string  `json:"po_number"`
	ExpectedDate isoDate `json:"expected_date"`
}

type staleOrderRow struct {
	ID           string          `json:"id"`
	Number       string          `json:"order_number"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	LastModified isoDate         `json:"last_modified"`
}

type workOrderLineRow struct {
	WorkOrderID     string          `json:"work_order_id"`
	WorkOrderNumber string          `json:"work_order_number"`
	Item            string          `json:"item"`
	Account         string          `json:"account"`
	Amount          decimal.Decimal `json:"amount"`
}

type distributorCustomerRow struct {
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Revenue      decimal.Decimal `json:"revenue"`
	PriorRevenue decimal.Decimal `json:"prior_revenue"`
	Cost         decimal.Decimal `json:"cost"`
}

// runQuery expands a template, runs it through the query client and
// decodes every row.
func runQuery[T any](ctx context.Context, s *Service, template string, params ...erp.Param) ([]T, error) {
	q, err := erp.BuildQuery(template, params...)
	if err != nil {
		return nil, err
	}
	rows, err := s.querier.RunQueryAll(ctx, q, s.maxQueryRows)
	if err != nil {
		return nil, err
	}
	out, err := erp.DecodeRows[T](rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRow, err)
	}
	return out, nil
}

// lookbackStart is the inclusive floor of every open-order query.
func (s *Service) lookbackStart() time.Time {
	return s.now().AddDate(0, -s.lookbackMonths, 0)
}

func (s *Service) fetchOpenOrderLines(ctx context.Context) ([]orderLineRow, error) {
	return runQuery[orderLineRow](ctx, s, openOrderLinesQuery,
		erp.ListParam("closed_statuses", closedOrderStatuses),
		erp.DateParam("since", s.lookbackStart()),
		erp.StringParam("test_marker", testCustomerMarker),
	)
}

func (s *Service) fetchFulfillments(ctx context.Context) ([]fulfillmentRow, error) {
	return runQuery[fulfillmentRow](ctx, s, fulfillmentsQuery,
		erp.DateParam("since", s.lookbackStart()),
	)
}

func (s *Service) fetchInventoryItems(ctx context.Context) ([]inventoryItemRow, error) {
	return runQuery[inventoryItemRow](ctx, s, inventoryItemsQuery)
}

func (s *Service) fetchBlockedLines(ctx context.Context) ([]blockedLineRow, error) {
	return runQuery[blockedLineRow](ctx, s, blockedOrderLinesQuery,
		erp.ListParam("closed_statuses", closedOrderStatuses),
		erp.StringParam("test_marker", testCustomerMarker),
	)
}

func (s *Service) fetchPendingPOs(ctx context.Context) ([]pendingPORow, error) {
	return runQuery[pendingPORow](ctx, s, pendingPOsQuery)
}

func (s *Service) fetchStaleOrders(ctx context.Context) ([]staleOrderRow, error) {
	return runQuery[staleOrderRow](ctx, s, staleOrdersQuery,
		erp.ListParam("closed_statuses", closedOrderStatuses),
		erp.DateParam("since", s.now().AddDate(0, -staleLookbackMonths, 0)),
		erp.DateParam("stale_cutoff", s.now().AddDate(0, 0, -staleDaysFloor)),
		erp.StringParam("test_marker", testCustomerMarker),
	)
}

func (s *Service) fetchWorkOrderLines(ctx context.Context) ([]workOrderLineRow, error) {
	return runQuery[workOrderLineRow](ctx, s, workOrderLinesQuery)
}

func (s *Service) fetchDistributorCustomers(ctx context.Context, distributor string) ([]distributorCustomerRow, error) {
	yearStart := s.now().AddDate(-1, 0, 0)
	return runQuery[distributorCustomerRow](ctx, s, distributorCustomersQuery,
		erp.DateParam("year_start", yearStart),
		erp.DateParam("prior_year_start", yearStart.AddDate(-1, 0, 0)),
		erp.StringParam("distributor", distributor),
		erp.StringParam("test_marker", testCustomerMarker),
	)
}
