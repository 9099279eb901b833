package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	service "github.com/harborline/erpmetrics/internal/app"
	"github.com/harborline/erpmetrics/internal/domain/inventory"
	"github.com/harborline/erpmetrics/internal/domain/model"
	"github.com/harborline/erpmetrics/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// Query markers, one unique fragment per query template.
const (
	markOrderLines   = "a.acctnumber"
	markFulfillments = "ItemShip"
	markItems        = "inventoryitemlocations"
	markBlocked      = "quantitycommitted"
	markPendingPOs   = "PurchOrd"
	markStale        = "lastmodifieddate"
	markWorkOrders   = "WorkOrd"
	markDistributor  = "CustInvc"
)

// fakeQuerier routes each query to a canned response by template marker.
type fakeQuerier struct {
	mu        sync.Mutex
	queries   []string
	responses map[string]string
	failures  map[string]error
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

func (f *fakeQuerier) RunQueryAll(_ context.Context, queryText string, _ int) ([]json.RawMessage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, queryText)
	f.mu.Unlock()

	for marker, err := range f.failures {
		if strings.Contains(queryText, marker) {
			return nil, err
		}
	}
	for marker, body := range f.responses {
		if !strings.Contains(queryText, marker) {
			continue
		}
		var rows []json.RawMessage
		if err := json.Unmarshal([]byte(body), &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}
	return nil, nil
}

func (f *fakeQuerier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, fq *fakeQuerier) *service.Service {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("logger init: %v", err)
	}

	svc := service.New(
		service.WithQuerier(fq),
		service.WithClock(func() time.Time { return testNow }),
		service.WithSnapshotTTL(5*time.Minute),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("logger init: %v", err)
	}
	Convey("Given a service without a query client", t, func() {
		svc := service.New()

		Convey("Then Start should fail", func() {
			So(svc.Start(context.Background()), ShouldEqual, service.ErrNoQuerier)
		})

		Convey("Then dashboards should refuse before Start", func() {
			_, err := svc.OrderAging(context.Background(), false)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestOrderAging(t *testing.T) {
	Convey("Given open orders and fulfillments", t, func() {
		ctx := context.Background()
		fq := newFakeQuerier()
		// Order SO-1001: two lines, manufacturing + deferred, 100 days old.
		// Order SO-1002: one manufacturing line, 10 days old.
		fq.responses[markOrderLines] = `[
			{"order_id":"1","order_number":"SO-1001","customer_id":"c1","customer_name":"Alpha Mfg","tran_date":"2025-11-21","ship_date":"2026-03-10","account_number":"4000","amount":"60"},
			{"order_id":"1","order_number":"SO-1001","customer_id":"c1","customer_name":"Alpha Mfg","tran_date":"2025-11-21","ship_date":"2026-03-10","account_number":"2500","amount":"40"},
			{"order_id":"2","order_number":"SO-1002","customer_id":"c2","customer_name":"Beta Corp","tran_date":"2026-02-19","account_number":"4100","amount":"200"}
		]`
		fq.responses[markFulfillments] = `[
			{"id":"f1","order_id":"1","ship_date":"2026-01-10","expected_date":"2026-01-15"},
			{"id":"f2","order_id":"2","ship_date":"2026-01-20","expected_date":"2026-01-15"}
		]`
		svc := newTestService(t, fq)

		Convey("When the dashboard is built", func() {
			got, err := svc.OrderAging(ctx, false)
			So(err, ShouldBeNil)

			Convey("Then lines should fold into one record per order", func() {
				So(got.TotalOpenOrders, ShouldEqual, 2)
				So(got.TotalOpenValue.String(), ShouldEqual, "300")
			})

			Convey("Then buckets should partition by age", func() {
				So(got.Buckets.Days0to30.Count, ShouldEqual, 1)
				So(got.Buckets.Days0to30.Value.String(), ShouldEqual, "200")
				So(got.Buckets.Days90Plus.Count, ShouldEqual, 1)
				So(got.Buckets.Days90Plus.Value.String(), ShouldEqual, "100")
			})

			Convey("Then revenue at risk should weight by age", func() {
				// 100 x 1.0 + 200 x 0.1
				So(got.RevenueAtRisk.String(), ShouldEqual, "120")
			})

			Convey("Then the revenue split should tag each order", func() {
				So(got.CountBySplit[model.SplitMixed], ShouldEqual, 1)
				So(got.CountBySplit[model.SplitManufacturing], ShouldEqual, 1)
			})

			Convey("Then on-time percentage should reflect fulfillments", func() {
				So(got.OnTimePct, ShouldEqual, 50)
				So(got.ShippedCount, ShouldEqual, 2)
				So(got.OnTimeCount, ShouldEqual, 1)
			})
		})

		Convey("When the dashboard is read twice", func() {
			_, err := svc.OrderAging(ctx, false)
			So(err, ShouldBeNil)
			before := fq.callCount()

			_, err = svc.OrderAging(ctx, false)
			So(err, ShouldBeNil)

			Convey("Then the second read should be served from the snapshot", func() {
				So(fq.callCount(), ShouldEqual, before)
			})

			Convey("Then a forced refresh should bypass the snapshot", func() {
				_, err = svc.OrderAging(ctx, true)
				So(err, ShouldBeNil)
				So(fq.callCount(), ShouldEqual, before+2)
			})
		})

		Convey("When the order fetch fails", func() {
			fq.failures[markOrderLines] = errors.New("gateway timeout")

			_, err := svc.OrderAging(ctx, true)

			Convey("Then the run should abort", func() {
				So(errors.Is(err, service.ErrAggregationFailed), ShouldBeTrue)
			})
		})
	})
}

func TestInventory(t *testing.T) {
	Convey("Given inventory balances, blocked orders, POs and stale orders", t, func() {
		ctx := context.Background()
		fq := newFakeQuerier()
		fq.responses[markItems] = `[
			{"item_id":"A","name":"Widget","item_type":"Assembly","location":"Main","on_hand":"5","available":"2","back_ordered":"3","unit_cost":"2","reorder_point":"10"},
			{"item_id":"B","name":"Bracket","item_type":"Component","location":"Main","on_hand":"0","available":"0","back_ordered":"4","unit_cost":"1"}
		]`
		fq.responses[markBlocked] = `[
			{"item_id":"A","order_id":"O1","customer_id":"c1","order_revenue":"25000","expected_ship_date":"2026-03-10"},
			{"item_id":"A","order_id":"O1","customer_id":"c1","order_revenue":"25000","expected_ship_date":"2026-03-10"}
		]`
		fq.responses[markPendingPOs] = `[
			{"item_id":"A","po_number":"PO-9","expected_date":"2026-03-15"},
			{"item_id":"A","po_number":"PO-7","expected_date":"2026-03-08"}
		]`
		fq.responses[markStale] = `[
			{"id":"9","order_number":"SO-0900","customer_name":"Gamma LLC","total":"4000","last_modified":"2025-12-01"}
		]`
		svc := newTestService(t, fq)

		Convey("When the dashboard is built", func() {
			got, err := svc.Inventory(ctx, false)
			So(err, ShouldBeNil)

			Convey("Then counts should split low stock from stockouts", func() {
				So(got.LowStockCount, ShouldEqual, 1)
				So(got.StockoutCount, ShouldEqual, 1)
				So(got.TotalValue.String(), ShouldEqual, "10")
			})

			Convey("Then duplicate blocking lines should fold to one order", func() {
				So(got.BlastRadius.OrdersBlocked, ShouldEqual, 1)
				So(got.BlastRadius.CustomersBlocked, ShouldEqual, 1)
				So(got.BlastRadius.RevenueBlocked.String(), ShouldEqual, "25000")
				So(got.BlastRadius.ShippingWithin30Days, ShouldEqual, 1)
			})

			Convey("Then enrichment should pick the earliest pending PO", func() {
				// Sorted by name: Bracket, Widget.
				widget := got.Items[1]
				So(widget.ItemID, ShouldEqual, "A")
				So(widget.NextPONumber, ShouldEqual, "PO-7")
				So(widget.CanExpedite, ShouldBeTrue)
				So(widget.RootCause, ShouldEqual, inventory.RootCauseInventory)
			})

			Convey("Then a stockout without a PO should classify as No PO", func() {
				bracket := got.Items[0]
				So(bracket.ItemID, ShouldEqual, "B")
				So(bracket.RootCause, ShouldEqual, inventory.RootCauseNoPO)
			})

			Convey("Then the action queue should lead with critical items", func() {
				So(got.Actions, ShouldHaveLength, 2)
				So(got.Actions[0].Severity, ShouldEqual, model.SeverityCritical)
				So(got.Actions[0].Type, ShouldEqual, inventory.ActionLowStock)
				So(got.Actions[1].Type, ShouldEqual, inventory.ActionStaleOrder)
			})
		})

		Convey("When the blocked-order fetch fails", func() {
			fq.failures[markBlocked] = errors.New("gateway timeout")

			got, err := svc.Inventory(ctx, true)

			Convey("Then the dashboard should degrade, not abort", func() {
				So(err, ShouldBeNil)
				So(got.BlastRadius.OrdersBlocked, ShouldEqual, 0)
				So(got.LowStockCount, ShouldEqual, 1)
			})
		})

		Convey("When the item fetch fails", func() {
			fq.failures[markItems] = errors.New("gateway timeout")

			_, err := svc.Inventory(ctx, true)

			Convey("Then the run should abort", func() {
				So(errors.Is(err, service.ErrAggregationFailed), ShouldBeTrue)
			})
		})
	})
}

func TestWIPCosts(t *testing.T) {
	Convey("Given open work-order posting lines", t, func() {
		ctx := context.Background()
		fq := newFakeQuerier()
		fq.responses[markWorkOrders] = `[
			{"work_order_id":"1","work_order_number":"WO-100","item":"Widget","account":"Direct Labor","amount":"400"},
			{"work_order_id":"1","work_order_number":"WO-100","item":"Widget","account":"Raw Materials","amount":"600"},
			{"work_order_id":"1","work_order_number":"WO-100","item":"Widget","account":"Manufacturing Revenue","amount":"2000"}
		]`
		svc := newTestService(t, fq)

		Convey("When the dashboard is built", func() {
			got, err := svc.WIPCosts(ctx, false)
			So(err, ShouldBeNil)

			Convey("Then the rollup should carry through with a timestamp", func() {
				So(got.GeneratedAt.Equal(testNow), ShouldBeTrue)
				So(got.TotalCost.String(), ShouldEqual, "1000")
				So(got.MarginPct, ShouldEqual, 50)
				So(got.WorkOrders, ShouldHaveLength, 1)
			})
		})
	})
}

func TestDistributor(t *testing.T) {
	Convey("Given a distributor with two customers", t, func() {
		ctx := context.Background()
		fq := newFakeQuerier()
		fq.responses[markDistributor] = `[
			{"customer_id":"c1","customer_name":"Acme - Dallas TX","revenue":"50000","prior_revenue":"100000","cost":"30000"},
			{"customer_id":"c2","customer_name":"Acme - Portland OR","revenue":"150000","prior_revenue":"140000","cost":"90000"}
		]`
		svc := newTestService(t, fq)

		Convey("When the dashboard is built", func() {
			got, err := svc.Distributor(ctx, "Acme", false)
			So(err, ShouldBeNil)

			Convey("Then the average should span all customers", func() {
				So(got.Distributor, ShouldEqual, "Acme")
				So(got.AverageRevenue.String(), ShouldEqual, "100000")
			})

			Convey("Then the declining low-revenue customer should flag", func() {
				So(got.Opportunities, ShouldEqual, 1)
				// Sorted by composite desc: the declining customer first.
				first := got.Locations[0]
				So(first.CustomerID, ShouldEqual, "c1")
				So(first.YoYChange, ShouldAlmostEqual, -50, 0.001)
				So(first.IsGrowthOpp, ShouldBeTrue)
				So(first.Location, ShouldEqual, "Dallas, TX")
			})

			Convey("Then the healthy customer should not flag", func() {
				second := got.Locations[1]
				So(second.CustomerID, ShouldEqual, "c2")
				So(second.IsGrowthOpp, ShouldBeFalse)
				So(second.Margin.String(), ShouldEqual, "60000")
			})
		})

		Convey("When the distributor name is missing", func() {
			_, err := svc.Distributor(ctx, "", false)

			Convey("Then the request should be rejected", func() {
				So(errors.Is(err, service.ErrMissingDistributor), ShouldBeTrue)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a started service with one cached dashboard", t, func() {
		fq := newFakeQuerier()
		fq.responses[markWorkOrders] = `[]`
		svc := newTestService(t, fq)

		_, err := svc.WIPCosts(context.Background(), false)
		So(err, ShouldBeNil)

		Convey("Then stats should report cache state", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["snapshotCount"], ShouldEqual, 1)
		})
	})
}
