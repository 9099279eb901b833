// Package aging computes order-aging partitions and risk weightings over
// open-order snapshots. All functions are pure.
package aging

import (
	"strings"
	"time"

	"github.com/harborline/erpmetrics/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Bucket boundaries in days open.
const (
	bucket30 = 30
	bucket60 = 60
	bucket90 = 90
)

// Risk weights form a monotonically non-decreasing step function of age.
var (
	weight90Plus = decimal.NewFromInt(1)
	weight61to90 = decimal.NewFromFloat(0.7)
	weight31to60 = decimal.NewFromFloat(0.4)
	weight0to30  = decimal.NewFromFloat(0.1)
)

// Posting-account number prefixes for the revenue split. Lines posting to
// a manufacturing account count toward manufacturing value; lines posting
// to a deferred-revenue account count toward deferred value.
var (
	manufacturingPrefixes = []string{"40", "41"}
	deferredPrefixes      = []string{"25", "26"}
)

// BucketOrders partitions orders into the four aging buckets. The buckets
// are mutually exclusive and exhaustive: every order lands in exactly one.
func BucketOrders(orders []model.SalesOrderRecord) model.AgingBuckets {
	var buckets model.AgingBuckets
	for _, o := range orders {
		b := bucketFor(&buckets, o.AgeDays)
		b.Count++
		b.Value = b.Value.Add(o.Total)
	}
	return buckets
}

func bucketFor(buckets *model.AgingBuckets, ageDays int) *model.AgingBucket {
	switch {
	case ageDays <= bucket30:
		return &buckets.Days0to30
	case ageDays <= bucket60:
		return &buckets.Days31to60
	case ageDays <= bucket90:
		return &buckets.Days61to90
	default:
		return &buckets.Days90Plus
	}
}

// RiskWeight returns the age weight for one order.
func RiskWeight(ageDays int) decimal.Decimal {
	switch {
	case ageDays > bucket90:
		return weight90Plus
	case ageDays > bucket60:
		return weight61to90
	case ageDays > bucket30:
		return weight31to60
	default:
		return weight0to30
	}
}

// RevenueAtRisk sums amount x weight(days open) over the order set.
func RevenueAtRisk(orders []model.SalesOrderRecord) decimal.Decimal {
	risk := decimal.Zero
	for _, o := range orders {
		risk = risk.Add(o.Total.Mul(RiskWeight(o.AgeDays)))
	}
	return risk
}

// OnTimePercentage returns onTime/shipped x 100 with the counts it used.
// An empty fulfillment set is vacuous success: 100, not a division error.
func OnTimePercentage(fulfillments []model.FulfillmentRecord) (pct float64, shipped, onTime int) {
	shipped = len(fulfillments)
	if shipped == 0 {
		return 100, 0, 0
	}
	for _, f := range fulfillments {
		if f.OnTime {
			onTime++
		}
	}
	return float64(onTime) / float64(shipped) * 100, shipped, onTime
}

// DeriveOnTime reports whether a shipment met its promised date. Orders
// without a promised date default to on time.
func DeriveOnTime(shipDate time.Time, expected *time.Time) bool {
	if expected == nil {
		return true
	}
	return !shipDate.After(*expected)
}

// ClassifyAccount reports whether a posting account number belongs to the
// manufacturing or deferred prefix set.
func ClassifyAccount(accountNumber string) (manufacturing, deferred bool) {
	for _, p := range manufacturingPrefixes {
		if strings.HasPrefix(accountNumber, p) {
			return true, false
		}
	}
	for _, p := range deferredPrefixes {
		if strings.HasPrefix(accountNumber, p) {
			return false, true
		}
	}
	return false, false
}

// ClassifyRevenueSplit tags an order by where its line value posts: value
// in both buckets is Mixed, value only in manufacturing is Manufacturing,
// otherwise Deferred Only.
func ClassifyRevenueSplit(manufacturingValue, deferredValue decimal.Decimal) string {
	hasManufacturing := manufacturingValue.IsPositive()
	hasDeferred := deferredValue.IsPositive()
	switch {
	case hasManufacturing && hasDeferred:
		return model.SplitMixed
	case hasManufacturing:
		return model.SplitManufacturing
	default:
		return model.SplitDeferredOnly
	}
}
