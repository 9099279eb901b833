package location

import (
	"math"
	"sort"

	"github.com/harborline/erpmetrics/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Growth score weights and thresholds.
const (
	weightRevenueGap   = 0.4
	weightTrendScore   = 0.3
	weightCategoryGap  = 0.2
	weightMarginHealth = 0.1

	tierHighFloor   = 60.0
	tierMediumFloor = 35.0

	// revenueGapFloor: a location at or above this fraction of the
	// distributor average has no revenue gap.
	revenueGapFloor = 0.75

	// trendDeclineScale converts a negative YoY percentage into a score.
	trendDeclineScale = 2.0

	// trendGrowthCeiling is the trend score of a flat location; positive
	// growth decays it toward zero.
	trendGrowthCeiling = 20.0

	// Opportunity triggers.
	opportunityPercentile = 0.25
	opportunityYoYFloor   = -15.0
	opportunityScoreFloor = tierMediumFloor
)

// CalculateGrowthScore scores a location's growth opportunity against the
// distributor average. CategoryGap and MarginHealth are placeholders at
// zero pending a richer data feed; the composite weights already reserve
// their share.
func CalculateGrowthScore(revenue decimal.Decimal, yoyChange float64, distributorAverage decimal.Decimal) model.GrowthScore {
	score := model.GrowthScore{
		RevenueGap: revenueGap(revenue, distributorAverage),
		TrendScore: trendScore(yoyChange),
	}

	score.Composite = weightRevenueGap*score.RevenueGap +
		weightTrendScore*score.TrendScore +
		weightCategoryGap*score.CategoryGap +
		weightMarginHealth*score.MarginHealth
	score.Tier = Tier(score.Composite)
	return score
}

// Tier maps a composite score to its discrete tier.
func Tier(composite float64) string {
	switch {
	case composite >= tierHighFloor:
		return model.TierHigh
	case composite >= tierMediumFloor:
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// revenueGap is zero when revenue meets 75% of the distributor average,
// otherwise the shortfall scaled to [0,100].
func revenueGap(revenue, distributorAverage decimal.Decimal) float64 {
	if !distributorAverage.IsPositive() {
		return 0
	}
	threshold := distributorAverage.Mul(decimal.NewFromFloat(revenueGapFloor))
	if revenue.GreaterThanOrEqual(threshold) {
		return 0
	}
	shortfall, _ := threshold.Sub(revenue).Div(threshold).Float64()
	return clampScore(shortfall * 100)
}

// trendScore scales the magnitude of a decline, or decays toward zero for
// growing locations.
func trendScore(yoyChange float64) float64 {
	if yoyChange < 0 {
		return clampScore(-yoyChange * trendDeclineScale)
	}
	return clampScore(trendGrowthCeiling - yoyChange)
}

// IsGrowthOpportunity reports whether a location warrants attention:
// revenue at or below the 25th percentile of peers, a YoY decline of 15%
// or more, or a composite score at or past the medium tier.
func IsGrowthOpportunity(revenue decimal.Decimal, yoyChange, composite float64, peers []decimal.Decimal) bool {
	if yoyChange <= opportunityYoYFloor {
		return true
	}
	if composite >= opportunityScoreFloor {
		return true
	}
	if len(peers) == 0 {
		return false
	}
	return revenue.LessThanOrEqual(percentile(peers, opportunityPercentile))
}

// percentile returns the nearest-rank percentile of values.
func percentile(values []decimal.Decimal, p float64) decimal.Decimal {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
