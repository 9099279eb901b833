package service

import (
	"context"
	"sort"

	"github.com/harborline/erpmetrics/internal/domain/location"
	"github.com/harborline/erpmetrics/internal/domain/model"
	"github.com/shopspring/decimal"
)

// buildDistributor fetches one distributor's customer roll-up, infers a
// location per customer and scores each against the distributor average.
func (s *Service) buildDistributor(ctx context.Context, distributor string) (model.DistributorMetrics, error) {
	rows, err := s.fetchDistributorCustomers(ctx, distributor)
	if err != nil {
		return model.DistributorMetrics{}, err
	}

	average := averageRevenue(rows)
	peers := make([]decimal.Decimal, 0, len(rows))
	for _, r := range rows {
		peers = append(peers, r.Revenue)
	}

	opportunities := 0
	locations := make([]model.DistributorLocationRecord, 0, len(rows))
	for _, r := range rows {
		extraction := location.Extract(r.CustomerName, distributor)
		yoy := yoyChange(r.Revenue, r.PriorRevenue)
		growth := location.CalculateGrowthScore(r.Revenue, yoy, average)
		isOpp := location.IsGrowthOpportunity(r.Revenue, yoy, growth.Composite, peers)
		if isOpp {
			opportunities++
		}

		locations = append(locations, model.DistributorLocationRecord{
			CustomerID:   r.CustomerID,
			CustomerName: r.CustomerName,
			Location:     extraction.Display(),
			State:        extraction.State,
			Confidence:   extraction.Confidence,
			Revenue:      r.Revenue,
			Cost:         r.Cost,
			Margin:       r.Revenue.Sub(r.Cost),
			YoYChange:    yoy,
			Growth:       growth,
			IsGrowthOpp:  isOpp,
		})
	}

	// Highest-opportunity locations first.
	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].Growth.Composite > locations[j].Growth.Composite
	})

	return model.DistributorMetrics{
		GeneratedAt:    s.now(),
		Distributor:    distributor,
		AverageRevenue: average,
		Opportunities:  opportunities,
		Locations:      locations,
	}, nil
}

func averageRevenue(rows []distributorCustomerRow) decimal.Decimal {
	if len(rows) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Revenue)
	}
	return total.Div(decimal.NewFromInt(int64(len(rows))))
}

// yoyChange is the revenue change percentage against the prior year.
// Customers with no prior-year revenue have no trend, not infinite growth.
func yoyChange(revenue, prior decimal.Decimal) float64 {
	if !prior.IsPositive() {
		return 0
	}
	change, _ := revenue.Sub(prior).Div(prior).Float64()
	return change * 100
}
