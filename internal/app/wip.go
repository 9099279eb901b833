package service

import (
	"context"

	"github.com/harborline/erpmetrics/internal/domain/model"
	"github.com/harborline/erpmetrics/internal/domain/wip"
)

// buildWIP fetches open work-order posting lines and rolls them up by
// cost category. The single fetch is required.
func (s *Service) buildWIP(ctx context.Context) (model.WIPCostMetrics, error) {
	rows, err := s.fetchWorkOrderLines(ctx)
	if err != nil {
		return model.WIPCostMetrics{}, err
	}

	lines := make([]model.WorkOrderLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, model.WorkOrderLine{
			WorkOrderID:     r.WorkOrderID,
			WorkOrderNumber: r.WorkOrderNumber,
			Item:            r.Item,
			Account:         r.Account,
			Amount:          r.Amount,
		})
	}

	out := wip.Rollup(lines)
	out.GeneratedAt = s.now()
	return out, nil
}
