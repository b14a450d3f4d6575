package report

import (
	"context"
	"sort"

	"github.com/northwind/backend/internal/domain/shared"
)

// ReorderAlert flags a product whose stock position has fallen to or below
// its reorder level.
type ReorderAlert struct {
	ProductID         int64  `json:"product_id"`
	ProductName       string `json:"product_name"`
	UnitsInStock      int64  `json:"units_in_stock"`
	UnitsOnOrder      int64  `json:"units_on_order"`
	ReorderLevel      int64  `json:"reorder_level"`
	SuggestedQuantity int64  `json:"suggested_quantity"`
}

// ReorderAlertsResult lists every product needing a reorder.
type ReorderAlertsResult struct {
	RunInfo
	Alerts []ReorderAlert `json:"alerts"`
}

// ReorderAlerts compares units_in_stock + units_on_order against the
// reorder level (defaulted to 10 when unset) across the active catalog and
// suggests a reorder quantity per product. Discontinued products are not
// reordered.
func (e *Engine) ReorderAlerts(ctx context.Context) (*ReorderAlertsResult, error) {
	products, err := e.products.All(ctx, shared.Spec{
		Sort: []shared.SortField{{Field: "product_id"}},
	})
	if err != nil {
		return nil, err
	}

	result := &ReorderAlertsResult{Alerts: []ReorderAlert{}}
	for _, p := range products {
		if p.Discontinued != 0 || !p.NeedsReorder() {
			continue
		}
		result.Alerts = append(result.Alerts, ReorderAlert{
			ProductID:         p.ProductID,
			ProductName:       p.ProductName,
			UnitsInStock:      p.UnitsInStock,
			UnitsOnOrder:      p.UnitsOnOrder,
			ReorderLevel:      p.EffectiveReorderLevel(),
			SuggestedQuantity: p.SuggestedReorderQuantity(),
		})
	}
	sort.Slice(result.Alerts, func(i, j int) bool {
		return result.Alerts[i].ProductID < result.Alerts[j].ProductID
	})
	return result, nil
}
