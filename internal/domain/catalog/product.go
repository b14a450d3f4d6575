package catalog

import "github.com/northwind/backend/internal/domain/shared"

// Product is a flat product record.
type Product struct {
	ProductID       int64   `json:"product_id"`
	ProductName     string  `json:"product_name"`
	SupplierID      *int64  `json:"supplier_id"`
	CategoryID      *int64  `json:"category_id"`
	QuantityPerUnit string  `json:"quantity_per_unit"`
	UnitPrice       float64 `json:"unit_price"`
	UnitsInStock    int64   `json:"units_in_stock"`
	UnitsOnOrder    int64   `json:"units_on_order"`
	ReorderLevel    int64   `json:"reorder_level"`
	Discontinued    int64   `json:"discontinued"`
}

// DefaultReorderLevel applies when a product has no reorder level set.
const DefaultReorderLevel = 10

// EffectiveReorderLevel returns the reorder level, defaulted when unset.
func (p Product) EffectiveReorderLevel() int64 {
	if p.ReorderLevel <= 0 {
		return DefaultReorderLevel
	}
	return p.ReorderLevel
}

// NeedsReorder reports whether stock on hand plus stock already on order has
// fallen to or below the reorder level.
func (p Product) NeedsReorder() bool {
	return p.UnitsInStock+p.UnitsOnOrder <= p.EffectiveReorderLevel()
}

// SuggestedReorderQuantity is the quantity to reorder: enough to restock to
// twice the reorder level, but never less than one reorder level.
func (p Product) SuggestedReorderQuantity() int64 {
	level := p.EffectiveReorderLevel()
	qty := 2*level - p.UnitsInStock
	if qty < level {
		return level
	}
	return qty
}

// Residual stock predicates. The remote gateway cannot compare two columns of
// the same row server-side, so these run in memory on either backend.

// LowStock matches rows with 0 < units_in_stock <= reorder_level.
func LowStock(r shared.Row) bool {
	stock, ok := shared.RowInt(r, "units_in_stock")
	if !ok {
		return false
	}
	level, _ := shared.RowInt(r, "reorder_level")
	return stock > 0 && stock <= level
}

// InStock matches rows with units_in_stock > 0.
func InStock(r shared.Row) bool {
	stock, ok := shared.RowInt(r, "units_in_stock")
	return ok && stock > 0
}

// OutOfStock matches rows with units_in_stock == 0.
func OutOfStock(r shared.Row) bool {
	stock, ok := shared.RowInt(r, "units_in_stock")
	return ok && stock == 0
}

// ProductEntity describes the products table to the backend adapters.
var ProductEntity = shared.EntityDescriptor{
	Table:      "products",
	PrimaryKey: "product_id",
	Fields: map[string]bool{
		"product_id":        true,
		"product_name":      true,
		"supplier_id":       true,
		"category_id":       true,
		"quantity_per_unit": true,
		"unit_price":        true,
		"units_in_stock":    true,
		"units_on_order":    true,
		"reorder_level":     true,
		"discontinued":      true,
	},
	SearchFields: map[string]bool{
		"product_name":      true,
		"quantity_per_unit": true,
	},
	DefaultSearch: []string{"product_name"},
}
