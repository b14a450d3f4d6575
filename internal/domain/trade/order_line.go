package trade

import "github.com/northwind/backend/internal/domain/shared"

// OrderLine is one line of an order. Discount is a fraction in [0, 1),
// never a percentage.
type OrderLine struct {
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int64   `json:"quantity"`
	Discount  float64 `json:"discount"`
}

// OrderLineEntity describes the order_details table to the backend adapters.
// The table has a composite key; order_id serves as the adapter-facing key so
// that default sorts stay deterministic.
var OrderLineEntity = shared.EntityDescriptor{
	Table:      "order_details",
	PrimaryKey: "order_id",
	Fields: map[string]bool{
		"order_id":   true,
		"product_id": true,
		"unit_price": true,
		"quantity":   true,
		"discount":   true,
	},
	SearchFields:  map[string]bool{},
	DefaultSearch: nil,
}
