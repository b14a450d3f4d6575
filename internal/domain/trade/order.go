package trade

import (
	"time"

	"github.com/northwind/backend/internal/domain/shared"
)

// Order is a flat order record. OrderDetails is populated only by the
// with-details read; plain listings leave it nil.
type Order struct {
	OrderID      int64       `json:"order_id"`
	CustomerID   string      `json:"customer_id"`
	EmployeeID   *int64      `json:"employee_id"`
	OrderDate    string      `json:"order_date"`
	RequiredDate string      `json:"required_date"`
	ShippedDate  *string     `json:"shipped_date"`
	ShipVia      *int64      `json:"ship_via"`
	Freight      float64     `json:"freight"`
	ShipName     string      `json:"ship_name"`
	ShipCity     string      `json:"ship_city"`
	ShipCountry  string      `json:"ship_country"`
	OrderDetails []OrderLine `json:"order_details,omitempty"`
}

// ParseOrderDate parses the date formats the two backends emit: plain dates
// from the embedded engine, RFC 3339 timestamps from the gateway.
func ParseOrderDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// OrderEntity describes the orders table to the backend adapters.
var OrderEntity = shared.EntityDescriptor{
	Table:      "orders",
	PrimaryKey: "order_id",
	Fields: map[string]bool{
		"order_id":      true,
		"customer_id":   true,
		"employee_id":   true,
		"order_date":    true,
		"required_date": true,
		"shipped_date":  true,
		"ship_via":      true,
		"freight":       true,
		"ship_name":     true,
		"ship_city":     true,
		"ship_country":  true,
	},
	SearchFields: map[string]bool{
		"customer_id":  true,
		"ship_name":    true,
		"ship_city":    true,
		"ship_country": true,
	},
	DefaultSearch: []string{"ship_name", "ship_city"},
}
