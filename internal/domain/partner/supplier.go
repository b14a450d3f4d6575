package partner

import "github.com/northwind/backend/internal/domain/shared"

// Supplier is a flat supplier record.
type Supplier struct {
	SupplierID   int64  `json:"supplier_id"`
	CompanyName  string `json:"company_name"`
	ContactName  string `json:"contact_name"`
	ContactTitle string `json:"contact_title"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	HomePage     string `json:"home_page"`
}

// SupplierEntity describes the suppliers table to the backend adapters.
var SupplierEntity = shared.EntityDescriptor{
	Table:      "suppliers",
	PrimaryKey: "supplier_id",
	Fields: map[string]bool{
		"supplier_id":   true,
		"company_name":  true,
		"contact_name":  true,
		"contact_title": true,
		"address":       true,
		"city":          true,
		"region":        true,
		"postal_code":   true,
		"country":       true,
		"phone":         true,
		"home_page":     true,
	},
	SearchFields: map[string]bool{
		"company_name": true,
		"contact_name": true,
		"city":         true,
		"country":      true,
	},
	DefaultSearch: []string{"company_name", "contact_name"},
}
