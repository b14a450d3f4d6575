package partner

import "github.com/northwind/backend/internal/domain/shared"

// Customer is a flat customer record as exposed at the backend boundary.
type Customer struct {
	CustomerID   string `json:"customer_id"`
	CompanyName  string `json:"company_name"`
	ContactName  string `json:"contact_name"`
	ContactTitle string `json:"contact_title"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	Fax          string `json:"fax"`
}

// CustomerEntity describes the customers table to the backend adapters.
var CustomerEntity = shared.EntityDescriptor{
	Table:      "customers",
	PrimaryKey: "customer_id",
	Fields: map[string]bool{
		"customer_id":   true,
		"company_name":  true,
		"contact_name":  true,
		"contact_title": true,
		"address":       true,
		"city":          true,
		"region":        true,
		"postal_code":   true,
		"country":       true,
		"phone":         true,
		"fax":           true,
	},
	SearchFields: map[string]bool{
		"customer_id":  true,
		"company_name": true,
		"contact_name": true,
		"city":         true,
		"country":      true,
	},
	DefaultSearch: []string{"company_name", "contact_name", "city"},
}
