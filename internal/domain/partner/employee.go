package partner

import "github.com/northwind/backend/internal/domain/shared"

// Employee is a flat employee record.
type Employee struct {
	EmployeeID int64  `json:"employee_id"`
	LastName   string `json:"last_name"`
	FirstName  string `json:"first_name"`
	Title      string `json:"title"`
	BirthDate  string `json:"birth_date"`
	HireDate   string `json:"hire_date"`
	City       string `json:"city"`
	Country    string `json:"country"`
	ReportsTo  *int64 `json:"reports_to"`
}

// EmployeeEntity describes the employees table to the backend adapters.
var EmployeeEntity = shared.EntityDescriptor{
	Table:      "employees",
	PrimaryKey: "employee_id",
	Fields: map[string]bool{
		"employee_id": true,
		"last_name":   true,
		"first_name":  true,
		"title":       true,
		"birth_date":  true,
		"hire_date":   true,
		"city":        true,
		"country":     true,
		"reports_to":  true,
	},
	SearchFields: map[string]bool{
		"last_name":  true,
		"first_name": true,
		"title":      true,
		"city":       true,
	},
	DefaultSearch: []string{"last_name", "first_name", "title"},
}
