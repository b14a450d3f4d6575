package catalog

import "github.com/northwind/backend/internal/domain/shared"

// Category is a flat category record.
type Category struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	Description  string `json:"description"`
}

// CategoryEntity describes the categories table to the backend adapters.
var CategoryEntity = shared.EntityDescriptor{
	Table:      "categories",
	PrimaryKey: "category_id",
	Fields: map[string]bool{
		"category_id":   true,
		"category_name": true,
		"description":   true,
	},
	SearchFields: map[string]bool{
		"category_name": true,
		"description":   true,
	},
	DefaultSearch: []string{"category_name"},
}
