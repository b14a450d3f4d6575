package backend

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/northwind/backend/internal/domain/shared"
)

// Canonical fixture rows, typed the way the remote gateway's JSON decoder
// produces them (numbers as float64). The embedded engine is seeded from the
// same rows so both backends can be compared against one dataset.

// f wraps a number for nullable columns, where nil means SQL NULL.
func f(v float64) any { return v }

func seedProducts() []shared.Row {
	return []shared.Row{
		productRow(1, "Chai", f(1), f(1), "10 boxes x 20 bags", 18, 39, 0, 10, 0),
		productRow(2, "Chang", f(1), f(1), "24 - 12 oz bottles", 19, 17, 40, 25, 0),
		productRow(3, "Aniseed Syrup", f(1), f(2), "12 - 550 ml bottles", 10, 13, 70, 25, 0),
		productRow(4, "Chef Anton's Cajun Seasoning", f(2), f(2), "48 - 6 oz jars", 22, 53, 0, 0, 0),
		productRow(5, "Chef Anton's Gumbo Mix", f(2), f(2), "36 boxes", 21.35, 0, 0, 0, 1),
		productRow(6, "Grandma's Boysenberry Spread", f(3), f(2), "12 - 8 oz jars", 25, 120, 0, 25, 0),
		productRow(7, "Uncle Bob's Organic Dried Pears", f(3), f(1), "12 - 1 lb pkgs.", 30, 15, 0, 10, 0),
		productRow(8, "Northwoods Cranberry Sauce", nil, f(2), "12 - 12 oz jars", 40, 6, 0, 0, 0),
	}
}

func productRow(id float64, name string, supplierID, categoryID any, qpu string, price, stock, onOrder, level, discontinued float64) shared.Row {
	return shared.Row{
		"product_id":        id,
		"product_name":      name,
		"supplier_id":       supplierID,
		"category_id":       categoryID,
		"quantity_per_unit": qpu,
		"unit_price":        price,
		"units_in_stock":    stock,
		"units_on_order":    onOrder,
		"reorder_level":     level,
		"discontinued":      discontinued,
	}
}

func seedCustomers() []shared.Row {
	return []shared.Row{
		customerRow("ALFKI", "Alfreds Futterkiste", "Maria Anders", "Berlin", "Germany"),
		customerRow("ANATR", "Ana Trujillo Emparedados y helados", "Ana Trujillo", "Mexico D.F.", "Mexico"),
		customerRow("ANTON", "Antonio Moreno Taqueria", "Antonio Moreno", "Mexico D.F.", "Mexico"),
		customerRow("BERGS", "Berglunds snabbkop", "Christina Berglund", "Lulea", "Sweden"),
	}
}

func customerRow(id, company, contact, city, country string) shared.Row {
	return shared.Row{
		"customer_id":   id,
		"company_name":  company,
		"contact_name":  contact,
		"contact_title": "Owner",
		"address":       "",
		"city":          city,
		"region":        nil,
		"postal_code":   "",
		"country":       country,
		"phone":         "",
		"fax":           "",
	}
}

const testSchema = `
CREATE TABLE customers (
	customer_id   TEXT PRIMARY KEY,
	company_name  TEXT NOT NULL,
	contact_name  TEXT,
	contact_title TEXT,
	address       TEXT,
	city          TEXT,
	region        TEXT,
	postal_code   TEXT,
	country       TEXT,
	phone         TEXT,
	fax           TEXT
);
CREATE TABLE products (
	product_id        INTEGER PRIMARY KEY,
	product_name      TEXT NOT NULL,
	supplier_id       INTEGER,
	category_id       INTEGER,
	quantity_per_unit TEXT,
	unit_price        REAL,
	units_in_stock    INTEGER,
	units_on_order    INTEGER,
	reorder_level     INTEGER,
	discontinued      INTEGER NOT NULL DEFAULT 0
);
`

// openTestDB opens an in-memory engine and seeds it from the canonical rows.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	// A pooled :memory: database vanishes when its connection is recycled,
	// so the pool is pinned to a single connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(testSchema).Error)

	for _, row := range seedProducts() {
		insertRow(t, db, "products", row)
	}
	for _, row := range seedCustomers() {
		insertRow(t, db, "customers", row)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func insertRow(t *testing.T, db *gorm.DB, table string, row shared.Row) {
	t.Helper()

	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = "?"
		args[i] = row[col]
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	require.NoError(t, db.Exec(stmt, args...).Error)
}

// names extracts a single column from a page of rows for compact assertions.
func names(page shared.Page[shared.Row], col string) []any {
	out := make([]any, len(page.Data))
	for i, r := range page.Data {
		out[i] = r[col]
	}
	return out
}
