package persistence

import (
	"context"

	"go.uber.org/zap"

	"github.com/northwind/backend/internal/domain/catalog"
	"github.com/northwind/backend/internal/domain/partner"
	"github.com/northwind/backend/internal/domain/shared"
	"github.com/northwind/backend/internal/infrastructure/backend"
)

// CategoryRepository specializes the generic repository for categories.
type CategoryRepository struct {
	*Repository[catalog.Category]
}

// NewCategoryRepository creates a category repository on the given adapter.
func NewCategoryRepository(adapter backend.Adapter, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		Repository: NewRepository[catalog.Category](adapter, catalog.CategoryEntity, logger),
	}
}

// SupplierRepository specializes the generic repository for suppliers.
type SupplierRepository struct {
	*Repository[partner.Supplier]
}

// NewSupplierRepository creates a supplier repository on the given adapter.
func NewSupplierRepository(adapter backend.Adapter, logger *zap.Logger) *SupplierRepository {
	return &SupplierRepository{
		Repository: NewRepository[partner.Supplier](adapter, partner.SupplierEntity, logger),
	}
}

// Search finds suppliers matching the term on company and contact names.
func (r *SupplierRepository) Search(ctx context.Context, term string, spec shared.Spec) (shared.Page[partner.Supplier], error) {
	spec.Search = &shared.Search{Fields: partner.SupplierEntity.DefaultSearch, Term: term}
	return r.FindAll(ctx, spec)
}

// EmployeeRepository specializes the generic repository for employees.
type EmployeeRepository struct {
	*Repository[partner.Employee]
}

// NewEmployeeRepository creates an employee repository on the given adapter.
func NewEmployeeRepository(adapter backend.Adapter, logger *zap.Logger) *EmployeeRepository {
	return &EmployeeRepository{
		Repository: NewRepository[partner.Employee](adapter, partner.EmployeeEntity, logger),
	}
}

// Search finds employees matching the term on name and title.
func (r *EmployeeRepository) Search(ctx context.Context, term string, spec shared.Spec) (shared.Page[partner.Employee], error) {
	spec.Search = &shared.Search{Fields: partner.EmployeeEntity.DefaultSearch, Term: term}
	return r.FindAll(ctx, spec)
}
