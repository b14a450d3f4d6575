package persistence

import (
	"context"

	"go.uber.org/zap"

	"github.com/northwind/backend/internal/domain/catalog"
	"github.com/northwind/backend/internal/domain/shared"
	"github.com/northwind/backend/internal/infrastructure/backend"
)

// ProductRepository specializes the generic repository for products. The
// stock-state listings carry residual predicates: the gateway cannot compare
// units_in_stock against reorder_level server-side, so the comparison runs in
// memory identically on either backend.
type ProductRepository struct {
	*Repository[catalog.Product]
}

// NewProductRepository creates a product repository on the given adapter.
func NewProductRepository(adapter backend.Adapter, logger *zap.Logger) *ProductRepository {
	return &ProductRepository{
		Repository: NewRepository[catalog.Product](adapter, catalog.ProductEntity, logger),
	}
}

// Search finds products matching the term on the product name.
func (r *ProductRepository) Search(ctx context.Context, term string, spec shared.Spec) (shared.Page[catalog.Product], error) {
	spec.Search = &shared.Search{Fields: catalog.ProductEntity.DefaultSearch, Term: term}
	return r.FindAll(ctx, spec)
}

// FindByCategory lists products in one category.
func (r *ProductRepository) FindByCategory(ctx context.Context, categoryID int64, spec shared.Spec) (shared.Page[catalog.Product], error) {
	if spec.Filters == nil {
		spec.Filters = map[string]shared.FilterValue{}
	}
	spec.Filters["category_id"] = shared.Equals(categoryID)
	return r.FindAll(ctx, spec)
}

// FindLowStock lists products with 0 < units_in_stock <= reorder_level.
func (r *ProductRepository) FindLowStock(ctx context.Context, spec shared.Spec) (shared.Page[catalog.Product], error) {
	spec.Residual = catalog.LowStock
	return r.FindAll(ctx, spec)
}

// FindInStock lists products with units_in_stock > 0.
func (r *ProductRepository) FindInStock(ctx context.Context, spec shared.Spec) (shared.Page[catalog.Product], error) {
	spec.Residual = catalog.InStock
	return r.FindAll(ctx, spec)
}

// FindOutOfStock lists products with units_in_stock == 0.
func (r *ProductRepository) FindOutOfStock(ctx context.Context, spec shared.Spec) (shared.Page[catalog.Product], error) {
	spec.Residual = catalog.OutOfStock
	return r.FindAll(ctx, spec)
}
