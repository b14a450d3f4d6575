package persistence

import (
	"context"

	"go.uber.org/zap"

	"github.com/northwind/backend/internal/domain/partner"
	"github.com/northwind/backend/internal/domain/shared"
	"github.com/northwind/backend/internal/infrastructure/backend"
)

// CustomerRepository specializes the generic repository for customers.
type CustomerRepository struct {
	*Repository[partner.Customer]
}

// NewCustomerRepository creates a customer repository on the given adapter.
func NewCustomerRepository(adapter backend.Adapter, logger *zap.Logger) *CustomerRepository {
	return &CustomerRepository{
		Repository: NewRepository[partner.Customer](adapter, partner.CustomerEntity, logger),
	}
}

// Search finds customers matching the term across the entity's default
// search fields (company name, contact name, city).
func (r *CustomerRepository) Search(ctx context.Context, term string, spec shared.Spec) (shared.Page[partner.Customer], error) {
	spec.Search = &shared.Search{Fields: partner.CustomerEntity.DefaultSearch, Term: term}
	return r.FindAll(ctx, spec)
}

// FindByCountry lists customers in one country.
func (r *CustomerRepository) FindByCountry(ctx context.Context, country string, spec shared.Spec) (shared.Page[partner.Customer], error) {
	if spec.Filters == nil {
		spec.Filters = map[string]shared.FilterValue{}
	}
	spec.Filters["country"] = shared.Equals(country)
	return r.FindAll(ctx, spec)
}
