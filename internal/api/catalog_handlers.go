package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/canlabel/labeler-station/internal/domain"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog",
		Summary:     "Get catalog",
		Description: "Returns the products and brands an operator can label. Served from the loaded workflow snapshot when available.",
		Tags:        []string{"Catalog"},
	}, s.handleGetCatalog)
}

// CatalogResponse lists products and brands.
type CatalogResponse struct {
	Products []*domain.Product `json:"products" doc:"Products sorted by name"`
	Brands   []*domain.Brand   `json:"brands" doc:"Brands sorted by name"`
	Snapshot bool              `json:"snapshot" doc:"True when served from the loaded workflow snapshot"`
}

// CatalogOutput wraps the catalog response for Huma.
type CatalogOutput struct {
	Body CatalogResponse
}

func (s *Server) handleGetCatalog(ctx context.Context, _ *struct{}) (*CatalogOutput, error) {
	if products, brands, ok := s.services.Workflow.Catalog(); ok {
		return &CatalogOutput{Body: CatalogResponse{Products: products, Brands: brands, Snapshot: true}}, nil
	}

	products, err := s.services.Store.ListProducts(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}
	brands, err := s.services.Store.ListBrands(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &CatalogOutput{Body: CatalogResponse{Products: products, Brands: brands}}, nil
}
