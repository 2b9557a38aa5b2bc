package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/query"
	"github.com/andreluiz1987/product-store-search/internal/service"
	apperrors "github.com/andreluiz1987/product-store-search/pkg/errors"
	"github.com/andreluiz1987/product-store-search/pkg/httputil"
	"github.com/andreluiz1987/product-store-search/pkg/validator"
)

// Query parameter names. The filter names match what the storefront sends.
const (
	paramQuery        = "query"
	paramCategories   = "selectedCategories"
	paramProductTypes = "selectedProductTypes"
	paramBrands       = "selectedbrands"
	paramPromoted     = "promoted"
	paramSize         = "size"
)

const (
	maxIndexBodyBytes = 1 << 20
	maxBulkBodyBytes  = 10 << 20
)

// SearchHandler handles HTTP requests for the product search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// IndexProductRequest is the JSON body for indexing one product.
type IndexProductRequest struct {
	ID          domain.DocumentID `json:"id" validate:"required"`
	Brand       string            `json:"brand" validate:"required"`
	Name        string            `json:"name" validate:"required"`
	Price       domain.Price      `json:"price" validate:"gte=0"`
	PriceSign   string            `json:"price_sign"`
	Currency    string            `json:"currency" validate:"omitempty,len=3"`
	ImageLink   string            `json:"image_link" validate:"omitempty,url"`
	Description string            `json:"description"`
	Rating      *float64          `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Category    string            `json:"category" validate:"required"`
	ProductType string            `json:"product_type"`
	TagList     []string          `json:"tag_list"`
}

func (r IndexProductRequest) toProduct() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Brand:       r.Brand,
		Name:        r.Name,
		Price:       r.Price,
		PriceSign:   r.PriceSign,
		Currency:    r.Currency,
		ImageLink:   r.ImageLink,
		Description: r.Description,
		Rating:      r.Rating,
		Category:    r.Category,
		ProductType: r.ProductType,
		TagList:     r.TagList,
	}
}

// BulkIndexRequest is the JSON body for indexing many products.
type BulkIndexRequest struct {
	Products []IndexProductRequest `json:"products" validate:"required,min=1,max=1000,dive"`
}

// --- Response DTOs ---

type productTypeFacet struct {
	ProductType string `json:"product_type"`
	Count       int64  `json:"count"`
}

type categoryFacet struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type brandFacet struct {
	Brand string `json:"brand"`
	Count int64  `json:"count"`
}

// FacetsResponse is the facets payload. Item keys are named after their
// dimension.
type FacetsResponse struct {
	ProductTypes []productTypeFacet `json:"product_types"`
	Categories   []categoryFacet    `json:"categories"`
	Brands       []brandFacet       `json:"brands"`
}

func newFacetsResponse(f domain.FacetResult) FacetsResponse {
	resp := FacetsResponse{
		ProductTypes: make([]productTypeFacet, 0, len(f.ProductTypes)),
		Categories:   make([]categoryFacet, 0, len(f.Categories)),
		Brands:       make([]brandFacet, 0, len(f.Brands)),
	}
	for _, b := range f.ProductTypes {
		resp.ProductTypes = append(resp.ProductTypes, productTypeFacet{ProductType: b.Key, Count: b.Count})
	}
	for _, b := range f.Categories {
		resp.Categories = append(resp.Categories, categoryFacet{Category: b.Key, Count: b.Count})
	}
	for _, b := range f.Brands {
		resp.Brands = append(resp.Brands, brandFacet{Brand: b.Key, Count: b.Count})
	}
	return resp
}

// BulkIndexResponse reports the outcome of a bulk request.
type BulkIndexResponse struct {
	Indexed int                  `json:"indexed"`
	Failed  []BulkFailureResponse `json:"failed"`
}

// BulkFailureResponse describes one rejected document.
type BulkFailureResponse struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// --- Handlers ---

// Search handles GET /api/products/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	views, err := h.service.Search(r.Context(), req, httputil.QueryList(r, paramPromoted))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if views == nil {
		views = []domain.ProductView{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: views})
}

// Facets handles GET /api/products/facets
func (h *SearchHandler) Facets(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	facets, err := h.service.Facets(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newFacetsResponse(facets)})
}

// IndexProduct handles POST /api/products/index
func (h *SearchHandler) IndexProduct(w http.ResponseWriter, r *http.Request) {
	var req IndexProductRequest
	if err := httputil.DecodeJSON(r, &req, maxIndexBodyBytes); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product := req.toProduct()
	if err := h.service.IndexProduct(r.Context(), &product); err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": string(req.ID), "status": "indexed"}})
}

// BulkIndex handles POST /api/products/bulk
func (h *SearchHandler) BulkIndex(w http.ResponseWriter, r *http.Request) {
	var req BulkIndexRequest
	if err := httputil.DecodeJSON(r, &req, maxBulkBodyBytes); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	products := make([]domain.Product, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, p.toProduct())
	}

	result, err := h.service.BulkIndex(r.Context(), products)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := BulkIndexResponse{Indexed: result.Indexed, Failed: make([]BulkFailureResponse, 0, len(result.Failed))}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, BulkFailureResponse{ID: f.ID, Reason: f.Reason})
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resp})
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *SearchHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.writeError(w, r, apperrors.InvalidInput("id is required"))
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id, "status": "deleted"}})
}

// searchRequest reads the term, filter and size parameters shared by the
// search and facet endpoints. The term is trimmed; filter values are not.
func searchRequest(r *http.Request) (domain.SearchRequest, error) {
	size, err := httputil.QueryInt(r, paramSize, 0)
	if err != nil {
		return domain.SearchRequest{}, err
	}
	if size < 0 || size > service.MaxPageSize {
		return domain.SearchRequest{}, apperrors.InvalidInput("size must be between 1 and 100")
	}

	return domain.SearchRequest{
		Term: strings.TrimSpace(r.URL.Query().Get(paramQuery)),
		Filters: query.NormalizeFilters(
			rawList(r, paramCategories),
			rawList(r, paramProductTypes),
			rawList(r, paramBrands),
		),
		Size: size,
	}, nil
}

// rawList returns a repeated parameter without trimming, so filter values
// reach the engine exactly as sent. Empty strings are still dropped.
func rawList(r *http.Request, name string) []string {
	q := r.URL.Query()
	var out []string
	for _, key := range []string{name + "[]", name} {
		for _, v := range q[key] {
			if v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// writeError maps domain failures onto the API error envelope.
func (h *SearchHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var mErr *domain.MappingError
	switch {
	case errors.Is(err, domain.ErrGatewayUnavailable):
		err = apperrors.GatewayUnavailable(err)
	case errors.As(err, &mErr), errors.Is(err, domain.ErrMapping):
		err = apperrors.MappingFailed(err)
	case errors.Is(err, domain.ErrInvalidFilterValue):
		err = apperrors.InvalidInput(err.Error())
	}
	httputil.WriteError(w, r, err, h.logger)
}
