package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campaign-insights/internal/domain"
	"github.com/ignite/campaign-insights/internal/pkg/httputil"
	"github.com/ignite/campaign-insights/internal/service/brand"
)

func (h *Handlers) brandStore(w http.ResponseWriter) bool {
	if h.brands == nil {
		httputil.ServiceUnavailable(w, "brands_disabled", "brand management requires a database")
		return false
	}
	return true
}

// ListBrands returns the brand lookup as an array of {brand, industry}.
//
//	GET /api/brand-management
func (h *Handlers) ListBrands(w http.ResponseWriter, r *http.Request) {
	if !h.brandStore(w) {
		return
	}
	brands, err := h.brands.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if brands == nil {
		brands = []domain.Brand{}
	}
	httputil.OK(w, brands)
}

// UpsertBrand sets a brand's industry.
//
//	PUT /api/brand-management  {"brand": "...", "industry": "..."}
func (h *Handlers) UpsertBrand(w http.ResponseWriter, r *http.Request) {
	if !h.brandStore(w) {
		return
	}
	var req domain.Brand
	if !httputil.Decode(w, r, &req) {
		return
	}
	saved, err := h.brands.Upsert(r.Context(), req)
	switch {
	case errors.Is(err, brand.ErrMissingBrand), errors.Is(err, brand.ErrMissingIndustry):
		httputil.BadRequest(w, err.Error())
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.OK(w, saved)
	}
}

// DeleteBrand removes a brand.
//
//	DELETE /api/brand-management/{brand}
//	DELETE /api/brand-management?brand=
func (h *Handlers) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	if !h.brandStore(w) {
		return
	}
	name := chi.URLParam(r, "brand")
	if name == "" {
		name = r.URL.Query().Get("brand")
	}
	name = strings.TrimSpace(name)

	err := h.brands.Delete(r.Context(), name)
	switch {
	case errors.Is(err, brand.ErrMissingBrand):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, brand.ErrNotFound):
		httputil.NotFound(w, "brand not found")
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.NoContent(w)
	}
}
