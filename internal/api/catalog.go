package api

import (
	"net/http"

	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/respond"
	"github.com/clefeel/storefront/internal/services"
	"github.com/gorilla/mux"
)

func catalogQuery(r *http.Request) services.CatalogQuery {
	q := r.URL.Query()
	return services.CatalogQuery{
		Gender:   q.Get("gender"),
		Category: q.Get("category"),
		MinPrice: q.Get("minPrice"),
		MaxPrice: q.Get("maxPrice"),
		Sort:     q.Get("sort"),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	}
}

// ListPerfumesHandler handles GET /api/perfumes
func (a *App) ListPerfumesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.Catalog.List(r.Context(), catalogQuery(r))
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// FeaturedPerfumesHandler handles GET /api/perfumes/featured
func (a *App) FeaturedPerfumesHandler(w http.ResponseWriter, r *http.Request) {
	perfumes, err := a.svc.Catalog.Featured(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"perfumes": perfumes})
}

// GetPerfumeHandler handles GET /api/perfumes/{slug}
func (a *App) GetPerfumeHandler(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.Catalog.BySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"perfume": p})
}

// AdminPerfumesHandler handles GET /api/admin/perfumes
func (a *App) AdminPerfumesHandler(w http.ResponseWriter, r *http.Request) {
	q := catalogQuery(r)
	q.IncludeInactive = true
	list, err := a.svc.Catalog.List(r.Context(), q)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// CreatePerfumeHandler handles POST /api/perfumes
func (a *App) CreatePerfumeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePerfumeRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	p, err := a.svc.Catalog.Create(r.Context(), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"message": "Perfume created successfully", "perfume": p})
}

// UpdatePerfumeHandler handles PUT /api/perfumes/{id}
func (a *App) UpdatePerfumeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, err)
		return
	}
	var req models.UpdatePerfumeRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	p, err := a.svc.Catalog.Update(r.Context(), id, req)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"message": "Perfume updated successfully", "perfume": p})
}

// DeletePerfumeHandler handles DELETE /api/perfumes/{id}
func (a *App) DeletePerfumeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.svc.Catalog.Delete(r.Context(), id); err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, message("Perfume deleted successfully"))
}

// AddVariantHandler handles POST /api/perfumes/{id}/variants
func (a *App) AddVariantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, err)
		return
	}
	var req models.VariantInput
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	v, err := a.svc.Catalog.AddVariant(r.Context(), id, req)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"message": "Variant added successfully", "variant": v})
}

// UpdateVariantHandler handles PUT /api/perfumes/variants/{variantId}
func (a *App) UpdateVariantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "variantId")
	if err != nil {
		a.fail(w, err)
		return
	}
	var req models.UpdateVariantRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	v, err := a.svc.Catalog.UpdateVariant(r.Context(), id, req)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"message": "Variant updated successfully", "variant": v})
}

// DeleteVariantHandler handles DELETE /api/perfumes/variants/{variantId}
func (a *App) DeleteVariantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "variantId")
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.svc.Catalog.DeleteVariant(r.Context(), id); err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, message("Variant deleted successfully"))
}
