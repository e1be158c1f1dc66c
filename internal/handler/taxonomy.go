package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
)

// TaxonomyHandler serves /api/categories or /api/tags, depending on the service kind.
type TaxonomyHandler struct {
	terms    *service.TaxonomyService
	fail     middleware.ErrorResponder
	singular string
	plural   string
}

func NewTaxonomyHandler(terms *service.TaxonomyService, fail middleware.ErrorResponder) *TaxonomyHandler {
	h := &TaxonomyHandler{terms: terms, fail: fail, singular: "Tag", plural: "Tags"}
	if terms.Kind() == domain.KindCategory {
		h.singular, h.plural = "Category", "Categories"
	}
	return h
}

func (h *TaxonomyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/slug/{slug}", h.GetBySlug)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Deactivate)
	r.Get("/{id}/content", h.ListContent)
	return r
}

func (h *TaxonomyHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.CreateTermInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.terms.Create(r.Context(), p, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, t, h.singular+" created successfully")
}

func (h *TaxonomyHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := pageFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	includeInactive, err := boolParam(q.Get("includeInactive"), "includeInactive")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.terms.List(r.Context(), p, domain.TermFilter{
		OrganizationID:  q.Get("organizationId"),
		Search:          q.Get("search"),
		IncludeInactive: includeInactive,
		Page:            page,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, h.plural+" retrieved successfully")
}

func (h *TaxonomyHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.terms.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, t, h.singular+" retrieved successfully")
}

func (h *TaxonomyHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.terms.GetBySlug(r.Context(), p, r.URL.Query().Get("organizationId"), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, t, h.singular+" retrieved successfully")
}

func (h *TaxonomyHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.UpdateTermInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.terms.Update(r.Context(), p, chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, t, h.singular+" updated successfully")
}

// Deactivate handles DELETE /{id}. Terms are soft deleted.
func (h *TaxonomyHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.terms.Deactivate(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, t, h.singular+" deactivated successfully")
}

func (h *TaxonomyHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.terms.ListContent(r.Context(), p, chi.URLParam(r, "id"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Content retrieved successfully")
}
