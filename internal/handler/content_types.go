package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
)

// ContentTypeHandler serves /api/content-types.
type ContentTypeHandler struct {
	types *service.ContentTypeService
	fail  middleware.ErrorResponder
}

func NewContentTypeHandler(types *service.ContentTypeService, fail middleware.ErrorResponder) *ContentTypeHandler {
	return &ContentTypeHandler{types: types, fail: fail}
}

func (h *ContentTypeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/slug/{slug}", h.GetBySlug)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/content", h.ListContent)
	return r
}

func (h *ContentTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.CreateContentTypeInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	ct, err := h.types.Create(r.Context(), p, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, ct, "Content type created successfully")
}

func (h *ContentTypeHandler) List(w http.ResponseWriter, r *http.Request) {
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
	list, err := h.types.List(r.Context(), p, domain.ContentTypeFilter{
		OrganizationID:  q.Get("organizationId"),
		Search:          q.Get("search"),
		IncludeInactive: includeInactive,
		Page:            page,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Content types retrieved successfully")
}

func (h *ContentTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ct, err := h.types.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, ct, "Content type retrieved successfully")
}

func (h *ContentTypeHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ct, err := h.types.GetBySlug(r.Context(), p, r.URL.Query().Get("organizationId"), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, ct, "Content type retrieved successfully")
}

func (h *ContentTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.UpdateContentTypeInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	ct, err := h.types.Update(r.Context(), p, chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, ct, "Content type updated successfully")
}

func (h *ContentTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.types.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, nil, "Content type deleted successfully")
}

func (h *ContentTypeHandler) ListContent(w http.ResponseWriter, r *http.Request) {
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
	list, err := h.types.ListContent(r.Context(), p, chi.URLParam(r, "id"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Content retrieved successfully")
}
