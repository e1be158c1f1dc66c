package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
)

// ContentHandler serves /api/content.
type ContentHandler struct {
	contents *service.ContentService
	fail     middleware.ErrorResponder
}

func NewContentHandler(contents *service.ContentService, fail middleware.ErrorResponder) *ContentHandler {
	return &ContentHandler{contents: contents, fail: fail}
}

func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/slug/{slug}", h.GetBySlug)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/publish", h.Publish)
	return r
}

func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.CreateContentInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.contents.Create(r.Context(), p, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, c, "Content created successfully")
}

// List handles GET / with optional status, contentTypeId, categoryId, tagId
// and search filters.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
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
	list, err := h.contents.List(r.Context(), p, domain.ContentFilter{
		OrganizationID: q.Get("organizationId"),
		Status:         domain.ContentStatus(strings.ToUpper(q.Get("status"))),
		ContentTypeID:  q.Get("contentTypeId"),
		CategoryID:     q.Get("categoryId"),
		TagID:          q.Get("tagId"),
		Search:         q.Get("search"),
		Page:           page,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Content retrieved successfully")
}

func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.contents.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, c, "Content retrieved successfully")
}

func (h *ContentHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.contents.GetBySlug(r.Context(), p, r.URL.Query().Get("organizationId"), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, c, "Content retrieved successfully")
}

func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.UpdateContentInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.contents.Update(r.Context(), p, chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, c, "Content updated successfully")
}

func (h *ContentHandler) Publish(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.contents.Publish(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, c, "Content published successfully")
}

func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.contents.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, nil, "Content deleted successfully")
}
