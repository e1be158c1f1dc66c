package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
)

// PublicHandler serves the unauthenticated read API. Every route requires
// ?organizationSlug=.
type PublicHandler struct {
	public *service.PublicService
	fail   middleware.ErrorResponder
}

func NewPublicHandler(public *service.PublicService, fail middleware.ErrorResponder) *PublicHandler {
	return &PublicHandler{public: public, fail: fail}
}

func (h *PublicHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/content", h.ListContent)
	r.Get("/content/{slug}", h.GetContent)
	r.Get("/categories", h.ListCategories)
	r.Get("/tags", h.ListTags)
	r.Get("/content-types", h.ListContentTypes)
	return r
}

func (h *PublicHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := pageFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.public.ListContent(r.Context(), q.Get("organizationSlug"), service.PublicContentQuery{
		ContentType: q.Get("contentType"),
		Category:    q.Get("category"),
		Tag:         q.Get("tag"),
		Search:      q.Get("search"),
		Page:        page,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Content retrieved successfully")
}

func (h *PublicHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	c, err := h.public.GetContent(r.Context(), r.URL.Query().Get("organizationSlug"), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, c, "Content retrieved successfully")
}

func (h *PublicHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.public.ListCategories(r.Context(), r.URL.Query().Get("organizationSlug"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Categories retrieved successfully")
}

func (h *PublicHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.public.ListTags(r.Context(), r.URL.Query().Get("organizationSlug"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Tags retrieved successfully")
}

func (h *PublicHandler) ListContentTypes(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.public.ListContentTypes(r.Context(), r.URL.Query().Get("organizationSlug"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Content types retrieved successfully")
}
