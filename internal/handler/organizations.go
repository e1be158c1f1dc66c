package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
)

// OrganizationHandler serves /api/organizations.
type OrganizationHandler struct {
	orgs *service.OrganizationService
	fail middleware.ErrorResponder
}

func NewOrganizationHandler(orgs *service.OrganizationService, fail middleware.ErrorResponder) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, fail: fail}
}

func (h *OrganizationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/slug/{slug}", h.GetBySlug)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Deactivate)
	r.Get("/{id}/users", h.ListUsers)
	return r
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.CreateOrganizationInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	org, err := h.orgs.Create(r.Context(), p, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, org, "Organization created successfully")
}

func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
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
	includeInactive, err := boolParam(r.URL.Query().Get("includeInactive"), "includeInactive")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.orgs.List(r.Context(), p, domain.OrganizationFilter{
		Search:          r.URL.Query().Get("search"),
		IncludeInactive: includeInactive,
		Page:            page,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Organizations retrieved successfully")
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	org, err := h.orgs.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, org, "Organization retrieved successfully")
}

func (h *OrganizationHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	org, err := h.orgs.GetBySlug(r.Context(), p, chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, org, "Organization retrieved successfully")
}

func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.UpdateOrganizationInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	org, err := h.orgs.Update(r.Context(), p, chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, org, "Organization updated successfully")
}

// Deactivate handles DELETE /{id}. Organizations are soft deleted.
func (h *OrganizationHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	org, err := h.orgs.Deactivate(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, org, "Organization deactivated successfully")
}

func (h *OrganizationHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
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
	list, err := h.orgs.ListUsers(r.Context(), p, chi.URLParam(r, "id"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Users retrieved successfully")
}
