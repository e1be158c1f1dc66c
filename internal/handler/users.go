package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
)

// UserHandler serves /api/users.
type UserHandler struct {
	users *service.UserService
	fail  middleware.ErrorResponder
}

func NewUserHandler(users *service.UserService, fail middleware.ErrorResponder) *UserHandler {
	return &UserHandler{users: users, fail: fail}
}

func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.CreateUserInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.users.Create(r.Context(), p, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, user, "User created successfully")
}

// List handles GET /. OWNER may pass ?organizationId= to list another organization.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
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
	list, err := h.users.List(r.Context(), p, r.URL.Query().Get("organizationId"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Users retrieved successfully")
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, user, "User retrieved successfully")
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.UpdateUserInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.users.Update(r.Context(), p, chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, user, "User updated successfully")
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, nil, "User deleted successfully")
}
