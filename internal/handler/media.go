package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
	"github.com/aryan0dhankhar/tenantcms/internal/upload"
)

// multipartMemory is how much of a multipart form is held in memory before
// parts spill to temporary files.
const multipartMemory = 8 << 20

// MediaHandler serves /api/media.
type MediaHandler struct {
	media *service.MediaService
	fail  middleware.ErrorResponder
}

func NewMediaHandler(media *service.MediaService, fail middleware.ErrorResponder) *MediaHandler {
	return &MediaHandler{media: media, fail: fail}
}

func (h *MediaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	r.Post("/scan", h.Scan)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// readUpload buffers the "file" part of a multipart request. Files are
// validated whole, so the read stops one byte past the largest allowed size.
func (h *MediaHandler) readUpload(r *http.Request) (service.UploadInput, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.UploadInput{}, err
		}
		return service.UploadInput{}, domain.Wrap(domain.ErrValidation, "Invalid multipart form", err)
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return service.UploadInput{}, domain.Invalid("Validation failed", "file is required")
	}
	if err != nil {
		return service.UploadInput{}, domain.Wrap(domain.ErrValidation, "Invalid multipart form", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.media.MaxBytes()+1))
	if err != nil {
		return service.UploadInput{}, fmt.Errorf("read upload: %w", err)
	}
	return service.UploadInput{
		OriginalName:   header.Filename,
		Data:           data,
		MimeType:       header.Header.Get("Content-Type"),
		Alt:            r.FormValue("alt"),
		Caption:        r.FormValue("caption"),
		OrganizationID: r.FormValue("organizationId"),
	}, nil
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := h.readUpload(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.media.Upload(r.Context(), p, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, m, "File uploaded successfully")
}

// Scan runs the validation pipeline on an upload without storing it.
func (h *MediaHandler) Scan(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := h.readUpload(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.media.Scan(r.Context(), p, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msg := "File passed validation"
	if !res.Accepted {
		msg = "File failed validation"
	}
	respond(w, r, http.StatusOK, res, msg)
}

// List handles GET / with optional type (image, document, video, audio) and search.
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
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
	list, err := h.media.List(r.Context(), p, service.MediaQuery{
		OrganizationID: q.Get("organizationId"),
		Kind:           upload.Kind(q.Get("type")),
		Search:         q.Get("search"),
		Page:           page,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, r, list, "Media retrieved successfully")
}

func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.media.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, m, "Media retrieved successfully")
}

func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.UpdateMediaInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.media.Update(r.Context(), p, chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, m, "Media updated successfully")
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.media.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, nil, "Media deleted successfully")
}
