package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
)

// Envelope wraps every API response.
type Envelope struct {
	Data      any      `json:"data"`
	Meta      Meta     `json:"meta"`
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	ErrorCode string   `json:"errorCode,omitempty"`
	Details   []string `json:"details,omitempty"`
}

// Meta carries pagination for list responses and is empty otherwise.
type Meta struct {
	Total   *int  `json:"total,omitempty"`
	Page    *int  `json:"page,omitempty"`
	Limit   *int  `json:"limit,omitempty"`
	HasMore *bool `json:"hasMore,omitempty"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, data any, message string) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Data: data, Success: true, Message: message})
}

func respondList[T any](w http.ResponseWriter, r *http.Request, l service.Listing[T], message string) {
	hasMore := l.HasMore()
	render.Status(r, http.StatusOK)
	render.JSON(w, r, Envelope{
		Data:    l.Items,
		Meta:    Meta{Total: &l.Total, Page: &l.Page, Limit: &l.Limit, HasMore: &hasMore},
		Success: true,
		Message: message,
	})
}

// decode reads a JSON body into v, rejecting unknown fields and trailing data.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return err
		case errors.Is(err, io.EOF):
			return domain.Invalid("Request body is required")
		default:
			return domain.Wrap(domain.ErrValidation, "Invalid request body", err)
		}
	}
	if dec.More() {
		return domain.Invalid("Invalid request body", "body must contain a single JSON object")
	}
	return nil
}

// principal returns the authenticated caller. Routes using it sit behind
// middleware.Authenticate, so a missing principal is a wiring error.
func principal(r *http.Request) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return domain.Principal{}, domain.Unauthorized("missing bearer token")
	}
	return p, nil
}

// pageFrom reads ?page= and ?limit=.
func pageFrom(r *http.Request) (domain.Page, error) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), "page")
	if err != nil {
		return domain.Page{}, err
	}
	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		return domain.Page{}, err
	}
	if limit > domain.MaxPageLimit {
		return domain.Page{}, domain.Invalid("Validation failed", fmt.Sprintf("limit must not exceed %d", domain.MaxPageLimit))
	}
	return domain.Page{Page: page, Limit: limit}, nil
}

func intParam(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.Invalid("Validation failed", name+" must be a positive integer")
	}
	return n, nil
}

func boolParam(raw, name string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.Invalid("Validation failed", name+" must be true or false")
	}
	return b, nil
}
