package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
	"github.com/aryan0dhankhar/tenantcms/internal/storage"
)

var errorCodes = map[int]string{
	http.StatusBadRequest:            "BAD_REQUEST",
	http.StatusUnauthorized:          "UNAUTHORIZED",
	http.StatusForbidden:             "FORBIDDEN",
	http.StatusNotFound:              "NOT_FOUND",
	http.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	http.StatusConflict:              "CONFLICT",
	http.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	http.StatusUnsupportedMediaType:  "UNSUPPORTED_MEDIA_TYPE",
	http.StatusUnprocessableEntity:   "UNPROCESSABLE_ENTITY",
	http.StatusTooManyRequests:       "TOO_MANY_REQUESTS",
	http.StatusServiceUnavailable:    "SERVICE_UNAVAILABLE",
}

// ErrorCode maps an HTTP status to the stable errorCode clients switch on.
func ErrorCode(status int) string {
	if code, ok := errorCodes[status]; ok {
		return code
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "BAD_REQUEST"
}

// friendlyMessages rewrites technical messages into the ones shown to users.
var friendlyMessages = map[string]string{
	"invalid credentials":      "Invalid email or password",
	"missing bearer token":     "Authentication required",
	"invalid token":            "Invalid or expired token",
	"token expired":            "Your session has expired, please log in again",
	"account is inactive":      "Your account has been deactivated",
	"organization is inactive": "Your organization has been deactivated",
	"registration is disabled": "Registration is currently disabled",
}

type apiError struct {
	status  int
	message string
	details []string
}

// classify maps err to its response. Unknown errors become an opaque 500.
func classify(err error) apiError {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fromDomain(err, http.StatusBadRequest, "Validation failed")
	case errors.Is(err, domain.ErrUnauthorized):
		return fromDomain(err, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		return fromDomain(err, http.StatusForbidden, "Forbidden")
	case errors.Is(err, domain.ErrNotFound):
		return fromDomain(err, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrConflict):
		return fromDomain(err, http.StatusConflict, "Conflict")
	case errors.Is(err, middleware.ErrRateLimited):
		return apiError{status: http.StatusTooManyRequests, message: "Too many requests, please try again later"}
	case errors.Is(err, middleware.ErrUnsupportedMediaType):
		return apiError{status: http.StatusUnsupportedMediaType, message: "Unsupported Content-Type"}
	case errors.As(err, &tooLarge):
		return apiError{status: http.StatusRequestEntityTooLarge, message: "Request body is too large"}
	case errors.Is(err, storage.ErrStorageUnavailable):
		return apiError{status: http.StatusServiceUnavailable, message: "File storage is temporarily unavailable"}
	}
	return apiError{status: http.StatusInternalServerError, message: "Internal server error"}
}

func fromDomain(err error, status int, fallback string) apiError {
	msg := domain.Message(err)
	if msg == "" {
		msg = fallback
	}
	if friendly, ok := friendlyMessages[msg]; ok {
		msg = friendly
	}
	return apiError{status: status, message: msg, details: domain.Details(err)}
}

// ErrorResponder returns the function every handler and middleware uses to
// answer with an error envelope.
func ErrorResponder(logger *slog.Logger) middleware.ErrorResponder {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request, err error) {
		e := classify(err)
		if e.status >= 500 {
			logger.ErrorContext(r.Context(), "request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
		}
		render.Status(r, e.status)
		render.JSON(w, r, Envelope{
			Data:      nil,
			Success:   false,
			Message:   e.message,
			ErrorCode: ErrorCode(e.status),
			Details:   e.details,
		})
	}
}
