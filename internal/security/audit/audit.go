package audit

import (
	"context"
	"log/slog"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Entry describes one audited action.
type Entry struct {
	Action         string
	Resource       string
	ResourceID     string
	OrganizationID string
	UserID         string
	Status         string
	Details        string
}

type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("component", "audit")), now: time.Now}
}

func (al *Logger) Record(ctx context.Context, e Entry) {
	al.logger.InfoContext(ctx, "audit",
		slog.String("action", e.Action),
		slog.String("resource", e.Resource),
		slog.String("resource_id", e.ResourceID),
		slog.String("organization_id", e.OrganizationID),
		slog.String("user_id", e.UserID),
		slog.String("status", e.Status),
		slog.String("details", e.Details),
		slog.String("request_id", chimw.GetReqID(ctx)),
		slog.Time("timestamp", al.now().UTC()),
	)
}

// LogDenied records a request turned away before reaching a handler.
func (al *Logger) LogDenied(ctx context.Context, organizationID, userID, reason string) {
	al.Record(ctx, Entry{
		Action:         "access_denied",
		Resource:       "api",
		OrganizationID: organizationID,
		UserID:         userID,
		Status:         "denied",
		Details:        reason,
	})
}
