package security

import (
	"context"
	"log/slog"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/observability/metrics"
)

// AuthorizationService turns policy decisions into errors and records denials.
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// Authorize returns a Forbidden error when p may not perform op on targetOrgID.
func (as *AuthorizationService) Authorize(ctx context.Context, p domain.Principal, targetOrgID string, op Operation) error {
	return as.enforce(ctx, p, targetOrgID, op, Decide(p.Role, p.OrganizationID, targetOrgID, op))
}

// AuthorizeUserRemoval checks a user deletion, including the self-deletion guard.
func (as *AuthorizationService) AuthorizeUserRemoval(ctx context.Context, p domain.Principal, targetUserID, targetOrgID string) error {
	return as.enforce(ctx, p, targetOrgID, OpDelete, DecideUserRemoval(p, targetUserID, targetOrgID))
}

func (as *AuthorizationService) enforce(ctx context.Context, p domain.Principal, targetOrgID string, op Operation, d Decision) error {
	if d.Allowed {
		return nil
	}
	as.logger.WarnContext(ctx, "permission denied",
		slog.String("user_id", p.UserID),
		slog.String("role", string(p.Role)),
		slog.String("caller_org", p.OrganizationID),
		slog.String("target_org", targetOrgID),
		slog.String("operation", string(op)),
		slog.String("reason", d.Reason),
	)
	metrics.ObserveAuthorizationDenied(string(op))
	return domain.Forbidden(d.Reason)
}

// TargetOrganization resolves which organization a list or create call addresses:
// the explicitly requested one, or the caller's own.
func TargetOrganization(p domain.Principal, requested string) string {
	if requested != "" {
		return requested
	}
	return p.OrganizationID
}
