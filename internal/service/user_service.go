package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/events"
	"github.com/aryan0dhankhar/tenantcms/internal/security"
	"github.com/aryan0dhankhar/tenantcms/internal/security/auth"
	"github.com/aryan0dhankhar/tenantcms/internal/security/strength"
)

// UserService manages accounts. Users are hard deleted.
type UserService struct {
	users   domain.UserRepository
	orgs    domain.OrganizationRepository
	authz   *security.AuthorizationService
	changes changes
	logger  *slog.Logger
	now     func() time.Time
}

func NewUserService(
	users domain.UserRepository,
	orgs domain.OrganizationRepository,
	authz *security.AuthorizationService,
	publisher Publisher,
	logger *slog.Logger,
) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:   users,
		orgs:    orgs,
		authz:   authz,
		changes: newChanges(nil, publisher, logger),
		logger:  logger,
		now:     now,
	}
}

type CreateUserInput struct {
	Email          string      `json:"email"`
	Username       string      `json:"username"`
	Password       string      `json:"password"`
	FirstName      string      `json:"firstName"`
	LastName       string      `json:"lastName"`
	Role           domain.Role `json:"role"`
	OrganizationID string      `json:"organizationId"`
}

type UpdateUserInput struct {
	Email     *string      `json:"email"`
	Username  *string      `json:"username"`
	FirstName *string      `json:"firstName"`
	LastName  *string      `json:"lastName"`
	Role      *domain.Role `json:"role"`
	IsActive  *bool        `json:"isActive"`
	Password  *string      `json:"password"`
}

func (s *UserService) Create(ctx context.Context, p domain.Principal, in CreateUserInput) (*domain.User, error) {
	target := security.TargetOrganization(p, in.OrganizationID)
	if err := s.authz.Authorize(ctx, p, target, security.OpCreate); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = domain.RoleViewer
	}
	if in.Role == domain.RoleOwner {
		if err := s.authz.Authorize(ctx, p, target, security.OpGrantOwner); err != nil {
			return nil, err
		}
	}

	user := &domain.User{
		Email:          normalizeEmail(in.Email),
		Username:       strings.TrimSpace(in.Username),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Role:           in.Role,
		IsActive:       true,
		OrganizationID: target,
	}
	pr := validateUser(user)
	if res := strength.Password(in.Password, userInfo(user)); !res.Valid {
		pr = append(pr, res.Errors...)
	}
	if err := pr.err(); err != nil {
		return nil, err
	}

	org, err := s.orgs.GetByID(ctx, target)
	if err != nil {
		return nil, err
	}
	if !org.IsActive {
		return nil, domain.Invalid("Validation failed", "organization is inactive")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.Stamp(p.UserID, s.now())
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID),
		slog.String("organization_id", user.OrganizationID),
		slog.String("role", string(user.Role)),
		slog.String("actor_id", p.UserID),
	)
	s.changes.record(ctx, p, user.OrganizationID, events.Created, "user", user.ID, user)
	return user, nil
}

func (s *UserService) List(ctx context.Context, p domain.Principal, organizationID string, page domain.Page) (Listing[*domain.User], error) {
	target := security.TargetOrganization(p, organizationID)
	if err := s.authz.Authorize(ctx, p, target, security.OpRead); err != nil {
		return Listing[*domain.User]{}, err
	}
	items, total, err := s.users.ListByOrganization(ctx, target, page)
	if err != nil {
		return Listing[*domain.User]{}, err
	}
	return newListing(items, total, page), nil
}

func (s *UserService) Get(ctx context.Context, p domain.Principal, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, user.OrganizationID, security.OpRead); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, p domain.Principal, id string, in UpdateUserInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, user.OrganizationID, security.OpUpdate); err != nil {
		return nil, err
	}
	if in.Role != nil && *in.Role != user.Role && (*in.Role == domain.RoleOwner || user.Role == domain.RoleOwner) {
		if err := s.authz.Authorize(ctx, p, user.OrganizationID, security.OpGrantOwner); err != nil {
			return nil, err
		}
	}
	if in.IsActive != nil && !*in.IsActive && user.ID == p.UserID {
		return nil, domain.Forbidden("users cannot deactivate their own account")
	}

	if in.Email != nil {
		user.Email = normalizeEmail(*in.Email)
	}
	if in.Username != nil {
		user.Username = strings.TrimSpace(*in.Username)
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	pr := validateUser(user)
	if in.Password != nil {
		if res := strength.Password(*in.Password, userInfo(user)); !res.Valid {
			pr = append(pr, res.Errors...)
		}
	}
	if err := pr.err(); err != nil {
		return nil, err
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	user.Stamp(p.UserID, s.now())
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.changes.record(ctx, p, user.OrganizationID, events.Updated, "user", user.ID, user)
	return user, nil
}

// Delete removes an account. Nobody may delete their own account.
func (s *UserService) Delete(ctx context.Context, p domain.Principal, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.AuthorizeUserRemoval(ctx, p, user.ID, user.OrganizationID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", id),
		slog.String("actor_id", p.UserID),
	)
	s.changes.record(ctx, p, user.OrganizationID, events.Deleted, "user", id, nil)
	return nil
}

func validateUser(u *domain.User) problems {
	var p problems
	p.email(u.Email)
	p.username(u.Username)
	p.optionalText("firstName", u.FirstName, 100)
	p.optionalText("lastName", u.LastName, 100)
	p.role(u.Role)
	return p
}
