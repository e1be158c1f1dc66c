package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/auth"
	"github.com/aryan0dhankhar/tenantcms/internal/security/strength"
)

// BootstrapInput seeds a fresh installation with its first organization and owner.
type BootstrapInput struct {
	OrganizationName string
	OrganizationSlug string
	Email            string
	Username         string
	Password         string
}

// Bootstrap creates an organization and an OWNER in it. It runs outside any
// principal, so only operator tooling calls it.
func (s *AuthService) Bootstrap(ctx context.Context, in BootstrapInput) (*domain.Organization, *domain.User, error) {
	org := &domain.Organization{
		Name:     strings.TrimSpace(in.OrganizationName),
		Slug:     slugFor(in.OrganizationSlug, in.OrganizationName),
		IsActive: true,
	}
	if err := validateOrganization(org); err != nil {
		return nil, nil, err
	}

	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	var p problems
	p.email(email)
	p.username(username)
	if res := strength.Password(in.Password, strength.UserInfo{Email: email, Username: username}); !res.Valid {
		p = append(p, res.Errors...)
	}
	if err := p.err(); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	org.Stamp("", now)
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, nil, err
	}
	owner := &domain.User{
		Email:          email,
		Username:       username,
		PasswordHash:   hash,
		Role:           domain.RoleOwner,
		IsActive:       true,
		OrganizationID: org.ID,
	}
	owner.Stamp("", now)
	if err := s.users.Create(ctx, owner); err != nil {
		// Leave no ownerless organization behind.
		if derr := s.orgs.Deactivate(ctx, org.ID, ""); derr != nil {
			s.logger.ErrorContext(ctx, "failed to deactivate organization after bootstrap failure",
				slog.String("organization_id", org.ID),
				slog.String("error", derr.Error()),
			)
		}
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "installation bootstrapped",
		slog.String("organization_id", org.ID),
		slog.String("user_id", owner.ID),
	)
	return org, owner, nil
}
