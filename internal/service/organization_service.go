package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/events"
	"github.com/aryan0dhankhar/tenantcms/internal/security"
)

// OrganizationService manages tenants. Organizations are deactivated, never removed.
type OrganizationService struct {
	orgs    domain.OrganizationRepository
	users   domain.UserRepository
	authz   *security.AuthorizationService
	changes changes
	logger  *slog.Logger
	now     func() time.Time
}

func NewOrganizationService(
	orgs domain.OrganizationRepository,
	users domain.UserRepository,
	authz *security.AuthorizationService,
	publisher Publisher,
	logger *slog.Logger,
) *OrganizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrganizationService{
		orgs:    orgs,
		users:   users,
		authz:   authz,
		changes: newChanges(nil, publisher, logger),
		logger:  logger,
		now:     now,
	}
}

type CreateOrganizationInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Domain      string `json:"domain"`
	Description string `json:"description"`
}

type UpdateOrganizationInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Domain      *string `json:"domain"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func (s *OrganizationService) Create(ctx context.Context, p domain.Principal, in CreateOrganizationInput) (*domain.Organization, error) {
	if err := s.authz.Authorize(ctx, p, "", security.OpCreateOrganization); err != nil {
		return nil, err
	}
	org := &domain.Organization{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slugFor(in.Slug, in.Name),
		Domain:      strings.TrimSpace(in.Domain),
		Description: in.Description,
		IsActive:    true,
	}
	if err := validateOrganization(org); err != nil {
		return nil, err
	}
	org.Stamp(p.UserID, s.now())
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "organization created",
		slog.String("organization_id", org.ID),
		slog.String("slug", org.Slug),
		slog.String("user_id", p.UserID),
	)
	s.changes.record(ctx, p, org.ID, events.Created, "organization", org.ID, org)
	return org, nil
}

func (s *OrganizationService) List(ctx context.Context, p domain.Principal, filter domain.OrganizationFilter) (Listing[*domain.Organization], error) {
	if err := s.authz.Authorize(ctx, p, "", security.OpListOrganizations); err != nil {
		return Listing[*domain.Organization]{}, err
	}
	items, total, err := s.orgs.List(ctx, filter)
	if err != nil {
		return Listing[*domain.Organization]{}, err
	}
	return newListing(items, total, filter.Page), nil
}

// Get authorizes against the requested id before looking it up, so callers
// from other tenants learn nothing about which organizations exist.
func (s *OrganizationService) Get(ctx context.Context, p domain.Principal, id string) (*domain.Organization, error) {
	if err := s.authz.Authorize(ctx, p, id, security.OpRead); err != nil {
		return nil, err
	}
	return s.orgs.GetByID(ctx, id)
}

func (s *OrganizationService) GetBySlug(ctx context.Context, p domain.Principal, slug string) (*domain.Organization, error) {
	org, err := s.orgs.GetBySlug(ctx, slug)
	if err != nil {
		if p.Role != domain.RoleOwner {
			// Non-owners may only read their own organization; a miss is
			// reported as a denial rather than confirming the slug is free.
			return nil, s.authz.Authorize(ctx, p, "", security.OpRead)
		}
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, org.ID, security.OpRead); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *OrganizationService) Update(ctx context.Context, p domain.Principal, id string, in UpdateOrganizationInput) (*domain.Organization, error) {
	if err := s.authz.Authorize(ctx, p, id, security.OpUpdate); err != nil {
		return nil, err
	}
	if in.IsActive != nil {
		if err := s.authz.Authorize(ctx, p, id, security.OpDeleteOrganization); err != nil {
			return nil, err
		}
	}
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		org.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil {
		org.Slug = strings.TrimSpace(*in.Slug)
	}
	if in.Domain != nil {
		org.Domain = strings.TrimSpace(*in.Domain)
	}
	if in.Description != nil {
		org.Description = *in.Description
	}
	if in.IsActive != nil {
		org.IsActive = *in.IsActive
	}
	if err := validateOrganization(org); err != nil {
		return nil, err
	}
	org.Stamp(p.UserID, s.now())
	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}
	s.changes.record(ctx, p, org.ID, events.Updated, "organization", org.ID, org)
	return org, nil
}

// Deactivate is idempotent: an inactive organization is returned unchanged.
func (s *OrganizationService) Deactivate(ctx context.Context, p domain.Principal, id string) (*domain.Organization, error) {
	if err := s.authz.Authorize(ctx, p, id, security.OpDeleteOrganization); err != nil {
		return nil, err
	}
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !org.IsActive {
		return org, nil
	}
	if err := s.orgs.Deactivate(ctx, id, p.UserID); err != nil {
		return nil, err
	}
	org.IsActive = false
	org.Stamp(p.UserID, s.now())

	s.logger.InfoContext(ctx, "organization deactivated",
		slog.String("organization_id", id),
		slog.String("user_id", p.UserID),
	)
	s.changes.record(ctx, p, org.ID, events.Deactivated, "organization", org.ID, org)
	return org, nil
}

func (s *OrganizationService) ListUsers(ctx context.Context, p domain.Principal, id string, page domain.Page) (Listing[*domain.User], error) {
	if err := s.authz.Authorize(ctx, p, id, security.OpRead); err != nil {
		return Listing[*domain.User]{}, err
	}
	if _, err := s.orgs.GetByID(ctx, id); err != nil {
		return Listing[*domain.User]{}, err
	}
	items, total, err := s.users.ListByOrganization(ctx, id, page)
	if err != nil {
		return Listing[*domain.User]{}, err
	}
	return newListing(items, total, page), nil
}

func validateOrganization(org *domain.Organization) error {
	var p problems
	p.text("name", org.Name, 200)
	p.slug(org.Slug)
	p.optionalText("domain", org.Domain, 255)
	p.optionalText("description", org.Description, 2000)
	return p.err()
}
