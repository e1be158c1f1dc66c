package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/events"
	"github.com/aryan0dhankhar/tenantcms/internal/security"
	"github.com/aryan0dhankhar/tenantcms/pkg/cache"
)

// ContentTypeService manages content schemas. A content type cannot be
// deleted while content references it.
type ContentTypeService struct {
	types    domain.ContentTypeRepository
	contents domain.ContentRepository
	authz    *security.AuthorizationService
	changes  changes
	logger   *slog.Logger
	now      func() time.Time
}

func NewContentTypeService(
	types domain.ContentTypeRepository,
	contents domain.ContentRepository,
	authz *security.AuthorizationService,
	store cache.Store,
	publisher Publisher,
	logger *slog.Logger,
) *ContentTypeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentTypeService{
		types:    types,
		contents: contents,
		authz:    authz,
		changes:  newChanges(store, publisher, logger),
		logger:   logger,
		now:      now,
	}
}

type CreateContentTypeInput struct {
	Name           string                   `json:"name"`
	Slug           string                   `json:"slug"`
	Description    string                   `json:"description"`
	Fields         []domain.FieldDefinition `json:"fields"`
	OrganizationID string                   `json:"organizationId"`
}

type UpdateContentTypeInput struct {
	Name        *string                   `json:"name"`
	Slug        *string                   `json:"slug"`
	Description *string                   `json:"description"`
	Fields      *[]domain.FieldDefinition `json:"fields"`
	IsActive    *bool                     `json:"isActive"`
}

func (s *ContentTypeService) Create(ctx context.Context, p domain.Principal, in CreateContentTypeInput) (*domain.ContentType, error) {
	target := security.TargetOrganization(p, in.OrganizationID)
	if err := s.authz.Authorize(ctx, p, target, security.OpCreate); err != nil {
		return nil, err
	}
	ct := &domain.ContentType{
		Name:           strings.TrimSpace(in.Name),
		Slug:           slugFor(in.Slug, in.Name),
		Description:    in.Description,
		Fields:         in.Fields,
		IsActive:       true,
		OrganizationID: target,
	}
	if ct.Fields == nil {
		ct.Fields = []domain.FieldDefinition{}
	}
	if err := validateContentType(ct); err != nil {
		return nil, err
	}
	ct.Stamp(p.UserID, s.now())
	if err := s.types.Create(ctx, ct); err != nil {
		return nil, err
	}
	s.changes.record(ctx, p, ct.OrganizationID, events.Created, "content_type", ct.ID, ct)
	return ct, nil
}

func (s *ContentTypeService) List(ctx context.Context, p domain.Principal, filter domain.ContentTypeFilter) (Listing[*domain.ContentType], error) {
	filter.OrganizationID = security.TargetOrganization(p, filter.OrganizationID)
	if err := s.authz.Authorize(ctx, p, filter.OrganizationID, security.OpRead); err != nil {
		return Listing[*domain.ContentType]{}, err
	}
	items, total, err := s.types.List(ctx, filter)
	if err != nil {
		return Listing[*domain.ContentType]{}, err
	}
	return newListing(items, total, filter.Page), nil
}

func (s *ContentTypeService) Get(ctx context.Context, p domain.Principal, id string) (*domain.ContentType, error) {
	return s.load(ctx, p, id, security.OpRead)
}

func (s *ContentTypeService) GetBySlug(ctx context.Context, p domain.Principal, organizationID, slug string) (*domain.ContentType, error) {
	target := security.TargetOrganization(p, organizationID)
	if err := s.authz.Authorize(ctx, p, target, security.OpRead); err != nil {
		return nil, err
	}
	return s.types.GetBySlug(ctx, target, slug)
}

func (s *ContentTypeService) Update(ctx context.Context, p domain.Principal, id string, in UpdateContentTypeInput) (*domain.ContentType, error) {
	ct, err := s.load(ctx, p, id, security.OpUpdate)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		ct.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil {
		ct.Slug = strings.TrimSpace(*in.Slug)
	}
	if in.Description != nil {
		ct.Description = *in.Description
	}
	if in.Fields != nil {
		ct.Fields = *in.Fields
		if ct.Fields == nil {
			ct.Fields = []domain.FieldDefinition{}
		}
	}
	if in.IsActive != nil {
		ct.IsActive = *in.IsActive
	}
	if err := validateContentType(ct); err != nil {
		return nil, err
	}
	ct.Stamp(p.UserID, s.now())
	if err := s.types.Update(ctx, ct); err != nil {
		return nil, err
	}
	s.changes.record(ctx, p, ct.OrganizationID, events.Updated, "content_type", ct.ID, ct)
	return ct, nil
}

func (s *ContentTypeService) Delete(ctx context.Context, p domain.Principal, id string) error {
	ct, err := s.load(ctx, p, id, security.OpDelete)
	if err != nil {
		return err
	}
	n, err := s.contents.CountByContentType(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return &domain.Error{
			Kind:    domain.ErrConflict,
			Message: "content type is still used by existing content",
			Details: []string{pluralize(n, "content item") + " reference this content type"},
		}
	}
	if err := s.types.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "content type deleted",
		slog.String("content_type_id", id),
		slog.String("actor_id", p.UserID),
	)
	s.changes.record(ctx, p, ct.OrganizationID, events.Deleted, "content_type", id, nil)
	return nil
}

// ListContent lists the content items of one content type.
func (s *ContentTypeService) ListContent(ctx context.Context, p domain.Principal, id string, page domain.Page) (Listing[*domain.Content], error) {
	ct, err := s.load(ctx, p, id, security.OpRead)
	if err != nil {
		return Listing[*domain.Content]{}, err
	}
	items, total, err := s.contents.List(ctx, domain.ContentFilter{
		OrganizationID: ct.OrganizationID,
		ContentTypeID:  ct.ID,
		Page:           page,
	})
	if err != nil {
		return Listing[*domain.Content]{}, err
	}
	return newListing(items, total, page), nil
}

func (s *ContentTypeService) load(ctx context.Context, p domain.Principal, id string, op security.Operation) (*domain.ContentType, error) {
	ct, err := s.types.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, ct.OrganizationID, op); err != nil {
		return nil, err
	}
	return ct, nil
}

func validateContentType(ct *domain.ContentType) error {
	var p problems
	p.text("name", ct.Name, 200)
	p.slug(ct.Slug)
	p.optionalText("description", ct.Description, 2000)
	p.fields(ct.Fields)
	return p.err()
}
