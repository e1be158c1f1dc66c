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

// TaxonomyService manages one kind of term, categories or tags. Terms are
// deactivated rather than deleted.
type TaxonomyService struct {
	terms    domain.TermRepository
	contents domain.ContentRepository
	authz    *security.AuthorizationService
	changes  changes
	logger   *slog.Logger
	now      func() time.Time
}

func NewTaxonomyService(
	terms domain.TermRepository,
	contents domain.ContentRepository,
	authz *security.AuthorizationService,
	store cache.Store,
	publisher Publisher,
	logger *slog.Logger,
) *TaxonomyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaxonomyService{
		terms:    terms,
		contents: contents,
		authz:    authz,
		changes:  newChanges(store, publisher, logger),
		logger:   logger.With(slog.String("taxonomy", string(terms.Kind()))),
		now:      now,
	}
}

// Kind reports which taxonomy the service manages.
func (s *TaxonomyService) Kind() domain.TermKind {
	return s.terms.Kind()
}

type CreateTermInput struct {
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Description    string `json:"description"`
	Color          string `json:"color"`
	OrganizationID string `json:"organizationId"`
}

type UpdateTermInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	IsActive    *bool   `json:"isActive"`
}

func (s *TaxonomyService) Create(ctx context.Context, p domain.Principal, in CreateTermInput) (*domain.Term, error) {
	target := security.TargetOrganization(p, in.OrganizationID)
	if err := s.authz.Authorize(ctx, p, target, security.OpCreate); err != nil {
		return nil, err
	}
	t := &domain.Term{
		Kind:           s.Kind(),
		Name:           strings.TrimSpace(in.Name),
		Slug:           slugFor(in.Slug, in.Name),
		Description:    in.Description,
		Color:          strings.TrimSpace(in.Color),
		IsActive:       true,
		OrganizationID: target,
	}
	if err := validateTerm(t); err != nil {
		return nil, err
	}
	t.Stamp(p.UserID, s.now())
	if err := s.terms.Create(ctx, t); err != nil {
		return nil, err
	}
	s.changes.record(ctx, p, t.OrganizationID, events.Created, string(s.Kind()), t.ID, t)
	return t, nil
}

func (s *TaxonomyService) List(ctx context.Context, p domain.Principal, filter domain.TermFilter) (Listing[*domain.Term], error) {
	filter.OrganizationID = security.TargetOrganization(p, filter.OrganizationID)
	if err := s.authz.Authorize(ctx, p, filter.OrganizationID, security.OpRead); err != nil {
		return Listing[*domain.Term]{}, err
	}
	items, total, err := s.terms.List(ctx, filter)
	if err != nil {
		return Listing[*domain.Term]{}, err
	}
	return newListing(items, total, filter.Page), nil
}

func (s *TaxonomyService) Get(ctx context.Context, p domain.Principal, id string) (*domain.Term, error) {
	return s.load(ctx, p, id, security.OpRead)
}

func (s *TaxonomyService) GetBySlug(ctx context.Context, p domain.Principal, organizationID, slug string) (*domain.Term, error) {
	target := security.TargetOrganization(p, organizationID)
	if err := s.authz.Authorize(ctx, p, target, security.OpRead); err != nil {
		return nil, err
	}
	return s.terms.GetBySlug(ctx, target, slug)
}

func (s *TaxonomyService) Update(ctx context.Context, p domain.Principal, id string, in UpdateTermInput) (*domain.Term, error) {
	t, err := s.load(ctx, p, id, security.OpUpdate)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil {
		t.Slug = strings.TrimSpace(*in.Slug)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Color != nil {
		t.Color = strings.TrimSpace(*in.Color)
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := validateTerm(t); err != nil {
		return nil, err
	}
	t.Stamp(p.UserID, s.now())
	if err := s.terms.Update(ctx, t); err != nil {
		return nil, err
	}
	s.changes.record(ctx, p, t.OrganizationID, events.Updated, string(s.Kind()), t.ID, t)
	return t, nil
}

// Deactivate is idempotent. Content keeps its associations to inactive terms.
func (s *TaxonomyService) Deactivate(ctx context.Context, p domain.Principal, id string) (*domain.Term, error) {
	t, err := s.load(ctx, p, id, security.OpDelete)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return t, nil
	}
	if err := s.terms.Deactivate(ctx, id, p.UserID); err != nil {
		return nil, err
	}
	t.IsActive = false
	t.Stamp(p.UserID, s.now())
	s.logger.InfoContext(ctx, "term deactivated",
		slog.String("term_id", id),
		slog.String("actor_id", p.UserID),
	)
	s.changes.record(ctx, p, t.OrganizationID, events.Deactivated, string(s.Kind()), t.ID, t)
	return t, nil
}

// ListContent lists content associated with the term.
func (s *TaxonomyService) ListContent(ctx context.Context, p domain.Principal, id string, page domain.Page) (Listing[*domain.Content], error) {
	t, err := s.load(ctx, p, id, security.OpRead)
	if err != nil {
		return Listing[*domain.Content]{}, err
	}
	filter := domain.ContentFilter{OrganizationID: t.OrganizationID, Page: page}
	if s.Kind() == domain.KindCategory {
		filter.CategoryID = t.ID
	} else {
		filter.TagID = t.ID
	}
	items, total, err := s.contents.List(ctx, filter)
	if err != nil {
		return Listing[*domain.Content]{}, err
	}
	return newListing(items, total, page), nil
}

func (s *TaxonomyService) load(ctx context.Context, p domain.Principal, id string, op security.Operation) (*domain.Term, error) {
	t, err := s.terms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, t.OrganizationID, op); err != nil {
		return nil, err
	}
	return t, nil
}

func validateTerm(t *domain.Term) error {
	var p problems
	p.text("name", t.Name, 100)
	p.slug(t.Slug)
	p.optionalText("description", t.Description, 1000)
	p.color(t.Color)
	return p.err()
}
