package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/events"
	"github.com/aryan0dhankhar/tenantcms/internal/security"
	"github.com/aryan0dhankhar/tenantcms/pkg/cache"
)

// ContentService manages content items and their taxonomy associations.
type ContentService struct {
	contents   domain.ContentRepository
	types      domain.ContentTypeRepository
	categories domain.TermRepository
	tags       domain.TermRepository
	authz      *security.AuthorizationService
	cache      cache.Store
	ttl        time.Duration
	changes    changes
	logger     *slog.Logger
	now        func() time.Time
}

func NewContentService(
	contents domain.ContentRepository,
	types domain.ContentTypeRepository,
	categories, tags domain.TermRepository,
	authz *security.AuthorizationService,
	store cache.Store,
	ttl time.Duration,
	publisher Publisher,
	logger *slog.Logger,
) *ContentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentService{
		contents:   contents,
		types:      types,
		categories: categories,
		tags:       tags,
		authz:      authz,
		cache:      store,
		ttl:        ttl,
		changes:    newChanges(store, publisher, logger),
		logger:     logger,
		now:        now,
	}
}

type CreateContentInput struct {
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	Content        json.RawMessage `json:"content"`
	ContentTypeID  string          `json:"contentTypeId"`
	CategoryIDs    []string        `json:"categoryIds"`
	TagIDs         []string        `json:"tagIds"`
	OrganizationID string          `json:"organizationId"`
}

// UpdateContentInput is a partial update. A present categoryIds or tagIds
// list replaces the stored associations, an empty list clears them.
type UpdateContentInput struct {
	Title         *string         `json:"title"`
	Slug          *string         `json:"slug"`
	Content       json.RawMessage `json:"content"`
	ContentTypeID *string         `json:"contentTypeId"`
	CategoryIDs   *[]string       `json:"categoryIds"`
	TagIDs        *[]string       `json:"tagIds"`
}

// Create stores a new DRAFT content item.
func (s *ContentService) Create(ctx context.Context, p domain.Principal, in CreateContentInput) (*domain.Content, error) {
	target := security.TargetOrganization(p, in.OrganizationID)
	if err := s.authz.Authorize(ctx, p, target, security.OpCreate); err != nil {
		return nil, err
	}
	c := &domain.Content{
		Title:          strings.TrimSpace(in.Title),
		Slug:           slugFor(in.Slug, in.Title),
		Body:           in.Content,
		Status:         domain.StatusDraft,
		ContentTypeID:  strings.TrimSpace(in.ContentTypeID),
		OrganizationID: target,
	}
	if len(bytes.TrimSpace(c.Body)) == 0 {
		c.Body = json.RawMessage(`{}`)
	}
	links := domain.Links{CategoryIDs: dedupe(in.CategoryIDs), TagIDs: dedupe(in.TagIDs)}
	if err := validateContent(c); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, c, links); err != nil {
		return nil, err
	}

	c.Stamp(p.UserID, s.now())
	if err := s.contents.Create(ctx, c, links); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "content created",
		slog.String("content_id", c.ID),
		slog.String("organization_id", c.OrganizationID),
		slog.String("actor_id", p.UserID),
	)
	s.changes.record(ctx, p, c.OrganizationID, events.Created, "content", c.ID, c)
	return c, nil
}

func (s *ContentService) Update(ctx context.Context, p domain.Principal, id string, in UpdateContentInput) (*domain.Content, error) {
	c, err := s.load(ctx, p, id, security.OpUpdate)
	if err != nil {
		return nil, err
	}
	typeChanged := false
	if in.Title != nil {
		c.Title = strings.TrimSpace(*in.Title)
	}
	if in.Slug != nil {
		c.Slug = strings.TrimSpace(*in.Slug)
	}
	if in.Content != nil {
		c.Body = in.Content
	}
	if in.ContentTypeID != nil {
		if typeID := strings.TrimSpace(*in.ContentTypeID); typeID != c.ContentTypeID {
			c.ContentTypeID = typeID
			typeChanged = true
		}
	}
	var links domain.Links
	if in.CategoryIDs != nil {
		links.CategoryIDs = dedupe(*in.CategoryIDs)
	}
	if in.TagIDs != nil {
		links.TagIDs = dedupe(*in.TagIDs)
	}
	if err := validateContent(c); err != nil {
		return nil, err
	}
	if err := s.checkLinks(ctx, c.OrganizationID, links); err != nil {
		return nil, err
	}
	// An unchanged type is not rechecked, so edits survive its deactivation.
	if typeChanged {
		if err := s.checkContentType(ctx, c); err != nil {
			return nil, err
		}
	}

	c.Stamp(p.UserID, s.now())
	if err := s.contents.Update(ctx, c, links); err != nil {
		return nil, err
	}
	updated, err := s.contents.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	s.changes.record(ctx, p, c.OrganizationID, events.Updated, "content", c.ID, updated)
	return updated, nil
}

// Publish moves a DRAFT item to PUBLISHED. It happens exactly once.
func (s *ContentService) Publish(ctx context.Context, p domain.Principal, id string) (*domain.Content, error) {
	c, err := s.load(ctx, p, id, security.OpPublish)
	if err != nil {
		return nil, err
	}
	if c.Status == domain.StatusPublished {
		return nil, &domain.Error{Kind: domain.ErrConflict, Message: "content is already published"}
	}
	at := s.now()
	c.Status = domain.StatusPublished
	c.PublishedAt = &at
	c.Stamp(p.UserID, at)
	if err := s.contents.Update(ctx, c, domain.Links{}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "content published",
		slog.String("content_id", c.ID),
		slog.String("actor_id", p.UserID),
	)
	s.changes.record(ctx, p, c.OrganizationID, events.Published, "content", c.ID, c)
	return c, nil
}

func (s *ContentService) Get(ctx context.Context, p domain.Principal, id string) (*domain.Content, error) {
	return s.load(ctx, p, id, security.OpRead)
}

func (s *ContentService) GetBySlug(ctx context.Context, p domain.Principal, organizationID, slug string) (*domain.Content, error) {
	target := security.TargetOrganization(p, organizationID)
	if err := s.authz.Authorize(ctx, p, target, security.OpRead); err != nil {
		return nil, err
	}
	return s.contents.GetBySlug(ctx, target, slug)
}

// List serves from the cache when possible. Entries are dropped whenever the
// organization's content changes.
func (s *ContentService) List(ctx context.Context, p domain.Principal, filter domain.ContentFilter) (Listing[*domain.Content], error) {
	filter.OrganizationID = security.TargetOrganization(p, filter.OrganizationID)
	if err := s.authz.Authorize(ctx, p, filter.OrganizationID, security.OpRead); err != nil {
		return Listing[*domain.Content]{}, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return Listing[*domain.Content]{}, domain.Invalid("Validation failed", "status must be DRAFT or PUBLISHED")
	}
	filter.Page = filter.Page.Normalize()

	load := func(ctx context.Context) (Listing[*domain.Content], error) {
		items, total, err := s.contents.List(ctx, filter)
		if err != nil {
			return Listing[*domain.Content]{}, err
		}
		return newListing(items, total, filter.Page), nil
	}
	if s.cache == nil {
		return load(ctx)
	}
	return cache.Remember(ctx, s.cache, contentListKey(filter), s.ttl, load)
}

func (s *ContentService) Delete(ctx context.Context, p domain.Principal, id string) error {
	c, err := s.load(ctx, p, id, security.OpDelete)
	if err != nil {
		return err
	}
	if err := s.contents.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "content deleted",
		slog.String("content_id", id),
		slog.String("actor_id", p.UserID),
	)
	s.changes.record(ctx, p, c.OrganizationID, events.Deleted, "content", id, nil)
	return nil
}

func (s *ContentService) load(ctx context.Context, p domain.Principal, id string, op security.Operation) (*domain.Content, error) {
	c, err := s.contents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, c.OrganizationID, op); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContentService) checkReferences(ctx context.Context, c *domain.Content, links domain.Links) error {
	if err := s.checkContentType(ctx, c); err != nil {
		return err
	}
	return s.checkLinks(ctx, c.OrganizationID, links)
}

func (s *ContentService) checkContentType(ctx context.Context, c *domain.Content) error {
	ct, err := s.types.GetByID(ctx, c.ContentTypeID)
	if err != nil || ct.OrganizationID != c.OrganizationID {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return domain.Invalid("Validation failed", "content type does not exist in this organization")
	}
	if !ct.IsActive {
		return domain.Invalid("Validation failed", "content type is inactive")
	}
	return nil
}

// checkLinks requires every referenced term to exist in the organization.
func (s *ContentService) checkLinks(ctx context.Context, orgID string, links domain.Links) error {
	var p problems
	for _, group := range []struct {
		repo domain.TermRepository
		ids  []string
	}{
		{s.categories, links.CategoryIDs},
		{s.tags, links.TagIDs},
	} {
		if len(group.ids) == 0 {
			continue
		}
		found, err := group.repo.FindByIDs(ctx, group.ids)
		if err != nil {
			return err
		}
		ok := make(map[string]bool, len(found))
		for _, t := range found {
			if t.OrganizationID == orgID {
				ok[t.ID] = true
			}
		}
		for _, id := range group.ids {
			if !ok[id] {
				p.add("%s %s does not exist in this organization", group.repo.Kind(), id)
			}
		}
	}
	return p.err()
}

func validateContent(c *domain.Content) error {
	var p problems
	p.text("title", c.Title, 300)
	p.slug(c.Slug)
	if c.ContentTypeID == "" {
		p.add("contentTypeId is required")
	}
	if body := bytes.TrimSpace(c.Body); len(body) > 0 && (!json.Valid(body) || body[0] != '{') {
		p.add("content must be a JSON object")
	}
	return p.err()
}

func contentListKey(f domain.ContentFilter) string {
	return cache.Key("content", f.OrganizationID, "list",
		string(f.Status), f.ContentTypeID, f.CategoryID, f.TagID,
		url.QueryEscape(f.Search), strconv.Itoa(f.Page.Page), strconv.Itoa(f.Page.Limit))
}

// dedupe drops blanks and repeats, keeping first-seen order. nil stays nil.
func dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
