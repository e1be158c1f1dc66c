package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/pkg/cache"
)

// PublicService is the unauthenticated read model: published content and
// active taxonomy of one organization, addressed by its slug.
type PublicService struct {
	orgs       domain.OrganizationRepository
	types      domain.ContentTypeRepository
	contents   domain.ContentRepository
	categories domain.TermRepository
	tags       domain.TermRepository
	cache      cache.Store
	ttl        time.Duration
	logger     *slog.Logger
}

func NewPublicService(
	orgs domain.OrganizationRepository,
	types domain.ContentTypeRepository,
	contents domain.ContentRepository,
	categories, tags domain.TermRepository,
	store cache.Store,
	ttl time.Duration,
	logger *slog.Logger,
) *PublicService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicService{
		orgs:       orgs,
		types:      types,
		contents:   contents,
		categories: categories,
		tags:       tags,
		cache:      store,
		ttl:        ttl,
		logger:     logger,
	}
}

// PublicContentQuery filters published content by slugs rather than ids.
type PublicContentQuery struct {
	ContentType string
	Category    string
	Tag         string
	Search      string
	Page        domain.Page
}

func (s *PublicService) organization(ctx context.Context, slug string) (*domain.Organization, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.Invalid("Validation failed", "organizationSlug is required")
	}
	org, err := s.orgs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !org.IsActive {
		return nil, domain.NotFound("organization")
	}
	return org, nil
}

func (s *PublicService) ListContent(ctx context.Context, orgSlug string, q PublicContentQuery) (Listing[*domain.Content], error) {
	org, err := s.organization(ctx, orgSlug)
	if err != nil {
		return Listing[*domain.Content]{}, err
	}
	q.Page = q.Page.Normalize()
	key := cache.Key("public", org.ID, "content",
		q.ContentType, q.Category, q.Tag, url.QueryEscape(q.Search),
		strconv.Itoa(q.Page.Page), strconv.Itoa(q.Page.Limit))

	return remember(ctx, s, key, func(ctx context.Context) (Listing[*domain.Content], error) {
		empty := newListing[*domain.Content](nil, 0, q.Page)
		filter := domain.ContentFilter{
			OrganizationID: org.ID,
			Status:         domain.StatusPublished,
			Search:         q.Search,
			Page:           q.Page,
		}
		if q.ContentType != "" {
			ct, err := s.types.GetBySlug(ctx, org.ID, q.ContentType)
			if errors.Is(err, domain.ErrNotFound) || (err == nil && !ct.IsActive) {
				return empty, nil
			}
			if err != nil {
				return Listing[*domain.Content]{}, err
			}
			filter.ContentTypeID = ct.ID
		}
		if q.Category != "" {
			id, ok, err := s.activeTerm(ctx, s.categories, org.ID, q.Category)
			if err != nil || !ok {
				return empty, err
			}
			filter.CategoryID = id
		}
		if q.Tag != "" {
			id, ok, err := s.activeTerm(ctx, s.tags, org.ID, q.Tag)
			if err != nil || !ok {
				return empty, err
			}
			filter.TagID = id
		}
		items, total, err := s.contents.List(ctx, filter)
		if err != nil {
			return Listing[*domain.Content]{}, err
		}
		return newListing(items, total, q.Page), nil
	})
}

// GetContent returns a published item. Drafts are reported as not found.
func (s *PublicService) GetContent(ctx context.Context, orgSlug, slug string) (*domain.Content, error) {
	org, err := s.organization(ctx, orgSlug)
	if err != nil {
		return nil, err
	}
	return remember(ctx, s, cache.Key("public", org.ID, "content-item", slug), func(ctx context.Context) (*domain.Content, error) {
		c, err := s.contents.GetBySlug(ctx, org.ID, slug)
		if err != nil {
			return nil, err
		}
		if c.Status != domain.StatusPublished {
			return nil, domain.NotFound("content")
		}
		return c, nil
	})
}

func (s *PublicService) ListCategories(ctx context.Context, orgSlug string, page domain.Page) (Listing[*domain.Term], error) {
	return s.listTerms(ctx, s.categories, orgSlug, page)
}

func (s *PublicService) ListTags(ctx context.Context, orgSlug string, page domain.Page) (Listing[*domain.Term], error) {
	return s.listTerms(ctx, s.tags, orgSlug, page)
}

func (s *PublicService) listTerms(ctx context.Context, repo domain.TermRepository, orgSlug string, page domain.Page) (Listing[*domain.Term], error) {
	org, err := s.organization(ctx, orgSlug)
	if err != nil {
		return Listing[*domain.Term]{}, err
	}
	page = page.Normalize()
	key := cache.Key("public", org.ID, string(repo.Kind()), strconv.Itoa(page.Page), strconv.Itoa(page.Limit))
	return remember(ctx, s, key, func(ctx context.Context) (Listing[*domain.Term], error) {
		items, total, err := repo.List(ctx, domain.TermFilter{OrganizationID: org.ID, Page: page})
		if err != nil {
			return Listing[*domain.Term]{}, err
		}
		return newListing(items, total, page), nil
	})
}

func (s *PublicService) ListContentTypes(ctx context.Context, orgSlug string, page domain.Page) (Listing[*domain.ContentType], error) {
	org, err := s.organization(ctx, orgSlug)
	if err != nil {
		return Listing[*domain.ContentType]{}, err
	}
	page = page.Normalize()
	key := cache.Key("public", org.ID, "content-types", strconv.Itoa(page.Page), strconv.Itoa(page.Limit))
	return remember(ctx, s, key, func(ctx context.Context) (Listing[*domain.ContentType], error) {
		items, total, err := s.types.List(ctx, domain.ContentTypeFilter{OrganizationID: org.ID, Page: page})
		if err != nil {
			return Listing[*domain.ContentType]{}, err
		}
		return newListing(items, total, page), nil
	})
}

func (s *PublicService) activeTerm(ctx context.Context, repo domain.TermRepository, orgID, slug string) (string, bool, error) {
	t, err := repo.GetBySlug(ctx, orgID, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return t.ID, t.IsActive, nil
}

func remember[T any](ctx context.Context, s *PublicService, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return load(ctx)
	}
	return cache.Remember(ctx, s.cache, key, s.ttl, load)
}
