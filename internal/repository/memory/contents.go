package memory

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

type ContentRepository struct{ s *Store }

// hydrate copies c and resolves its stored associations. Callers hold the lock.
func (r *ContentRepository) hydrate(c *domain.Content) *domain.Content {
	cp := *c
	cp.Body = append(json.RawMessage{}, c.Body...)
	cp.Categories, cp.Tags = []domain.TermRef{}, []domain.TermRef{}
	links := r.s.links[c.ID]
	if links == nil {
		return &cp
	}
	for _, id := range links.CategoryIDs {
		if t, ok := r.s.terms[domain.KindCategory][id]; ok {
			cp.Categories = append(cp.Categories, t.Ref())
		}
	}
	for _, id := range links.TagIDs {
		if t, ok := r.s.terms[domain.KindTag][id]; ok {
			cp.Tags = append(cp.Tags, t.Ref())
		}
	}
	byName(cp.Categories, func(t domain.TermRef) string { return t.Name })
	byName(cp.Tags, func(t domain.TermRef) string { return t.Name })
	return &cp
}

func (r *ContentRepository) check(c *domain.Content, links domain.Links) error {
	for _, other := range r.s.contents {
		if other.ID != c.ID && other.OrganizationID == c.OrganizationID && other.Slug == c.Slug {
			return domain.Conflict("content", "slug", c.Slug)
		}
	}
	if _, ok := r.s.contentTypes[c.ContentTypeID]; !ok {
		return domain.Invalid("content references a record that does not exist")
	}
	for _, id := range links.CategoryIDs {
		if _, ok := r.s.terms[domain.KindCategory][id]; !ok {
			return domain.Invalid("content references a record that does not exist")
		}
	}
	for _, id := range links.TagIDs {
		if _, ok := r.s.terms[domain.KindTag][id]; !ok {
			return domain.Invalid("content references a record that does not exist")
		}
	}
	return nil
}

func (r *ContentRepository) store(c *domain.Content, links domain.Links) {
	cp := *c
	cp.Categories, cp.Tags = nil, nil
	r.s.contents[c.ID] = &cp
	stored := r.s.links[c.ID]
	if stored == nil {
		stored = &domain.Links{CategoryIDs: []string{}, TagIDs: []string{}}
		r.s.links[c.ID] = stored
	}
	if links.CategoryIDs != nil {
		stored.CategoryIDs = slices.Compact(slices.Sorted(slices.Values(links.CategoryIDs)))
	}
	if links.TagIDs != nil {
		stored.TagIDs = slices.Compact(slices.Sorted(slices.Values(links.TagIDs)))
	}
}

func (r *ContentRepository) Create(_ context.Context, c *domain.Content, links domain.Links) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = newID(c.ID)
	if err := r.check(c, links); err != nil {
		return err
	}
	r.store(c, links)
	*c = *r.hydrate(r.s.contents[c.ID])
	return nil
}

func (r *ContentRepository) GetByID(_ context.Context, id string) (*domain.Content, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.contents[id]
	if !ok {
		return nil, domain.NotFound("content")
	}
	return r.hydrate(c), nil
}

func (r *ContentRepository) GetBySlug(_ context.Context, organizationID, slug string) (*domain.Content, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.contents {
		if c.OrganizationID == organizationID && c.Slug == slug {
			return r.hydrate(c), nil
		}
	}
	return nil, domain.NotFound("content")
}

func (r *ContentRepository) Update(_ context.Context, c *domain.Content, links domain.Links) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contents[c.ID]; !ok {
		return domain.NotFound("content")
	}
	if err := r.check(c, links); err != nil {
		return err
	}
	r.store(c, links)
	*c = *r.hydrate(r.s.contents[c.ID])
	return nil
}

func (r *ContentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contents[id]; !ok {
		return domain.NotFound("content")
	}
	delete(r.s.contents, id)
	delete(r.s.links, id)
	return nil
}

func (r *ContentRepository) List(_ context.Context, f domain.ContentFilter) ([]*domain.Content, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Content{}
	for _, c := range r.s.contents {
		if f.OrganizationID != "" && c.OrganizationID != f.OrganizationID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.ContentTypeID != "" && c.ContentTypeID != f.ContentTypeID {
			continue
		}
		links := r.s.links[c.ID]
		if f.CategoryID != "" && (links == nil || !slices.Contains(links.CategoryIDs, f.CategoryID)) {
			continue
		}
		if f.TagID != "" && (links == nil || !slices.Contains(links.TagIDs, f.TagID)) {
			continue
		}
		if f.Search != "" && !contains(c.Title, f.Search) && !contains(c.Slug, f.Search) {
			continue
		}
		out = append(out, r.hydrate(c))
	}
	newestFirst(out, func(c *domain.Content) time.Time { return c.UpdatedAt })
	items, total := page(out, f.Page)
	return items, total, nil
}

func (r *ContentRepository) CountByContentType(_ context.Context, contentTypeID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, c := range r.s.contents {
		if c.ContentTypeID == contentTypeID {
			n++
		}
	}
	return n, nil
}
