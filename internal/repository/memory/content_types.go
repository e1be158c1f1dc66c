package memory

import (
	"context"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

type ContentTypeRepository struct{ s *Store }

func cloneContentType(ct *domain.ContentType) *domain.ContentType {
	cp := *ct
	cp.Fields = append([]domain.FieldDefinition{}, ct.Fields...)
	return &cp
}

func (r *ContentTypeRepository) slugTaken(ct *domain.ContentType) bool {
	for _, other := range r.s.contentTypes {
		if other.ID != ct.ID && other.OrganizationID == ct.OrganizationID && other.Slug == ct.Slug {
			return true
		}
	}
	return false
}

func (r *ContentTypeRepository) Create(_ context.Context, ct *domain.ContentType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ct.ID = newID(ct.ID)
	if r.slugTaken(ct) {
		return domain.Conflict("content type", "slug", ct.Slug)
	}
	r.s.contentTypes[ct.ID] = cloneContentType(ct)
	return nil
}

func (r *ContentTypeRepository) GetByID(_ context.Context, id string) (*domain.ContentType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ct, ok := r.s.contentTypes[id]
	if !ok {
		return nil, domain.NotFound("content type")
	}
	return cloneContentType(ct), nil
}

func (r *ContentTypeRepository) GetBySlug(_ context.Context, organizationID, slug string) (*domain.ContentType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, ct := range r.s.contentTypes {
		if ct.OrganizationID == organizationID && ct.Slug == slug {
			return cloneContentType(ct), nil
		}
	}
	return nil, domain.NotFound("content type")
}

func (r *ContentTypeRepository) Update(_ context.Context, ct *domain.ContentType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contentTypes[ct.ID]; !ok {
		return domain.NotFound("content type")
	}
	if r.slugTaken(ct) {
		return domain.Conflict("content type", "slug", ct.Slug)
	}
	r.s.contentTypes[ct.ID] = cloneContentType(ct)
	return nil
}

func (r *ContentTypeRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contentTypes[id]; !ok {
		return domain.NotFound("content type")
	}
	for _, c := range r.s.contents {
		if c.ContentTypeID == id {
			return domain.Wrap(domain.ErrConflict, "content type is still used by content", nil)
		}
	}
	delete(r.s.contentTypes, id)
	return nil
}

func (r *ContentTypeRepository) List(_ context.Context, f domain.ContentTypeFilter) ([]*domain.ContentType, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.ContentType{}
	for _, ct := range r.s.contentTypes {
		if f.OrganizationID != "" && ct.OrganizationID != f.OrganizationID {
			continue
		}
		if !f.IncludeInactive && !ct.IsActive {
			continue
		}
		if f.Search != "" && !contains(ct.Name, f.Search) && !contains(ct.Slug, f.Search) {
			continue
		}
		out = append(out, cloneContentType(ct))
	}
	byName(out, func(ct *domain.ContentType) string { return ct.Name })
	items, total := page(out, f.Page)
	return items, total, nil
}
