package memory

import (
	"context"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

type OrganizationRepository struct{ s *Store }

func (r *OrganizationRepository) Create(_ context.Context, org *domain.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orgs {
		if o.Slug == org.Slug {
			return domain.Conflict("organization", "slug", org.Slug)
		}
	}
	org.ID = newID(org.ID)
	cp := *org
	r.s.orgs[org.ID] = &cp
	return nil
}

func (r *OrganizationRepository) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orgs[id]
	if !ok {
		return nil, domain.NotFound("organization")
	}
	cp := *o
	return &cp, nil
}

func (r *OrganizationRepository) GetBySlug(_ context.Context, slug string) (*domain.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, o := range r.s.orgs {
		if o.Slug == slug {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.NotFound("organization")
}

func (r *OrganizationRepository) Update(_ context.Context, org *domain.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orgs[org.ID]; !ok {
		return domain.NotFound("organization")
	}
	for _, o := range r.s.orgs {
		if o.ID != org.ID && o.Slug == org.Slug {
			return domain.Conflict("organization", "slug", org.Slug)
		}
	}
	cp := *org
	r.s.orgs[org.ID] = &cp
	return nil
}

func (r *OrganizationRepository) Deactivate(_ context.Context, id, actor string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orgs[id]
	if !ok {
		return domain.NotFound("organization")
	}
	o.IsActive = false
	o.UpdatedBy, o.UpdatedAt = actor, time.Now().UTC()
	return nil
}

func (r *OrganizationRepository) List(_ context.Context, f domain.OrganizationFilter) ([]*domain.Organization, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Organization{}
	for _, o := range r.s.orgs {
		if !f.IncludeInactive && !o.IsActive {
			continue
		}
		if f.Search != "" && !contains(o.Name, f.Search) && !contains(o.Slug, f.Search) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	newestFirst(out, func(o *domain.Organization) time.Time { return o.CreatedAt })
	items, total := page(out, f.Page)
	return items, total, nil
}
