package memory

import (
	"context"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

type TermRepository struct {
	s    *Store
	kind domain.TermKind
}

func (r *TermRepository) Kind() domain.TermKind { return r.kind }

func (r *TermRepository) entity() string { return string(r.kind) }

func (r *TermRepository) table() map[string]*domain.Term { return r.s.terms[r.kind] }

func (r *TermRepository) slugTaken(t *domain.Term) bool {
	for _, other := range r.table() {
		if other.ID != t.ID && other.OrganizationID == t.OrganizationID && other.Slug == t.Slug {
			return true
		}
	}
	return false
}

func (r *TermRepository) Create(_ context.Context, t *domain.Term) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = newID(t.ID)
	t.Kind = r.kind
	if r.slugTaken(t) {
		return domain.Conflict(r.entity(), "slug", t.Slug)
	}
	cp := *t
	r.table()[t.ID] = &cp
	return nil
}

func (r *TermRepository) GetByID(_ context.Context, id string) (*domain.Term, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.table()[id]
	if !ok {
		return nil, domain.NotFound(r.entity())
	}
	cp := *t
	return &cp, nil
}

func (r *TermRepository) GetBySlug(_ context.Context, organizationID, slug string) (*domain.Term, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.table() {
		if t.OrganizationID == organizationID && t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.NotFound(r.entity())
}

func (r *TermRepository) FindByIDs(_ context.Context, ids []string) ([]*domain.Term, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Term{}
	seen := map[string]bool{}
	for _, id := range ids {
		if t, ok := r.table()[id]; ok && !seen[id] {
			seen[id] = true
			cp := *t
			out = append(out, &cp)
		}
	}
	byName(out, func(t *domain.Term) string { return t.Name })
	return out, nil
}

func (r *TermRepository) Update(_ context.Context, t *domain.Term) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.table()[t.ID]; !ok {
		return domain.NotFound(r.entity())
	}
	if r.slugTaken(t) {
		return domain.Conflict(r.entity(), "slug", t.Slug)
	}
	cp := *t
	cp.Kind = r.kind
	r.table()[t.ID] = &cp
	return nil
}

func (r *TermRepository) Deactivate(_ context.Context, id, actor string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.table()[id]
	if !ok {
		return domain.NotFound(r.entity())
	}
	t.IsActive = false
	t.UpdatedBy, t.UpdatedAt = actor, time.Now().UTC()
	return nil
}

func (r *TermRepository) List(_ context.Context, f domain.TermFilter) ([]*domain.Term, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Term{}
	for _, t := range r.table() {
		if f.OrganizationID != "" && t.OrganizationID != f.OrganizationID {
			continue
		}
		if !f.IncludeInactive && !t.IsActive {
			continue
		}
		if f.Search != "" && !contains(t.Name, f.Search) && !contains(t.Slug, f.Search) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	byName(out, func(t *domain.Term) string { return t.Name })
	items, total := page(out, f.Page)
	return items, total, nil
}
