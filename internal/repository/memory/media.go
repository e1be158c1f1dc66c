package memory

import (
	"context"
	"slices"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

type MediaRepository struct{ s *Store }

func (r *MediaRepository) Create(_ context.Context, m *domain.Media) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = newID(m.ID)
	cp := *m
	r.s.media[m.ID] = &cp
	return nil
}

func (r *MediaRepository) GetByID(_ context.Context, id string) (*domain.Media, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.media[id]
	if !ok {
		return nil, domain.NotFound("media")
	}
	cp := *m
	return &cp, nil
}

func (r *MediaRepository) Update(_ context.Context, m *domain.Media) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.media[m.ID]
	if !ok {
		return domain.NotFound("media")
	}
	stored.Alt, stored.Caption = m.Alt, m.Caption
	stored.UpdatedBy, stored.UpdatedAt = m.UpdatedBy, m.UpdatedAt
	return nil
}

func (r *MediaRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.media[id]; !ok {
		return domain.NotFound("media")
	}
	delete(r.s.media, id)
	return nil
}

func (r *MediaRepository) List(_ context.Context, f domain.MediaFilter) ([]*domain.Media, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Media{}
	for _, m := range r.s.media {
		if f.OrganizationID != "" && m.OrganizationID != f.OrganizationID {
			continue
		}
		if len(f.MimeTypes) > 0 && !slices.Contains(f.MimeTypes, m.MimeType) {
			continue
		}
		if f.Search != "" && !contains(m.OriginalName, f.Search) && !contains(m.Alt, f.Search) && !contains(m.Caption, f.Search) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	newestFirst(out, func(m *domain.Media) time.Time { return m.CreatedAt })
	items, total := page(out, f.Page)
	return items, total, nil
}
