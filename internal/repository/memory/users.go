package memory

import (
	"context"
	"strings"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

type UserRepository struct{ s *Store }

func (r *UserRepository) unique(u *domain.User) error {
	for _, other := range r.s.users {
		if other.ID == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) {
			return domain.Conflict("user", "email", u.Email)
		}
		if other.Username == u.Username {
			return domain.Conflict("user", "username", u.Username)
		}
	}
	return nil
}

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.ID = newID(u.ID)
	if err := r.unique(u); err != nil {
		return err
	}
	if _, ok := r.s.orgs[u.OrganizationID]; !ok {
		return domain.Invalid("user references a record that does not exist")
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.NotFound("user")
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *UserRepository) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.NotFound("user")
	}
	if err := r.unique(u); err != nil {
		return err
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.NotFound("user")
	}
	delete(r.s.users, id)
	return nil
}

func (r *UserRepository) TouchLogin(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.NotFound("user")
	}
	u.LastLoginAt = &at
	return nil
}

func (r *UserRepository) ListByOrganization(_ context.Context, organizationID string, p domain.Page) ([]*domain.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.User{}
	for _, u := range r.s.users {
		if u.OrganizationID == organizationID {
			cp := *u
			out = append(out, &cp)
		}
	}
	newestFirst(out, func(u *domain.User) time.Time { return u.CreatedAt })
	items, total := page(out, p)
	return items, total, nil
}
