package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

func TestOrganizationOwnerOnlyOperations(t *testing.T) {
	f := newFixture(t)

	_, err := f.orgs.List(f.ctx, f.editorA, domain.OrganizationFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.orgs.Create(f.ctx, f.editorA, CreateOrganizationInput{Name: "New"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.orgs.Deactivate(f.ctx, f.editorA, f.orgA.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	org, err := f.orgs.Create(f.ctx, f.owner, CreateOrganizationInput{Name: "Brand New Org"})
	require.NoError(t, err)
	assert.Equal(t, "brand-new-org", org.Slug)

	list, err := f.orgs.List(f.ctx, f.owner, domain.OrganizationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
}

func TestOrganizationCrossTenantIsForbiddenEvenWhenMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.orgs.Get(f.ctx, f.editorA, f.orgB.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.orgs.Get(f.ctx, f.editorA, "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.orgs.GetBySlug(f.ctx, f.editorA, "no-such-org")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	org, err := f.orgs.Get(f.ctx, f.viewerA, f.orgA.ID)
	require.NoError(t, err)
	assert.Equal(t, "org-a", org.Slug)

	_, err = f.orgs.Get(f.ctx, f.owner, "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrganizationDeactivateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 2; i++ {
		org, err := f.orgs.Deactivate(f.ctx, f.owner, f.orgB.ID)
		require.NoError(t, err)
		assert.False(t, org.IsActive)
	}
}

func TestOrganizationUpdate(t *testing.T) {
	f := newFixture(t)
	name := "Org A Renamed"
	org, err := f.orgs.Update(f.ctx, f.editorA, f.orgA.ID, UpdateOrganizationInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, org.Name)

	active := false
	_, err = f.orgs.Update(f.ctx, f.editorA, f.orgA.ID, UpdateOrganizationInput{IsActive: &active})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	slug := "org-b"
	_, err = f.orgs.Update(f.ctx, f.owner, f.orgA.ID, UpdateOrganizationInput{Slug: &slug})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOrganizationListUsers(t *testing.T) {
	f := newFixture(t)
	list, err := f.orgs.ListUsers(f.ctx, f.viewerA, f.orgA.ID, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)

	_, err = f.orgs.ListUsers(f.ctx, f.viewerA, f.orgB.ID, domain.Page{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUserCreate(t *testing.T) {
	f := newFixture(t)

	u, err := f.users.Create(f.ctx, f.editorA, CreateUserInput{
		Email: "writer@example.com", Username: "writer", Password: strongPassword, Role: domain.RoleEditor,
	})
	require.NoError(t, err)
	assert.Equal(t, f.orgA.ID, u.OrganizationID)
	assert.NotEqual(t, strongPassword, u.PasswordHash)

	_, err = f.users.Create(f.ctx, f.editorA, CreateUserInput{
		Email: "boss@example.com", Username: "boss", Password: strongPassword, Role: domain.RoleOwner,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.users.Create(f.ctx, f.editorA, CreateUserInput{
		Email: "elsewhere@example.com", Username: "elsewhere", Password: strongPassword, OrganizationID: f.orgB.ID,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.users.Create(f.ctx, f.viewerA, CreateUserInput{
		Email: "v2@example.com", Username: "viewer2", Password: strongPassword,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.users.Create(f.ctx, f.editorA, CreateUserInput{
		Email: "WRITER@example.com", Username: "writer2", Password: strongPassword,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserCreateRejectsPersonalPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.Create(f.ctx, f.editorA, CreateUserInput{
		Email: "jane@example.com", Username: "janedoe", FirstName: "Jane", Password: "Janedoe#2024xQ",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserSelfDeletionIsDenied(t *testing.T) {
	f := newFixture(t)
	for _, p := range []domain.Principal{f.owner, f.editorA, f.viewerA} {
		err := f.users.Delete(f.ctx, p, p.UserID)
		assert.ErrorIs(t, err, domain.ErrForbidden, string(p.Role))
	}
}

func TestUserDelete(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.users.Delete(f.ctx, f.editorB, f.viewerA.UserID), domain.ErrForbidden)
	assert.ErrorIs(t, f.users.Delete(f.ctx, f.viewerA, f.editorA.UserID), domain.ErrForbidden)

	require.NoError(t, f.users.Delete(f.ctx, f.editorA, f.viewerA.UserID))
	_, err := f.users.Get(f.ctx, f.editorA, f.viewerA.UserID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
