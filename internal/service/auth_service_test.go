package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/auth"
)

func TestLogin(t *testing.T) {
	f := newFixture(t)

	res, err := f.auth.Login(f.ctx, "EditorA@Example.com", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.NotEmpty(t, res.Token)
	assert.InDelta(t, time.Hour.Seconds(), float64(res.ExpiresIn), 5)
	require.NotNil(t, res.User.LastLoginAt)

	p, err := f.auth.Authenticate(f.ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, f.editorA, p)
}

func TestLoginHidesAccountState(t *testing.T) {
	f := newFixture(t)
	_, err := f.orgs.Deactivate(f.ctx, f.owner, f.orgB.ID)
	require.NoError(t, err)

	cases := map[string][2]string{
		"unknown email":         {"nobody@example.com", strongPassword},
		"wrong password":        {"editora@example.com", "Wrong#Pass9word"},
		"inactive organization": {"editorb@example.com", strongPassword},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.Login(f.ctx, c[0], c[1])
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
			assert.Equal(t, "invalid credentials", domain.Message(err))
		})
	}
}

func TestAuthenticateRejectsDeactivatedUser(t *testing.T) {
	f := newFixture(t)
	res, err := f.auth.Login(f.ctx, "viewera@example.com", strongPassword)
	require.NoError(t, err)

	inactive := false
	_, err = f.users.Update(f.ctx, f.owner, f.viewerA.UserID, UpdateUserInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.auth.Authenticate(f.ctx, res.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticateUsesStoredRole(t *testing.T) {
	f := newFixture(t)
	res, err := f.auth.Login(f.ctx, "viewera@example.com", strongPassword)
	require.NoError(t, err)

	editor := domain.RoleEditor
	_, err = f.users.Update(f.ctx, f.owner, f.viewerA.UserID, UpdateUserInput{Role: &editor})
	require.NoError(t, err)

	p, err := f.auth.Authenticate(f.ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEditor, p.Role)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Authenticate(f.ctx, "not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	other := auth.NewTokenManager("another-secret-another-secret-xyz", "tenantcms", time.Hour)
	forged, _, err := other.Sign(f.owner)
	require.NoError(t, err)
	_, err = f.auth.Authenticate(f.ctx, forged)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	res, err := f.auth.Register(f.ctx, RegisterInput{
		Email:            "New.User@Example.com",
		Username:         "newuser",
		Password:         strongPassword,
		OrganizationSlug: "org-a",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleViewer, res.User.Role)
	assert.Equal(t, f.orgA.ID, res.User.OrganizationID)
	assert.Equal(t, "new.user@example.com", res.User.Email)

	_, err = f.auth.Register(f.ctx, RegisterInput{
		Email: "other@example.com", Username: "newuser", Password: strongPassword, OrganizationSlug: "org-a",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(f.ctx, RegisterInput{
		Email: "weak@example.com", Username: "weakling", Password: "sunshine", OrganizationSlug: "org-a",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NotEmpty(t, domain.Details(err))
}

func TestRegisterDisabled(t *testing.T) {
	f := newFixture(t)
	f.auth.allowRegistration = false
	_, err := f.auth.Register(f.ctx, RegisterInput{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	const next = "Nw8$Lq3!Vz6@Hp1#Tc"

	err := f.auth.ChangePassword(f.ctx, f.editorA, "Wrong#Pass9word", next)
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, f.auth.ChangePassword(f.ctx, f.editorA, strongPassword, next))

	_, err = f.auth.Login(f.ctx, "editora@example.com", strongPassword)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.auth.Login(f.ctx, "editora@example.com", next)
	assert.NoError(t, err)
}

func TestChangePasswordRejectsPasswordsBcryptCannotHash(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("Nw8$Lq3!", 10)

	err := f.auth.ChangePassword(f.ctx, f.editorA, strongPassword, long)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, domain.Details(err), "Password must be at most 72 bytes long")

	_, err = f.auth.Login(f.ctx, "editora@example.com", strongPassword)
	assert.NoError(t, err)
}

func TestRefreshToken(t *testing.T) {
	f := newFixture(t)
	res, err := f.auth.RefreshToken(f.ctx, f.editorA)
	require.NoError(t, err)

	p, err := f.auth.Authenticate(f.ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, f.editorA.UserID, p.UserID)
}

func TestBootstrapCreatesOwner(t *testing.T) {
	f := newFixture(t)

	org, owner, err := f.auth.Bootstrap(f.ctx, BootstrapInput{
		OrganizationName: "Acme Corp",
		Email:            " Root@Acme.test ",
		Username:         "root",
		Password:         strongPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "acme-corp", org.Slug)
	assert.Equal(t, domain.RoleOwner, owner.Role)
	assert.Equal(t, "root@acme.test", owner.Email)
	assert.Equal(t, org.ID, owner.OrganizationID)

	res, err := f.auth.Login(f.ctx, "root@acme.test", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, res.User.ID)
}

func TestBootstrapRejectsWeakPasswordBeforeWriting(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.auth.Bootstrap(f.ctx, BootstrapInput{
		OrganizationName: "Acme Corp",
		Email:            "root@acme.test",
		Username:         "root",
		Password:         "password",
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.store.Organizations().GetBySlug(f.ctx, "acme-corp")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBootstrapDeactivatesOrganizationWhenOwnerFails(t *testing.T) {
	f := newFixture(t)

	// editora@example.com already exists in org-a.
	_, _, err := f.auth.Bootstrap(f.ctx, BootstrapInput{
		OrganizationName: "Acme Corp",
		Email:            "editora@example.com",
		Username:         "someone",
		Password:         strongPassword,
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	org, err := f.store.Organizations().GetBySlug(f.ctx, "acme-corp")
	require.NoError(t, err)
	assert.False(t, org.IsActive)
}
