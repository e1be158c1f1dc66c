package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

var tenantOps = []Operation{OpRead, OpCreate, OpUpdate, OpDelete, OpPublish}

func TestOwnerIsUnrestricted(t *testing.T) {
	ops := append([]Operation{OpListOrganizations, OpCreateOrganization, OpDeleteOrganization, OpGrantOwner}, tenantOps...)
	for _, op := range ops {
		assert.True(t, Decide(domain.RoleOwner, "org-a", "org-b", op).Allowed, op)
		assert.True(t, Decide(domain.RoleOwner, "org-a", "org-a", op).Allowed, op)
	}
}

func TestCrossTenantIsDenied(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleEditor, domain.RoleViewer} {
		for _, op := range tenantOps {
			d := Decide(role, "org-a", "org-b", op)
			assert.False(t, d.Allowed, "%s %s", role, op)
			assert.NotEmpty(t, d.Reason)
		}
	}
}

func TestEditorActsWithinOwnOrganization(t *testing.T) {
	for _, op := range tenantOps {
		assert.True(t, Decide(domain.RoleEditor, "org-a", "org-a", op).Allowed, op)
	}
}

func TestViewerIsReadOnly(t *testing.T) {
	assert.True(t, Decide(domain.RoleViewer, "org-a", "org-a", OpRead).Allowed)
	for _, op := range []Operation{OpCreate, OpUpdate, OpDelete, OpPublish} {
		assert.False(t, Decide(domain.RoleViewer, "org-a", "org-a", op).Allowed, op)
	}
}

func TestOwnerOnlyOperationsIgnoreOrganizationMatch(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleEditor, domain.RoleViewer} {
		for _, op := range []Operation{OpListOrganizations, OpCreateOrganization, OpDeleteOrganization, OpGrantOwner} {
			assert.False(t, Decide(role, "org-a", "org-a", op).Allowed, "%s %s", role, op)
		}
	}
}

func TestUnknownRoleAndMissingOrganization(t *testing.T) {
	assert.False(t, Decide(domain.Role("ADMIN"), "org-a", "org-a", OpRead).Allowed)
	assert.False(t, Decide(domain.RoleEditor, "", "", OpRead).Allowed)
}

func TestSelfDeletionIsAlwaysDenied(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleOwner, domain.RoleEditor, domain.RoleViewer} {
		caller := domain.Principal{UserID: "u-1", OrganizationID: "org-a", Role: role}
		d := DecideUserRemoval(caller, "u-1", "org-a")
		assert.False(t, d.Allowed, role)
		assert.Contains(t, d.Reason, "own account")
	}
}

func TestUserRemovalFallsBackToDeleteRule(t *testing.T) {
	editor := domain.Principal{UserID: "u-1", OrganizationID: "org-a", Role: domain.RoleEditor}
	assert.True(t, DecideUserRemoval(editor, "u-2", "org-a").Allowed)
	assert.False(t, DecideUserRemoval(editor, "u-3", "org-b").Allowed)
}

func TestAuthorizeReturnsForbidden(t *testing.T) {
	as := NewAuthorizationService(nil)
	viewer := domain.Principal{UserID: "u-1", OrganizationID: "org-a", Role: domain.RoleViewer}

	require.NoError(t, as.Authorize(context.Background(), viewer, "org-a", OpRead))

	err := as.Authorize(context.Background(), viewer, "org-b", OpRead)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestTargetOrganization(t *testing.T) {
	p := domain.Principal{OrganizationID: "org-a"}
	assert.Equal(t, "org-a", TargetOrganization(p, ""))
	assert.Equal(t, "org-b", TargetOrganization(p, "org-b"))
}
