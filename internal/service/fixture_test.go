package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/events"
	"github.com/aryan0dhankhar/tenantcms/internal/repository/memory"
	"github.com/aryan0dhankhar/tenantcms/internal/security"
	"github.com/aryan0dhankhar/tenantcms/internal/security/auth"
	"github.com/aryan0dhankhar/tenantcms/internal/storage"
	"github.com/aryan0dhankhar/tenantcms/internal/upload"
	"github.com/aryan0dhankhar/tenantcms/pkg/cache"
)

const strongPassword = "Tr7#kP2!mX9$vL4@qZ6&"

type fixture struct {
	ctx   context.Context
	store *memory.Store
	cache *cache.Cache
	files *storage.MemoryStore
	hub   *events.Hub

	auth     *AuthService
	orgs     *OrganizationService
	users    *UserService
	types    *ContentTypeService
	contents *ContentService
	cats     *TaxonomyService
	tags     *TaxonomyService
	media    *MediaService
	public   *PublicService

	orgA, orgB       *domain.Organization
	owner            domain.Principal
	editorA, viewerA domain.Principal
	editorB          domain.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		store: memory.New(),
		cache: cache.New(),
		files: storage.NewMemoryStore("/uploads"),
		hub:   events.NewHub(nil),
	}
	s := f.store
	authz := security.NewAuthorizationService(nil)
	tokens := auth.NewTokenManager("test-secret-test-secret-test-secret", "tenantcms", time.Hour)

	f.auth = NewAuthService(s.Users(), s.Organizations(), tokens, true, nil)
	f.orgs = NewOrganizationService(s.Organizations(), s.Users(), authz, f.hub, nil)
	f.users = NewUserService(s.Users(), s.Organizations(), authz, f.hub, nil)
	f.types = NewContentTypeService(s.ContentTypes(), s.Contents(), authz, f.cache, f.hub, nil)
	f.contents = NewContentService(s.Contents(), s.ContentTypes(), s.Categories(), s.Tags(), authz, f.cache, time.Minute, f.hub, nil)
	f.cats = NewTaxonomyService(s.Categories(), s.Contents(), authz, f.cache, f.hub, nil)
	f.tags = NewTaxonomyService(s.Tags(), s.Contents(), authz, f.cache, f.hub, nil)
	f.media = NewMediaService(s.Media(), f.files, upload.NewValidator(), authz, f.hub, nil)
	f.public = NewPublicService(s.Organizations(), s.ContentTypes(), s.Contents(), s.Categories(), s.Tags(), f.cache, time.Minute, nil)

	f.orgA = f.seedOrg(t, "Org A", "org-a")
	f.orgB = f.seedOrg(t, "Org B", "org-b")
	f.owner = f.seedUser(t, f.orgA, "owner", domain.RoleOwner)
	f.editorA = f.seedUser(t, f.orgA, "editora", domain.RoleEditor)
	f.viewerA = f.seedUser(t, f.orgA, "viewera", domain.RoleViewer)
	f.editorB = f.seedUser(t, f.orgB, "editorb", domain.RoleEditor)
	return f
}

func (f *fixture) seedOrg(t *testing.T, name, slug string) *domain.Organization {
	t.Helper()
	org := &domain.Organization{Name: name, Slug: slug, IsActive: true}
	org.Stamp("", time.Now())
	require.NoError(t, f.store.Organizations().Create(f.ctx, org))
	return org
}

func (f *fixture) seedUser(t *testing.T, org *domain.Organization, username string, role domain.Role) domain.Principal {
	t.Helper()
	hash, err := auth.HashPassword(strongPassword)
	require.NoError(t, err)
	u := &domain.User{
		Email:          username + "@example.com",
		Username:       username,
		PasswordHash:   hash,
		Role:           role,
		IsActive:       true,
		OrganizationID: org.ID,
	}
	u.Stamp("", time.Now())
	require.NoError(t, f.store.Users().Create(f.ctx, u))
	return principalOf(u)
}

func (f *fixture) contentType(t *testing.T, p domain.Principal, slug string) *domain.ContentType {
	t.Helper()
	ct, err := f.types.Create(f.ctx, p, CreateContentTypeInput{
		Name: "Article " + slug,
		Slug: slug,
		Fields: []domain.FieldDefinition{
			{Name: "body", Label: "Body", Type: domain.FieldRichText, Required: true},
		},
	})
	require.NoError(t, err)
	return ct
}

func (f *fixture) term(t *testing.T, svc *TaxonomyService, p domain.Principal, name string) *domain.Term {
	t.Helper()
	term, err := svc.Create(f.ctx, p, CreateTermInput{Name: name})
	require.NoError(t, err)
	return term
}
