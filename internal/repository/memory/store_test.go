package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

func seed(t *testing.T, s *Store, orgID string) (ct *domain.ContentType, cats []*domain.Term) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Organizations().Create(ctx, &domain.Organization{ID: orgID, Name: orgID, Slug: orgID, IsActive: true}))
	ct = &domain.ContentType{Name: "Article", Slug: "article", OrganizationID: orgID, IsActive: true}
	require.NoError(t, s.ContentTypes().Create(ctx, ct))
	for _, name := range []string{"Beta", "Alpha"} {
		term := &domain.Term{Name: name, Slug: domain.Slugify(name), OrganizationID: orgID, IsActive: true}
		require.NoError(t, s.Categories().Create(ctx, term))
		cats = append(cats, term)
	}
	return ct, cats
}

func TestContentAssociationsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	ct, cats := seed(t, s, "org-a")

	c := &domain.Content{Title: "Hello", Slug: "hello", ContentTypeID: ct.ID, OrganizationID: "org-a", Status: domain.StatusDraft}
	require.NoError(t, s.Contents().Create(ctx, c, domain.Links{CategoryIDs: []string{cats[0].ID, cats[1].ID, cats[0].ID}}))

	got, err := s.Contents().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{cats[0].ID, cats[1].ID}, got.CategoryIDs())
	assert.Equal(t, "Alpha", got.Categories[0].Name)

	// nil leaves categories alone, empty clears tags
	require.NoError(t, s.Contents().Update(ctx, got, domain.Links{TagIDs: []string{}}))
	got, _ = s.Contents().GetByID(ctx, c.ID)
	assert.Len(t, got.Categories, 2)

	require.NoError(t, s.Contents().Update(ctx, got, domain.Links{CategoryIDs: []string{cats[1].ID}}))
	got, _ = s.Contents().GetByID(ctx, c.ID)
	assert.Equal(t, []string{cats[1].ID}, got.CategoryIDs())

	items, total, err := s.Contents().List(ctx, domain.ContentFilter{OrganizationID: "org-a", CategoryID: cats[0].ID})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestSlugUniquenessIsPerOrganization(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "org-a")
	seed(t, s, "org-b")

	err := s.Categories().Create(ctx, &domain.Term{Name: "Alpha", Slug: "alpha", OrganizationID: "org-a"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = s.Tags().Create(ctx, &domain.Term{Name: "Alpha", Slug: "alpha", OrganizationID: "org-a"})
	assert.NoError(t, err, "tags and categories are separate namespaces")
}

func TestDeactivateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, cats := seed(t, s, "org-a")

	require.NoError(t, s.Categories().Deactivate(ctx, cats[0].ID, "u"))
	require.NoError(t, s.Categories().Deactivate(ctx, cats[0].ID, "u"))
	got, err := s.Categories().GetByID(ctx, cats[0].ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active, total, _ := s.Categories().List(ctx, domain.TermFilter{OrganizationID: "org-a"})
	assert.Equal(t, 1, total)
	assert.Len(t, active, 1)
}

func TestContentTypeDeleteRefusedWhileReferenced(t *testing.T) {
	ctx := context.Background()
	s := New()
	ct, _ := seed(t, s, "org-a")
	require.NoError(t, s.Contents().Create(ctx, &domain.Content{Title: "x", Slug: "x", ContentTypeID: ct.ID, OrganizationID: "org-a"}, domain.Links{}))

	assert.ErrorIs(t, s.ContentTypes().Delete(ctx, ct.ID), domain.ErrConflict)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		org := &domain.Organization{Name: "o", Slug: domain.Slugify("org " + string(rune('a'+i))), IsActive: true}
		org.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.Organizations().Create(ctx, org))
	}

	items, total, err := s.Organizations().List(ctx, domain.OrganizationFilter{Page: domain.Page{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "org-c", items[0].Slug)
}

func TestUserEmailIsUniqueCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "org-a")
	require.NoError(t, s.Users().Create(ctx, &domain.User{Email: "a@example.com", Username: "a", OrganizationID: "org-a"}))

	err := s.Users().Create(ctx, &domain.User{Email: "A@example.com", Username: "b", OrganizationID: "org-a"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
