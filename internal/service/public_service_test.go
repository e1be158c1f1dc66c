package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

func (f *fixture) draft(t *testing.T, ct *domain.ContentType, slug string, catIDs, tagIDs []string) *domain.Content {
	t.Helper()
	c, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{
		Title:         "Post " + slug,
		Slug:          slug,
		Content:       json.RawMessage(`{"body":"<p>hello</p>"}`),
		ContentTypeID: ct.ID,
		CategoryIDs:   catIDs,
		TagIDs:        tagIDs,
	})
	require.NoError(t, err)
	return c
}

func TestPublicShowsOnlyPublished(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.owner, "article")
	published := f.draft(t, ct, "hello", nil, nil)
	f.draft(t, ct, "wip", nil, nil)
	_, err := f.contents.Publish(f.ctx, f.editorA, published.ID)
	require.NoError(t, err)

	list, err := f.public.ListContent(f.ctx, "org-a", PublicContentQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "hello", list.Items[0].Slug)

	got, err := f.public.GetContent(f.ctx, "org-a", "hello")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, got.Status)

	_, err = f.public.GetContent(f.ctx, "org-a", "wip")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	other, err := f.public.ListContent(f.ctx, "org-b", PublicContentQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, other.Total)
}

func TestPublicOrganizationResolution(t *testing.T) {
	f := newFixture(t)

	_, err := f.public.ListContent(f.ctx, "  ", PublicContentQuery{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.public.ListTags(f.ctx, "nope", domain.Page{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.orgs.Deactivate(f.ctx, f.owner, f.orgA.ID)
	require.NoError(t, err)
	_, err = f.public.ListCategories(f.ctx, "org-a", domain.Page{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPublicFilters(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.owner, "article")
	news := f.term(t, f.cats, f.editorA, "News")
	old := f.term(t, f.cats, f.editorA, "Old")
	golang := f.term(t, f.tags, f.editorA, "Go")

	a := f.draft(t, ct, "a", []string{news.ID}, []string{golang.ID})
	b := f.draft(t, ct, "b", []string{old.ID}, nil)
	for _, c := range []*domain.Content{a, b} {
		_, err := f.contents.Publish(f.ctx, f.editorA, c.ID)
		require.NoError(t, err)
	}
	_, err := f.cats.Deactivate(f.ctx, f.editorA, old.ID)
	require.NoError(t, err)

	tests := []struct {
		name  string
		query PublicContentQuery
		want  []string
	}{
		{"no filter", PublicContentQuery{}, []string{"a", "b"}},
		{"category", PublicContentQuery{Category: "news"}, []string{"a"}},
		{"tag", PublicContentQuery{Tag: "go"}, []string{"a"}},
		{"content type", PublicContentQuery{ContentType: "article"}, []string{"a", "b"}},
		{"unknown category", PublicContentQuery{Category: "missing"}, nil},
		{"inactive category", PublicContentQuery{Category: "old"}, nil},
		{"unknown content type", PublicContentQuery{ContentType: "page"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := f.public.ListContent(f.ctx, "org-a", tt.query)
			require.NoError(t, err)
			var slugs []string
			for _, c := range list.Items {
				slugs = append(slugs, c.Slug)
			}
			assert.ElementsMatch(t, tt.want, slugs)
			assert.Equal(t, len(tt.want), list.Total)
		})
	}

	cats, err := f.public.ListCategories(f.ctx, "org-a", domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, cats.Total, "inactive categories are hidden")
}

func TestPublicResultsAreCachedUntilContentChanges(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.owner, "article")
	c := f.draft(t, ct, "hello", nil, nil)

	list, err := f.public.ListContent(f.ctx, "org-a", PublicContentQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)

	// A write that bypasses the services leaves the cached page in place.
	stored, err := f.store.Contents().GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	stored.Status = domain.StatusPublished
	require.NoError(t, f.store.Contents().Update(f.ctx, stored, domain.Links{}))

	list, err = f.public.ListContent(f.ctx, "org-a", PublicContentQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)

	title := "Hello again"
	_, err = f.contents.Update(f.ctx, f.editorA, c.ID, UpdateContentInput{Title: &title})
	require.NoError(t, err)

	list, err = f.public.ListContent(f.ctx, "org-a", PublicContentQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, title, list.Items[0].Title)
}
