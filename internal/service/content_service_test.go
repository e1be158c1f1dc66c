package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

func TestContentCreateIsDraftWithLinks(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.editorA, "article")
	c1 := f.term(t, f.cats, f.editorA, "News")
	c2 := f.term(t, f.cats, f.editorA, "Sports")
	tag := f.term(t, f.tags, f.editorA, "Featured")

	c, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{
		Title:         "Hello World",
		Content:       json.RawMessage(`{"body":"<p>hi</p>"}`),
		ContentTypeID: ct.ID,
		CategoryIDs:   []string{c2.ID, c1.ID, c2.ID},
		TagIDs:        []string{tag.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", c.Slug)
	assert.Equal(t, domain.StatusDraft, c.Status)
	assert.Nil(t, c.PublishedAt)
	assert.Equal(t, f.editorA.UserID, c.CreatedBy)

	got, err := f.contents.Get(f.ctx, f.viewerA, c.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{c1.ID, c2.ID}, got.CategoryIDs())
	assert.Equal(t, []string{tag.ID}, got.TagIDs())
}

func TestContentCreateRejectsForeignReferences(t *testing.T) {
	f := newFixture(t)
	ctA := f.contentType(t, f.editorA, "article")
	ctB := f.contentType(t, f.editorB, "article")
	catB := f.term(t, f.cats, f.editorB, "Elsewhere")

	_, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "x", ContentTypeID: ctB.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.contents.Create(f.ctx, f.editorA, CreateContentInput{
		Title: "x", ContentTypeID: ctA.ID, CategoryIDs: []string{catB.ID, "missing"},
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, domain.Details(err), 2)
}

func TestContentCreateRejectsInactiveType(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.editorA, "article")
	inactive := false
	_, err := f.types.Update(f.ctx, f.editorA, ct.ID, UpdateContentTypeInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "x", ContentTypeID: ct.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestContentSlugUniquePerOrganization(t *testing.T) {
	f := newFixture(t)
	ctA := f.contentType(t, f.editorA, "article")
	ctB := f.contentType(t, f.editorB, "article")

	_, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "Same", ContentTypeID: ctA.ID})
	require.NoError(t, err)
	_, err = f.contents.Create(f.ctx, f.editorB, CreateContentInput{Title: "Same", ContentTypeID: ctB.ID})
	require.NoError(t, err)

	_, err = f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "Same", ContentTypeID: ctA.ID})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestContentUpdateReplacesLinks(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.editorA, "article")
	c1 := f.term(t, f.cats, f.editorA, "One")
	c2 := f.term(t, f.cats, f.editorA, "Two")
	tag := f.term(t, f.tags, f.editorA, "Tagged")

	c, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{
		Title: "Post", ContentTypeID: ct.ID, CategoryIDs: []string{c1.ID}, TagIDs: []string{tag.ID},
	})
	require.NoError(t, err)

	cats := []string{c2.ID}
	title := "Post renamed"
	updated, err := f.contents.Update(f.ctx, f.editorA, c.ID, UpdateContentInput{Title: &title, CategoryIDs: &cats})
	require.NoError(t, err)
	assert.Equal(t, "Post renamed", updated.Title)
	assert.Equal(t, []string{c2.ID}, updated.CategoryIDs())
	assert.Equal(t, []string{tag.ID}, updated.TagIDs(), "absent tagIds leave tags untouched")

	none := []string{}
	updated, err = f.contents.Update(f.ctx, f.editorA, c.ID, UpdateContentInput{TagIDs: &none})
	require.NoError(t, err)
	assert.Empty(t, updated.TagIDs())
}

func TestContentUpdateChangesContentType(t *testing.T) {
	f := newFixture(t)
	article := f.contentType(t, f.editorA, "article")
	page := f.contentType(t, f.editorA, "page")

	c, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "Post", ContentTypeID: article.ID})
	require.NoError(t, err)

	target := page.ID
	_, err = f.contents.Update(f.ctx, f.editorA, c.ID, UpdateContentInput{ContentTypeID: &target})
	require.NoError(t, err)

	got, err := f.contents.Get(f.ctx, f.viewerA, c.ID)
	require.NoError(t, err)
	assert.Equal(t, page.ID, got.ContentTypeID)
	assert.NoError(t, f.types.Delete(f.ctx, f.editorA, article.ID))
	assert.ErrorIs(t, f.types.Delete(f.ctx, f.editorA, page.ID), domain.ErrConflict)
}

func TestContentUpdateKeepsPaddedSameType(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.editorA, "article")
	c, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "Post", ContentTypeID: ct.ID})
	require.NoError(t, err)

	inactive := false
	_, err = f.types.Update(f.ctx, f.editorA, ct.ID, UpdateContentTypeInput{IsActive: &inactive})
	require.NoError(t, err)

	// The type is unchanged once trimmed, so its deactivation does not block the edit.
	same := " " + ct.ID + " "
	title := "Still editable"
	updated, err := f.contents.Update(f.ctx, f.editorA, c.ID, UpdateContentInput{Title: &title, ContentTypeID: &same})
	require.NoError(t, err)
	assert.Equal(t, ct.ID, updated.ContentTypeID)
	assert.Equal(t, "Still editable", updated.Title)
}

func TestContentPublishOnce(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.editorA, "article")
	c, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "Post", ContentTypeID: ct.ID})
	require.NoError(t, err)

	_, err = f.contents.Publish(f.ctx, f.viewerA, c.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	published, err := f.contents.Publish(f.ctx, f.editorA, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)

	_, err = f.contents.Publish(f.ctx, f.editorA, c.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestContentTenantIsolation(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.editorA, "article")
	c, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "Secret", ContentTypeID: ct.ID})
	require.NoError(t, err)

	_, err = f.contents.Get(f.ctx, f.editorB, c.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.contents.Delete(f.ctx, f.editorB, c.ID), domain.ErrForbidden)

	_, err = f.contents.Get(f.ctx, f.editorB, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.contents.List(f.ctx, f.editorB, domain.ContentFilter{OrganizationID: f.orgA.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := f.contents.List(f.ctx, f.owner, domain.ContentFilter{OrganizationID: f.orgA.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestContentListCacheInvalidatedOnWrite(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.editorA, "article")

	list, err := f.contents.List(f.ctx, f.editorA, domain.ContentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
	assert.Positive(t, f.cache.Len())

	_, err = f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "Post", ContentTypeID: ct.ID})
	require.NoError(t, err)

	list, err = f.contents.List(f.ctx, f.editorA, domain.ContentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.False(t, list.HasMore())
}

func TestContentEmitsEvents(t *testing.T) {
	f := newFixture(t)
	ch, cancel := f.hub.Subscribe(f.orgA.ID)
	defer cancel()

	ct := f.contentType(t, f.editorA, "article")
	c, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "Post", ContentTypeID: ct.ID})
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "content_type", first.Resource)
	second := <-ch
	assert.Equal(t, "content", second.Resource)
	assert.Equal(t, c.ID, second.ResourceID)
	assert.Equal(t, f.editorA.UserID, second.ActorID)
}

func TestContentValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{
		Title: " ", Slug: "Bad Slug", Content: json.RawMessage(`[1,2]`),
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, domain.Details(err), 4)
}

func TestContentTypeDeleteRefusedWhileReferenced(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.editorA, "article")
	c, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "Post", ContentTypeID: ct.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, f.types.Delete(f.ctx, f.editorA, ct.ID), domain.ErrConflict)

	require.NoError(t, f.contents.Delete(f.ctx, f.editorA, c.ID))
	require.NoError(t, f.types.Delete(f.ctx, f.editorA, ct.ID))
	_, err = f.types.Get(f.ctx, f.editorA, ct.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContentTypeFieldValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.types.Create(f.ctx, f.editorA, CreateContentTypeInput{
		Name: "Broken",
		Fields: []domain.FieldDefinition{
			{Name: "1st", Label: "First", Type: domain.FieldText},
			{Name: "color", Label: "Color", Type: domain.FieldSelect},
			{Name: "color", Label: "Again", Type: "hologram"},
		},
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, domain.Details(err), 4)
}

func TestContentTypeListContent(t *testing.T) {
	f := newFixture(t)
	ct := f.contentType(t, f.editorA, "article")
	other := f.contentType(t, f.editorA, "page")
	_, err := f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "A", ContentTypeID: ct.ID})
	require.NoError(t, err)
	_, err = f.contents.Create(f.ctx, f.editorA, CreateContentInput{Title: "B", ContentTypeID: other.ID})
	require.NoError(t, err)

	list, err := f.types.ListContent(f.ctx, f.viewerA, ct.ID, domain.Page{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "A", list.Items[0].Title)
}
