package domain

import (
	"context"
	"encoding/json"
	"time"
)

// ContentStatus is the publishing state of a content item.
type ContentStatus string

const (
	StatusDraft     ContentStatus = "DRAFT"
	StatusPublished ContentStatus = "PUBLISHED"
)

// Valid reports whether s is a known status.
func (s ContentStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Content is an entry whose payload is keyed by its content type's field schema.
// The payload is stored as-is; it is not checked against the schema on write.
type Content struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	Body           json.RawMessage `json:"content"`
	Status         ContentStatus   `json:"status"`
	PublishedAt    *time.Time      `json:"publishedAt,omitempty"`
	ContentTypeID  string          `json:"contentTypeId"`
	OrganizationID string          `json:"organizationId"`
	Categories     []TermRef       `json:"categories"`
	Tags           []TermRef       `json:"tags"`
	Audit
}

// CategoryIDs returns the ids of the attached categories.
func (c *Content) CategoryIDs() []string { return refIDs(c.Categories) }

// TagIDs returns the ids of the attached tags.
func (c *Content) TagIDs() []string { return refIDs(c.Tags) }

func refIDs(refs []TermRef) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return ids
}

// Links is the set of taxonomy associations written alongside a content row.
// A nil slice leaves the stored associations of that kind untouched; an empty,
// non-nil slice clears them.
type Links struct {
	CategoryIDs []string
	TagIDs      []string
}

// ContentFilter narrows a content listing. Empty fields do not filter.
type ContentFilter struct {
	OrganizationID string
	Status         ContentStatus
	ContentTypeID  string
	CategoryID     string
	TagID          string
	Search         string
	Page           Page
}

// ContentRepository defines data access for content. Create and Update write the
// row and its associations in a single transaction.
type ContentRepository interface {
	Create(ctx context.Context, content *Content, links Links) error
	GetByID(ctx context.Context, id string) (*Content, error)
	GetBySlug(ctx context.Context, organizationID, slug string) (*Content, error)
	Update(ctx context.Context, content *Content, links Links) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ContentFilter) ([]*Content, int, error)
	CountByContentType(ctx context.Context, contentTypeID string) (int, error)
}
