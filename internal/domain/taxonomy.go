package domain

import "context"

// TermKind distinguishes the two taxonomies. Categories and tags share one shape
// and one set of rules; only their storage differs.
type TermKind string

const (
	KindCategory TermKind = "category"
	KindTag      TermKind = "tag"
)

// Term is a category or a tag. Terms are deactivated, never removed.
type Term struct {
	ID             string   `json:"id"`
	Kind           TermKind `json:"-"`
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	Description    string   `json:"description,omitempty"`
	Color          string   `json:"color,omitempty"`
	IsActive       bool     `json:"isActive"`
	OrganizationID string   `json:"organizationId"`
	Audit
}

// Ref returns the short form embedded in content responses.
func (t *Term) Ref() TermRef {
	return TermRef{ID: t.ID, Name: t.Name, Slug: t.Slug, Color: t.Color}
}

// TermRef is a term as attached to a content item.
type TermRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color,omitempty"`
}

// TermFilter narrows a term listing.
type TermFilter struct {
	OrganizationID  string
	Search          string
	IncludeInactive bool
	Page            Page
}

// TermRepository defines data access for one taxonomy kind.
type TermRepository interface {
	Kind() TermKind
	Create(ctx context.Context, term *Term) error
	GetByID(ctx context.Context, id string) (*Term, error)
	GetBySlug(ctx context.Context, organizationID, slug string) (*Term, error)
	FindByIDs(ctx context.Context, ids []string) ([]*Term, error)
	Update(ctx context.Context, term *Term) error
	Deactivate(ctx context.Context, id, actor string) error
	List(ctx context.Context, filter TermFilter) ([]*Term, int, error)
}
