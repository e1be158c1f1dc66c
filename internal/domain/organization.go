package domain

import "context"

// Organization is a tenant. Organizations are deactivated, never removed.
type Organization struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
	Audit
}

// OrganizationFilter narrows an organization listing.
type OrganizationFilter struct {
	Search          string
	IncludeInactive bool
	Page            Page
}

// OrganizationRepository defines data access for organizations
type OrganizationRepository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
	Deactivate(ctx context.Context, id, actor string) error
	List(ctx context.Context, filter OrganizationFilter) ([]*Organization, int, error)
}
