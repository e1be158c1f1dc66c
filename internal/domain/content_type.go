package domain

import "context"

// FieldType is the editor widget and storage shape of a content type field.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldRichText    FieldType = "richtext"
	FieldNumber      FieldType = "number"
	FieldBoolean     FieldType = "boolean"
	FieldDate        FieldType = "date"
	FieldDateTime    FieldType = "datetime"
	FieldEmail       FieldType = "email"
	FieldURL         FieldType = "url"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldMedia       FieldType = "media"
	FieldJSON        FieldType = "json"
)

var fieldTypes = map[FieldType]bool{
	FieldText: true, FieldTextarea: true, FieldRichText: true, FieldNumber: true,
	FieldBoolean: true, FieldDate: true, FieldDateTime: true, FieldEmail: true,
	FieldURL: true, FieldSelect: true, FieldMultiSelect: true, FieldMedia: true,
	FieldJSON: true,
}

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool { return fieldTypes[t] }

// NeedsOptions reports whether the field type is a choice list.
func (t FieldType) NeedsOptions() bool {
	return t == FieldSelect || t == FieldMultiSelect
}

// FieldDefinition describes one field of a content type. Order is significant.
type FieldDefinition struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     []string  `json:"options,omitempty"`
}

// ContentType is an organization's schema for a family of content.
type ContentType struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Slug           string            `json:"slug"`
	Description    string            `json:"description,omitempty"`
	Fields         []FieldDefinition `json:"fields"`
	IsActive       bool              `json:"isActive"`
	OrganizationID string            `json:"organizationId"`
	Audit
}

// ContentTypeFilter narrows a content type listing.
type ContentTypeFilter struct {
	OrganizationID  string
	Search          string
	IncludeInactive bool
	Page            Page
}

// ContentTypeRepository defines data access for content types
type ContentTypeRepository interface {
	Create(ctx context.Context, ct *ContentType) error
	GetByID(ctx context.Context, id string) (*ContentType, error)
	GetBySlug(ctx context.Context, organizationID, slug string) (*ContentType, error)
	Update(ctx context.Context, ct *ContentType) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ContentTypeFilter) ([]*ContentType, int, error)
}
