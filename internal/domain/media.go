package domain

import "context"

// Media is the metadata record of a stored upload.
type Media struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	OriginalName   string `json:"originalName"`
	MimeType       string `json:"mimeType"`
	Size           int64  `json:"size"`
	Path           string `json:"path"`
	URL            string `json:"url"`
	Width          *int   `json:"width,omitempty"`
	Height         *int   `json:"height,omitempty"`
	Alt            string `json:"alt,omitempty"`
	Caption        string `json:"caption,omitempty"`
	Hash           string `json:"hash"`
	OrganizationID string `json:"organizationId"`
	Audit
}

// MediaFilter narrows a media listing. MimeTypes matches any of the listed types.
type MediaFilter struct {
	OrganizationID string
	MimeTypes      []string
	Search         string
	Page           Page
}

// MediaRepository defines data access for media metadata
type MediaRepository interface {
	Create(ctx context.Context, media *Media) error
	GetByID(ctx context.Context, id string) (*Media, error)
	Update(ctx context.Context, media *Media) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter MediaFilter) ([]*Media, int, error)
}

// FileStore persists upload bytes. Paths are slash separated and relative.
type FileStore interface {
	WriteFile(ctx context.Context, path string, data []byte, contentType string) error
	DeleteFile(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	URL(path string) string
}
