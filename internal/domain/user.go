package domain

import (
	"context"
	"time"
)

// Role is a user's access level. Roles are global in scope: an OWNER acts on every
// organization, EDITOR and VIEWER only on their own.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// User represents an account. A user belongs to exactly one organization for its lifetime.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Role           Role       `json:"role"`
	IsActive       bool       `json:"isActive"`
	OrganizationID string     `json:"organizationId"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
	Audit
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
	ListByOrganization(ctx context.Context, organizationID string, page Page) ([]*User, int, error)
}

// Principal is the authenticated caller, resolved from a verified token.
type Principal struct {
	UserID         string `json:"userId"`
	OrganizationID string `json:"organizationId"`
	Role           Role   `json:"role"`
	Email          string `json:"email"`
}

// Audit carries the bookkeeping columns shared by every mutable entity.
type Audit struct {
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stamp fills the audit columns for a write by actor at now.
func (a *Audit) Stamp(actor string, now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
		a.CreatedBy = actor
	}
	a.UpdatedAt = now
	a.UpdatedBy = actor
}
