package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

const organizationColumns = `id, name, slug, domain, description, is_active, created_by, updated_by, created_at, updated_at`

// PostgresOrganizationRepository implements domain.OrganizationRepository using PostgreSQL
type PostgresOrganizationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresOrganizationRepository creates a new organization repository
func NewPostgresOrganizationRepository(db *sql.DB, logger *slog.Logger) *PostgresOrganizationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresOrganizationRepository{db: db, logger: logger}
}

func scanOrganization(s scanner) (*domain.Organization, error) {
	o := &domain.Organization{}
	err := s.Scan(&o.ID, &o.Name, &o.Slug, &o.Domain, &o.Description, &o.IsActive,
		&o.CreatedBy, &o.UpdatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// Create creates a new organization
func (r *PostgresOrganizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	org.ID = newID(org.ID)
	query := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		org.ID, org.Name, org.Slug, org.Domain, org.Description, org.IsActive,
		org.CreatedBy, org.UpdatedBy, org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create organization",
			slog.String("slug", org.Slug),
			slog.String("error", err.Error()),
		)
		return classify(err, "organization", map[string]string{"slug": org.Slug})
	}
	return nil
}

// GetByID retrieves an organization by ID
func (r *PostgresOrganizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	o, err := scanOrganization(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "organization")
	}
	return o, nil
}

// GetBySlug retrieves an organization by slug
func (r *PostgresOrganizationRepository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE slug = $1`
	o, err := scanOrganization(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		return nil, notFound(err, "organization")
	}
	return o, nil
}

// Update updates an existing organization
func (r *PostgresOrganizationRepository) Update(ctx context.Context, org *domain.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, slug = $2, domain = $3, description = $4, is_active = $5, updated_by = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		org.Name, org.Slug, org.Domain, org.Description, org.IsActive, org.UpdatedBy, org.UpdatedAt, org.ID,
	)
	if err != nil {
		return classify(err, "organization", map[string]string{"slug": org.Slug})
	}
	return expectOne(res, "organization")
}

// Deactivate soft-deletes an organization. Deactivating twice is not an error.
func (r *PostgresOrganizationRepository) Deactivate(ctx context.Context, id, actor string) error {
	query := `
		UPDATE organizations SET is_active = false, updated_by = $1, updated_at = $2 WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, actor, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate organization: %w", err)
	}
	return expectOne(res, "organization")
}

// List returns one page of organizations, newest first, with the total match count
func (r *PostgresOrganizationRepository) List(ctx context.Context, filter domain.OrganizationFilter) ([]*domain.Organization, int, error) {
	w := &where{}
	if !filter.IncludeInactive {
		w.add("is_active = true")
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		w.add("(name ILIKE ? OR slug ILIKE ?)", p, p)
	}
	total, err := count(ctx, r.db, "organizations", w)
	if err != nil {
		return nil, 0, err
	}

	limit, args := w.page(filter.Page)
	query := `SELECT ` + organizationColumns + ` FROM organizations` + w.String() + ` ORDER BY created_at DESC` + limit
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	out := []*domain.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan organization: %w", err)
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}
