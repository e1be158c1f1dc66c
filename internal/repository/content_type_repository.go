package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

const contentTypeColumns = `id, name, slug, description, fields, is_active, organization_id,
	created_by, updated_by, created_at, updated_at`

// PostgresContentTypeRepository implements domain.ContentTypeRepository using PostgreSQL
type PostgresContentTypeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresContentTypeRepository creates a new content type repository
func NewPostgresContentTypeRepository(db *sql.DB, logger *slog.Logger) *PostgresContentTypeRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresContentTypeRepository{db: db, logger: logger}
}

func scanContentType(s scanner) (*domain.ContentType, error) {
	ct := &domain.ContentType{}
	var fields []byte
	err := s.Scan(&ct.ID, &ct.Name, &ct.Slug, &ct.Description, &fields, &ct.IsActive, &ct.OrganizationID,
		&ct.CreatedBy, &ct.UpdatedBy, &ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ct.Fields = []domain.FieldDefinition{}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &ct.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode fields of content type %s: %w", ct.ID, err)
		}
	}
	return ct, nil
}

func encodeFields(fields []domain.FieldDefinition) ([]byte, error) {
	if fields == nil {
		fields = []domain.FieldDefinition{}
	}
	return json.Marshal(fields)
}

// Create creates a new content type
func (r *PostgresContentTypeRepository) Create(ctx context.Context, ct *domain.ContentType) error {
	ct.ID = newID(ct.ID)
	fields, err := encodeFields(ct.Fields)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO content_types (` + contentTypeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		ct.ID, ct.Name, ct.Slug, ct.Description, fields, ct.IsActive, ct.OrganizationID,
		ct.CreatedBy, ct.UpdatedBy, ct.CreatedAt, ct.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create content type",
			slog.String("slug", ct.Slug),
			slog.String("organization_id", ct.OrganizationID),
			slog.String("error", err.Error()),
		)
		return classify(err, "content type", map[string]string{"slug": ct.Slug})
	}
	return nil
}

// GetByID retrieves a content type by ID
func (r *PostgresContentTypeRepository) GetByID(ctx context.Context, id string) (*domain.ContentType, error) {
	ct, err := scanContentType(r.db.QueryRowContext(ctx, `SELECT `+contentTypeColumns+` FROM content_types WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "content type")
	}
	return ct, nil
}

// GetBySlug retrieves a content type by its slug within an organization
func (r *PostgresContentTypeRepository) GetBySlug(ctx context.Context, organizationID, slug string) (*domain.ContentType, error) {
	query := `SELECT ` + contentTypeColumns + ` FROM content_types WHERE organization_id = $1 AND slug = $2`
	ct, err := scanContentType(r.db.QueryRowContext(ctx, query, organizationID, slug))
	if err != nil {
		return nil, notFound(err, "content type")
	}
	return ct, nil
}

// Update updates an existing content type
func (r *PostgresContentTypeRepository) Update(ctx context.Context, ct *domain.ContentType) error {
	fields, err := encodeFields(ct.Fields)
	if err != nil {
		return err
	}
	query := `
		UPDATE content_types
		SET name = $1, slug = $2, description = $3, fields = $4, is_active = $5, updated_by = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		ct.Name, ct.Slug, ct.Description, fields, ct.IsActive, ct.UpdatedBy, ct.UpdatedAt, ct.ID,
	)
	if err != nil {
		return classify(err, "content type", map[string]string{"slug": ct.Slug})
	}
	return expectOne(res, "content type")
}

// Delete removes a content type. The database refuses while content references it.
func (r *PostgresContentTypeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM content_types WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeForeignKeyViolation {
			return domain.Wrap(domain.ErrConflict, "content type is still used by content", err)
		}
		return fmt.Errorf("failed to delete content type: %w", err)
	}
	return expectOne(res, "content type")
}

// List returns one page of content types ordered by name
func (r *PostgresContentTypeRepository) List(ctx context.Context, filter domain.ContentTypeFilter) ([]*domain.ContentType, int, error) {
	w := &where{}
	if filter.OrganizationID != "" {
		w.add("organization_id = ?", filter.OrganizationID)
	}
	if !filter.IncludeInactive {
		w.add("is_active = true")
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		w.add("(name ILIKE ? OR slug ILIKE ?)", p, p)
	}
	total, err := count(ctx, r.db, "content_types", w)
	if err != nil {
		return nil, 0, err
	}

	limit, args := w.page(filter.Page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+contentTypeColumns+` FROM content_types`+w.String()+` ORDER BY name ASC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list content types: %w", err)
	}
	defer rows.Close()

	out := []*domain.ContentType{}
	for rows.Next() {
		ct, err := scanContentType(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan content type: %w", err)
		}
		out = append(out, ct)
	}
	return out, total, rows.Err()
}
