package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

const termColumns = `id, name, slug, description, color, is_active, organization_id,
	created_by, updated_by, created_at, updated_at`

// PostgresTermRepository implements domain.TermRepository for one taxonomy,
// backed by the categories or the tags table.
type PostgresTermRepository struct {
	db     *sql.DB
	kind   domain.TermKind
	table  string
	entity string
	logger *slog.Logger
}

// NewPostgresCategoryRepository creates the category repository
func NewPostgresCategoryRepository(db *sql.DB, logger *slog.Logger) *PostgresTermRepository {
	return newPostgresTermRepository(db, domain.KindCategory, logger)
}

// NewPostgresTagRepository creates the tag repository
func NewPostgresTagRepository(db *sql.DB, logger *slog.Logger) *PostgresTermRepository {
	return newPostgresTermRepository(db, domain.KindTag, logger)
}

func newPostgresTermRepository(db *sql.DB, kind domain.TermKind, logger *slog.Logger) *PostgresTermRepository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &PostgresTermRepository{db: db, kind: kind, logger: logger, table: "tags", entity: "tag"}
	if kind == domain.KindCategory {
		r.table, r.entity = "categories", "category"
	}
	return r
}

func (r *PostgresTermRepository) Kind() domain.TermKind { return r.kind }

func (r *PostgresTermRepository) scan(s scanner) (*domain.Term, error) {
	t := &domain.Term{Kind: r.kind}
	err := s.Scan(&t.ID, &t.Name, &t.Slug, &t.Description, &t.Color, &t.IsActive, &t.OrganizationID,
		&t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *PostgresTermRepository) Create(ctx context.Context, t *domain.Term) error {
	t.ID = newID(t.ID)
	query := `INSERT INTO ` + r.table + ` (` + termColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Slug, t.Description, t.Color, t.IsActive, t.OrganizationID,
		t.CreatedBy, t.UpdatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create "+r.entity,
			slog.String("slug", t.Slug),
			slog.String("error", err.Error()),
		)
		return classify(err, r.entity, map[string]string{"slug": t.Slug})
	}
	return nil
}

func (r *PostgresTermRepository) GetByID(ctx context.Context, id string) (*domain.Term, error) {
	t, err := r.scan(r.db.QueryRowContext(ctx, `SELECT `+termColumns+` FROM `+r.table+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, r.entity)
	}
	return t, nil
}

func (r *PostgresTermRepository) GetBySlug(ctx context.Context, organizationID, slug string) (*domain.Term, error) {
	query := `SELECT ` + termColumns + ` FROM ` + r.table + ` WHERE organization_id = $1 AND slug = $2`
	t, err := r.scan(r.db.QueryRowContext(ctx, query, organizationID, slug))
	if err != nil {
		return nil, notFound(err, r.entity)
	}
	return t, nil
}

// FindByIDs returns the terms that exist among ids; missing ids are skipped.
func (r *PostgresTermRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Term, error) {
	if len(ids) == 0 {
		return []*domain.Term{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+termColumns+` FROM `+r.table+` WHERE id = ANY($1) ORDER BY name ASC`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", r.table, err)
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *PostgresTermRepository) Update(ctx context.Context, t *domain.Term) error {
	query := `UPDATE ` + r.table + `
		SET name = $1, slug = $2, description = $3, color = $4, is_active = $5, updated_by = $6, updated_at = $7
		WHERE id = $8`
	res, err := r.db.ExecContext(ctx, query,
		t.Name, t.Slug, t.Description, t.Color, t.IsActive, t.UpdatedBy, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return classify(err, r.entity, map[string]string{"slug": t.Slug})
	}
	return expectOne(res, r.entity)
}

// Deactivate soft-deletes a term. Deactivating twice is not an error.
func (r *PostgresTermRepository) Deactivate(ctx context.Context, id, actor string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE `+r.table+` SET is_active = false, updated_by = $1, updated_at = $2 WHERE id = $3`,
		actor, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate %s: %w", r.entity, err)
	}
	return expectOne(res, r.entity)
}

func (r *PostgresTermRepository) List(ctx context.Context, filter domain.TermFilter) ([]*domain.Term, int, error) {
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
	total, err := count(ctx, r.db, r.table, w)
	if err != nil {
		return nil, 0, err
	}

	limit, args := w.page(filter.Page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+termColumns+` FROM `+r.table+w.String()+` ORDER BY name ASC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", r.table, err)
	}
	defer rows.Close()
	out, err := r.collect(rows)
	return out, total, err
}

func (r *PostgresTermRepository) collect(rows *sql.Rows) ([]*domain.Term, error) {
	out := []*domain.Term{}
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.entity, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
