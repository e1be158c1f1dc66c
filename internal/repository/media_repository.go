package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

const mediaColumns = `id, filename, original_name, mime_type, size, path, url, width, height, alt, caption, hash,
	organization_id, created_by, updated_by, created_at, updated_at`

// PostgresMediaRepository implements domain.MediaRepository using PostgreSQL
type PostgresMediaRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresMediaRepository creates a new media repository
func NewPostgresMediaRepository(db *sql.DB, logger *slog.Logger) *PostgresMediaRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresMediaRepository{db: db, logger: logger}
}

func scanMedia(s scanner) (*domain.Media, error) {
	m := &domain.Media{}
	var width, height sql.NullInt64
	err := s.Scan(&m.ID, &m.Filename, &m.OriginalName, &m.MimeType, &m.Size, &m.Path, &m.URL,
		&width, &height, &m.Alt, &m.Caption, &m.Hash,
		&m.OrganizationID, &m.CreatedBy, &m.UpdatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if width.Valid {
		w := int(width.Int64)
		m.Width = &w
	}
	if height.Valid {
		h := int(height.Int64)
		m.Height = &h
	}
	return m, nil
}

// Create records metadata of a stored upload
func (r *PostgresMediaRepository) Create(ctx context.Context, m *domain.Media) error {
	m.ID = newID(m.ID)
	query := `
		INSERT INTO media (` + mediaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Filename, m.OriginalName, m.MimeType, m.Size, m.Path, m.URL, m.Width, m.Height,
		m.Alt, m.Caption, m.Hash, m.OrganizationID, m.CreatedBy, m.UpdatedBy, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create media",
			slog.String("filename", m.Filename),
			slog.String("error", err.Error()),
		)
		return classify(err, "media", nil)
	}
	return nil
}

// GetByID retrieves media by ID
func (r *PostgresMediaRepository) GetByID(ctx context.Context, id string) (*domain.Media, error) {
	m, err := scanMedia(r.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "media")
	}
	return m, nil
}

// Update writes the editable metadata
func (r *PostgresMediaRepository) Update(ctx context.Context, m *domain.Media) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE media SET alt = $1, caption = $2, updated_by = $3, updated_at = $4 WHERE id = $5`,
		m.Alt, m.Caption, m.UpdatedBy, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update media: %w", err)
	}
	return expectOne(res, "media")
}

// Delete removes the metadata record
func (r *PostgresMediaRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return expectOne(res, "media")
}

// List returns one page of media, newest first
func (r *PostgresMediaRepository) List(ctx context.Context, filter domain.MediaFilter) ([]*domain.Media, int, error) {
	w := &where{}
	if filter.OrganizationID != "" {
		w.add("organization_id = ?", filter.OrganizationID)
	}
	if len(filter.MimeTypes) > 0 {
		w.add("mime_type = ANY(?)", pq.Array(filter.MimeTypes))
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		w.add("(original_name ILIKE ? OR alt ILIKE ? OR caption ILIKE ?)", p, p, p)
	}
	total, err := count(ctx, r.db, "media", w)
	if err != nil {
		return nil, 0, err
	}

	limit, args := w.page(filter.Page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+mediaColumns+` FROM media`+w.String()+` ORDER BY created_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	out := []*domain.Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan media: %w", err)
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}
