package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

const contentColumns = `id, title, slug, content, status, published_at, content_type_id, organization_id,
	created_by, updated_by, created_at, updated_at`

// association describes one content-to-term join table.
type association struct {
	joinTable string
	termTable string
	column    string
}

var (
	categoryLinks = association{joinTable: "content_categories", termTable: "categories", column: "category_id"}
	tagLinks      = association{joinTable: "content_tags", termTable: "tags", column: "tag_id"}
)

// PostgresContentRepository implements domain.ContentRepository using PostgreSQL.
// Rows and their category/tag associations are written in one transaction.
type PostgresContentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresContentRepository creates a new content repository
func NewPostgresContentRepository(db *sql.DB, logger *slog.Logger) *PostgresContentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresContentRepository{db: db, logger: logger}
}

func scanContent(s scanner) (*domain.Content, error) {
	c := &domain.Content{Categories: []domain.TermRef{}, Tags: []domain.TermRef{}}
	var (
		body      []byte
		published sql.NullTime
	)
	err := s.Scan(&c.ID, &c.Title, &c.Slug, &body, &c.Status, &published, &c.ContentTypeID, &c.OrganizationID,
		&c.CreatedBy, &c.UpdatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Body = json.RawMessage(body)
	if published.Valid {
		t := published.Time
		c.PublishedAt = &t
	}
	return c, nil
}

func payload(c *domain.Content) []byte {
	if len(c.Body) == 0 {
		return []byte("{}")
	}
	return c.Body
}

// Create inserts the content row and its associations
func (r *PostgresContentRepository) Create(ctx context.Context, c *domain.Content, links domain.Links) error {
	c.ID = newID(c.ID)
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO contents (` + contentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		if _, err := tx.ExecContext(ctx, query,
			c.ID, c.Title, c.Slug, payload(c), c.Status, c.PublishedAt, c.ContentTypeID, c.OrganizationID,
			c.CreatedBy, c.UpdatedBy, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			return classify(err, "content", map[string]string{"slug": c.Slug})
		}
		return replaceLinks(ctx, tx, c.ID, links)
	})
	if err != nil {
		r.logger.Error("failed to create content",
			slog.String("slug", c.Slug),
			slog.String("organization_id", c.OrganizationID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return r.attachRefs(ctx, []*domain.Content{c})
}

// Update writes the row and replaces the associations present in links
func (r *PostgresContentRepository) Update(ctx context.Context, c *domain.Content, links domain.Links) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE contents
			SET title = $1, slug = $2, content = $3, status = $4, published_at = $5,
				content_type_id = $6, updated_by = $7, updated_at = $8
			WHERE id = $9
		`
		res, err := tx.ExecContext(ctx, query,
			c.Title, c.Slug, payload(c), c.Status, c.PublishedAt, c.ContentTypeID, c.UpdatedBy, c.UpdatedAt, c.ID,
		)
		if err != nil {
			return classify(err, "content", map[string]string{"slug": c.Slug})
		}
		if err := expectOne(res, "content"); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, c.ID, links)
	})
	if err != nil {
		return err
	}
	return r.attachRefs(ctx, []*domain.Content{c})
}

// replaceLinks deletes then re-inserts each association kind present in links.
func replaceLinks(ctx context.Context, tx *sql.Tx, contentID string, links domain.Links) error {
	for _, set := range []struct {
		assoc association
		ids   []string
	}{
		{categoryLinks, links.CategoryIDs},
		{tagLinks, links.TagIDs},
	} {
		if set.ids == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+set.assoc.joinTable+` WHERE content_id = $1`, contentID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", set.assoc.joinTable, err)
		}
		if len(set.ids) == 0 {
			continue
		}
		query := `INSERT INTO ` + set.assoc.joinTable + ` (content_id, ` + set.assoc.column + `)
			SELECT $1, UNNEST($2::uuid[]) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, contentID, pq.Array(set.ids)); err != nil {
			return classify(err, "content", nil)
		}
	}
	return nil
}

// GetByID retrieves content with its categories and tags
func (r *PostgresContentRepository) GetByID(ctx context.Context, id string) (*domain.Content, error) {
	c, err := scanContent(r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM contents WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "content")
	}
	return c, r.attachRefs(ctx, []*domain.Content{c})
}

// GetBySlug retrieves content by its slug within an organization
func (r *PostgresContentRepository) GetBySlug(ctx context.Context, organizationID, slug string) (*domain.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE organization_id = $1 AND slug = $2`
	c, err := scanContent(r.db.QueryRowContext(ctx, query, organizationID, slug))
	if err != nil {
		return nil, notFound(err, "content")
	}
	return c, r.attachRefs(ctx, []*domain.Content{c})
}

// Delete removes content; associations cascade
func (r *PostgresContentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return expectOne(res, "content")
}

// List returns one page of content, most recently updated first
func (r *PostgresContentRepository) List(ctx context.Context, filter domain.ContentFilter) ([]*domain.Content, int, error) {
	w := &where{}
	if filter.OrganizationID != "" {
		w.add("organization_id = ?", filter.OrganizationID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.ContentTypeID != "" {
		w.add("content_type_id = ?", filter.ContentTypeID)
	}
	if filter.CategoryID != "" {
		w.add("EXISTS (SELECT 1 FROM content_categories cc WHERE cc.content_id = contents.id AND cc.category_id = ?)", filter.CategoryID)
	}
	if filter.TagID != "" {
		w.add("EXISTS (SELECT 1 FROM content_tags ct WHERE ct.content_id = contents.id AND ct.tag_id = ?)", filter.TagID)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		w.add("(title ILIKE ? OR slug ILIKE ?)", p, p)
	}
	total, err := count(ctx, r.db, "contents", w)
	if err != nil {
		return nil, 0, err
	}

	limit, args := w.page(filter.Page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+contentColumns+` FROM contents`+w.String()+` ORDER BY updated_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	out := []*domain.Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan content: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, r.attachRefs(ctx, out)
}

// CountByContentType counts content items of a content type
func (r *PostgresContentRepository) CountByContentType(ctx context.Context, contentTypeID string) (int, error) {
	w := &where{}
	w.add("content_type_id = ?", contentTypeID)
	return count(ctx, r.db, "contents", w)
}

// attachRefs loads categories and tags for items with one query per kind.
func (r *PostgresContentRepository) attachRefs(ctx context.Context, items []*domain.Content) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Content, len(items))
	ids := make([]string, 0, len(items))
	for _, c := range items {
		c.Categories, c.Tags = []domain.TermRef{}, []domain.TermRef{}
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	for _, assoc := range []association{categoryLinks, tagLinks} {
		query := `
			SELECT j.content_id, t.id, t.name, t.slug, t.color
			FROM ` + assoc.joinTable + ` j
			JOIN ` + assoc.termTable + ` t ON t.id = j.` + assoc.column + `
			WHERE j.content_id = ANY($1)
			ORDER BY t.name ASC
		`
		rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", assoc.termTable, err)
		}
		for rows.Next() {
			var (
				contentID string
				ref       domain.TermRef
			)
			if err := rows.Scan(&contentID, &ref.ID, &ref.Name, &ref.Slug, &ref.Color); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan %s: %w", assoc.termTable, err)
			}
			c := byID[contentID]
			if c == nil {
				continue
			}
			if assoc == categoryLinks {
				c.Categories = append(c.Categories, ref)
			} else {
				c.Tags = append(c.Tags, ref)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
