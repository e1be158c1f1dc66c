package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

// PostgreSQL error codes we classify.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// classify turns driver errors into domain errors. values supplies the
// offending value per column for conflict messages.
func classify(err error, entity string, values map[string]string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeUniqueViolation:
		field := constraintField(pqErr.Constraint)
		return &domain.Error{
			Kind:    domain.ErrConflict,
			Message: fmt.Sprintf("%s with %s %q already exists", entity, field, values[field]),
			Err:     err,
		}
	case codeForeignKeyViolation:
		return domain.Wrap(domain.ErrValidation, entity+" references a record that does not exist", err)
	}
	return err
}

// constraintField extracts the column from index names such as
// "users_email_key" or "contents_org_slug_key".
func constraintField(constraint string) string {
	name := strings.TrimSuffix(constraint, "_key")
	if i := strings.LastIndex(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func notFound(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(entity)
	}
	return err
}

func expectOne(res sql.Result, entity string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFound(entity)
	}
	return nil
}

// where accumulates AND-ed predicates written with '?' placeholders and
// renumbers them as $n.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	var b strings.Builder
	n := 0
	for _, r := range clause {
		if r == '?' && n < len(args) {
			w.args = append(w.args, args[n])
			n++
			b.WriteString("$" + strconv.Itoa(len(w.args)))
			continue
		}
		b.WriteRune(r)
	}
	w.clauses = append(w.clauses, b.String())
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page appends LIMIT/OFFSET and returns the clause and full argument list.
func (w *where) page(p domain.Page) (string, []any) {
	p = p.Normalize()
	args := append(append([]any{}, w.args...), p.Limit, p.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)+1, len(w.args)+2), args
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}

func count(ctx context.Context, q querier, table string, w *where) (int, error) {
	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+w.String(), w.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return total, nil
}

var (
	_ domain.OrganizationRepository = (*PostgresOrganizationRepository)(nil)
	_ domain.UserRepository         = (*PostgresUserRepository)(nil)
	_ domain.ContentTypeRepository  = (*PostgresContentTypeRepository)(nil)
	_ domain.ContentRepository      = (*PostgresContentRepository)(nil)
	_ domain.TermRepository         = (*PostgresTermRepository)(nil)
	_ domain.MediaRepository        = (*PostgresMediaRepository)(nil)
)
