package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

const userColumns = `id, email, username, password_hash, first_name, last_name, role, is_active,
	organization_id, last_login_at, created_by, updated_by, created_at, updated_at`

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

func scanUser(s scanner) (*domain.User, error) {
	user := &domain.User{}
	var lastLogin sql.NullTime
	err := s.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsActive,
		&user.OrganizationID,
		&lastLogin,
		&user.CreatedBy,
		&user.UpdatedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLoginAt = &t
	}
	return user, err
}

func userValues(user *domain.User) map[string]string {
	return map[string]string{"email": user.Email, "username": user.Username}
}

// Create creates a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	user.ID = newID(user.ID)
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsActive,
		user.OrganizationID,
		user.LastLoginAt,
		user.CreatedBy,
		user.UpdatedBy,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return classify(err, "user", userValues(user))
	}

	return nil
}

func (r *PostgresUserRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves a user by email, active or not
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByUsername retrieves a user by username, active or not
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username", username)
}

// Update updates an existing user
func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET email = $1, username = $2, password_hash = $3, first_name = $4, last_name = $5,
			role = $6, is_active = $7, updated_by = $8, updated_at = $9
		WHERE id = $10
	`

	res, err := r.db.ExecContext(ctx,
		query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsActive,
		user.UpdatedBy,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return classify(err, "user", userValues(user))
	}
	return expectOne(res, "user")
}

// Delete removes a user
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOne(res, "user")
}

// TouchLogin records a successful login
func (r *PostgresUserRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return expectOne(res, "user")
}

// ListByOrganization lists one page of an organization's users
func (r *PostgresUserRepository) ListByOrganization(ctx context.Context, organizationID string, page domain.Page) ([]*domain.User, int, error) {
	w := &where{}
	w.add("organization_id = ?", organizationID)
	total, err := count(ctx, r.db, "users", w)
	if err != nil {
		return nil, 0, err
	}

	limit, args := w.page(page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY created_at DESC`+limit, args...)
	if err != nil {
		r.logger.Error("failed to list users by organization",
			slog.String("organization_id", organizationID),
			slog.String("error", err.Error()),
		)
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.logger.Error("failed to scan user row",
				slog.String("error", err.Error()),
			)
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, total, rows.Err()
}
