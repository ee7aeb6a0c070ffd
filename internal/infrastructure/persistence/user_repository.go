package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)", constants.TableUser, constants.FieldEmail)
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UserWithPassword extends User with the password hash for auth checks
type UserWithPassword struct {
	models.User
	PasswordHash string
}

// FindByEmailWithPassword retrieves a user and their password hash by email.
// Returns nil when no user matches.
func (r *UserRepository) FindByEmailWithPassword(ctx context.Context, email string) (*UserWithPassword, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password, role, tenant_id, is_active
		FROM %s
		WHERE email = ? LIMIT 1`,
		constants.TableUser)

	var u UserWithPassword
	var password, tenantID sql.NullString

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Name, &u.Email, &password, &u.Role, &tenantID, &u.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if password.Valid {
		u.PasswordHash = password.String
	}
	if tenantID.Valid {
		u.TenantID = &tenantID.String
	}
	return &u, nil
}

// FindByID fetches basic user info. Returns nil when no user matches.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, role, tenant_id, is_active, created_at, last_login_at
		FROM %s
		WHERE id = ? LIMIT 1`,
		constants.TableUser)

	var u models.User
	var tenantID sql.NullString
	var lastLogin sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &tenantID, &u.IsActive, &u.CreatedAt, &lastLogin)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if tenantID.Valid {
		u.TenantID = &tenantID.String
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return &u, nil
}

// FindAll retrieves users. A nil tenantID returns all users (platform admin
// view); otherwise only users of that tenant.
func (r *UserRepository) FindAll(ctx context.Context, tenantID *string) ([]*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, role, tenant_id, is_active, created_at, last_login_at
		FROM %s`, constants.TableUser)

	var args []interface{}
	if tenantID != nil {
		query += fmt.Sprintf(" WHERE %s = ?", constants.FieldTenantID)
		args = append(args, *tenantID)
	}
	query += fmt.Sprintf(" ORDER BY %s DESC", constants.FieldCreatedAt)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		var u models.User
		var tid sql.NullString
		var lastLogin sql.NullTime

		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &tid, &u.IsActive, &u.CreatedAt, &lastLogin); err != nil {
			return nil, err
		}
		if tid.Valid {
			u.TenantID = &tid.String
		}
		if lastLogin.Valid {
			u.LastLoginAt = &lastLogin.Time
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// Insert creates a user row with the given password hash.
func (r *UserRepository) Insert(ctx context.Context, u *models.User, passwordHash string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, email, password, role, tenant_id, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableUser)

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, passwordHash, u.Role, u.TenantID, u.IsActive, u.CreatedAt)
	return err
}

// Update applies a partial update to a user row.
func (r *UserRepository) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := []string{}
	args := []interface{}{}

	for k, v := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", k))
		args = append(args, v)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		constants.TableUser, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, userID)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// UpdatePassword updates the user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := fmt.Sprintf("UPDATE %s SET password = ? WHERE id = ?", constants.TableUser)
	_, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return err
}

// TouchLastLogin stamps the last successful login time.
func (r *UserRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
		constants.TableUser, constants.FieldLastLoginAt, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, at, userID)
	return err
}

// Delete removes a user row.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableUser, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
