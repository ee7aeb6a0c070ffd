package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/voxhub/backend/pkg/constants"
)

func TestExistsByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	email := "agent@example.com"
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)", constants.TableUser, constants.FieldEmail)

	// Test Case 1: User exists
	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(email).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), email)
	assert.NoError(t, err)
	assert.True(t, exists)

	// Test Case 2: User does not exist
	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("nobody@example.com").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err = repo.ExistsByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestFindByEmailWithPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "password", "role", "tenant_id", "is_active"}).
		AddRow("user-1", "Ada", "ada@example.com", "$2a$10$hash", string(constants.RoleAgent), "tenant-1", true)

	mock.ExpectQuery("SELECT id, name, email, password").WithArgs("ada@example.com").WillReturnRows(rows)

	u, err := repo.FindByEmailWithPassword(context.Background(), "ada@example.com")
	assert.NoError(t, err)
	assert.NotNil(t, u)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "$2a$10$hash", u.PasswordHash)
	assert.NotNil(t, u.TenantID)
	assert.Equal(t, "tenant-1", *u.TenantID)

	// No match returns nil without error
	mock.ExpectQuery("SELECT id, name, email, password").WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password", "role", "tenant_id", "is_active"}))

	u, err = repo.FindByEmailWithPassword(context.Background(), "ghost@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestFindByIDNullableColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	// Platform admin: tenant_id and last_login_at both NULL
	rows := sqlmock.NewRows([]string{"id", "name", "email", "role", "tenant_id", "is_active", "created_at", "last_login_at"}).
		AddRow("admin-1", "Root", "root@example.com", string(constants.RolePlatformAdmin), nil, true, time.Now(), nil)

	mock.ExpectQuery("SELECT id, name, email, role").WithArgs("admin-1").WillReturnRows(rows)

	u, err := repo.FindByID(context.Background(), "admin-1")
	assert.NoError(t, err)
	assert.NotNil(t, u)
	assert.Nil(t, u.TenantID)
	assert.Nil(t, u.LastLoginAt)
}

func TestFindAllScopedToTenant(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "email", "role", "tenant_id", "is_active", "created_at", "last_login_at"}).
		AddRow("user-1", "Ada", "ada@example.com", string(constants.RoleAgent), "tenant-1", true, now, now).
		AddRow("user-2", "Bo", "bo@example.com", string(constants.RoleSupervisor), "tenant-1", true, now, nil)

	tenantID := "tenant-1"
	mock.ExpectQuery("SELECT id, name, email, role").WithArgs(tenantID).WillReturnRows(rows)

	users, err := repo.FindAll(context.Background(), &tenantID)
	assert.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "user-2", users[1].ID)
	assert.Nil(t, users[1].LastLoginAt)
}

func TestUpdatePassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	query := fmt.Sprintf("UPDATE %s SET password = ? WHERE id = ?", constants.TableUser)
	mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("$2a$10$newhash", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdatePassword(context.Background(), "user-1", "$2a$10$newhash")
	assert.NoError(t, err)
}
