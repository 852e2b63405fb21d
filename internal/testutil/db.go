// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"backoffice/internal/database"
	"backoffice/internal/model"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory sqlite database. A single connection
// keeps the in-memory schema alive; transactional code must therefore use
// the transaction from its context for every query.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), database.GormConfig(zap.NewNop(), "silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user with the given level and permissions. The
// password is always "secret123".
func CreateUser(t *testing.T, db *gorm.DB, email, level string, perms map[string]bool) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	if perms == nil {
		perms = map[string]bool{}
	}
	u := &model.User{
		Name:        email,
		Email:       email,
		Password:    string(hash),
		Level:       level,
		Permissions: perms,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
