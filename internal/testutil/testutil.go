// Package testutil provides an in-memory database seeded with two companies
// trading with each other.
package testutil

import (
	"fmt"
	"regexp"
	"testing"

	"intercompany/internal/database"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Password is the login secret of every seeded user.
const Password = "secret123"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// NewDB opens a migrated sqlite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", unsafeName.ReplaceAllString(t.Name(), "_"))
	db, err := database.Open(sqlite.Open(dsn), gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Seed loads the demo companies into db.
func Seed(t *testing.T, db *gorm.DB) *database.Demo {
	t.Helper()

	demo, err := database.SeedDemo(db, Password, bcrypt.MinCost)
	require.NoError(t, err)
	return demo
}
