// Package dbtest 为依赖 gorm 的包提供内存 sqlite。
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"yolo-backend/internal/core/config"
	"yolo-backend/internal/core/database"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.NewGorm(config.DB{
		Driver:   "sqlite",
		DSN:      dsn,
		LogLevel: "silent",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
