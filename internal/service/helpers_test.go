package service

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"amanai-be/internal/model"
	"amanai-be/internal/repository/unitofwork"
	"amanai-be/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func newTestFactory(t *testing.T) unitofwork.RepositoryFactory {
	t.Helper()
	db, err := database.NewGormDB(database.DriverSQLite, filepath.Join(t.TempDir(), "amanai.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Encounter{}, &model.Report{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return unitofwork.NewRepositoryFactory(db)
}

// testClock advances one second per call so timestamps are strictly ordered.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}
