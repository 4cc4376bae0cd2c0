package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alexanderramin/learnpath/internal/db"
	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newConcurrentTestDB creates a file-backed SQLite database in a temp directory
// so that WAL mode is actually in effect.
func newConcurrentTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "concurrent_test.db")
	database, err := db.OpenDB(dbPath)
	require.NoError(t, err, "failed to create concurrent test database")
	t.Cleanup(func() { database.Close() })
	return database
}

// TestConcurrentAccess_UpsertsFromManyWriters mirrors the progress store's
// drainer running alongside a migration upload: several goroutines upsert
// rows for the same user while readers list them.
func TestConcurrentAccess_UpsertsFromManyWriters(t *testing.T) {
	database := newConcurrentTestDB(t)
	ctx := context.Background()

	courses := NewSQLiteCourseProgressRepo(database)
	modules := NewSQLiteModuleProgressRepo(database)

	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				courseID := fmt.Sprintf("course-%d-%d", w, i)
				cp := testutil.NewTestCourseProgress(courseID, testutil.WithStatus(domain.CourseInProgress))
				if err := courses.Upsert(ctx, "u1", cp); err != nil {
					errs <- err
					return
				}
				if err := modules.Upsert(ctx, "u1", testutil.NewTestMasteredModule(courseID+"-m1")); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			if _, err := courses.ListByUser(ctx, "u1"); err != nil {
				errs <- err
				return
			}
		}
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := courses.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 20)

	mastered, err := modules.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mastered, 20)
}
