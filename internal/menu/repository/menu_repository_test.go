package repository

import (
	"context"
	"database/sql"
	"testing"

	apperrors "canteen/internal/errors"
	"canteen/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMenuRepo(t *testing.T) (*MySQLMenuRepository, *sql.DB) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	return NewMySQLMenuRepository(db), db
}

func insertMenuItem(t *testing.T, db *sql.DB, id, name, category string, price float64, available, deleted bool) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO menu_items (id, name, description, price, category, is_available, is_deleted)
		VALUES (?, ?, '', ?, ?, ?, ?)
	`, id, name, price, category, available, deleted)
	require.NoError(t, err)
}

func TestMenuRepository_FindByID(t *testing.T) {
	repo, db := setupMenuRepo(t)
	insertMenuItem(t, db, "item-1", "Fried Rice", "mains", 100, true, false)

	item, err := repo.FindByID(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Fried Rice", item.Name)
	assert.Equal(t, 100.0, item.Price)
	assert.True(t, item.IsAvailable)
}

func TestMenuRepository_FindByID_MissingIsNotFound(t *testing.T) {
	repo, _ := setupMenuRepo(t)

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestMenuRepository_FindByID_DeletedIsNotFound(t *testing.T) {
	repo, db := setupMenuRepo(t)
	insertMenuItem(t, db, "item-gone", "Old Dish", "mains", 80, true, true)

	_, err := repo.FindByID(context.Background(), "item-gone")
	require.Error(t, err)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestMenuRepository_ListFiltersAvailability(t *testing.T) {
	repo, db := setupMenuRepo(t)
	insertMenuItem(t, db, "item-1", "Fried Rice", "mains", 100, true, false)
	insertMenuItem(t, db, "item-2", "Iced Tea", "drinks", 50, true, false)
	insertMenuItem(t, db, "item-3", "Seasonal Soup", "mains", 30, false, false)

	all, err := repo.List(context.Background(), "", false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	available, err := repo.List(context.Background(), "", true)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	mains, err := repo.List(context.Background(), "mains", true)
	require.NoError(t, err)
	require.Len(t, mains, 1)
	assert.Equal(t, "Fried Rice", mains[0].Name)
}
