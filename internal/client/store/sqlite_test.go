package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stayonbrand/gatekeeper/internal/common"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:sessionstore?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE session (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestGet_MissingKey(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Get(context.Background(), KeyAccessToken)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSetGet_RoundTrip(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyAccessToken, "tok-1"))

	got, err := r.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "tok-1", got)

	// overwrite
	require.NoError(t, r.Set(ctx, KeyAccessToken, "tok-2"))
	got, err = r.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "tok-2", got)
}

func TestDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyRememberMe, "true"))
	require.NoError(t, r.Delete(ctx, KeyRememberMe))

	_, err := r.Get(ctx, KeyRememberMe)
	require.ErrorIs(t, err, common.ErrorNotFound)

	// deleting an absent key is not an error
	require.NoError(t, r.Delete(ctx, KeyRememberMe))
}

func TestClear_RemovesEverything(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, k := range []string{KeyAccessToken, KeyUserData, KeyAuthExpiry, KeyRememberMe} {
		require.NoError(t, r.Set(ctx, k, "x"))
	}
	require.NoError(t, r.Clear(ctx))

	for _, k := range []string{KeyAccessToken, KeyUserData, KeyAuthExpiry, KeyRememberMe} {
		_, err := r.Get(ctx, k)
		require.ErrorIs(t, err, common.ErrorNotFound, k)
	}
}

func TestInitDatabase_AppliesMigrations(t *testing.T) {
	db, err := InitDatabase(context.Background(), "file:migrated?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r := NewSQLiteRepository(db)
	require.NoError(t, r.Set(context.Background(), KeyAccessToken, "tok"))
}
