package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/records/internal/config"
	"github.com/JonMunkholm/records/internal/record"
	"github.com/JonMunkholm/records/internal/store"
	"github.com/JonMunkholm/records/internal/store/storetest"
)

func newTestRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	return repo
}

func TestRepository(t *testing.T) {
	storetest.Run(t, newTestRepo)
}

func TestOpen_InMemory(t *testing.T) {
	repo, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.Save(context.Background(), record.Record{Name: "mem"})
	require.NoError(t, err)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	repo, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = repo.Save(ctx, record.Record{Name: "persisted", Attributes: []record.CustomAttribute{record.Text("k", "v")}})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = Open(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "persisted", all[0].Name)
	assert.Equal(t, "v", all[0].Attributes[0].Value)
}

func TestStoreOpen_Registered(t *testing.T) {
	assert.Contains(t, store.Drivers(), config.DriverSQLite)

	repo, err := store.Open(context.Background(), config.DatabaseConfig{
		Driver: "SQLite",
		URL:    filepath.Join(t.TempDir(), "via-registry.db"),
	})
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Ping(context.Background()))
}

func TestStoreOpen_UnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database driver")
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"data.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		dsn("sqlite://data.db"))
	assert.Equal(t,
		"file:x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		dsn("file:x.db?mode=rwc"))
}
