package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maimai-tracker/internal/config"
	"maimai-tracker/internal/database"
)

func newTestRepo(t *testing.T) *LocalStateRepository {
	t.Helper()

	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewLocalStateRepository(db, zerolog.Nop())
}

func TestLocalStateRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, repo.Set(ctx, "k", payload{Name: "a", Count: 3}))

	var got payload
	ok, err := repo.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{Name: "a", Count: 3}, got)

	// overwrite
	require.NoError(t, repo.Set(ctx, "k", payload{Name: "b", Count: 4}))
	ok, err = repo.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", got.Name)
}

func TestLocalStateMissingKey(t *testing.T) {
	repo := newTestRepo(t)

	raw, ok, err := repo.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, raw)
}

func TestLocalStateDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "a", 1))
	require.NoError(t, repo.Set(ctx, "b", 2))
	require.NoError(t, repo.Delete(ctx, "a", "b", "never-existed"))

	_, ok, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStateCorruptValueDiscarded(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO local_state (key, value) VALUES ('bad', '{not json')`)
	require.NoError(t, err)

	var out map[string]any
	ok, err := repo.GetJSON(ctx, "bad", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	// the corrupt row is gone
	_, found, err := repo.Get(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, found)
}
