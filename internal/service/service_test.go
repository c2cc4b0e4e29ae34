package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"maimai-tracker/internal/api"
	"maimai-tracker/internal/config"
	"maimai-tracker/internal/database"
	"maimai-tracker/internal/domain"
	"maimai-tracker/internal/repository"
	"maimai-tracker/internal/vault"
)

// fakeClient substitutes the Diving Fish API in tests.
type fakeClient struct {
	payload  *api.PlayerPayload
	fetchErr error

	songs      []domain.Song
	musicErr   error
	musicCalls int

	stats    map[string][]domain.ChartStat
	statsErr error
}

func (f *fakeClient) FetchRecords(ctx context.Context, identifier string) (*api.PlayerPayload, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.payload, nil
}

func (f *fakeClient) MusicData(ctx context.Context) ([]domain.Song, error) {
	f.musicCalls++
	if f.musicErr != nil {
		return nil, f.musicErr
	}
	return f.songs, nil
}

func (f *fakeClient) ChartStats(ctx context.Context) (map[string][]domain.ChartStat, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func newTestRepo(t *testing.T) *repository.LocalStateRepository {
	t.Helper()

	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return repository.NewLocalStateRepository(db, zerolog.Nop())
}

func newTestPlayerService(t *testing.T, client *fakeClient, repo *repository.LocalStateRepository) *PlayerService {
	t.Helper()

	catalog := NewCatalogService(client, zerolog.Nop())
	stats := NewStatsService(client, zerolog.Nop())
	return NewPlayerService(
		client,
		vault.New("test-secret"),
		repo,
		catalog,
		stats,
		api.NewCoverResolver(),
		zerolog.Nop(),
	)
}
