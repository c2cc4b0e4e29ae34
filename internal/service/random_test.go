package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maimai-tracker/internal/constants"
	"maimai-tracker/internal/domain"
)

func newTestRandomService(t *testing.T, songs []domain.Song) *RandomService {
	t.Helper()
	catalog := NewCatalogService(&fakeClient{songs: songs}, zerolog.Nop())
	return NewRandomService(catalog, newTestRepo(t), zerolog.Nop())
}

func catalogSong(id, title, genre, from, chartType string, ds ...float64) domain.Song {
	return domain.Song{
		ID:    id,
		Title: title,
		Type:  chartType,
		DS:    ds,
		Level: []string{"1", "2", "3", "4", "5"}[:len(ds)],
		BasicInfo: domain.BasicInfo{
			Genre: genre,
			From:  from,
		},
	}
}

func TestRollPicksOnlyMatchingCharts(t *testing.T) {
	songs := []domain.Song{
		catalogSong("1", "low", "POPS", "maimai", "SD", 3.0, 5.0, 7.0),
		catalogSong("2", "high", "POPS", "maimai", "SD", 11.0, 13.0, 14.5),
	}
	svc := newTestRandomService(t, songs)

	filters := domain.RandomFilters{LevelMin: 13.0, LevelMax: 15.0, Type: "ALL"}
	for i := 0; i < 10; i++ {
		got, err := svc.Roll(context.Background(), filters)
		require.NoError(t, err)
		assert.Equal(t, "high", got.Song.Title)
		assert.GreaterOrEqual(t, got.DS, 13.0)
		assert.LessOrEqual(t, got.DS, 15.0)
	}
}

func TestRollFiltersByTypeVersionGenre(t *testing.T) {
	songs := []domain.Song{
		catalogSong("1", "sd-pop", "POPS", "maimai PiNK", "SD", 10.0),
		catalogSong("2", "dx-pop", "POPS", "maimai でらっくす", "DX", 10.0),
		catalogSong("3", "dx-game", "GAME", "maimai でらっくす", "DX", 10.0),
	}
	svc := newTestRandomService(t, songs)
	ctx := context.Background()

	got, err := svc.Roll(ctx, domain.RandomFilters{
		LevelMin: 1, LevelMax: 15,
		Type:     "DX",
		Genres:   []string{"POPS"},
		Versions: []string{"maimai でらっくす"},
	})
	require.NoError(t, err)
	assert.Equal(t, "dx-pop", got.Song.Title)
}

func TestRollNoCandidates(t *testing.T) {
	svc := newTestRandomService(t, []domain.Song{
		catalogSong("1", "x", "POPS", "maimai", "SD", 5.0),
	})

	_, err := svc.Roll(context.Background(), domain.RandomFilters{LevelMin: 14, LevelMax: 15})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestRollHistoryNewestFirstAndCapped(t *testing.T) {
	svc := newTestRandomService(t, []domain.Song{
		catalogSong("1", "only", "POPS", "maimai", "SD", 10.0),
	})
	ctx := context.Background()
	filters := domain.RandomFilters{LevelMin: 1, LevelMax: 15}

	for i := 0; i < constants.RandomHistoryLimit+5; i++ {
		_, err := svc.Roll(ctx, filters)
		require.NoError(t, err)
	}

	history, err := svc.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, constants.RandomHistoryLimit)
	for i := 1; i < len(history); i++ {
		assert.GreaterOrEqual(t, history[i-1].Timestamp, history[i].Timestamp)
	}
}
