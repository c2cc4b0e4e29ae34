package service

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"time"

	"maimai-tracker/internal/constants"
	"maimai-tracker/internal/domain"
	"maimai-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// ErrNoCandidates: no chart in the catalog matches the roll filters.
var ErrNoCandidates = errors.New("no songs match the filters")

// RandomService rolls a random chart from the catalog under user filters and
// keeps a short persisted roll history.
type RandomService struct {
	catalog *CatalogService
	repo    *repository.LocalStateRepository
	logger  zerolog.Logger
}

func NewRandomService(catalog *CatalogService, repo *repository.LocalStateRepository, logger zerolog.Logger) *RandomService {
	return &RandomService{catalog: catalog, repo: repo, logger: logger}
}

// Roll picks a uniform random song among the filter matches, then a uniform
// random difficulty slot within the level range.
func (s *RandomService) Roll(ctx context.Context, filters domain.RandomFilters) (domain.RandomResult, error) {
	songs, err := s.catalog.Songs(ctx)
	if err != nil {
		return domain.RandomResult{}, err
	}

	var candidates []domain.Song
	for _, song := range songs {
		if matchesFilters(song, filters) {
			candidates = append(candidates, song)
		}
	}
	if len(candidates) == 0 {
		return domain.RandomResult{}, ErrNoCandidates
	}

	song := candidates[rand.Intn(len(candidates))]

	var validDiffs []int
	for i, ds := range song.DS {
		if ds >= filters.LevelMin && ds <= filters.LevelMax {
			validDiffs = append(validDiffs, i)
		}
	}
	diffIndex := validDiffs[rand.Intn(len(validDiffs))]

	result := domain.RandomResult{
		Song:      song,
		DiffIndex: diffIndex,
		DS:        song.DS[diffIndex],
		Timestamp: time.Now().UnixMilli(),
	}
	if diffIndex < len(song.Level) {
		result.Level = song.Level[diffIndex]
	}

	if err := s.pushHistory(ctx, result); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist roll history")
	}

	s.logger.Debug().Str("song", song.Title).Int("diff", diffIndex).Msg("rolled random chart")
	return result, nil
}

func matchesFilters(song domain.Song, f domain.RandomFilters) bool {
	if len(f.Genres) > 0 && !slices.Contains(f.Genres, song.BasicInfo.Genre) {
		return false
	}
	if len(f.Versions) > 0 && !slices.Contains(f.Versions, song.BasicInfo.From) {
		return false
	}
	if f.Type != "" && f.Type != "ALL" && song.Type != f.Type {
		return false
	}
	for _, ds := range song.DS {
		if ds >= f.LevelMin && ds <= f.LevelMax {
			return true
		}
	}
	return false
}

// History returns the persisted roll history, newest first.
func (s *RandomService) History(ctx context.Context) ([]domain.RandomResult, error) {
	var history []domain.RandomResult
	if _, err := s.repo.GetJSON(ctx, constants.KeyRandomHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *RandomService) pushHistory(ctx context.Context, result domain.RandomResult) error {
	history, err := s.History(ctx)
	if err != nil {
		return err
	}

	history = append([]domain.RandomResult{result}, history...)
	if len(history) > constants.RandomHistoryLimit {
		history = history[:constants.RandomHistoryLimit]
	}
	return s.repo.Set(ctx, constants.KeyRandomHistory, history)
}
