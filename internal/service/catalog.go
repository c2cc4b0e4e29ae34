package service

import (
	"context"
	"strconv"
	"sync"

	"maimai-tracker/internal/api"
	"maimai-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// ProberClient is the slice of the Diving Fish API the services consume.
// *api.DivingFishClient satisfies it; tests substitute fakes.
type ProberClient interface {
	FetchRecords(ctx context.Context, identifier string) (*api.PlayerPayload, error)
	MusicData(ctx context.Context) ([]domain.Song, error)
	ChartStats(ctx context.Context) (map[string][]domain.ChartStat, error)
}

// CatalogService caches the static song catalog and serves id lookups for
// record enrichment and the randomizer.
type CatalogService struct {
	client ProberClient
	logger zerolog.Logger

	mu    sync.RWMutex
	songs []domain.Song
	byID  map[string]domain.Song
}

func NewCatalogService(client ProberClient, logger zerolog.Logger) *CatalogService {
	return &CatalogService{client: client, logger: logger}
}

// Songs returns the catalog, fetching it on first use.
func (s *CatalogService) Songs(ctx context.Context) ([]domain.Song, error) {
	s.mu.RLock()
	cached := s.songs
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	return s.fetch(ctx)
}

// Refresh refetches the catalog unconditionally.
func (s *CatalogService) Refresh(ctx context.Context) error {
	_, err := s.fetch(ctx)
	return err
}

func (s *CatalogService) fetch(ctx context.Context) ([]domain.Song, error) {
	songs, err := s.client.MusicData(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch music data")
		return nil, err
	}

	byID := make(map[string]domain.Song, len(songs))
	for _, song := range songs {
		byID[canonicalID(song.ID)] = song
	}

	s.mu.Lock()
	s.songs = songs
	s.byID = byID
	s.mu.Unlock()

	s.logger.Info().Int("songs", len(songs)).Msg("song catalog loaded")
	return songs, nil
}

// SongByID looks up a catalog entry. String and numeric renditions of the
// same id resolve to the same entry.
func (s *CatalogService) SongByID(id string) (domain.Song, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	song, ok := s.byID[canonicalID(id)]
	return song, ok
}

// SongByNumber is SongByID for the numeric ids carried by score records.
func (s *CatalogService) SongByNumber(id int) (domain.Song, bool) {
	return s.SongByID(strconv.Itoa(id))
}

// ClearMemory drops the cached catalog; the next Songs call refetches.
func (s *CatalogService) ClearMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.songs = nil
	s.byID = nil
}

// canonicalID strips leading zeroes by round-tripping numeric ids, so "00834",
// "834" and 834 all land on the same key.
func canonicalID(id string) string {
	if n, err := strconv.Atoi(id); err == nil {
		return strconv.Itoa(n)
	}
	return id
}
