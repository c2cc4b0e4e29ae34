package service

import (
	"context"
	"strconv"
	"sync"

	"maimai-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// StatsService caches the community chart statistics. A failed fetch degrades
// to an empty mapping so rating computation can proceed on raw difficulties.
type StatsService struct {
	client ProberClient
	logger zerolog.Logger

	mu     sync.RWMutex
	charts map[string][]domain.ChartStat
}

func NewStatsService(client ProberClient, logger zerolog.Logger) *StatsService {
	return &StatsService{client: client, logger: logger}
}

// Load fetches the statistics on first use. It never fails: on error the
// cache becomes an empty mapping.
func (s *StatsService) Load(ctx context.Context) {
	s.mu.RLock()
	loaded := s.charts != nil
	s.mu.RUnlock()
	if loaded {
		return
	}

	charts, err := s.client.ChartStats(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("chart stats unavailable, degrading to raw difficulties")
		charts = map[string][]domain.ChartStat{}
	} else {
		s.logger.Info().Int("songs", len(charts)).Msg("chart stats loaded")
	}

	s.mu.Lock()
	s.charts = charts
	s.mu.Unlock()
}

// FitDiff returns the community fit difficulty for a chart. Absence is
// normal and reported through the second return.
func (s *StatsService) FitDiff(songID, levelIndex int) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.charts[strconv.Itoa(songID)]
	if !ok || levelIndex < 0 || levelIndex >= len(stats) {
		return 0, false
	}
	if stats[levelIndex].FitDiff == nil {
		return 0, false
	}
	return *stats[levelIndex].FitDiff, true
}

// AvgAchievement returns the community average achievement for a chart.
func (s *StatsService) AvgAchievement(songID, levelIndex int) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.charts[strconv.Itoa(songID)]
	if !ok || levelIndex < 0 || levelIndex >= len(stats) {
		return 0, false
	}
	return stats[levelIndex].Avg, true
}

// ClearMemory drops the cached statistics; the next Load refetches.
func (s *StatsService) ClearMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charts = nil
}
