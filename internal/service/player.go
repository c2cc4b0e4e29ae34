package service

import (
	"context"
	"errors"
	"sync"

	"maimai-tracker/internal/api"
	"maimai-tracker/internal/constants"
	"maimai-tracker/internal/domain"
	"maimai-tracker/internal/rating"
	"maimai-tracker/internal/repository"
	"maimai-tracker/internal/vault"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoCredential: a fetch was requested before a token or identifier was
// bound to the session.
var ErrNoCredential = errors.New("no credential bound")

// PlayerService is the session store: it holds the bound credential, the
// player profile and the raw record list, and orchestrates fetch, normalize
// and persist.
type PlayerService struct {
	client  ProberClient
	vault   *vault.Vault
	repo    *repository.LocalStateRepository
	catalog *CatalogService
	stats   *StatsService
	covers  *api.CoverResolver
	logger  zerolog.Logger

	mu        sync.RWMutex
	profile   domain.PlayerProfile
	records   []domain.ScoreRecord
	lastError string
}

func NewPlayerService(
	client ProberClient,
	v *vault.Vault,
	repo *repository.LocalStateRepository,
	catalog *CatalogService,
	stats *StatsService,
	covers *api.CoverResolver,
	logger zerolog.Logger,
) *PlayerService {
	return &PlayerService{
		client:  client,
		vault:   v,
		repo:    repo,
		catalog: catalog,
		stats:   stats,
		covers:  covers,
		logger:  logger,
	}
}

// Load restores the last persisted session snapshot. Safe on first run: a
// missing or corrupt snapshot simply leaves the session empty.
func (s *PlayerService) Load(ctx context.Context) error {
	var profile domain.PlayerProfile
	var records []domain.ScoreRecord

	if _, err := s.repo.GetJSON(ctx, constants.KeyProfile, &profile); err != nil {
		return err
	}
	if _, err := s.repo.GetJSON(ctx, constants.KeyRecords, &records); err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = profile
	s.records = records
	s.mu.Unlock()

	s.logger.Info().Str("nickname", profile.Nickname).Int("records", len(records)).Msg("session restored")
	return nil
}

// SetCredential seals and persists the prober token.
func (s *PlayerService) SetCredential(ctx context.Context, token string) error {
	sealed, err := s.vault.Seal(token)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, constants.KeyToken, sealed)
}

// Credential returns the bound token, if any. An unreadable sealed value is
// treated as absent.
func (s *PlayerService) Credential(ctx context.Context) (string, bool) {
	var sealed string
	ok, err := s.repo.GetJSON(ctx, constants.KeyToken, &sealed)
	if err != nil || !ok {
		return "", false
	}
	token, err := s.vault.Open(sealed)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stored credential unreadable, discarding")
		return "", false
	}
	return token, true
}

// ClearCredential erases the credential and wipes the cached profile and
// records, both in memory and on disk.
func (s *PlayerService) ClearCredential(ctx context.Context) error {
	if err := s.repo.Delete(ctx, constants.KeyToken, constants.KeyProfile, constants.KeyRecords); err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = domain.PlayerProfile{}
	s.records = nil
	s.lastError = ""
	s.mu.Unlock()

	s.logger.Info().Msg("session cleared")
	return nil
}

// FetchProfile fetches the player payload for the given identifier (or the
// bound credential when empty), normalizes it and persists the snapshot. On
// failure the user-facing message is recorded and the error returned; the
// session state is left untouched.
func (s *PlayerService) FetchProfile(ctx context.Context, identifier string) error {
	if identifier == "" {
		token, ok := s.Credential(ctx)
		if !ok {
			return ErrNoCredential
		}
		identifier = token
	}

	fetchCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	payload, err := s.client.FetchRecords(fetchCtx, identifier)
	if err != nil {
		msg := userMessage(err)
		s.mu.Lock()
		s.lastError = msg
		s.mu.Unlock()
		s.logger.Error().Err(err).Msg("failed to fetch player records")
		return err
	}

	profile, records := normalizePayload(payload)

	if err := s.repo.Set(ctx, constants.KeyProfile, profile); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, constants.KeyRecords, records); err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = profile
	s.records = records
	s.lastError = ""
	s.mu.Unlock()

	s.logger.Info().
		Str("nickname", profile.Nickname).
		Int("rating", profile.Rating).
		Int("records", len(records)).
		Msg("player profile fetched")
	return nil
}

// normalizePayload resolves the two historical payload shapes once, at the
// session boundary: b50 queries deliver charts buckets, token fetches a flat
// records list.
func normalizePayload(payload *api.PlayerPayload) (domain.PlayerProfile, []domain.ScoreRecord) {
	profile := domain.PlayerProfile{
		Nickname: payload.Nickname,
		Rating:   payload.Rating,
		Title:    payload.Plate,
	}
	if profile.Nickname == "" {
		profile.Nickname = payload.Username
	}

	var records []domain.ScoreRecord
	switch {
	case payload.Charts != nil:
		records = append(records, tagRecords(payload.Charts.DX, "DX")...)
		records = append(records, tagRecords(payload.Charts.SD, "SD")...)
	case payload.Records != nil:
		records = payload.Records
	}
	return profile, records
}

func tagRecords(records []domain.ScoreRecord, chartType string) []domain.ScoreRecord {
	for i := range records {
		if records[i].Type == "" {
			records[i].Type = chartType
		}
	}
	return records
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, api.ErrNotFound):
		return "用户不存在"
	case errors.Is(err, api.ErrForbidden):
		return "用户已设置隐私或未同意用户协议"
	default:
		return "获取数据失败，请检查用户名或QQ号"
	}
}

// Profile returns the current session profile.
func (s *PlayerService) Profile() domain.PlayerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Records returns a copy of the raw record list.
func (s *PlayerService) Records() []domain.ScoreRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoreRecord, len(s.records))
	copy(out, s.records)
	return out
}

// LastError returns the user-facing message of the last failed fetch.
func (s *PlayerService) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Best50 enriches the session records against the song catalog and aggregates
// them under the given split policy. A missing catalog degrades to raw record
// fields.
func (s *PlayerService) Best50(ctx context.Context, policy rating.SplitPolicy) rating.Best50 {
	if _, err := s.catalog.Songs(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("song catalog unavailable, enriching from raw records")
	}

	records := s.Records()
	enriched := make([]domain.EnrichedRecord, 0, len(records))
	for _, rec := range records {
		enriched = append(enriched, rating.Enrich(rec, s.catalog, nil))
	}
	return rating.Aggregate(enriched, policy)
}

// FitResult is the fit-difficulty rendition of the best-50.
type FitResult struct {
	Records []domain.EnrichedRecord `json:"records"`
	Best    rating.Best50           `json:"best"`
}

// FitBest50 recomputes every record against the community fit difficulties
// and aggregates with the historical chart-type split. Records are fetched
// first if the session has none.
func (s *PlayerService) FitBest50(ctx context.Context) (FitResult, error) {
	if len(s.Records()) == 0 {
		if err := s.FetchProfile(ctx, ""); err != nil {
			return FitResult{}, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.catalog.Songs(gctx)
		return err
	})
	g.Go(func() error {
		s.stats.Load(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Msg("song catalog unavailable for fit calculation")
	}

	records := s.Records()
	enriched := make([]domain.EnrichedRecord, 0, len(records))
	for _, rec := range records {
		enriched = append(enriched, rating.Enrich(rec, s.catalog, s.stats))
	}

	return FitResult{
		Records: enriched,
		Best:    rating.Aggregate(enriched, rating.SplitByType),
	}, nil
}

// RefreshMusic refetches the song catalog.
func (s *PlayerService) RefreshMusic(ctx context.Context) error {
	return s.catalog.Refresh(ctx)
}

// CacheScope selects what ClearCache invalidates.
const (
	ScopeMusic   = "music"
	ScopeRecords = "records"
	ScopeOther   = "other"
	ScopeAll     = "all"
)

// ClearCache invalidates one scope of cached state. Unknown scopes are a
// no-op.
func (s *PlayerService) ClearCache(ctx context.Context, scope string) error {
	switch scope {
	case ScopeMusic:
		return s.clearMusic()
	case ScopeRecords:
		return s.clearRecords(ctx)
	case ScopeOther:
		return s.clearOther(ctx)
	case ScopeAll:
		if err := s.clearMusic(); err != nil {
			return err
		}
		if err := s.clearRecords(ctx); err != nil {
			return err
		}
		return s.clearOther(ctx)
	default:
		s.logger.Debug().Str("scope", scope).Msg("unknown cache scope ignored")
		return nil
	}
}

func (s *PlayerService) clearMusic() error {
	s.catalog.ClearMemory()
	s.stats.ClearMemory()
	return nil
}

func (s *PlayerService) clearRecords(ctx context.Context) error {
	if err := s.repo.Delete(ctx, constants.KeyProfile, constants.KeyRecords); err != nil {
		return err
	}
	s.mu.Lock()
	s.profile = domain.PlayerProfile{}
	s.records = nil
	s.mu.Unlock()
	return nil
}

func (s *PlayerService) clearOther(ctx context.Context) error {
	s.covers.Reset()
	return s.repo.Delete(ctx, constants.KeyRandomHistory)
}
