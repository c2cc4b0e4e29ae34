// Package archive implements the versioned saved-collection store shared by
// the preference-board and review features. Each feature keeps a list of
// independent archives plus one active-archive pointer, persisted as JSON
// blobs in local state, with a one-time migration from the pre-archive flat
// layout.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"maimai-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// ErrLastArchive rejects deleting the sole remaining archive; a collection
// always keeps at least one member.
var ErrLastArchive = errors.New("cannot delete the last remaining archive")

type Archive[P any] struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
	Payload   P      `json:"payload"`
}

// Config describes one archived feature: its storage keys, the shape of a
// fresh payload, and how to lift the legacy flat layout into a payload.
type Config[P any] struct {
	CollectionKey string
	ActiveKey     string
	DefaultName   string
	// DefaultPayload builds the payload of a synthesized first archive.
	DefaultPayload func() P
	// LoadLegacy reads the feature's pre-archive layout. The second return
	// is false when no legacy data exists. May be nil for features that
	// never had one.
	LoadLegacy func(ctx context.Context) (P, bool)
}

type Store[P any] struct {
	mu     sync.Mutex
	cfg    Config[P]
	repo   *repository.LocalStateRepository
	logger zerolog.Logger

	archives []Archive[P]
	activeID string
}

// NewStore loads or migrates the collection. The migration strategies run in
// a fixed order, first match wins: versioned data, then the legacy flat
// layout wrapped into a single archive, then a synthesized default.
func NewStore[P any](ctx context.Context, cfg Config[P], repo *repository.LocalStateRepository, logger zerolog.Logger) (*Store[P], error) {
	s := &Store[P]{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With().Str("collection", cfg.CollectionKey).Logger(),
	}

	strategies := []struct {
		name string
		load func(context.Context) bool
	}{
		{"versioned", s.loadVersioned},
		{"legacy", s.loadLegacy},
		{"fresh", s.loadFresh},
	}

	source := ""
	for _, strat := range strategies {
		if strat.load(ctx) {
			source = strat.name
			break
		}
	}
	s.logger.Info().Str("source", source).Int("archives", len(s.archives)).Msg("archive collection loaded")

	// legacy and fresh loads produce versioned data that is not on disk yet
	if source != "versioned" {
		if err := s.persist(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store[P]) loadVersioned(ctx context.Context) bool {
	var archives []Archive[P]
	ok, err := s.repo.GetJSON(ctx, s.cfg.CollectionKey, &archives)
	if err != nil || !ok || len(archives) == 0 {
		return false
	}
	s.archives = archives

	var active string
	if found, err := s.repo.GetJSON(ctx, s.cfg.ActiveKey, &active); err == nil && found && s.find(active) >= 0 {
		s.activeID = active
	} else {
		s.activeID = s.archives[0].ID
	}
	return true
}

func (s *Store[P]) loadLegacy(ctx context.Context) bool {
	if s.cfg.LoadLegacy == nil {
		return false
	}
	payload, ok := s.cfg.LoadLegacy(ctx)
	if !ok {
		return false
	}

	now := time.Now().UnixMilli()
	wrapped := Archive[P]{
		ID:        s.newID(),
		Name:      s.cfg.DefaultName,
		CreatedAt: now,
		UpdatedAt: now,
		Payload:   payload,
	}
	s.archives = []Archive[P]{wrapped}
	s.activeID = wrapped.ID
	s.logger.Info().Msg("migrated legacy flat layout into archive collection")
	return true
}

func (s *Store[P]) loadFresh(context.Context) bool {
	now := time.Now().UnixMilli()
	fresh := Archive[P]{
		ID:        s.newID(),
		Name:      s.cfg.DefaultName,
		CreatedAt: now,
		UpdatedAt: now,
		Payload:   s.cfg.DefaultPayload(),
	}
	s.archives = []Archive[P]{fresh}
	s.activeID = fresh.ID
	return true
}

// Archives returns a copy of the collection.
func (s *Store[P]) Archives() []Archive[P] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Archive[P], len(s.archives))
	copy(out, s.archives)
	return out
}

func (s *Store[P]) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns the active archive.
func (s *Store[P]) Active() (Archive[P], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(s.activeID); i >= 0 {
		return s.archives[i], true
	}
	var zero Archive[P]
	return zero, false
}

// Create appends a new archive and makes it active.
func (s *Store[P]) Create(ctx context.Context, name string, payload P) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("存档 %d", len(s.archives)+1)
	}
	now := time.Now().UnixMilli()
	a := Archive[P]{
		ID:        s.newID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Payload:   payload,
	}
	s.archives = append(s.archives, a)
	s.activeID = a.ID

	if err := s.persist(ctx); err != nil {
		return "", err
	}
	s.logger.Debug().Str("id", a.ID).Str("name", name).Msg("archive created")
	return a.ID, nil
}

// SwitchActive points the collection at another archive. Unknown ids are a
// no-op.
func (s *Store[P]) SwitchActive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(id) < 0 {
		s.logger.Debug().Str("id", id).Msg("switch to unknown archive ignored")
		return nil
	}
	s.activeID = id
	return s.repo.Set(ctx, s.cfg.ActiveKey, s.activeID)
}

func (s *Store[P]) Rename(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(id)
	if i < 0 {
		return nil
	}
	s.archives[i].Name = name
	s.archives[i].UpdatedAt = time.Now().UnixMilli()
	return s.persist(ctx)
}

// Delete removes an archive. Deleting the last remaining archive is rejected
// with ErrLastArchive; deleting the active one reassigns active to the first
// remaining member.
func (s *Store[P]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.archives) <= 1 {
		return ErrLastArchive
	}
	i := s.find(id)
	if i < 0 {
		return nil
	}

	s.archives = append(s.archives[:i], s.archives[i+1:]...)
	if s.activeID == id {
		s.activeID = s.archives[0].ID
	}
	if err := s.persist(ctx); err != nil {
		return err
	}
	s.logger.Debug().Str("id", id).Msg("archive deleted")
	return nil
}

// MutateActive applies fn to the active archive's payload, stamps updatedAt
// and writes the collection through.
func (s *Store[P]) MutateActive(ctx context.Context, fn func(*P)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(s.activeID)
	if i < 0 {
		return nil
	}
	fn(&s.archives[i].Payload)
	s.archives[i].UpdatedAt = time.Now().UnixMilli()
	return s.persist(ctx)
}

func (s *Store[P]) find(id string) int {
	for i, a := range s.archives {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// newID returns a time-derived id, bumped past collisions so rapid creates
// stay unique.
func (s *Store[P]) newID() string {
	ms := time.Now().UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if s.find(id) < 0 {
			return id
		}
		ms++
	}
}

func (s *Store[P]) persist(ctx context.Context) error {
	if err := s.repo.Set(ctx, s.cfg.CollectionKey, s.archives); err != nil {
		return err
	}
	return s.repo.Set(ctx, s.cfg.ActiveKey, s.activeID)
}
