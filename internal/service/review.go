package service

import (
	"context"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"maimai-tracker/internal/archive"
	"maimai-tracker/internal/constants"
	"maimai-tracker/internal/domain"
	"maimai-tracker/internal/repository"
)

// ReviewService manages the song-review archives.
type ReviewService struct {
	store  *archive.Store[domain.ReviewList]
	logger zerolog.Logger
}

func NewReviewService(repo *repository.LocalStateRepository, logger zerolog.Logger) (*ReviewService, error) {
	cfg := archive.Config[domain.ReviewList]{
		CollectionKey:  constants.KeyReviewArchives,
		ActiveKey:      constants.KeyReviewActive,
		DefaultName:    "默认存档",
		DefaultPayload: func() domain.ReviewList { return domain.ReviewList{} },
		LoadLegacy: func(ctx context.Context) (domain.ReviewList, bool) {
			var reviews []domain.Review
			ok, err := repo.GetJSON(ctx, constants.KeyLegacyReviews, &reviews)
			if err != nil || !ok {
				return domain.ReviewList{}, false
			}
			return domain.ReviewList{Reviews: reviews}, true
		},
	}

	store, err := archive.NewStore(context.Background(), cfg, repo, logger)
	if err != nil {
		return nil, err
	}
	return &ReviewService{store: store, logger: logger}, nil
}

func (s *ReviewService) Archives() []archive.Archive[domain.ReviewList] {
	return s.store.Archives()
}

func (s *ReviewService) ActiveID() string {
	return s.store.ActiveID()
}

// Reviews returns the active archive's review list.
func (s *ReviewService) Reviews() []domain.Review {
	active, ok := s.store.Active()
	if !ok {
		return nil
	}
	return active.Payload.Reviews
}

func (s *ReviewService) CreateArchive(ctx context.Context, name string) (string, error) {
	return s.store.Create(ctx, name, domain.ReviewList{})
}

func (s *ReviewService) SwitchArchive(ctx context.Context, id string) error {
	return s.store.SwitchActive(ctx, id)
}

func (s *ReviewService) RenameArchive(ctx context.Context, id, name string) error {
	return s.store.Rename(ctx, id, name)
}

func (s *ReviewService) DeleteArchive(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// AddReview appends a review to the active archive, assigning an id and
// creation stamp when absent.
func (s *ReviewService) AddReview(ctx context.Context, review domain.Review) (string, error) {
	if review.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return "", err
		}
		review.ID = id
	}
	if review.CreatedAt == 0 {
		review.CreatedAt = time.Now().UnixMilli()
	}

	err := s.store.MutateActive(ctx, func(list *domain.ReviewList) {
		list.Reviews = append(list.Reviews, review)
	})
	if err != nil {
		return "", err
	}
	return review.ID, nil
}

// RemoveReview deletes a review from the active archive. Unknown ids are a
// no-op.
func (s *ReviewService) RemoveReview(ctx context.Context, id string) error {
	return s.store.MutateActive(ctx, func(list *domain.ReviewList) {
		for i, r := range list.Reviews {
			if r.ID == id {
				list.Reviews = append(list.Reviews[:i], list.Reviews[i+1:]...)
				return
			}
		}
	})
}

// UpdateReview replaces the stored review with the same id, keeping the
// original creation stamp.
func (s *ReviewService) UpdateReview(ctx context.Context, updated domain.Review) error {
	return s.store.MutateActive(ctx, func(list *domain.ReviewList) {
		for i, r := range list.Reviews {
			if r.ID == updated.ID {
				updated.CreatedAt = r.CreatedAt
				list.Reviews[i] = updated
				return
			}
		}
	})
}

// ClearReviews empties the active archive.
func (s *ReviewService) ClearReviews(ctx context.Context) error {
	return s.store.MutateActive(ctx, func(list *domain.ReviewList) {
		list.Reviews = nil
	})
}
