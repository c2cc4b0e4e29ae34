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

func TestReviewAddAssignsIDAndStamp(t *testing.T) {
	svc, err := NewReviewService(newTestRepo(t), zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	id, err := svc.AddReview(ctx, domain.Review{SongID: 834, Score: 4.5, Comment: "好玩"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	reviews := svc.Reviews()
	require.Len(t, reviews, 1)
	assert.Equal(t, id, reviews[0].ID)
	assert.NotZero(t, reviews[0].CreatedAt)
}

func TestReviewUpdateKeepsCreationStamp(t *testing.T) {
	svc, err := NewReviewService(newTestRepo(t), zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	id, err := svc.AddReview(ctx, domain.Review{SongID: 834, Comment: "first"})
	require.NoError(t, err)
	created := svc.Reviews()[0].CreatedAt

	require.NoError(t, svc.UpdateReview(ctx, domain.Review{ID: id, SongID: 834, Comment: "edited", Score: 5}))

	reviews := svc.Reviews()
	require.Len(t, reviews, 1)
	assert.Equal(t, "edited", reviews[0].Comment)
	assert.Equal(t, created, reviews[0].CreatedAt)
}

func TestReviewRemoveAndClear(t *testing.T) {
	svc, err := NewReviewService(newTestRepo(t), zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	a, err := svc.AddReview(ctx, domain.Review{SongID: 1})
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, domain.Review{SongID: 2})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveReview(ctx, a))
	require.Len(t, svc.Reviews(), 1)
	assert.Equal(t, 2, svc.Reviews()[0].SongID)

	// unknown id is a no-op
	require.NoError(t, svc.RemoveReview(ctx, "ghost"))
	require.Len(t, svc.Reviews(), 1)

	require.NoError(t, svc.ClearReviews(ctx))
	assert.Empty(t, svc.Reviews())
}

func TestReviewArchivesIndependent(t *testing.T) {
	repo := newTestRepo(t)
	svc, err := NewReviewService(repo, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	first := svc.ActiveID()
	_, err = svc.AddReview(ctx, domain.Review{SongID: 1})
	require.NoError(t, err)

	_, err = svc.CreateArchive(ctx, "second")
	require.NoError(t, err)
	assert.Empty(t, svc.Reviews())

	require.NoError(t, svc.SwitchArchive(ctx, first))
	assert.Len(t, svc.Reviews(), 1)
}

func TestReviewLegacyMigration(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	legacy := []domain.Review{
		{ID: "r1", SongID: 834, Comment: "旧评论"},
	}
	require.NoError(t, repo.Set(ctx, constants.KeyLegacyReviews, legacy))

	svc, err := NewReviewService(repo, zerolog.Nop())
	require.NoError(t, err)

	reviews := svc.Reviews()
	require.Len(t, reviews, 1)
	assert.Equal(t, "旧评论", reviews[0].Comment)

	// versioned data now wins over later legacy edits
	require.NoError(t, repo.Set(ctx, constants.KeyLegacyReviews, []domain.Review{{ID: "r2"}}))
	reloaded, err := NewReviewService(repo, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, reloaded.Reviews(), 1)
	assert.Equal(t, "r1", reloaded.Reviews()[0].ID)
}
