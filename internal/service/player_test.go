package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maimai-tracker/internal/api"
	"maimai-tracker/internal/domain"
	"maimai-tracker/internal/rating"
)

func TestFetchProfileNormalizesChartBuckets(t *testing.T) {
	client := &fakeClient{payload: &api.PlayerPayload{
		Nickname: "player",
		Rating:   12345,
		Plate:    "舞神",
		Charts: &api.ChartBuckets{
			DX: []domain.ScoreRecord{{SongID: 11102, Achievements: 100.1}},
			SD: []domain.ScoreRecord{{SongID: 834, Achievements: 99.0, Type: "SD"}},
		},
	}}
	svc := newTestPlayerService(t, client, newTestRepo(t))

	require.NoError(t, svc.FetchProfile(context.Background(), "sometoken"))

	profile := svc.Profile()
	assert.Equal(t, "player", profile.Nickname)
	assert.Equal(t, 12345, profile.Rating)
	assert.Equal(t, "舞神", profile.Title)

	records := svc.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "DX", records[0].Type)
	assert.Equal(t, "SD", records[1].Type)
	assert.Empty(t, svc.LastError())
}

func TestFetchProfileNormalizesFlatRecords(t *testing.T) {
	client := &fakeClient{payload: &api.PlayerPayload{
		Username: "fallback-name",
		Rating:   9000,
		Records:  []domain.ScoreRecord{{SongID: 1, Type: "SD"}},
	}}
	svc := newTestPlayerService(t, client, newTestRepo(t))

	require.NoError(t, svc.FetchProfile(context.Background(), "123456"))

	assert.Equal(t, "fallback-name", svc.Profile().Nickname)
	assert.Len(t, svc.Records(), 1)
}

func TestFetchProfilePersistsSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	client := &fakeClient{payload: &api.PlayerPayload{
		Nickname: "player",
		Records:  []domain.ScoreRecord{{SongID: 7}},
	}}
	svc := newTestPlayerService(t, client, repo)
	require.NoError(t, svc.FetchProfile(context.Background(), "tok"))

	// a new session restores the snapshot without a fetch
	restored := newTestPlayerService(t, &fakeClient{}, repo)
	require.NoError(t, restored.Load(context.Background()))
	assert.Equal(t, "player", restored.Profile().Nickname)
	assert.Len(t, restored.Records(), 1)
}

func TestFetchProfileRecordsUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{api.ErrNotFound, "用户不存在"},
		{api.ErrForbidden, "用户已设置隐私或未同意用户协议"},
		{errors.New("dial tcp: timeout"), "获取数据失败，请检查用户名或QQ号"},
	}

	for _, tc := range cases {
		svc := newTestPlayerService(t, &fakeClient{fetchErr: tc.err}, newTestRepo(t))
		err := svc.FetchProfile(context.Background(), "someone")
		require.Error(t, err)
		assert.Equal(t, tc.want, svc.LastError())
		assert.Empty(t, svc.Profile().Nickname)
	}
}

func TestFetchProfileWithoutCredential(t *testing.T) {
	svc := newTestPlayerService(t, &fakeClient{}, newTestRepo(t))
	err := svc.FetchProfile(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestCredentialRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	svc := newTestPlayerService(t, &fakeClient{}, repo)
	ctx := context.Background()

	_, ok := svc.Credential(ctx)
	assert.False(t, ok)

	require.NoError(t, svc.SetCredential(ctx, "my-token"))
	token, ok := svc.Credential(ctx)
	require.True(t, ok)
	assert.Equal(t, "my-token", token)
}

func TestClearCredentialWipesSession(t *testing.T) {
	repo := newTestRepo(t)
	client := &fakeClient{payload: &api.PlayerPayload{
		Nickname: "player",
		Records:  []domain.ScoreRecord{{SongID: 7}},
	}}
	svc := newTestPlayerService(t, client, repo)
	ctx := context.Background()

	require.NoError(t, svc.SetCredential(ctx, "tok"))
	require.NoError(t, svc.FetchProfile(ctx, "tok"))
	require.NoError(t, svc.ClearCredential(ctx))

	_, ok := svc.Credential(ctx)
	assert.False(t, ok)
	assert.Empty(t, svc.Profile().Nickname)
	assert.Empty(t, svc.Records())

	// nothing to restore after the wipe
	restored := newTestPlayerService(t, &fakeClient{}, repo)
	require.NoError(t, restored.Load(ctx))
	assert.Empty(t, restored.Profile().Nickname)
}

func testSong(id string, from string, isNew bool, ds ...float64) domain.Song {
	return domain.Song{
		ID: id,
		DS: ds,
		BasicInfo: domain.BasicInfo{
			From:  from,
			IsNew: isNew,
		},
	}
}

func TestBest50SplitsByVersion(t *testing.T) {
	client := &fakeClient{
		payload: &api.PlayerPayload{
			Nickname: "player",
			Records: []domain.ScoreRecord{
				{SongID: 1, LevelIndex: 0, Achievements: 100.5, Type: "SD"},
				{SongID: 2, LevelIndex: 0, Achievements: 100.5, Type: "DX"},
			},
		},
		songs: []domain.Song{
			testSong("1", "maimai FiNALE", false, 13.0),
			testSong("2", "maimai でらっくす PRiSM", true, 14.0),
		},
	}
	svc := newTestPlayerService(t, client, newTestRepo(t))
	ctx := context.Background()
	require.NoError(t, svc.FetchProfile(ctx, "tok"))

	got := svc.Best50(ctx, rating.SplitByVersion)
	require.Len(t, got.Standard, 1)
	require.Len(t, got.Current, 1)
	assert.Equal(t, 1, got.Standard[0].SongID)
	assert.Equal(t, 2, got.Current[0].SongID)
	assert.Equal(t, got.Standard[0].Ra+got.Current[0].Ra, got.Total)
}

func TestFitBest50UsesFitDifficulties(t *testing.T) {
	fit := 14.2
	client := &fakeClient{
		payload: &api.PlayerPayload{
			Nickname: "player",
			Records: []domain.ScoreRecord{
				{SongID: 1, LevelIndex: 0, Achievements: 100.0, Type: "SD"},
			},
		},
		songs: []domain.Song{testSong("1", "maimai FiNALE", false, 13.0)},
		stats: map[string][]domain.ChartStat{
			"1": {{FitDiff: &fit}},
		},
	}
	svc := newTestPlayerService(t, client, newTestRepo(t))
	ctx := context.Background()
	require.NoError(t, svc.SetCredential(ctx, "tok"))

	// no records yet: FitBest50 fetches them itself
	got, err := svc.FitBest50(ctx)
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.True(t, got.Records[0].IsFit)
	assert.Equal(t, fit, got.Records[0].FitDiff)
	assert.Equal(t, rating.Compute(fit, 100.0), got.Records[0].Ra)
	require.Len(t, got.Best.Standard, 1)
	assert.Empty(t, got.Best.Current)
}

func TestClearCacheScopes(t *testing.T) {
	repo := newTestRepo(t)
	client := &fakeClient{payload: &api.PlayerPayload{
		Nickname: "player",
		Records:  []domain.ScoreRecord{{SongID: 7}},
	}}
	svc := newTestPlayerService(t, client, repo)
	ctx := context.Background()

	require.NoError(t, svc.FetchProfile(ctx, "tok"))

	// unknown scope leaves everything alone
	require.NoError(t, svc.ClearCache(ctx, "bogus"))
	assert.Equal(t, "player", svc.Profile().Nickname)

	require.NoError(t, svc.ClearCache(ctx, ScopeRecords))
	assert.Empty(t, svc.Profile().Nickname)
	assert.Empty(t, svc.Records())

	require.NoError(t, svc.ClearCache(ctx, ScopeAll))
}
