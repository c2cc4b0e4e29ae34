package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maimai-tracker/internal/config"
	"maimai-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

var (
	// ErrNotFound: the identifier does not resolve to a prober account.
	ErrNotFound = errors.New("player not found")
	// ErrForbidden: the player has enabled privacy or not accepted the
	// user agreement.
	ErrForbidden = errors.New("player data is private")
)

// DivingFishClient talks to the Diving Fish prober API.
type DivingFishClient struct {
	base     string
	statsURL string
	client   *fasthttp.Client
	logger   zerolog.Logger
}

func NewDivingFishClient(cfg *config.Config, logger zerolog.Logger) *DivingFishClient {
	return &DivingFishClient{
		base:     cfg.APIBase,
		statsURL: cfg.ChartStatsURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

// PlayerPayload is the heterogeneous player response. Token fetches return a
// flat Records list; b50 queries return Charts buckets instead. Exactly one of
// the two is populated.
type PlayerPayload struct {
	Username         string               `json:"username"`
	Nickname         string               `json:"nickname"`
	Plate            string               `json:"plate"`
	Rating           int                  `json:"rating"`
	AdditionalRating int                  `json:"additional_rating"`
	Records          []domain.ScoreRecord `json:"records"`
	Charts           *ChartBuckets        `json:"charts"`
}

type ChartBuckets struct {
	DX []domain.ScoreRecord `json:"dx"`
	SD []domain.ScoreRecord `json:"sd"`
}

// FetchRecords resolves the identifier the way the web client does: an
// all-digit identifier is a QQ number, anything else is tried as an
// Import-Token first and falls back to a username query.
func (c *DivingFishClient) FetchRecords(ctx context.Context, identifier string) (*PlayerPayload, error) {
	if isDigits(identifier) {
		return c.queryPlayer(ctx, playerQuery{QQ: identifier, B50: true})
	}

	payload, err := c.playerRecords(ctx, identifier)
	if err == nil {
		return payload, nil
	}
	c.logger.Warn().Err(err).Msg("token fetch failed, retrying as username")

	return c.queryPlayer(ctx, playerQuery{Username: identifier, B50: true})
}

func (c *DivingFishClient) playerRecords(ctx context.Context, token string) (*PlayerPayload, error) {
	headers := map[string]string{"Import-Token": token}
	return doRequest[PlayerPayload](ctx, c, fasthttp.MethodGet, c.base+"/player/records", headers, nil)
}

type playerQuery struct {
	QQ       string `json:"qq,omitempty"`
	Username string `json:"username,omitempty"`
	B50      bool   `json:"b50"`
}

func (c *DivingFishClient) queryPlayer(ctx context.Context, q playerQuery) (*PlayerPayload, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return doRequest[PlayerPayload](ctx, c, fasthttp.MethodPost, c.base+"/query/player", nil, body)
}

// MusicData fetches the full song catalog.
func (c *DivingFishClient) MusicData(ctx context.Context) ([]domain.Song, error) {
	songs, err := doRequest[[]domain.Song](ctx, c, fasthttp.MethodGet, c.base+"/music_data", nil, nil)
	if err != nil {
		return nil, err
	}
	return *songs, nil
}

// ChartStats fetches the community chart statistics, keyed by song id. The
// endpoint has shipped both a wrapped and a bare mapping over time.
func (c *DivingFishClient) ChartStats(ctx context.Context) (map[string][]domain.ChartStat, error) {
	wrapped, err := doRequest[struct {
		Charts map[string][]domain.ChartStat `json:"charts"`
	}](ctx, c, fasthttp.MethodGet, c.statsURL, nil, nil)
	if err != nil {
		return nil, err
	}
	if wrapped.Charts != nil {
		return wrapped.Charts, nil
	}

	bare, err := doRequest[map[string][]domain.ChartStat](ctx, c, fasthttp.MethodGet, c.statsURL, nil, nil)
	if err != nil {
		return nil, err
	}
	return *bare, nil
}

func doRequest[T any](ctx context.Context, c *DivingFishClient, method, url string, headers map[string]string, body []byte) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusBadRequest:
		return nil, ErrNotFound
	case fasthttp.StatusForbidden:
		return nil, ErrForbidden
	default:
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
