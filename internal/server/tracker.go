package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"maimai-tracker/internal/api"
	"maimai-tracker/internal/archive"
	"maimai-tracker/internal/domain"
	"maimai-tracker/internal/rating"
	"maimai-tracker/internal/service"
	"maimai-tracker/internal/version"
)

// TrackerServer exposes the tracker operations as a JSON API for the web UI.
type TrackerServer struct {
	players *service.PlayerService
	prefs   *service.PreferenceService
	reviews *service.ReviewService
	random  *service.RandomService
	catalog *service.CatalogService
	covers  *api.CoverResolver
	logger  zerolog.Logger
}

func NewTrackerServer(
	players *service.PlayerService,
	prefs *service.PreferenceService,
	reviews *service.ReviewService,
	random *service.RandomService,
	catalog *service.CatalogService,
	covers *api.CoverResolver,
	logger zerolog.Logger,
) *TrackerServer {
	return &TrackerServer{
		players: players,
		prefs:   prefs,
		reviews: reviews,
		random:  random,
		catalog: catalog,
		covers:  covers,
		logger:  logger,
	}
}

// Register mounts every route under /api.
func (s *TrackerServer) Register(r *gin.Engine) {
	g := r.Group("/api")

	g.POST("/session/token", s.setToken)
	g.DELETE("/session", s.clearSession)
	g.POST("/session/fetch", s.fetchProfile)
	g.GET("/session", s.getSession)

	g.GET("/best50", s.best50)
	g.GET("/best50/fit", s.fitBest50)

	g.GET("/music", s.listMusic)
	g.POST("/music/refresh", s.refreshMusic)
	g.GET("/versions", s.listVersions)
	g.POST("/cache/clear", s.clearCache)

	g.POST("/random/roll", s.roll)
	g.GET("/random/history", s.rollHistory)

	g.GET("/covers/:id", s.coverURL)
	g.POST("/covers/failed", s.coverFailed)

	g.GET("/preference", s.getPreference)
	g.POST("/preference/archives", s.createBoard)
	g.POST("/preference/archives/:id/activate", s.activateBoard)
	g.PATCH("/preference/archives/:id", s.renameBoard)
	g.DELETE("/preference/archives/:id", s.deleteBoard)
	g.PUT("/preference/config", s.updateBoardConfig)
	g.PUT("/preference/cells/:index", s.updateBoardCell)

	g.GET("/reviews", s.getReviews)
	g.POST("/reviews/archives", s.createReviewArchive)
	g.POST("/reviews/archives/:id/activate", s.activateReviewArchive)
	g.PATCH("/reviews/archives/:id", s.renameReviewArchive)
	g.DELETE("/reviews/archives/:id", s.deleteReviewArchive)
	g.POST("/reviews", s.addReview)
	g.PUT("/reviews/:id", s.updateReview)
	g.DELETE("/reviews/:id", s.removeReview)
	g.DELETE("/reviews", s.clearReviews)
}

// --- session ---

func (s *TrackerServer) setToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := s.players.SetCredential(c.Request.Context(), req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *TrackerServer) clearSession(c *gin.Context) {
	if err := s.players.ClearCredential(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *TrackerServer) fetchProfile(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := s.players.FetchProfile(c.Request.Context(), req.Identifier); err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, service.ErrNoCredential):
			status = http.StatusUnauthorized
		case errors.Is(err, api.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, api.ErrForbidden):
			status = http.StatusForbidden
		}
		msg := s.players.LastError()
		if msg == "" {
			msg = err.Error()
		}
		c.JSON(status, gin.H{"message": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile": s.players.Profile(),
		"records": s.players.Records(),
	})
}

func (s *TrackerServer) getSession(c *gin.Context) {
	profile := s.players.Profile()
	_, hasCredential := s.players.Credential(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"profile":       profile,
		"records":       s.players.Records(),
		"lastError":     s.players.LastError(),
		"authenticated": hasCredential && profile.Nickname != "",
	})
}

// --- rating ---

func (s *TrackerServer) best50(c *gin.Context) {
	policy := rating.SplitByVersion
	if c.Query("policy") == "type" {
		policy = rating.SplitByType
	}
	c.JSON(http.StatusOK, s.players.Best50(c.Request.Context(), policy))
}

func (s *TrackerServer) fitBest50(c *gin.Context) {
	result, err := s.players.FitBest50(c.Request.Context())
	if err != nil {
		msg := s.players.LastError()
		if msg == "" {
			msg = err.Error()
		}
		c.JSON(http.StatusBadGateway, gin.H{"message": msg})
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- catalog ---

func (s *TrackerServer) listMusic(c *gin.Context) {
	songs, err := s.catalog.Songs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, songs)
}

func (s *TrackerServer) refreshMusic(c *gin.Context) {
	if err := s.players.RefreshMusic(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *TrackerServer) listVersions(c *gin.Context) {
	c.JSON(http.StatusOK, version.Releases())
}

func (s *TrackerServer) clearCache(c *gin.Context) {
	var req struct {
		Scope string `json:"scope" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := s.players.ClearCache(c.Request.Context(), req.Scope); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- randomizer ---

func (s *TrackerServer) roll(c *gin.Context) {
	var filters domain.RandomFilters
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	result, err := s.random.Roll(c.Request.Context(), filters)
	if err != nil {
		if errors.Is(err, service.ErrNoCandidates) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "没有符合条件的歌曲"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *TrackerServer) rollHistory(c *gin.Context) {
	history, err := s.random.History(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}

// --- covers ---

func (s *TrackerServer) coverURL(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid song id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": s.covers.Resolve(api.CoverURL(id))})
}

func (s *TrackerServer) coverFailed(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	s.covers.MarkFailed(req.URL)
	c.Status(http.StatusNoContent)
}

// --- preference boards ---

func (s *TrackerServer) getPreference(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"archives": s.prefs.Archives(),
		"activeId": s.prefs.ActiveID(),
		"presets":  s.prefs.Presets(),
	})
}

func (s *TrackerServer) createBoard(c *gin.Context) {
	var req struct {
		Name   string `json:"name"`
		Preset string `json:"preset"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	id, err := s.prefs.CreateArchive(c.Request.Context(), req.Name, req.Preset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *TrackerServer) activateBoard(c *gin.Context) {
	if err := s.prefs.SwitchArchive(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *TrackerServer) renameBoard(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := s.prefs.RenameArchive(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *TrackerServer) deleteBoard(c *gin.Context) {
	s.deleteArchive(c, s.prefs.DeleteArchive)
}

func (s *TrackerServer) updateBoardConfig(c *gin.Context) {
	var cfg domain.BoardConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := s.prefs.UpdateConfig(c.Request.Context(), cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *TrackerServer) updateBoardCell(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid cell index"})
		return
	}

	var req struct {
		Label *string      `json:"label"`
		Song  *domain.Song `json:"song"`
		Clear bool         `json:"clear"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if req.Label != nil {
		err = s.prefs.UpdateCellLabel(ctx, index, *req.Label)
	}
	if err == nil && (req.Song != nil || req.Clear) {
		err = s.prefs.UpdateCell(ctx, index, req.Song)
	}
	if err != nil {
		if errors.Is(err, service.ErrCellOutOfRange) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- reviews ---

func (s *TrackerServer) getReviews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"archives": s.reviews.Archives(),
		"activeId": s.reviews.ActiveID(),
		"reviews":  s.reviews.Reviews(),
	})
}

func (s *TrackerServer) createReviewArchive(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	id, err := s.reviews.CreateArchive(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *TrackerServer) activateReviewArchive(c *gin.Context) {
	if err := s.reviews.SwitchArchive(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *TrackerServer) renameReviewArchive(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := s.reviews.RenameArchive(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *TrackerServer) deleteReviewArchive(c *gin.Context) {
	s.deleteArchive(c, s.reviews.DeleteArchive)
}

// deleteArchive maps the delete-last invariant to a conflict with the
// user-facing warning.
func (s *TrackerServer) deleteArchive(c *gin.Context, del func(ctx context.Context, id string) error) {
	if err := del(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, archive.ErrLastArchive) {
			c.JSON(http.StatusConflict, gin.H{"message": "至少保留一个存档"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *TrackerServer) addReview(c *gin.Context) {
	var review domain.Review
	if err := c.ShouldBindJSON(&review); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	id, err := s.reviews.AddReview(c.Request.Context(), review)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *TrackerServer) updateReview(c *gin.Context) {
	var review domain.Review
	if err := c.ShouldBindJSON(&review); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	review.ID = c.Param("id")
	if err := s.reviews.UpdateReview(c.Request.Context(), review); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *TrackerServer) removeReview(c *gin.Context) {
	if err := s.reviews.RemoveReview(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *TrackerServer) clearReviews(c *gin.Context) {
	if err := s.reviews.ClearReviews(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
