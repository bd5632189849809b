package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pricepipe/metrics"
	"pricepipe/services"
	"pricepipe/storage"
	"pricepipe/utils"
)

const cacheKeyPrefix = "recommendations"

// Handler serves the read projections over the pipeline tables.
type Handler struct {
	db     storage.DBTX
	cache  services.ViewCache
	loc    *time.Location
	now    func() time.Time
	logger *utils.Logger
}

// NewHandler creates a Handler. cache may be nil, in which case every
// request reads PostgreSQL. "Today" is evaluated in loc.
func NewHandler(db storage.DBTX, cache services.ViewCache, loc *time.Location, logger *utils.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{db: db, cache: cache, loc: loc, now: time.Now, logger: logger}
}

func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Product Price API. See /product-masters, /products and /recommendations/today."})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListProductMasters handles GET /product-masters.
func (h *Handler) ListProductMasters(c *gin.Context) {
	masters, err := storage.ListProductMasters(c.Request.Context(), h.db)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, masters)
}

// ListProducts handles GET /products. master_id absent or 0 returns every
// listing.
func (h *Handler) ListProducts(c *gin.Context) {
	var masterID int64
	if raw := c.Query("master_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "master_id must be an integer"})
			return
		}
		masterID = id
	}

	listings, err := storage.ListProducts(c.Request.Context(), h.db, masterID)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// TodayRecommendations handles GET /recommendations/today, preferring the
// cached view of the day.
func (h *Handler) TodayRecommendations(c *gin.Context) {
	ctx := c.Request.Context()
	day := services.DateOf(h.now().In(h.loc))

	if h.cache != nil {
		recs, err := h.cache.Get(ctx, day)
		switch {
		case err == nil:
			metrics.RecordCacheHit(cacheKeyPrefix)
			c.JSON(http.StatusOK, recs)
			return
		case errors.Is(err, storage.ErrCacheMiss):
			metrics.RecordCacheMiss(cacheKeyPrefix)
		default:
			h.logger.Warn("[api] cache read failed: %v", err)
		}
	}

	recs, err := storage.ListRecommendations(ctx, h.db, day)
	if err != nil {
		h.internalError(c, err)
		return
	}

	// Fill never replaces a view a recommendation run stored meanwhile.
	if h.cache != nil {
		if _, err := h.cache.Fill(ctx, day, recs); err != nil {
			h.logger.Warn("[api] cache write failed: %v", err)
		}
	}
	c.JSON(http.StatusOK, recs)
}

func (h *Handler) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	h.logger.Error("[api] %s: %v", c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
