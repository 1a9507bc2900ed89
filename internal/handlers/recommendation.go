package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/middleware"
	"github.com/temcen/recoforge/pkg/models"
)

// RecommendationEngine is the subset of recommendation.Service this handler
// calls; kept as an interface so the handler can be tested without a live
// cache/database.
type RecommendationEngine interface {
	GetUserRecommendations(ctx context.Context, tc models.TenantContext, req models.RecommendationRequest) (*models.RecommendationResponse, error)
	GetSimilarEntities(ctx context.Context, tc models.TenantContext, req models.SimilarEntitiesRequest) (*models.RecommendationResponse, error)
	GetTrendingEntities(ctx context.Context, tc models.TenantContext, req models.TrendingRequest) (*models.TrendingResponse, error)
}

type RecommendationHandler struct {
	engine RecommendationEngine
	logger *logrus.Logger
}

func NewRecommendationHandler(engine RecommendationEngine, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{engine: engine, logger: logger}
}

// GetUserRecommendations serves get_user_recommendations.
func (h *RecommendationHandler) GetUserRecommendations(c *gin.Context) {
	userID := c.Param("userId")
	count, err := parseCount(c, 10)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_COUNT", err.Error())
		return
	}

	req := models.RecommendationRequest{
		UserID:    userID,
		Algorithm: models.Algorithm(c.Query("algorithm")),
		Count:     count,
		Filter:    parseFilter(c),
	}
	if v := c.Query("w_collab"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			req.WCollab = &f
		}
	}
	if v := c.Query("w_content"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			req.WContent = &f
		}
	}

	resp, err := h.engine.GetUserRecommendations(c.Request.Context(), middleware.TenantFromContext(c), req)
	if err != nil {
		h.respondFromError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSimilarEntities serves get_similar_entities.
func (h *RecommendationHandler) GetSimilarEntities(c *gin.Context) {
	count, err := parseCount(c, 10)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_COUNT", err.Error())
		return
	}
	req := models.SimilarEntitiesRequest{
		EntityID: c.Param("entityId"),
		Count:    count,
		Filter:   parseFilter(c),
	}

	resp, err := h.engine.GetSimilarEntities(c.Request.Context(), middleware.TenantFromContext(c), req)
	if err != nil {
		h.respondFromError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTrendingEntities serves get_trending_entities.
func (h *RecommendationHandler) GetTrendingEntities(c *gin.Context) {
	count, err := parseCount(c, 10)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_COUNT", err.Error())
		return
	}
	var window time.Duration
	if v := c.Query("window"); v != "" {
		window, _ = time.ParseDuration(v)
	}

	req := models.TrendingRequest{
		EntityType: c.Query("entity_type"),
		Count:      count,
		Window:     window,
	}
	resp, err := h.engine.GetTrendingEntities(c.Request.Context(), middleware.TenantFromContext(c), req)
	if err != nil {
		h.respondFromError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseCount(c *gin.Context, def int) (int, error) {
	v := c.Query("count")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("count must be an integer")
	}
	return n, nil
}

func parseFilter(c *gin.Context) models.RecommendationFilter {
	filter := models.RecommendationFilter{EntityType: c.Query("entity_type")}
	if v := c.Query("exclude"); v != "" {
		filter.ExcludeEntityIDs = strings.Split(v, ",")
	}
	if v := c.Query("min_score"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinScore = f
		}
	}
	return filter
}

// respondFromError maps the core's error taxonomy onto HTTP status codes;
// see pkg/models/errors.go.
func (h *RecommendationHandler) respondFromError(c *gin.Context, err error) {
	var invalid *models.InvalidInputError
	var notFound *models.NotFoundError
	switch {
	case errors.As(err, &invalid):
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.As(err, &notFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		h.logger.WithError(err).Error("recommendation request failed")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to generate recommendations")
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}
