package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/middleware"
	"github.com/temcen/recoforge/pkg/models"
)

// EntityManager is the subset of services.EntityService this handler calls.
type EntityManager interface {
	Upsert(ctx context.Context, tc models.TenantContext, req models.UpsertEntityRequest) (*models.Entity, error)
	BulkUpsert(ctx context.Context, tc models.TenantContext, reqs []models.UpsertEntityRequest) models.BulkResult
	Get(ctx context.Context, tc models.TenantContext, entityID, entityType string) (*models.Entity, error)
	Delete(ctx context.Context, tc models.TenantContext, entityID, entityType string) error
}

type EntityHandler struct {
	svc       EntityManager
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewEntityHandler(svc EntityManager, logger *logrus.Logger) *EntityHandler {
	return &EntityHandler{svc: svc, validator: validator.New(), logger: logger}
}

func (h *EntityHandler) Upsert(c *gin.Context) {
	var req models.UpsertEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	entity, err := h.svc.Upsert(c.Request.Context(), middleware.TenantFromContext(c), req)
	if err != nil {
		h.respondEntityError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": entity})
}

func (h *EntityHandler) BulkUpsert(c *gin.Context) {
	var req models.BulkUpsertEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	result := h.svc.BulkUpsert(c.Request.Context(), middleware.TenantFromContext(c), req.Entities)
	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (h *EntityHandler) Get(c *gin.Context) {
	entity, err := h.svc.Get(c.Request.Context(), middleware.TenantFromContext(c), c.Param("entityId"), c.Query("entity_type"))
	if err != nil {
		h.respondEntityError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entity})
}

func (h *EntityHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.TenantFromContext(c), c.Param("entityId"), c.Query("entity_type")); err != nil {
		h.respondEntityError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EntityHandler) respondEntityError(c *gin.Context, err error) {
	var notFound *models.NotFoundError
	var feature *models.FeatureError
	switch {
	case errors.As(err, &notFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &feature):
		respondError(c, http.StatusBadRequest, "FEATURE_EXTRACTION_FAILED", err.Error())
	default:
		h.logger.WithError(err).Error("entity request failed")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to process entity")
	}
}
