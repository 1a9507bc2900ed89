package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/recoforge/internal/middleware"
	"github.com/temcen/recoforge/pkg/models"
)

// InteractionRecorder is the subset of services.InteractionService this
// handler calls.
type InteractionRecorder interface {
	Record(ctx context.Context, tc models.TenantContext, req models.RecordInteractionRequest) (*models.Interaction, error)
	BulkRecord(ctx context.Context, tc models.TenantContext, reqs []models.RecordInteractionRequest) models.BulkResult
	History(ctx context.Context, tc models.TenantContext, userID string, filter models.InteractionFilter) ([]models.Interaction, error)
}

type InteractionHandler struct {
	svc       InteractionRecorder
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewInteractionHandler(svc InteractionRecorder, logger *logrus.Logger) *InteractionHandler {
	return &InteractionHandler{svc: svc, validator: validator.New(), logger: logger}
}

func (h *InteractionHandler) Record(c *gin.Context) {
	var req models.RecordInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	if req.InteractionType == "rating" && (req.Value == nil || *req.Value < 1 || *req.Value > 5) {
		respondError(c, http.StatusBadRequest, "INVALID_RATING", "rating value must be between 1 and 5")
		return
	}

	in, err := h.svc.Record(c.Request.Context(), middleware.TenantFromContext(c), req)
	if err != nil {
		h.logger.WithError(err).Error("failed to record interaction")
		respondError(c, http.StatusInternalServerError, "INTERACTION_FAILED", "failed to record interaction")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": in})
}

func (h *InteractionHandler) BulkRecord(c *gin.Context) {
	var req models.BulkRecordInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	result := h.svc.BulkRecord(c.Request.Context(), middleware.TenantFromContext(c), req.Interactions)
	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (h *InteractionHandler) History(c *gin.Context) {
	filter := models.InteractionFilter{InteractionType: c.Query("interaction_type")}
	interactions, err := h.svc.History(c.Request.Context(), middleware.TenantFromContext(c), c.Param("userId"), filter)
	if err != nil {
		h.logger.WithError(err).Error("failed to fetch interaction history")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to fetch interaction history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": interactions})
}
