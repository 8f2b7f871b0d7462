package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"traffic-analytics-service/internal/model"
	"traffic-analytics-service/internal/service"
)

type GroupingService interface {
	AssignVideoToBucket(ctx context.Context, videoID uuid.UUID) (model.GroupOutcome, error)
	GroupAllPending(ctx context.Context) (*model.GroupBatchResult, error)
	VerifyGrouping(ctx context.Context, videoID uuid.UUID) (*model.GroupingCheck, error)
	RegroupVideo(ctx context.Context, videoID uuid.UUID) (model.GroupOutcome, error)
	ListBuckets(ctx context.Context, locationID *uuid.UUID) ([]model.BucketSummary, error)
}

type PredictionService interface {
	GeneratePredictions(ctx context.Context, locationID *uuid.UUID, daysAhead int) (*model.GenerationResult, error)
	GetPredictionsForDate(ctx context.Context, date *datatypes.Date, locationID *uuid.UUID) (*model.PredictionsForDate, error)
	GetPeakHours(ctx context.Context, date *datatypes.Date, locationID *uuid.UUID) (*model.PeakHoursResult, error)
	GetPredictionInsights(ctx context.Context, locationID *uuid.UUID) (*model.PredictionInsights, error)
}

type IngestService interface {
	Ingest(ctx context.Context, result model.DetectionResult, source string) (*model.IngestResult, error)
	Process(ctx context.Context, videoID uuid.UUID) (*model.IngestResult, error)
	Progress(ctx context.Context, videoID uuid.UUID) (*model.Progress, error)
}

type Handler struct {
	grouping    GroupingService
	predictions PredictionService
	ingest      IngestService
	log         zerolog.Logger
}

func NewHandler(grouping GroupingService, predictions PredictionService, ingest IngestService, log zerolog.Logger) *Handler {
	return &Handler{grouping: grouping, predictions: predictions, ingest: ingest, log: log}
}

// Register mounts the API. limited wraps endpoints that start expensive runs.
func (h *Handler) Register(r *gin.Engine, limited gin.HandlerFunc) {
	api := r.Group("/api")

	predictions := api.Group("/predictions")
	predictions.POST("/generate", limited, h.generatePredictions)
	predictions.GET("", h.getPredictions)
	predictions.GET("/peak-hours", h.getPeakHours)
	predictions.GET("/insights", h.getInsights)

	videos := api.Group("/videos/:id")
	videos.POST("/group", h.groupVideo)
	videos.GET("/grouping", h.verifyGrouping)
	videos.POST("/regroup", h.regroupVideo)
	videos.POST("/process", limited, h.processVideo)
	videos.GET("/progress", h.getProgress)

	api.POST("/grouping/run", limited, h.groupAllPending)
	api.GET("/buckets", h.listBuckets)
	api.POST("/analyses", h.ingestAnalysis)
}

type generateRequest struct {
	LocationID *uuid.UUID `json:"location_id"`
	DaysAhead  int        `json:"days_ahead"`
}

func (h *Handler) generatePredictions(c *gin.Context) {
	var req generateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
			return
		}
	}

	result, err := h.predictions.GeneratePredictions(c.Request.Context(), req.LocationID, req.DaysAhead)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) getPredictions(c *gin.Context) {
	date, locationID, ok := h.parseDateAndLocation(c)
	if !ok {
		return
	}

	result, err := h.predictions.GetPredictionsForDate(c.Request.Context(), date, locationID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) getPeakHours(c *gin.Context) {
	date, locationID, ok := h.parseDateAndLocation(c)
	if !ok {
		return
	}

	result, err := h.predictions.GetPeakHours(c.Request.Context(), date, locationID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) getInsights(c *gin.Context) {
	locationID, err := optionalUUID(c.Query("location_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid location_id"))
		return
	}

	result, err := h.predictions.GetPredictionInsights(c.Request.Context(), locationID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) groupVideo(c *gin.Context) {
	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	outcome, err := h.grouping.AssignVideoToBucket(c.Request.Context(), videoID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(outcome))
}

func (h *Handler) verifyGrouping(c *gin.Context) {
	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	check, err := h.grouping.VerifyGrouping(c.Request.Context(), videoID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(check))
}

func (h *Handler) regroupVideo(c *gin.Context) {
	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	outcome, err := h.grouping.RegroupVideo(c.Request.Context(), videoID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(outcome))
}

func (h *Handler) groupAllPending(c *gin.Context) {
	result, err := h.grouping.GroupAllPending(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) listBuckets(c *gin.Context) {
	locationID, err := optionalUUID(c.Query("location_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid location_id"))
		return
	}

	buckets, err := h.grouping.ListBuckets(c.Request.Context(), locationID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(buckets))
}

func (h *Handler) processVideo(c *gin.Context) {
	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	result, err := h.ingest.Process(c.Request.Context(), videoID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) getProgress(c *gin.Context) {
	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	progress, err := h.ingest.Progress(c.Request.Context(), videoID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(progress))
}

func (h *Handler) ingestAnalysis(c *gin.Context) {
	var payload model.DetectionResult
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	result, err := h.ingest.Ingest(c.Request.Context(), payload, service.SourceHTTP)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(result))
}

func (h *Handler) parseDateAndLocation(c *gin.Context) (*datatypes.Date, *uuid.UUID, bool) {
	var date *datatypes.Date
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := model.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw)))
			return nil, nil, false
		}
		date = &parsed
	}

	locationID, err := optionalUUID(c.Query("location_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid location_id"))
		return nil, nil, false
	}

	return date, locationID, true
}

func videoIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid video id"))
		return uuid.Nil, false
	}
	return id, true
}

func optionalUUID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrVideoNotCompleted):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrStoreTimeout):
		c.JSON(http.StatusGatewayTimeout, errorResponse(err.Error()))
	case errors.Is(err, service.ErrDetectorUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse("detector unavailable"))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}
