package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tubedash/tubedash/internal/database"
	"github.com/tubedash/tubedash/internal/models"
	"github.com/tubedash/tubedash/internal/services/tracker"
	"github.com/tubedash/tubedash/internal/utils"
)

type ChannelHandler struct {
	tracker *tracker.Service
}

func NewChannelHandler(tracker *tracker.Service) *ChannelHandler {
	return &ChannelHandler{tracker: tracker}
}

// AddChannel godoc
// @Summary Track a new channel
// @Description Add a channel by ID, legacy username or @handle. An unresolvable identifier is stored as a terminated placeholder rather than rejected.
// @Tags channels
// @Accept json
// @Produce json
// @Param request body models.AddChannelRequest true "Channel identifier"
// @Success 201 {object} models.ChannelStats
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/channels [post]
// @Security ApiKeyAuth
func (h *ChannelHandler) AddChannel(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.AddChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	stats, err := h.tracker.AddChannel(ctx, req.Identifier)
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			errorResponse(c, appErr)
		} else {
			utils.LogError(ctx, "Failed to add channel", err)
			errorResponse(c, utils.NewDatabaseError(err))
		}
		return
	}

	c.JSON(http.StatusCreated, stats)
}

// ListChannels godoc
// @Summary List tracked channels
// @Description List all tracked channels with their last fetched statistics.
// @Tags channels
// @Produce json
// @Success 200 {object} models.ChannelListResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/channels [get]
// @Security ApiKeyAuth
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	ctx := c.Request.Context()

	channels, err := h.tracker.ListChannels(ctx)
	if err != nil {
		utils.LogError(ctx, "Failed to list channels", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}
	if channels == nil {
		channels = []models.ChannelStats{}
	}

	c.JSON(http.StatusOK, models.ChannelListResponse{
		Total:    len(channels),
		Channels: channels,
	})
}

// RefreshChannels godoc
// @Summary Refresh all tracked channels
// @Description Re-fetch statistics for every tracked channel in one batched pass. Channels whose chunk failed keep their previous values.
// @Tags channels
// @Produce json
// @Success 200 {object} models.ChannelListResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/channels/refresh [post]
// @Security ApiKeyAuth
func (h *ChannelHandler) RefreshChannels(c *gin.Context) {
	ctx := c.Request.Context()

	refreshed, err := h.tracker.RefreshAll(ctx)
	if err != nil {
		utils.LogError(ctx, "Failed to refresh channels", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}

	c.JSON(http.StatusOK, models.ChannelListResponse{
		Total:    len(refreshed),
		Channels: refreshed,
	})
}

// DeleteChannel godoc
// @Summary Stop tracking a channel
// @Tags channels
// @Produce json
// @Param channel_id path string true "Channel ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/channels/{channel_id} [delete]
// @Security ApiKeyAuth
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	ctx := c.Request.Context()
	channelID := c.Param("channel_id")

	if err := h.tracker.DeleteChannel(ctx, channelID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, utils.NewChannelNotFoundError(channelID))
			return
		}
		utils.LogError(ctx, "Failed to delete channel", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

// GetChannelVideos godoc
// @Summary Get a page of a channel's uploads
// @Description One page of the channel's uploads playlist with per-video statistics, in playlist order.
// @Tags channels
// @Produce json
// @Param channel_id path string true "Channel ID"
// @Param page_size query int false "Page size" default(50)
// @Param page_token query string false "Continuation token"
// @Success 200 {object} models.VideoPage
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/channels/{channel_id}/videos [get]
// @Security ApiKeyAuth
func (h *ChannelHandler) GetChannelVideos(c *gin.Context) {
	ctx := c.Request.Context()
	channelID := c.Param("channel_id")

	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	pageToken := c.Query("page_token")

	page, err := h.tracker.VideoPage(ctx, channelID, pageSize, pageToken)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, utils.NewChannelNotFoundError(channelID))
			return
		}
		utils.LogError(ctx, "Failed to fetch video page", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}

	c.JSON(http.StatusOK, page)
}
