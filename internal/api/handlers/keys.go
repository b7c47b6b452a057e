package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tubedash/tubedash/internal/database"
	"github.com/tubedash/tubedash/internal/models"
	"github.com/tubedash/tubedash/internal/services/youtube"
	"github.com/tubedash/tubedash/internal/utils"
)

type KeyHandler struct {
	db *database.PostgresDB
	yt *youtube.Client
}

func NewKeyHandler(db *database.PostgresDB, yt *youtube.Client) *KeyHandler {
	return &KeyHandler{db: db, yt: yt}
}

// SetKeys godoc
// @Summary Replace the API key list
// @Description Replace the working set of YouTube Data API keys. Retained keys keep their accumulated usage; new keys start unverified and are validated in the background.
// @Tags keys
// @Accept json
// @Produce json
// @Param request body models.SetKeysRequest true "Key list"
// @Success 200 {object} models.KeyListResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/keys [put]
// @Security ApiKeyAuth
func (h *KeyHandler) SetKeys(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.SetKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	h.yt.SetKeys(req.Keys)

	// Settings save is the one persistence path whose failure the caller
	// must see; usage sync stays fire-and-forget.
	if err := h.db.ReplaceAPIKeys(ctx, h.yt.Keys()); err != nil {
		utils.LogError(ctx, "Failed to persist key list", err)
		errorResponse(c, utils.NewDatabaseError(err))
		return
	}

	h.yt.KickValidation(context.WithoutCancel(ctx))

	c.JSON(http.StatusOK, h.keyList())
}

// ListKeys godoc
// @Summary List configured API keys
// @Description List the configured keys with masked values, status and daily usage.
// @Tags keys
// @Produce json
// @Success 200 {object} models.KeyListResponse
// @Router /api/v1/keys [get]
// @Security ApiKeyAuth
func (h *KeyHandler) ListKeys(c *gin.Context) {
	c.JSON(http.StatusOK, h.keyList())
}

// RevalidateKeys godoc
// @Summary Revalidate all API keys
// @Description Force every key back to unknown status and re-probe the pool one key at a time.
// @Tags keys
// @Produce json
// @Success 202 {object} models.KeyListResponse
// @Router /api/v1/keys/revalidate [post]
// @Security ApiKeyAuth
func (h *KeyHandler) RevalidateKeys(c *gin.Context) {
	ctx := c.Request.Context()

	h.yt.ResetStatuses()
	h.yt.KickValidation(context.WithoutCancel(ctx))

	c.JSON(http.StatusAccepted, h.keyList())
}

// GetQuota godoc
// @Summary Get quota usage
// @Description Session and daily quota totals plus the rotation cursor position.
// @Tags keys
// @Produce json
// @Success 200 {object} models.QuotaResponse
// @Router /api/v1/quota [get]
// @Security ApiKeyAuth
func (h *KeyHandler) GetQuota(c *gin.Context) {
	usage := h.yt.QuotaSnapshot()
	c.JSON(http.StatusOK, models.QuotaResponse{
		Session:      usage.Session,
		Daily:        usage.Daily,
		CurrentIndex: h.yt.CurrentIndex(),
	})
}

func (h *KeyHandler) keyList() models.KeyListResponse {
	keys := h.yt.Keys()
	items := make([]models.KeyListItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, models.KeyListItem{
			MaskedValue:  maskKey(k.Value),
			Status:       k.Status,
			DailyUsage:   k.DailyUsage,
			LastUsedDate: k.LastUsedDate,
			Error:        k.Error,
		})
	}
	return models.KeyListResponse{
		Keys:         items,
		CurrentIndex: h.yt.CurrentIndex(),
	}
}

// maskKey keeps only enough of the key value to recognize it in the UI.
func maskKey(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}

func errorResponse(c *gin.Context, err *utils.AppError) {
	c.JSON(err.StatusCode, gin.H{
		"error":      err,
		"request_id": c.GetString("request_id"),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}
