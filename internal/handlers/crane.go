package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Request DTO for toggling the overload bypass.
type bypassRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// @Summary      Toggle overload bypass
// @Tags         crane
// @Accept       json
// @Produce      json
// @Param        body  body  bypassRequest  true  "Bypass payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/crane/bypass [post]
// @Security     BearerAuth
func (h *Handler) setBypass(c *gin.Context) {
	var req bypassRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	if err := h.services.Control.SetBypass(c.Request.Context(), *req.Enabled); err != nil {
		if h.log != nil {
			h.log.Errorw("crane_set_bypass_failed", "err", err, "enabled", *req.Enabled)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set bypass"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "bypass_set", "enabled": *req.Enabled})
}

// @Summary      Reset hook cycle counters
// @Tags         crane
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/crane/counters/reset [post]
// @Security     BearerAuth
func (h *Handler) resetCounters(c *gin.Context) {
	if err := h.services.Control.ResetCounters(c.Request.Context()); err != nil {
		if h.log != nil {
			h.log.Errorw("crane_reset_counters_failed", "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset counters"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "counters_reset"})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
