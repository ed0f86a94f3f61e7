package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	errSinceInvalid = "invalid 'since' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// @Summary      Latest telemetry snapshot
// @Tags         telemetry
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Success      204  "no telemetry received yet"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/telemetry/latest [get]
// @Security     BearerAuth
func (h *Handler) getLatest(c *gin.Context) {
	snap, ok := h.services.History.Latest()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Telemetry history
// @Description  Returns retained snapshots with timestamp >= 'since', most recent first. Omitting 'since' returns the whole ring.
// @Tags         telemetry
// @Produce      json
// @Param        since  query  string  false  "Start instant (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-01T12:00:00Z)
// @Success      200  {object}  map[string]interface{}  "count, snapshots"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/telemetry/history [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	var since time.Time
	if qs := c.Query("since"); qs != "" {
		var err error
		since, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errSinceInvalid})
			return
		}
	}

	snapshots := h.services.History.Since(since)
	c.JSON(http.StatusOK, gin.H{
		"count":     len(snapshots),
		"snapshots": snapshots,
	})
}

func parseQueryTime(s string) (time.Time, error) {
	// Try multiple accepted formats, normalizing to UTC.
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
