package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	syncapp "github.com/membercard/backend/internal/application/sync"
	"github.com/membercard/backend/internal/domain/sync"
)

// defaultRunsLimit caps the run history returned when no limit is given
const defaultRunsLimit = 20

// SyncJobHandler handles sync job trigger and history API endpoints
type SyncJobHandler struct {
	BaseHandler
	orchestrator *syncapp.SyncJobOrchestrator
}

// NewSyncJobHandler creates a new SyncJobHandler
func NewSyncJobHandler(orchestrator *syncapp.SyncJobOrchestrator) *SyncJobHandler {
	return &SyncJobHandler{
		orchestrator: orchestrator,
	}
}

// TriggerSyncRequest represents an optional direction override for a manual
// sync trigger. An empty body runs the configuration's own direction.
type TriggerSyncRequest struct {
	Direction string `json:"direction" binding:"omitempty,oneof=import export both" example:"import"`
}

// Trigger runs a sync job for the configuration synchronously and returns
// the job result
func (h *SyncJobHandler) Trigger(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	var req TriggerSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.orchestrator.Trigger(c.Request.Context(), userID, configID, sync.Direction(req.Direction))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Runs returns the most recent job runs for the configuration, newest first
func (h *SyncJobHandler) Runs(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.BadRequest(c, "Limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	runs, err := h.orchestrator.Status(c.Request.Context(), userID, configID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, runs)
}
