package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	syncapp "github.com/membercard/backend/internal/application/sync"
	"github.com/membercard/backend/internal/domain/sync"
)

// SyncConfigHandler handles sync configuration API endpoints
type SyncConfigHandler struct {
	BaseHandler
	configService *syncapp.SyncConfigService
}

// NewSyncConfigHandler creates a new SyncConfigHandler
func NewSyncConfigHandler(configService *syncapp.SyncConfigService) *SyncConfigHandler {
	return &SyncConfigHandler{
		configService: configService,
	}
}

// CreateSyncConfigRequest represents a request to set up sync with a platform
type CreateSyncConfigRequest struct {
	Platform            string `json:"platform" binding:"required" example:"GOOGLE"`
	Direction           string `json:"direction" binding:"required,oneof=import export both" example:"both"`
	SyncIntervalSeconds int    `json:"sync_interval_seconds" binding:"required,min=60" example:"3600"`
	Settings            string `json:"settings" example:"{}"`
}

// UpdateSyncConfigRequest represents a partial update to a sync configuration
type UpdateSyncConfigRequest struct {
	Direction           *string `json:"direction" binding:"omitempty,oneof=import export both" example:"import"`
	SyncIntervalSeconds *int    `json:"sync_interval_seconds" binding:"omitempty,min=60" example:"7200"`
	Settings            *string `json:"settings" example:"{}"`
	IsActive            *bool   `json:"is_active" example:"true"`
}

// Create sets up a new sync configuration for the authenticated user
func (h *SyncConfigHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req CreateSyncConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := syncapp.CreateSyncConfigurationRequest{
		Platform:            sync.PlatformCode(req.Platform),
		Direction:           sync.Direction(req.Direction),
		SyncIntervalSeconds: req.SyncIntervalSeconds,
		Settings:            req.Settings,
	}

	config, err := h.configService.Setup(c.Request.Context(), userID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, config)
}

// List returns all sync configurations owned by the authenticated user
func (h *SyncConfigHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	configs, err := h.configService.List(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, configs)
}

// GetByID returns one sync configuration by ID
func (h *SyncConfigHandler) GetByID(c *gin.Context) {
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

	config, err := h.configService.Get(c.Request.Context(), userID, configID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, config)
}

// Update applies a partial edit to a sync configuration
func (h *SyncConfigHandler) Update(c *gin.Context) {
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

	var req UpdateSyncConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := syncapp.UpdateSyncConfigurationRequest{
		SyncIntervalSeconds: req.SyncIntervalSeconds,
		Settings:            req.Settings,
		IsActive:            req.IsActive,
	}
	if req.Direction != nil {
		direction := sync.Direction(*req.Direction)
		appReq.Direction = &direction
	}

	config, err := h.configService.Update(c.Request.Context(), userID, configID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, config)
}

// Deactivate soft-deletes a sync configuration
func (h *SyncConfigHandler) Deactivate(c *gin.Context) {
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

	if err := h.configService.Deactivate(c.Request.Context(), userID, configID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
