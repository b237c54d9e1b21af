package controllers

import (
	"time"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/gin-gonic/gin"
)

type DriveController struct {
	driveService     *services.DriveService
	bandwidthService *services.BandwidthService
}

func NewDriveController(driveService *services.DriveService, bandwidthService *services.BandwidthService) *DriveController {
	return &DriveController{
		driveService:     driveService,
		bandwidthService: bandwidthService,
	}
}

// GetStats returns storage and bandwidth usage for the caller's drive.
func (dc *DriveController) GetStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := dc.driveService.Stats(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive stats")
		return
	}

	utils.SuccessResponse(c, "Drive stats retrieved successfully", stats)
}

// UpdateCopyPolicy changes whether other accounts may copy from this drive.
func (dc *DriveController) UpdateCopyPolicy(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CopyPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}
	if !req.AllowCopying.Valid() {
		utils.BadRequestResponse(c, "Invalid copy policy")
		return
	}

	if err := dc.driveService.SetCopyPolicy(c.Request.Context(), user.ID, req.AllowCopying); err != nil {
		serviceErrorResponse(c, err, "Failed to update copy policy")
		return
	}

	utils.SuccessResponse(c, "Copy policy updated successfully", gin.H{
		"allow_copying": req.AllowCopying,
	})
}

// GetBandwidth returns the caller's remaining daily download budget.
func (dc *DriveController) GetBandwidth(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	drive, err := dc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	state, countdown, err := dc.bandwidthService.Status(c.Request.Context(), drive.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get bandwidth status")
		return
	}

	utils.SuccessResponse(c, "Bandwidth status retrieved successfully", gin.H{
		"bandwidth_used":      state.BandwidthUsed,
		"bandwidth_limit":     state.BandwidthLimit,
		"bandwidth_remaining": state.BandwidthLimit - state.BandwidthUsed,
		"reset_at":            state.BandwidthResetAt.Format(time.RFC3339),
		"resets_in":           countdown.String(),
	})
}
