package controllers

import (
	"strconv"

	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/gin-gonic/gin"
)

type ActivityController struct {
	driveService    *services.DriveService
	activityService *services.ActivityService
}

func NewActivityController(driveService *services.DriveService, activityService *services.ActivityService) *ActivityController {
	return &ActivityController{
		driveService:    driveService,
		activityService: activityService,
	}
}

// List returns the drive's most recent activity entries, newest first.
func (ac *ActivityController) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	drive, err := ac.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	entries, err := ac.activityService.Recent(c.Request.Context(), drive.ID, limit)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to list activity")
		return
	}

	utils.SuccessResponse(c, "Activity retrieved successfully", entries)
}
