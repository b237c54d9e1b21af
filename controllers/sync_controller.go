package controllers

import (
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/gin-gonic/gin"
)

type SyncController struct {
	syncService *services.SyncService
}

func NewSyncController(syncService *services.SyncService) *SyncController {
	return &SyncController{syncService: syncService}
}

// SyncSubject mirrors a subject's curriculum tree into the owner's drive.
// The operation is idempotent; re-running it reconciles renames and fills
// gaps without duplicating folders or files.
func (sc *SyncController) SyncSubject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	subjectID, ok := parseObjectID(c, c.Param("id"), "subject ID")
	if !ok {
		return
	}

	result, err := sc.syncService.SyncSubject(c.Request.Context(), user.ID, subjectID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to sync subject")
		return
	}

	utils.SuccessResponse(c, "Subject synced successfully", result)
}
