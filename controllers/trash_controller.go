package controllers

import (
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TrashController struct {
	driveService *services.DriveService
	trashService *services.TrashService
}

func NewTrashController(driveService *services.DriveService, trashService *services.TrashService) *TrashController {
	return &TrashController{
		driveService: driveService,
		trashService: trashService,
	}
}

// List returns the caller's trashed folders and files.
func (tc *TrashController) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	drive, err := tc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	contents, err := tc.trashService.ListTrash(c.Request.Context(), drive.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to list trash")
		return
	}

	utils.SuccessResponse(c, "Trash retrieved successfully", contents)
}

type trashOp func(c *gin.Context, actorID, driveID, targetID primitive.ObjectID) error

func (tc *TrashController) run(c *gin.Context, label, success string, op trashOp) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	targetID, ok := parseObjectID(c, c.Param("id"), label)
	if !ok {
		return
	}

	drive, err := tc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	if err := op(c, user.ID, drive.ID, targetID); err != nil {
		serviceErrorResponse(c, err, "Operation failed")
		return
	}

	utils.SuccessResponse(c, success, nil)
}

// TrashFile moves a file to the trash.
func (tc *TrashController) TrashFile(c *gin.Context) {
	tc.run(c, "file ID", "File moved to trash", func(c *gin.Context, actorID, driveID, id primitive.ObjectID) error {
		return tc.trashService.TrashFile(c.Request.Context(), actorID, driveID, id)
	})
}

// TrashFolder moves a folder and its contents to the trash.
func (tc *TrashController) TrashFolder(c *gin.Context) {
	tc.run(c, "folder ID", "Folder moved to trash", func(c *gin.Context, actorID, driveID, id primitive.ObjectID) error {
		return tc.trashService.TrashFolder(c.Request.Context(), actorID, driveID, id)
	})
}

// RestoreFile returns a trashed file to its folder, or the drive root when
// the folder is itself trashed.
func (tc *TrashController) RestoreFile(c *gin.Context) {
	tc.run(c, "file ID", "File restored", func(c *gin.Context, actorID, driveID, id primitive.ObjectID) error {
		return tc.trashService.RestoreFile(c.Request.Context(), actorID, driveID, id)
	})
}

// RestoreFolder returns a trashed folder to the tree.
func (tc *TrashController) RestoreFolder(c *gin.Context) {
	tc.run(c, "folder ID", "Folder restored", func(c *gin.Context, actorID, driveID, id primitive.ObjectID) error {
		return tc.trashService.RestoreFolder(c.Request.Context(), actorID, driveID, id)
	})
}

// PurgeFile deletes a trashed file permanently and releases its storage.
func (tc *TrashController) PurgeFile(c *gin.Context) {
	tc.run(c, "file ID", "File permanently deleted", func(c *gin.Context, actorID, driveID, id primitive.ObjectID) error {
		return tc.trashService.PurgeFile(c.Request.Context(), actorID, driveID, id)
	})
}

// PurgeFolder deletes a trashed folder and everything under it permanently.
func (tc *TrashController) PurgeFolder(c *gin.Context) {
	tc.run(c, "folder ID", "Folder permanently deleted", func(c *gin.Context, actorID, driveID, id primitive.ObjectID) error {
		return tc.trashService.PurgeFolder(c.Request.Context(), actorID, driveID, id)
	})
}
