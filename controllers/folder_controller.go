package controllers

import (
	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/gin-gonic/gin"
)

type FolderController struct {
	driveService  *services.DriveService
	folderService *services.FolderService
}

func NewFolderController(driveService *services.DriveService, folderService *services.FolderService) *FolderController {
	return &FolderController{
		driveService:  driveService,
		folderService: folderService,
	}
}

// ListContents returns the folders and files under a folder, or under the
// drive root when no parent_id is given.
func (fc *FolderController) ListContents(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	parentID, ok := optionalObjectID(c, c.Query("parent_id"), "folder ID")
	if !ok {
		return
	}

	drive, err := fc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	contents, err := fc.folderService.ListChildren(c.Request.Context(), drive.ID, parentID, false)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to list folder contents")
		return
	}

	utils.SuccessResponse(c, "Folder contents retrieved successfully", contents)
}

// GetFolder returns a single folder.
func (fc *FolderController) GetFolder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	folderID, ok := parseObjectID(c, c.Param("id"), "folder ID")
	if !ok {
		return
	}

	drive, err := fc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	folder, err := fc.folderService.GetFolder(c.Request.Context(), drive.ID, folderID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get folder")
		return
	}

	utils.SuccessResponse(c, "Folder retrieved successfully", folder)
}

// CreateFolder creates a new folder.
func (fc *FolderController) CreateFolder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.FolderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	parentID, ok := optionalObjectID(c, req.ParentID, "parent folder ID")
	if !ok {
		return
	}

	drive, err := fc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	folder, err := fc.folderService.CreateFolder(c.Request.Context(), user.ID, drive.ID, parentID, req.Name, req.IsPublic)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to create folder")
		return
	}

	utils.CreatedResponse(c, "Folder created successfully", folder)
}

// MoveFolder re-parents a folder.
func (fc *FolderController) MoveFolder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	folderID, ok := parseObjectID(c, c.Param("id"), "folder ID")
	if !ok {
		return
	}

	var req models.FolderMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	parentID, ok := optionalObjectID(c, req.ParentID, "parent folder ID")
	if !ok {
		return
	}

	drive, err := fc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	if err := fc.folderService.Move(c.Request.Context(), user.ID, drive.ID, folderID, parentID); err != nil {
		serviceErrorResponse(c, err, "Failed to move folder")
		return
	}

	utils.SuccessResponse(c, "Folder moved successfully", nil)
}

// RenameFolder changes a folder's name.
func (fc *FolderController) RenameFolder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	folderID, ok := parseObjectID(c, c.Param("id"), "folder ID")
	if !ok {
		return
	}

	var req models.FolderRenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	drive, err := fc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	folder, err := fc.folderService.Rename(c.Request.Context(), user.ID, drive.ID, folderID, req.Name)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to rename folder")
		return
	}

	utils.SuccessResponse(c, "Folder renamed successfully", folder)
}
