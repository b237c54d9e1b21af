package controllers

import (
	"fmt"
	"net/http"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/gin-gonic/gin"
)

type FileController struct {
	driveService  *services.DriveService
	fileService   *services.FileService
	folderService *services.FolderService
}

func NewFileController(driveService *services.DriveService, fileService *services.FileService, folderService *services.FolderService) *FileController {
	return &FileController{
		driveService:  driveService,
		fileService:   fileService,
		folderService: folderService,
	}
}

// Upload stores a multipart file in the caller's drive.
func (fc *FileController) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.FileUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file provided")
		return
	}

	folderID, ok := optionalObjectID(c, req.FolderID, "folder ID")
	if !ok {
		return
	}

	drive, err := fc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	file, err := fc.fileService.Upload(c.Request.Context(), user.ID, drive.ID, folderID, header, req.IsPublic)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to upload file")
		return
	}

	utils.CreatedResponse(c, "File uploaded successfully", file)
}

// GetFile returns a file's metadata.
func (fc *FileController) GetFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fileID, ok := parseObjectID(c, c.Param("id"), "file ID")
	if !ok {
		return
	}

	drive, err := fc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	file, err := fc.fileService.GetFile(c.Request.Context(), drive.ID, fileID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get file")
		return
	}

	utils.SuccessResponse(c, "File retrieved successfully", file)
}

// Download streams a file's bytes, charging the drive's daily bandwidth.
func (fc *FileController) Download(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fileID, ok := parseObjectID(c, c.Param("id"), "file ID")
	if !ok {
		return
	}

	drive, err := fc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	reader, file, err := fc.fileService.Download(c.Request.Context(), user.ID, drive.ID, fileID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to download file")
		return
	}
	defer reader.Close()

	disposition := fmt.Sprintf("attachment; filename=%q", file.OriginalName)
	c.DataFromReader(http.StatusOK, file.Size, file.MimeType, reader, map[string]string{
		"Content-Disposition": disposition,
	})
}

// MoveFile relocates a file to another folder (or the drive root).
func (fc *FileController) MoveFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fileID, ok := parseObjectID(c, c.Param("id"), "file ID")
	if !ok {
		return
	}

	var req models.FolderMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	folderID, ok := optionalObjectID(c, req.ParentID, "folder ID")
	if !ok {
		return
	}

	drive, err := fc.driveService.GetOrProvision(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err, "Failed to get drive")
		return
	}

	if err := fc.folderService.MoveFile(c.Request.Context(), user.ID, drive.ID, fileID, folderID); err != nil {
		serviceErrorResponse(c, err, "Failed to move file")
		return
	}

	utils.SuccessResponse(c, "File moved successfully", nil)
}
