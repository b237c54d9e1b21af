package controllers

import (
	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ImportController struct {
	importService *services.ImportService
}

func NewImportController(importService *services.ImportService) *ImportController {
	return &ImportController{importService: importService}
}

// skipDuplicates defaults to true when the request leaves it unset.
func skipDuplicates(flag *bool) bool {
	if flag == nil {
		return true
	}
	return *flag
}

// ImportFiles copies individual files from another account's drive.
func (ic *ImportController) ImportFiles(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.ImportFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	sourceUserID, ok := parseObjectID(c, req.SourceUserID, "source user ID")
	if !ok {
		return
	}

	fileIDs := make([]primitive.ObjectID, 0, len(req.FileIDs))
	for _, raw := range req.FileIDs {
		id, ok := parseObjectID(c, raw, "file ID")
		if !ok {
			return
		}
		fileIDs = append(fileIDs, id)
	}

	folderID, ok := optionalObjectID(c, req.FolderID, "folder ID")
	if !ok {
		return
	}

	result, err := ic.importService.ImportFiles(c.Request.Context(), user.ID, sourceUserID, fileIDs, folderID, skipDuplicates(req.SkipDuplicates))
	if err != nil {
		serviceErrorResponse(c, err, "Failed to import files")
		return
	}

	utils.SuccessResponse(c, "Import completed", result)
}

// ImportFolder copies a whole folder tree from another account's drive.
func (ic *ImportController) ImportFolder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.ImportFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	sourceUserID, ok := parseObjectID(c, req.SourceUserID, "source user ID")
	if !ok {
		return
	}
	folderID, ok := parseObjectID(c, req.FolderID, "folder ID")
	if !ok {
		return
	}

	result, err := ic.importService.ImportFolder(c.Request.Context(), user.ID, sourceUserID, folderID, skipDuplicates(req.SkipDuplicates))
	if err != nil {
		serviceErrorResponse(c, err, "Failed to import folder")
		return
	}

	utils.SuccessResponse(c, "Import completed", result)
}

// ImportSubject copies a subject's curriculum, including its files, from
// another account.
func (ic *ImportController) ImportSubject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.ImportSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	sourceUserID, ok := parseObjectID(c, req.SourceUserID, "source user ID")
	if !ok {
		return
	}
	subjectID, ok := parseObjectID(c, req.SubjectID, "subject ID")
	if !ok {
		return
	}

	result, err := ic.importService.ImportSubject(c.Request.Context(), user.ID, sourceUserID, subjectID, skipDuplicates(req.SkipDuplicates))
	if err != nil {
		serviceErrorResponse(c, err, "Failed to import subject")
		return
	}

	utils.SuccessResponse(c, "Import completed", result)
}
