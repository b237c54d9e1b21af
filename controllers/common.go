package controllers

import (
	"errors"
	"net/http"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func currentUser(c *gin.Context) (*models.User, bool) {
	user, exists := utils.GetUserFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "User not found in context")
	}
	return user, exists
}

func parseObjectID(c *gin.Context, raw, label string) (primitive.ObjectID, bool) {
	if !utils.IsValidObjectID(raw) {
		utils.BadRequestResponse(c, "Invalid "+label)
		return primitive.NilObjectID, false
	}
	id, _ := utils.StringToObjectID(raw)
	return id, true
}

// optionalObjectID turns an optional request field into a folder reference.
// Empty string means drive root (nil).
func optionalObjectID(c *gin.Context, raw, label string) (*primitive.ObjectID, bool) {
	if raw == "" {
		return nil, true
	}
	id, ok := parseObjectID(c, raw, label)
	if !ok {
		return nil, false
	}
	return &id, true
}

// serviceErrorResponse translates service sentinel errors into API responses.
func serviceErrorResponse(c *gin.Context, err error, fallback string) {
	var bwErr *services.BandwidthError
	switch {
	case errors.As(err, &bwErr):
		utils.TooManyRequestsResponse(c, "Daily bandwidth limit exceeded", bwErr.ResetAt)
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "")
	case errors.Is(err, services.ErrPermissionDenied):
		utils.ForbiddenResponse(c, "Source account does not allow copying")
	case errors.Is(err, services.ErrQuotaExceeded):
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Storage quota exceeded", nil)
	case errors.Is(err, services.ErrDuplicateName):
		utils.ConflictResponse(c, "A folder with that name already exists here")
	case errors.Is(err, services.ErrCircularMove):
		utils.BadRequestResponse(c, "Cannot move a folder into itself or its descendants")
	default:
		utils.InternalServerErrorResponse(c, fallback)
	}
}
