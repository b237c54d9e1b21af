package controllers

import (
	"errors"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService *services.AuthService
}

func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register creates a new account and provisions its drive.
func (ac *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	user, token, err := ac.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			utils.ConflictResponse(c, "Email already registered")
			return
		}
		utils.InternalServerErrorResponse(c, "Failed to register user")
		return
	}

	utils.CreatedResponse(c, "User registered successfully", gin.H{
		"user":  user,
		"token": token,
	})
}

// Login authenticates an account and issues an access token.
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	user, token, err := ac.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.UnauthorizedResponse(c, "Invalid email or password")
			return
		}
		utils.InternalServerErrorResponse(c, "Failed to login")
		return
	}

	utils.SuccessResponse(c, "Login successful", gin.H{
		"user":  user,
		"token": token,
	})
}

// Profile returns the authenticated account.
func (ac *AuthController) Profile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, "Profile retrieved successfully", user)
}
