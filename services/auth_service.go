package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AuthService is the thin account boundary in front of the drive: register,
// login, token issuance. Session management beyond the access token lives
// elsewhere in the platform.
type AuthService struct {
	users  UserStore
	drives *DriveService
	clock  Clock
}

func NewAuthService(users UserStore, drives *DriveService, clock Clock) *AuthService {
	return &AuthService{users: users, drives: drives, clock: clock}
}

// Register creates the account and provisions its drive immediately.
func (as *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, string, error) {
	if existing, err := as.users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, "", ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %v", err)
	}

	now := as.clock.Now()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashed),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := as.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %v", err)
	}

	if _, err := as.drives.GetOrProvision(ctx, user.ID); err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}
	return user, token, nil
}

// Login verifies credentials and issues an access token.
func (as *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	user, err := as.users.GetByEmail(ctx, req.Email)
	if err != nil || user == nil || !user.IsActive {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}
	return user, token, nil
}
