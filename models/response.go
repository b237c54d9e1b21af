package models

import "time"

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type Meta struct {
	Page       int `json:"page,omitempty"`
	Limit      int `json:"limit,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type FileUploadRequest struct {
	FolderID string `form:"folder_id"`
	Name     string `form:"name"`
	IsPublic bool   `form:"is_public"`
}

type FolderCreateRequest struct {
	Name     string `json:"name" validate:"required"`
	ParentID string `json:"parent_id,omitempty"`
	IsPublic bool   `json:"is_public"`
}

type FolderMoveRequest struct {
	ParentID string `json:"parent_id"` // empty means drive root
}

type FolderRenameRequest struct {
	Name string `json:"name" validate:"required"`
}

type CopyPolicyRequest struct {
	AllowCopying CopyPolicy `json:"allow_copying" validate:"required"`
}

type ImportFilesRequest struct {
	SourceUserID   string   `json:"source_user_id" validate:"required"`
	FileIDs        []string `json:"file_ids" validate:"required,min=1"`
	FolderID       string   `json:"folder_id,omitempty"` // destination, empty = root
	SkipDuplicates *bool    `json:"skip_duplicates,omitempty"`
}

type ImportFolderRequest struct {
	SourceUserID   string `json:"source_user_id" validate:"required"`
	FolderID       string `json:"folder_id" validate:"required"` // source folder
	SkipDuplicates *bool  `json:"skip_duplicates,omitempty"`
}

type ImportSubjectRequest struct {
	SourceUserID   string `json:"source_user_id" validate:"required"`
	SubjectID      string `json:"subject_id" validate:"required"`
	SkipDuplicates *bool  `json:"skip_duplicates,omitempty"`
}
