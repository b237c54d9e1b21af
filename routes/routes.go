package routes

import (
	"net/http"

	"github.com/KakashiUchiha12/studyHi-sub002/controllers"
	"github.com/KakashiUchiha12/studyHi-sub002/middleware"
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Controllers bundles every handler group the router mounts.
type Controllers struct {
	Auth     *controllers.AuthController
	Drive    *controllers.DriveController
	Folder   *controllers.FolderController
	File     *controllers.FileController
	Trash    *controllers.TrashController
	Sync     *controllers.SyncController
	Import   *controllers.ImportController
	Activity *controllers.ActivityController
}

// Options carries the cross-cutting pieces the middleware chain needs.
type Options struct {
	Users          services.UserStore
	Logger         *logrus.Logger
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
}

// Setup wires the full HTTP surface onto the engine.
func Setup(r *gin.Engine, ctrl *Controllers, opts *Options) {
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(opts.Logger))
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	if opts.RateLimiter != nil {
		v1.Use(middleware.RateLimit(opts.RateLimiter))
	}

	authRoutes(v1, ctrl)

	protected := v1.Group("")
	protected.Use(middleware.Auth(opts.Users))
	{
		driveRoutes(protected, ctrl)
		folderRoutes(protected, ctrl)
		fileRoutes(protected, ctrl)
		trashRoutes(protected, ctrl)
		subjectRoutes(protected, ctrl)
		importRoutes(protected, ctrl)
	}
}

func authRoutes(r *gin.RouterGroup, ctrl *Controllers) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
	}
}

func driveRoutes(r *gin.RouterGroup, ctrl *Controllers) {
	r.GET("/profile", ctrl.Auth.Profile)

	drive := r.Group("/drive")
	{
		drive.GET("/stats", ctrl.Drive.GetStats)
		drive.GET("/bandwidth", ctrl.Drive.GetBandwidth)
		drive.PUT("/copy-policy", ctrl.Drive.UpdateCopyPolicy)
		drive.GET("/activity", ctrl.Activity.List)
	}
}

func folderRoutes(r *gin.RouterGroup, ctrl *Controllers) {
	folders := r.Group("/folders")
	{
		folders.GET("", ctrl.Folder.ListContents)
		folders.POST("", ctrl.Folder.CreateFolder)
		folders.GET("/:id", ctrl.Folder.GetFolder)
		folders.POST("/:id/move", ctrl.Folder.MoveFolder)
		folders.PUT("/:id/rename", ctrl.Folder.RenameFolder)
		folders.DELETE("/:id", ctrl.Trash.TrashFolder)
	}
}

func fileRoutes(r *gin.RouterGroup, ctrl *Controllers) {
	files := r.Group("/files")
	{
		files.POST("/upload", ctrl.File.Upload)
		files.GET("/:id", ctrl.File.GetFile)
		files.GET("/:id/download", ctrl.File.Download)
		files.POST("/:id/move", ctrl.File.MoveFile)
		files.DELETE("/:id", ctrl.Trash.TrashFile)
	}
}

func trashRoutes(r *gin.RouterGroup, ctrl *Controllers) {
	trash := r.Group("/trash")
	{
		trash.GET("", ctrl.Trash.List)
		trash.POST("/files/:id/restore", ctrl.Trash.RestoreFile)
		trash.POST("/folders/:id/restore", ctrl.Trash.RestoreFolder)
		trash.DELETE("/files/:id", ctrl.Trash.PurgeFile)
		trash.DELETE("/folders/:id", ctrl.Trash.PurgeFolder)
	}
}

func subjectRoutes(r *gin.RouterGroup, ctrl *Controllers) {
	subjects := r.Group("/subjects")
	{
		subjects.POST("/:id/sync", ctrl.Sync.SyncSubject)
	}
}

func importRoutes(r *gin.RouterGroup, ctrl *Controllers) {
	imports := r.Group("/import")
	{
		imports.POST("/files", ctrl.Import.ImportFiles)
		imports.POST("/folder", ctrl.Import.ImportFolder)
		imports.POST("/subject", ctrl.Import.ImportSubject)
	}
}
