package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KakashiUchiha12/studyHi-sub002/config"
	"github.com/KakashiUchiha12/studyHi-sub002/controllers"
	"github.com/KakashiUchiha12/studyHi-sub002/database"
	"github.com/KakashiUchiha12/studyHi-sub002/middleware"
	"github.com/KakashiUchiha12/studyHi-sub002/repository"
	"github.com/KakashiUchiha12/studyHi-sub002/routes"
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"github.com/KakashiUchiha12/studyHi-sub002/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	app, err := NewApplication()
	if err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Start(); err != nil {
		logrus.Fatalf("Failed to start application: %v", err)
	}
}

// Application holds the wired components and the HTTP server.
type Application struct {
	config *config.Config
	logger *logrus.Logger
	client *mongo.Client
	trash  *services.TrashService
	server *http.Server
}

// NewApplication loads configuration, connects the database, and wires the
// repository, service, and HTTP layers together.
func NewApplication() (*Application, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	client, db, err := database.Connect(cfg.MongoURI, cfg.DBName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}

	var s3cfg *storage.S3Config
	if cfg.StorageProvider == "s3" {
		s3cfg = &storage.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		}
	}
	backend, err := storage.NewClient(cfg.StorageProvider, cfg.UploadPath, s3cfg)
	if err != nil {
		return nil, err
	}

	users := repository.NewUserRepository(db, database.UsersCollection)
	drives := repository.NewDriveRepository(db, database.DrivesCollection)
	folders := repository.NewFolderRepository(db, database.FoldersCollection)
	files := repository.NewFileRepository(db, database.FilesCollection)
	subjects := repository.NewSubjectRepository(db, database.SubjectsCollection, database.ChaptersCollection, database.MaterialsCollection, files)
	activities := repository.NewActivityRepository(db, database.ActivitiesCollection)

	clock := services.SystemClock{}
	driveService := services.NewDriveService(drives, folders, files, clock, cfg.DefaultStorageLimit, cfg.DefaultBandwidthLimit)
	bandwidthService := services.NewBandwidthService(drives, clock)
	folderService := services.NewFolderService(folders, files, activities, clock)
	fileService := services.NewFileService(drives, files, folders, bandwidthService, activities, backend, clock)
	trashService := services.NewTrashService(drives, folders, files, activities, backend, clock, logger)
	duplicateService := services.NewDuplicateService(files)
	activityService := services.NewActivityService(activities, clock)
	syncService := services.NewSyncService(drives, folderService, folders, files, subjects, activities, clock, logger)
	importService := services.NewImportService(drives, folderService, files, subjects, duplicateService, backend, activities, clock, logger)
	authService := services.NewAuthService(users, driveService, clock)

	ctrl := &routes.Controllers{
		Auth:     controllers.NewAuthController(authService),
		Drive:    controllers.NewDriveController(driveService, bandwidthService),
		Folder:   controllers.NewFolderController(driveService, folderService),
		File:     controllers.NewFileController(driveService, fileService, folderService),
		Trash:    controllers.NewTrashController(driveService, trashService),
		Sync:     controllers.NewSyncController(syncService),
		Import:   controllers.NewImportController(importService),
		Activity: controllers.NewActivityController(driveService, activityService),
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitRequests)
	}

	router := gin.New()
	routes.Setup(router, ctrl, &routes.Options{
		Users:          users,
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:    limiter,
	})

	return &Application{
		config: cfg,
		logger: logger,
		client: client,
		trash:  trashService,
		server: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

// Start runs the HTTP server and the background trash sweeper until the
// process receives an interrupt.
func (app *Application) Start() error {
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go app.purgeExpiredLoop(sweepCtx)

	go func() {
		app.logger.WithFields(logrus.Fields{
			"port":        app.config.Port,
			"environment": app.config.Environment,
		}).Info("Server starting")

		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.logger.Info("Shutting down server")

	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.server.Shutdown(ctx); err != nil {
		return err
	}

	if err := database.Disconnect(app.client); err != nil {
		app.logger.Warnf("Database disconnect failed: %v", err)
	}
	app.logger.Info("Server stopped")
	return nil
}

// purgeExpiredLoop permanently removes trash entries older than the
// retention window on a fixed interval.
func (app *Application) purgeExpiredLoop(ctx context.Context) {
	ticker := time.NewTicker(app.config.TrashPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := app.trash.PurgeExpired(ctx)
			if err != nil {
				app.logger.Warnf("Trash sweep failed: %v", err)
				continue
			}
			if purged > 0 {
				app.logger.WithField("purged", purged).Info("Trash sweep completed")
			}
		}
	}
}
