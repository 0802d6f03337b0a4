package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/internal/timetable"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

// @title School Timetable API
// @version 0.1.0
// @description Weekly timetable resolution and layout service
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Timetable.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			// The cache only saves reassembly work; the API stays up without it.
			logr.Sugar().Warnw("redis unavailable, serving without cache", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Timetable.CacheTTL, logr, true)
		}
	}

	lessonRepo := repository.NewLessonRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	resolver := service.NewTeacherResolver(assignmentRepo, classRepo, teacherRepo, metrics, logr, cfg.Timetable.ResolverConcurrency)
	grid := timetable.Grid{
		StartHour:   cfg.Timetable.GridStartHour,
		EndHour:     cfg.Timetable.GridEndHour,
		RowHeightPx: cfg.Timetable.RowHeightPx,
		MinHeightPx: cfg.Timetable.MinEventHeightPx,
	}
	timetableSvc := service.NewTimetableService(lessonRepo, classRepo, subjectRepo, enrollmentRepo, resolver, cacheSvc, grid, logr)
	mutationSvc := service.NewLessonMutationService(lessonRepo, cacheSvc, validator.New(), metrics, logr)

	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	lessonHandler := handler.NewLessonHandler(mutationSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.GET("/timetable", timetableHandler.Week)
	api.GET("/students/:id/timetable", timetableHandler.StudentWeek)
	api.POST("/lessons", lessonHandler.Create)
	api.PUT("/lessons/:id", lessonHandler.Update)
	api.DELETE("/lessons/:id", lessonHandler.Delete)

	if cfg.Export.Enabled {
		exportHandler := handler.NewExportHandler(timetableSvc)
		api.GET("/timetable/export.pdf", exportHandler.PDF)
		api.GET("/timetable/export.csv", exportHandler.CSV)

		if cfg.Export.SignSecret == "" {
			logr.Sugar().Warnw("archive endpoints disabled, EXPORT_SIGN_SECRET is not set")
		} else {
			store, err := storage.NewLocalStorage(cfg.Export.ArchiveDir)
			if err != nil {
				logr.Sugar().Fatalw("failed to init archive storage", "error", err)
			}
			signer := storage.NewSignedURLSigner(cfg.Export.SignSecret, cfg.Export.SignTTL)
			archiveSvc := service.NewArchiveService(timetableSvc, store, signer, cfg.Export.ArchiveWorkers, logr)
			archiveSvc.Start(context.Background())
			defer archiveSvc.Stop()

			archiveHandler := handler.NewArchiveHandler(archiveSvc)
			api.POST("/timetable/archives", archiveHandler.Schedule)
			api.GET("/timetable/archives/:token", archiveHandler.Download)
		}
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
