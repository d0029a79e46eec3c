package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/classtrack/classtrack-api/api/swagger"
	"github.com/classtrack/classtrack-api/internal/handler"
	"github.com/classtrack/classtrack-api/internal/middleware"
	"github.com/classtrack/classtrack-api/internal/repository"
	"github.com/classtrack/classtrack-api/internal/service"
	"github.com/classtrack/classtrack-api/pkg/cache"
	"github.com/classtrack/classtrack-api/pkg/config"
	"github.com/classtrack/classtrack-api/pkg/database"
	"github.com/classtrack/classtrack-api/pkg/logger"
	corsmiddleware "github.com/classtrack/classtrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classtrack/classtrack-api/pkg/middleware/requestid"
)

// @title ClassTrack API
// @version 1.0.0
// @description Personal lecture attendance scheduling and tracking
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Caching is an optimisation; the API stays up without it.
		logr.Sugar().Warnw("redis unavailable, schedule cache disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	metricsSvc := service.NewMetricsService()
	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Schedule.CacheTTL, logr, cfg.Schedule.CacheEnabled)
	}

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, cacheSvc, nil, logr, cfg.Schedule.CacheTTL)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, subjectRepo, scheduleRepo, metricsSvc, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("", middleware.JWT(authSvc))

	protected.GET("/subjects", subjectHandler.List)
	protected.POST("/subjects", subjectHandler.Create)
	protected.DELETE("/subjects/:id", subjectHandler.Delete)

	protected.GET("/schedule", scheduleHandler.Weekly)
	protected.PUT("/schedule", scheduleHandler.ReplaceWeekday)
	protected.GET("/schedule/matrix", scheduleHandler.Matrix)
	protected.PUT("/schedule/matrix", scheduleHandler.SaveMatrix)
	protected.POST("/schedule/matrix/rows", scheduleHandler.InsertRow)
	protected.DELETE("/schedule/matrix/rows", scheduleHandler.DeleteRow)
	protected.GET("/schedule/slots/common", scheduleHandler.CommonSlots)

	protected.GET("/attendance/history", attendanceHandler.History)
	protected.GET("/attendance/due", attendanceHandler.Due)
	protected.POST("/attendance/mark", attendanceHandler.Mark)
	protected.DELETE("/attendance", attendanceHandler.Clear)
	protected.GET("/attendance/stats", attendanceHandler.SubjectStats)
	protected.GET("/attendance/stats/overall", attendanceHandler.OverallStats)
	protected.GET("/attendance/report", attendanceHandler.Report)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
