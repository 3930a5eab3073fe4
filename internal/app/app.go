package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"excel_interviewer_backend/internal/config"
	"excel_interviewer_backend/internal/controller"
	"excel_interviewer_backend/internal/questionbank"
	"excel_interviewer_backend/internal/repository"
	"excel_interviewer_backend/internal/service"
	"excel_interviewer_backend/pkg/configwatcher"
	"excel_interviewer_backend/pkg/database"
	"excel_interviewer_backend/pkg/logger"
	"excel_interviewer_backend/pkg/monitoring"
	"excel_interviewer_backend/pkg/security"
	"excel_interviewer_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Bank     *questionbank.Bank
	services *services
}

type repositories struct {
	interview *repository.InterviewRepository
}

type services struct {
	scoring   *service.ScoringService
	interview *service.InterviewService
	report    *service.ReportService
	admin     *service.AdminService
	storage   *service.StorageService
}

type controllers struct {
	interview *controller.InterviewController
	report    *controller.ReportController
	admin     *controller.AdminController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		interview: repository.NewInterviewRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	s.scoring = service.NewScoringService(cfg.AI, logger.Log)
	s.interview = service.NewInterviewService(repos.interview, a.Bank, s.scoring, cfg.Interview, logger.Log)
	s.report = service.NewReportService(repos.interview, s.scoring, rdb, cfg.Interview.ReportCacheTTL, logger.Log)
	s.admin = service.NewAdminService(cfg)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		interview: controller.NewInterviewController(s.interview),
		report:    controller.NewReportController(s.report),
		admin:     controller.NewAdminController(s.admin, s.interview, s.report, s.storage),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// watchPolicy re-applies the interview thresholds when the config file changes.
func (a *App) watchPolicy(configFile string) {
	go configwatcher.WatchConfig(configFile, func(cfg *config.Config) {
		a.services.interview.UpdatePolicy(cfg.Interview)
		logger.Log.Info("Interview policy reloaded",
			zap.Float64("low_threshold", cfg.Interview.LowThreshold),
			zap.Float64("high_threshold", cfg.Interview.HighThreshold),
			zap.Int("questions_per_category", cfg.Interview.QuestionsPerCategory))
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
	} else {
		logger.Log.Warn("Redis host not configured, report caching disabled")
	}

	bank, err := questionbank.Load(cfg.Interview.QuestionBankPath)
	if err != nil {
		logger.Log.Fatal("Failed to load question bank", zap.Error(err))
		log.Fatalf("Failed to load question bank: %v", err)
	}
	logger.Log.Info("Question bank loaded",
		zap.String("path", cfg.Interview.QuestionBankPath),
		zap.Int("questions", bank.Total()))

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Bank:   bank,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
		log.Fatalf("Failed to initialize services: %v", err)
	}
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("excel-interviewer", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "" || cfg.Storage.Type == "local" {
		router.Static("/exports", cfg.Storage.LocalPath)
	}

	app.watchPolicy("configs/config.yaml")

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
