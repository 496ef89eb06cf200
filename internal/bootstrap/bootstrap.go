package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/ekene/classpulse/internal/app/controllers"
	appMigrations "github.com/ekene/classpulse/internal/app/migrations"
	appRepos "github.com/ekene/classpulse/internal/app/repositories"
	appRoutes "github.com/ekene/classpulse/internal/app/routes"
	appServices "github.com/ekene/classpulse/internal/app/services"
	"github.com/ekene/classpulse/internal/config"
	"github.com/ekene/classpulse/internal/db"
	appMiddleware "github.com/ekene/classpulse/internal/middleware"
	pkgAuth "github.com/ekene/classpulse/internal/pkg/auth"
	"github.com/ekene/classpulse/internal/pkg/logger"
	"github.com/ekene/classpulse/internal/pkg/queue"
	"github.com/ekene/classpulse/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AttendanceService   appServices.AttendanceService
	AuthService         appServices.AuthService
	NotificationService appServices.NotificationService

	AuthController         *appControllers.AuthController
	AttendanceController   *appControllers.AttendanceController
	NotificationController *appControllers.NotificationController
	HealthController       *appControllers.HealthController

	AuthMiddleware *appMiddleware.AuthMiddleware
	CheckInLimiter *appMiddleware.RateLimiter
	JWTService     *pkgAuth.JWTService

	SessionStore      appRepos.SessionStore
	NotificationStore appRepos.NotificationStore
	DBHealth          *db.Health
	Redis             *redis.Client
	Queue             queue.Queue

	// RunLocalWorker is set when no redis queue is configured; the in-memory
	// queue only works if this process consumes it too.
	RunLocalWorker bool

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds default accounts.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(ctx, dbPool, cfg, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes stores, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.DBHealth = db.NewHealth(dbPool)
	online := deps.DBHealth.Online

	// Persistent stores carry the data; in-process fallbacks keep the service
	// usable through database outages. The dual wrappers pick per call.
	sessionStore := appRepos.NewDualSessionStore(
		appRepos.NewSessionRepository(dbPool),
		appRepos.NewMemorySessionStore(),
		online,
	)
	checkInStore := appRepos.NewDualCheckInStore(
		appRepos.NewCheckInRepository(dbPool),
		appRepos.NewMemoryCheckInStore(),
		online,
	)
	userRepo := appRepos.NewUserRepository(dbPool)
	notificationStore := appRepos.NewNotificationRepository(dbPool)

	deps.SessionStore = sessionStore
	deps.NotificationStore = notificationStore

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.JWTAccessTokenExp(),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	// Notification delivery: redis queue when configured, otherwise an
	// in-memory queue drained by a worker goroutine in this process.
	if cfg.Redis.Enabled {
		redisClient, err := db.NewRedisClient(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to redis")
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Redis = redisClient
		deps.Queue = queue.NewRedisQueue(redisClient, cfg.Redis.QueueKey)
		lgr.Info().Str("queueKey", cfg.Redis.QueueKey).Msg("Using redis notification queue")
	} else {
		deps.Queue = queue.NewInMemory(256)
		deps.RunLocalWorker = true
		lgr.Info().Msg("Using in-memory notification queue")
	}
	notifier := appServices.NewQueueNotifier(deps.Queue)

	deps.AttendanceService = appServices.NewAttendanceService(
		sessionStore,
		checkInStore,
		userRepo,
		notifier,
		appServices.AttendanceConfig{
			DefaultDuration: time.Duration(cfg.Attendance.DefaultDurationMinutes) * time.Minute,
			MaxDuration:     time.Duration(cfg.Attendance.MaxDurationMinutes) * time.Minute,
		},
		lgr,
	)
	deps.AuthService = appServices.NewAuthService(userRepo, deps.JWTService, lgr)
	deps.NotificationService = appServices.NewNotificationService(notificationStore)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.CheckInLimiter = appMiddleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.PerMinute)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.AttendanceController = appControllers.NewAttendanceController(deps.AttendanceService, lgr)
	deps.NotificationController = appControllers.NewNotificationController(deps.NotificationService, lgr)
	deps.HealthController = appControllers.NewHealthController(deps.DBHealth, deps.Redis)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(lgr))
	router.Use(appMiddleware.CORS())

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.AttendanceController,
		deps.NotificationController,
		deps.HealthController,
		deps.AuthMiddleware,
		deps.CheckInLimiter,
	)

	return router
}
