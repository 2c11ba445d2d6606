package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"quotebook/internal/config"
	"quotebook/internal/drafts"
	"quotebook/internal/events"
	"quotebook/internal/feeds"
	"quotebook/internal/handlers"
	"quotebook/internal/logging"
	"quotebook/internal/middleware"
	"quotebook/internal/repositories"
	"quotebook/internal/services"
	"quotebook/pkg/mailer"
	"quotebook/pkg/openid"
	"quotebook/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	v := viper.New()
	v.AutomaticEnv()
	cfg, err := config.Load(v)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(appLogger)

	srv, err := newServer(cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to initialise server", slog.Any("error", err))
		os.Exit(1)
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		appLogger.Info("starting server", slog.String("addr", cfg.AppPort))
		if err := srv.app.Listen(cfg.AppPort); err != nil {
			appLogger.Error("server failed to start", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	<-quit
	appLogger.Info("shutting down server")

	if err := srv.app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("error during Fiber shutdown", slog.Any("error", err))
	}
	if err := srv.Close(); err != nil {
		appLogger.Error("error releasing resources", slog.Any("error", err))
	}
	appLogger.Info("server gracefully stopped")
}

// server is the assembled application and the resources it must release.
type server struct {
	app     *fiber.App
	db      *gorm.DB
	closers []func() error
	cancel  context.CancelFunc
}

// Close stops the event consumer and releases connections in reverse order of opening.
func (s *server) Close() error {
	s.cancel()
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newServer wires repositories, services and handlers from cfg.
func newServer(cfg *config.Config, appLogger *slog.Logger) (_ *server, err error) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &server{cancel: cancel}
	defer func() {
		if err != nil {
			srv.Close()
		}
	}()

	// --- Database ---
	db, err := repositories.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	srv.db = db
	srv.closers = append(srv.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	if err := repositories.Migrate(db); err != nil {
		return nil, err
	}

	userRepo := repositories.NewGORMUserRepository(db)
	contextRepo := repositories.NewGORMContextRepository(db)
	quoteRepo := repositories.NewGORMQuoteRepository(db)
	commentRepo := repositories.NewGORMCommentRepository(db)

	// --- Draft staging ---
	var draftStore drafts.Store
	if cfg.RedisURL != "" {
		redisStore, err := drafts.NewRedisStore(cfg.RedisURL, cfg.DraftTTL)
		if err != nil {
			return nil, err
		}
		srv.closers = append(srv.closers, redisStore.Close)
		draftStore = redisStore
	} else {
		appLogger.Warn("REDIS_URL not set, staged quotes are kept in memory")
		draftStore = drafts.NewMemoryStore(cfg.DraftTTL)
	}

	// --- Mail ---
	var mail mailer.Mailer
	if cfg.SMTP.Configured() {
		smtpMailer, err := mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.MailFrom,
			Timeout:  cfg.MailTimeout,
		})
		if err != nil {
			return nil, err
		}
		mail = smtpMailer
	} else {
		appLogger.Warn("SMTP_HOST not set, notifications are only logged")
		mail = mailer.NewLogMailer(appLogger)
	}
	notifications := services.NewNotificationService(quoteRepo, commentRepo, mail, cfg.BaseURL, cfg.MailTimeout, appLogger)

	// --- Domain events ---
	var publisher events.Publisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, appLogger)
		if err != nil {
			return nil, err
		}
		srv.closers = append(srv.closers, mqClient.Close)
		if err := mqClient.Consume(events.Decode(ctx, notifications.HandleEvent)); err != nil {
			return nil, err
		}
		publisher = events.NewBrokerPublisher(mqClient)
	} else {
		publisher = events.NewDirectPublisher(notifications.HandleEvent)
	}

	// --- Identity provider ---
	var provider openid.Provider = openid.RejectingProvider{}
	if cfg.TrustAssertions {
		appLogger.Warn("AUTH_TRUST_ASSERTIONS is on, identity assertions are not verified")
		provider = openid.NewTrustedProvider()
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, provider, cfg.JWTSecret, cfg.SessionTTL, appLogger)
	resolver := services.NewNameResolver(userRepo, contextRepo)
	quoteService := services.NewQuoteService(quoteRepo, contextRepo, userRepo, resolver, draftStore, publisher, cfg.Moderators, appLogger)
	commentService := services.NewCommentService(commentRepo, quoteService, publisher, appLogger)
	contextService := services.NewContextService(contextRepo, quoteRepo)
	userService := services.NewUserService(userRepo, appLogger)
	listingService := services.NewListingService(quoteRepo, commentRepo, contextRepo)

	// --- Handlers ---
	listings := handlers.NewListings(listingService, feeds.NewBuilder(cfg.BaseURL))
	requireLogin := middleware.AuthRequired(authService, appLogger)

	app := fiber.New(fiber.Config{AppName: "theQuotebook"})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(requestLogger(appLogger))

	app.Get("/health", srv.health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(middleware.OptionalAuth(authService))
	handlers.NewHomeHandler(listingService).RegisterRoutes(app)
	handlers.NewSessionHandler(authService, quoteService, cfg.SessionTTL, appLogger).RegisterRoutes(app)
	handlers.NewUserHandler(userService, authService, listings, requireLogin, cfg.SessionTTL).RegisterRoutes(app)
	handlers.NewContextHandler(contextService, listings, requireLogin).RegisterRoutes(app)
	handlers.NewQuoteHandler(quoteService, listings, requireLogin).RegisterRoutes(app)
	handlers.NewCommentHandler(commentService, quoteService, listings, requireLogin).RegisterRoutes(app)

	srv.app = app
	return srv, nil
}

// requestLogger attaches a logger tagged with the request id to the request context.
func requestLogger(base *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqLogger := base
		if id, ok := c.Locals("requestid").(string); ok {
			reqLogger = base.With(slog.String("request_id", id))
		}
		c.SetUserContext(logging.WithContext(c.UserContext(), reqLogger))
		return c.Next()
	}
}

func (s *server) health(c *fiber.Ctx) error {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"time":     time.Now().Format(time.RFC3339),
			"database": "unreachable",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "ok",
	})
}
