// Package server contains the HTTP handlers for the moderation, studio,
// notification and media endpoints.
package server

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"shutterdesk/internal/bootstrap"
	"shutterdesk/internal/config"
	"shutterdesk/internal/media"
	"shutterdesk/internal/middleware"
	"shutterdesk/internal/models"
	"shutterdesk/internal/moderation"
	"shutterdesk/internal/notifications"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Server holds the services the HTTP handlers delegate to.
type Server struct {
	config         *config.Config
	runtime        *bootstrap.Runtime
	engine         *moderation.Engine
	emitter        *notifications.Emitter
	media          *media.Service
	auth           *middleware.Auth
	redis          *redis.Client
	hub            *notifications.Hub
	streamCancel   context.CancelFunc
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
}

// NewServer creates a server with all dependencies.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, rt), nil
}

// NewServerWithDeps creates a Server over an already-initialized runtime.
// Tests use it with an in-memory sqlite runtime.
func NewServerWithDeps(cfg *config.Config, rt *bootstrap.Runtime) *Server {
	return &Server{
		config:         cfg,
		runtime:        rt,
		engine:         rt.Engine,
		emitter:        rt.Emitter,
		media:          rt.Media,
		auth:           middleware.NewAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		redis:          rt.Redis,
		hub:            notifications.NewHub(),
		promMiddleware: middleware.InitMetrics("shutterdesk-api"),
	}
}

// NewApp builds the fiber app with the JSON error handler.
func (s *Server) NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   "Shutterdesk API",
		BodyLimit: int(s.media.MaxUploadSizeBytes()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(nil))
		},
	})
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/health")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all application routes.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if base := s.media.PublicBaseURL(); strings.HasPrefix(base, "/") {
		app.Get(base+"/:hash/:file", s.ServeMedia)
	}

	api := app.Group("/api")
	api.Get("/home", s.GetHomeFeed)
	api.Get("/notifications/ws", s.auth.RequiredStream(), s.NotificationStreamUpgrade, s.NotificationStream())

	protected := api.Group("", s.auth.Required())

	content := protected.Group("/content")
	content.Post("/", middleware.RateLimit(
		s.redis, 20, 10*time.Minute, "submit_content"), s.SubmitContent)
	content.Get("/mine", s.GetMyContent)
	content.Post("/:id/request-review", s.RequestReview)
	content.Get("/:id", s.GetContent)

	protected.Post("/media", middleware.RateLimit(
		s.redis, 30, 10*time.Minute, "upload_media"), s.UploadMedia)

	notes := protected.Group("/notifications")
	notes.Get("/unread", s.GetUnreadNotifications)
	notes.Get("/", s.GetNotifications)
	notes.Post("/read-all", s.MarkAllNotificationsRead)
	notes.Post("/:id/read", s.MarkNotificationRead)
	notes.Delete("/:id", s.DeleteNotification)

	admin := protected.Group("/admin", s.auth.AdminRequired())
	adminContent := admin.Group("/content")
	adminContent.Get("/", s.ListContent)
	adminContent.Get("/counts", s.GetContentCounts)
	adminContent.Post("/:id/approve", s.ApproveContent)
	adminContent.Post("/:id/reject", s.RejectContent)
	adminContent.Post("/:id/home", s.SetHomeVisibility)
	adminContent.Delete("/:id", s.DeleteContent)
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the store and Redis. Redis being absent degrades the
// service but does not make it unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if err := s.runtime.PingStore(ctx); err != nil {
		storeStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case storeStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus != "healthy":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.NewApp()
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if err := s.StartNotificationStream(context.Background()); err != nil {
		log.Printf("notification stream unavailable, clients fall back to polling: %v", err)
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.streamCancel != nil {
		s.streamCancel()
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error closing notification streams: %v", err)
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	s.runtime.Close(ctx)

	log.Println("Server shutdown complete")
	return nil
}
