package server

import (
	"log"

	"docchat-be/internal/bootstrap"
	"docchat-be/internal/config"
	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/serverutils"
	ws "docchat-be/internal/websocket"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		// Uploads travel base64-encoded inside websocket frames; the HTTP
		// body limit only needs to cover the auth surface.
		BodyLimit: 1 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Stored documents are served from here; citation links point into it.
	app.Static("/public", "./"+cfg.Upload.Dir)

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	api := app.Group("/api")

	c.AuthController.RegisterRoutes(api)
	c.OAuthController.RegisterRoutes(api)

	app.Use("/ws", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Uploads ride inside JSON frames as base64, so the frame limit leaves
	// headroom over the raw file limit.
	maxFrame := int64(cfg.Upload.MaxFileSizeMB) * 2 * 1024 * 1024

	app.Get("/ws/chat", serverutils.JwtMiddleware, websocket.New(func(conn *websocket.Conn) {
		ws.ServeWs(c.WebSocketHub, conn, c.ConversationDeps, identityFromLocals(conn), maxFrame)
	}))
}

// identityFromLocals rebuilds the connection identity from the claims the
// jwt middleware stashed before the upgrade.
func identityFromLocals(conn *websocket.Conn) dto.Identity {
	identity := dto.Identity{}

	if v, ok := conn.Locals(serverutils.ClaimUserID).(string); ok {
		if id, err := uuid.Parse(v); err == nil {
			identity.UserId = &id
		}
	}
	if v, ok := conn.Locals(serverutils.ClaimUsername).(string); ok {
		identity.Username = v
	}
	if v, ok := conn.Locals(serverutils.ClaimRegistrationPending).(bool); ok {
		identity.RegistrationPending = v
	}
	if v, ok := conn.Locals(serverutils.ClaimEmailHint).(string); ok {
		identity.EmailHint = v
	}
	return identity
}
