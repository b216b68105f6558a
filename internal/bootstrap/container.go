package bootstrap

import (
	"context"
	"log"

	"docchat-be/internal/config"
	"docchat-be/internal/controller"
	"docchat-be/internal/conversation"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/pkg/mailer"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/internal/service"
	"docchat-be/internal/websocket"
	"docchat-be/pkg/gemini"
	"docchat-be/pkg/storage"

	pktNats "docchat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

const notificationTopic = "notifications"

type Container struct {
	// Controllers
	AuthController  controller.IAuthController
	OAuthController controller.IOAuthController

	// Shared dependencies for per-connection conversation machines.
	ConversationDeps conversation.Deps

	// WebSockets & Notification
	WebSocketHub *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// 3. Infrastructure
	docCache := memory.NewDocumentCache()
	store := storage.NewLocalStore(cfg.Upload.Dir)

	geminiClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, gemini.GenerationConfig{
		Temperature:     cfg.Gemini.Temperature,
		TopP:            cfg.Gemini.TopP,
		TopK:            cfg.Gemini.TopK,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	})
	backend := conversation.NewGeminiBackend(geminiClient, cfg.Upload.PollBaseBackoff)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// 4. Services
	accountService := service.NewAccountService(uowFactory, emailService, natsPub, cfg.App.JWTSecret)
	sessionService := service.NewSessionService(uowFactory, store, docCache, natsPub)
	oauthService := service.NewOAuthService(accountService, cfg.OAuth)

	if natsSub != nil {
		notifService := service.NewNotificationService(natsSub, pubSub, notificationTopic, wsHub, wsLogger)
		if err := notifService.Start(context.Background()); err != nil {
			log.Printf("[WARN] Failed to start notification service: %v", err)
		}
	}

	return &Container{
		AuthController:  controller.NewAuthController(accountService),
		OAuthController: controller.NewOAuthController(oauthService, cfg.App.ClientURL),
		ConversationDeps: conversation.Deps{
			Accounts:          accountService,
			Sessions:          sessionService,
			Backend:           backend,
			Store:             store,
			Log:               sysLogger,
			MaxFileSizeMB:     cfg.Upload.MaxFileSizeMB,
			ProcessTimeout:    cfg.Upload.ProcessTimeout,
			PasswordMinLength: cfg.Registration.PasswordMinLength,
		},
		WebSocketHub: wsHub,
		Logger:       sysLogger,
	}
}
