package bootstrap

import (
	"context"
	"log"

	"ai-docchat-be/internal/config"
	"ai-docchat-be/internal/controller"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/internal/service"
	"ai-docchat-be/internal/websocket"
	"ai-docchat-be/pkg/chat/dispatch"
	"ai-docchat-be/pkg/events"
	"ai-docchat-be/pkg/identity"

	pktNats "ai-docchat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const catalogChangedTopic = "DOCUMENT_CATALOG_CHANGED"

type Container struct {
	// Controllers
	ProfileController  controller.IProfileController
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController
	AdminController    controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS (ingestion pipeline events in)
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis (websocket fan-out across instances)
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/chat_stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// In-Memory Session Registry (idle engines closed on eviction)
	sessionRepo := memory.NewSessionRepository(cfg.Ai.SessionTTL)

	// 3. Services
	dispatcher := dispatch.NewWebhookDispatcher(cfg.Ai.WebhookURL, cfg.Ai.QueryTimeout)

	profileService := service.NewProfileService(uowFactory, sysLogger)
	documentService := service.NewDocumentService(uowFactory)
	chatService := service.NewChatService(
		profileService,
		documentService,
		dispatcher,
		sessionRepo,
		sysLogger,
	)

	publisherService := service.NewPublisherService(catalogChangedTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, catalogChangedTopic, chatService)

	// Identity lifecycle: sign-outs tear down the user's chat engine.
	sessionBroker := identity.NewBroker()
	sessionBroker.Subscribe(chatService.HandleSessionChange)

	// Bridge: pipeline document events -> internal catalog-changed topic.
	// Both readiness and removal change the visible catalog.
	if natsSub != nil {
		onDocumentEvent := func(ctx context.Context, evt events.Event) error {
			companyIdStr, _ := evt.Payload()["company_id"].(string)
			companyId, err := uuid.Parse(companyIdStr)
			if err != nil {
				sysLogger.Warn("Bootstrap", "Document event without valid company_id", map[string]interface{}{
					"payload": evt.Payload(),
				})
				return nil // Drop malformed events, do not redeliver
			}
			return publisherService.PublishCatalogChanged(ctx, companyId)
		}
		for subject, durable := range map[string]string{
			"events." + events.TypeDocumentReady:   "docchat-catalog",
			"events." + events.TypeDocumentRemoved: "docchat-catalog-removed",
		} {
			if err := natsSub.Subscribe(subject, durable, onDocumentEvent); err != nil {
				log.Printf("[WARN] Failed to subscribe to %s: %v", subject, err)
			}
		}
	}

	// 4. Controllers
	return &Container{
		ProfileController:  controller.NewProfileController(profileService, sessionBroker),
		ChatController:     controller.NewChatController(chatService, wsHub, sysLogger),
		DocumentController: controller.NewDocumentController(chatService),
		AdminController:    controller.NewAdminController(documentService, profileService),

		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
	}
}
