package bootstrap

import (
	"context"
	"log"
	"time"

	"soulscript-chat-be/internal/config"
	"soulscript-chat-be/internal/controller"
	"soulscript-chat-be/internal/handler"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/internal/pkg/metrics"
	"soulscript-chat-be/internal/repository/contract"
	memstore "soulscript-chat-be/internal/repository/memory"
	"soulscript-chat-be/internal/repository/redisstore"
	"soulscript-chat-be/internal/repository/store"
	"soulscript-chat-be/internal/repository/unitofwork"
	"soulscript-chat-be/internal/service"
	"soulscript-chat-be/internal/websocket"
	"soulscript-chat-be/pkg/embedding"
	"soulscript-chat-be/pkg/llm/factory"
	"soulscript-chat-be/pkg/moderation"
	moderationOpenAI "soulscript-chat-be/pkg/moderation/openai"
	modEvents "soulscript-chat-be/pkg/moderation/events"
	pktNats "soulscript-chat-be/pkg/nats"
	"soulscript-chat-be/pkg/rag/memory"
	"soulscript-chat-be/pkg/rag/retrieval"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const documentIngestTopic = "document-ingest"

type Container struct {
	// Controllers
	ChatController        controller.IChatController
	AnonChatController    controller.IAnonChatController
	ModerationController  controller.IModerationController
	FeatureFlagController controller.IFeatureFlagController
	DocumentController    controller.IDocumentController

	// Background services, started by main
	ConsumerService    service.IConsumerService
	AlertService       *service.ModerationAlertService
	FeatureFlagService service.IFeatureFlagService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Registry *prometheus.Registry
	Logger   logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	alertLogger := logger.NewIsolatedLogger(cfg.App.AlertLogFilePath)
	chatStore := store.NewGormChatStore(uowFactory)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chatMetrics := metrics.NewChatMetrics(registry)

	c := &Container{Registry: registry, Logger: sysLogger}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	// Redis
	rdb := connectRedis(cfg.App.RedisURL)
	var turnLock contract.TurnLock
	var quotaStore contract.QuotaStore
	if rdb != nil {
		turnLock = redisstore.NewTurnLock(rdb)
		quotaStore = redisstore.NewQuotaStore(rdb)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		log.Printf("[INFO] Using Redis for turn locks and anonymous quotas")
	} else {
		turnLock = memstore.NewTurnLock()
		quotaStore = memstore.NewQuotaStore()
		log.Printf("[WARN] Redis unavailable, turn locks and quotas are per-instance")
	}

	// WebSocket Hub
	var hubRedis redis.UniversalClient
	if rdb != nil {
		hubRedis = rdb
	}
	wsHub := websocket.NewHub(hubRedis, alertLogger)

	// 3. Moderation alerts
	var alertSub *pktNats.Subscriber
	if natsPub != nil && natsSub != nil {
		alertSub = natsSub
	}
	alertService := service.NewModerationAlertService(alertSub, wsHub, alertLogger, sysLogger)

	var sink modEvents.Sink = modEvents.SinkFunc(alertService.HandleEvent)
	if alertSub != nil {
		sink = natsPub
	}
	eventPublisher := modEvents.NewNatsPublisher(sink, sysLogger)

	// 4. AI providers
	var classifier moderation.Classifier
	if cfg.Moderation.Provider == "keyword" {
		classifier = moderation.NewKeywordClassifier(moderation.DefaultKeywords())
		log.Printf("[INFO] Using Moderation: KEYWORD")
	} else {
		classifier = moderationOpenAI.NewClassifier(cfg.Ai.OpenAIKey, cfg.Ai.OpenAIBaseURL, cfg.Moderation.Model)
		log.Printf("[INFO] Using Moderation: OPENAI (%s)", cfg.Moderation.Model)
	}

	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIKey, cfg.Ai.OpenAIBaseURL, cfg.Ai.EmbeddingModel, cfg.Ai.EmbeddingDims)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(factory.Params{
		Provider:  cfg.Ai.LLMProvider,
		Model:     cfg.Ai.LLMModel,
		APIKey:    cfg.Ai.OpenAIKey,
		BaseURL:   cfg.Ai.OpenAIBaseURL,
		OllamaURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Services
	window := memory.NewWindow(memory.Config{
		Budget:             cfg.Chat.WindowBudget,
		SummaryThreshold:   cfg.Chat.SummaryThreshold,
		RecentTurns:        cfg.Chat.RecentTurns,
		SummaryMaxMessages: cfg.Chat.SummaryMaxMessages,
	}, memory.NewLLMSummarizer(llmProvider), chatStore, sysLogger)
	retriever := retrieval.NewVectorProvider(embeddingProvider, uowFactory, cfg.Chat.RetrievalMinSimilarity)

	featureFlagService := service.NewFeatureFlagService(uowFactory, cfg.Chat.FeatureFlagsTTL, sysLogger)
	moderationService := service.NewModerationService(
		uowFactory,
		classifier,
		eventPublisher,
		chatMetrics,
		sysLogger,
		cfg.Chat.ModerationTimeout,
		service.LoadLocation(cfg.Chat.QuotaTimezone),
	)
	chatbotService := service.NewChatbotService(
		chatStore,
		turnLock,
		moderationService,
		featureFlagService,
		retriever,
		window,
		llmProvider,
		chatMetrics,
		sysLogger,
		cfg.Chat,
	)
	anonChatService := service.NewAnonChatService(chatStore, quotaStore, chatbotService, chatMetrics, sysLogger, cfg.Chat)

	publisherService := service.NewPublisherService(documentIngestTopic, pubSub)
	documentService := service.NewDocumentService(uowFactory, publisherService, embeddingProvider, sysLogger)
	consumerService := service.NewConsumerService(pubSub, documentIngestTopic, documentService, sysLogger)

	// 6. Controllers
	c.ChatController = controller.NewChatController(chatbotService)
	c.AnonChatController = controller.NewAnonChatController(anonChatService, cfg.Chat.AnonGroupScope)
	c.ModerationController = controller.NewModerationController(moderationService, alertLogger)
	c.FeatureFlagController = controller.NewFeatureFlagController(featureFlagService)
	c.DocumentController = controller.NewDocumentController(documentService)

	c.ConsumerService = consumerService
	c.AlertService = alertService
	c.FeatureFlagService = featureFlagService
	c.NotificationHandler = handler.NewNotificationHandler(wsHub, alertLogger)
	c.WebSocketHub = wsHub

	return c
}

// Close releases broker and cache connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
