package bootstrap

import (
	"context"
	"log"

	"amanai-be/internal/config"
	"amanai-be/internal/controller"
	"amanai-be/internal/handler"
	"amanai-be/internal/pkg/logger"
	"amanai-be/internal/pkg/mailer"
	"amanai-be/internal/repository/memory"
	"amanai-be/internal/repository/unitofwork"
	"amanai-be/internal/service"
	"amanai-be/internal/websocket"
	"amanai-be/pkg/bloodnlp"
	"amanai-be/pkg/events"
	"amanai-be/pkg/llm"
	"amanai-be/pkg/llm/factory"
	"amanai-be/pkg/llm/groq"
	"amanai-be/pkg/report"
	"amanai-be/pkg/stt"

	pktNats "amanai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	EncounterController      controller.IEncounterController
	ReportController         controller.IReportController
	ChatController           controller.IChatController
	SessionContextController controller.ISessionContextController
	BloodController          controller.IBloodController
	SpeechController         controller.ISpeechController
	HealthController         controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets
	AnalysisHandler     *handler.AnalysisHandler
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Logger logger.ILogger

	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	// 2. Internal Bus (report rendering)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:     cfg.Ai.LLMProvider,
		Model:        cfg.Ai.LLMModel,
		BaseURL:      llmBaseURL(cfg),
		APIKey:       cfg.Keys.Groq,
		WhisperModel: cfg.Ai.WhisperModel,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Analysis always runs on Groq: Whisper for audio, chat completions for SOAP.
	var transcriber llm.Transcriber
	var soapProvider llm.LLMProvider
	if cfg.Keys.Groq != "" {
		groqProvider := groq.NewGroqProvider(cfg.Keys.Groq, cfg.Ai.GroqBaseURL, cfg.Ai.SoapModel, cfg.Ai.WhisperModel)
		transcriber = groqProvider
		soapProvider = groqProvider
	} else {
		log.Printf("[WARN] GROQ_API_KEY is empty, audio analysis is disabled")
	}

	var chatProvider llm.LLMProvider = llmProvider
	if cfg.Keys.Groq == "" && (cfg.Ai.LLMProvider == "" || cfg.Ai.LLMProvider == "groq") {
		chatProvider = nil
	}

	sttClient := stt.NewClient(stt.Config{
		APIKey:   cfg.Keys.YandexSpeech,
		FolderID: cfg.Keys.YandexFolderID,
	})
	bloodClient := bloodnlp.NewClient(cfg.Keys.BloodNLPURL)

	renderer := report.NewRenderer(report.RendererConfig{
		FontPath:      cfg.Report.FontPath,
		LogoPath:      cfg.Report.LogoPath,
		PublicBaseURL: cfg.App.PublicBaseURL,
	}, nil)

	// 4. Infrastructure
	// NATS
	var eventPublisher events.Publisher = events.NopPublisher{}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	} else {
		eventPublisher = natsPub
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Events stay local to this instance", err)
		_ = rdb.Close()
		rdb = nil
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.NotificationLog)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Services
	sessionContextService := service.NewSessionContextService(memory.NewSessionContextRepository())
	encounterService := service.NewEncounterService(uowFactory, eventPublisher, sysLogger)

	publisherService := service.NewPublisherService(cfg.Report.RenderTopic, pubSub)
	reportService := service.NewReportService(
		uowFactory,
		renderer,
		publisherService,
		emailService,
		eventPublisher,
		cfg.Report.OutputDir,
		sysLogger,
	)
	consumerService := service.NewConsumerService(pubSub, cfg.Report.RenderTopic, reportService)

	chatService := service.NewChatService(chatProvider, sessionContextService, sysLogger)
	analysisService := service.NewAnalysisService(transcriber, soapProvider, cfg.Ai.SoapModel, sysLogger)
	speechService := service.NewSpeechService(sttClient, sysLogger)
	bloodService := service.NewBloodService(bloodClient, sysLogger)

	// Hub implements NotificationDelivery
	var notifService *service.NotificationService
	if natsSub != nil {
		notifService = service.NewNotificationService(natsSub, wsHub, wsLogger)
	}

	// 6. Controllers & Handlers
	return &Container{
		EncounterController:      controller.NewEncounterController(encounterService, cfg.App.JWTSecret),
		ReportController:         controller.NewReportController(reportService, cfg.App.JWTSecret),
		ChatController:           controller.NewChatController(chatService),
		SessionContextController: controller.NewSessionContextController(sessionContextService, cfg.App.JWTSecret),
		BloodController:          controller.NewBloodController(bloodService),
		SpeechController:         controller.NewSpeechController(speechService),
		HealthController:         controller.NewHealthController(),

		ConsumerService:     consumerService,
		NotificationService: notifService,

		AnalysisHandler:     handler.NewAnalysisHandler(analysisService, sysLogger),
		NotificationHandler: handler.NewNotificationHandler(eventPublisher, wsHub, cfg.App.JWTSecret, wsLogger),
		WebSocketHub:        wsHub,

		Logger: sysLogger,

		natsPub: natsPub,
		natsSub: natsSub,
	}
}

// Close drains the bus connections and flushes logs.
func (c *Container) Close() {
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	_ = c.Logger.Sync()
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "ollama" {
		return cfg.Ai.OllamaBaseURL
	}
	return cfg.Ai.GroqBaseURL
}
