// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/dineshachuthan/storyteller-backend/internal/auth"
	"github.com/dineshachuthan/storyteller-backend/internal/cache"
	"github.com/dineshachuthan/storyteller-backend/internal/controller"
	"github.com/dineshachuthan/storyteller-backend/internal/db"
	"github.com/dineshachuthan/storyteller-backend/internal/events"
	"github.com/dineshachuthan/storyteller-backend/internal/provider"
	"github.com/dineshachuthan/storyteller-backend/internal/provider/llm"
	"github.com/dineshachuthan/storyteller-backend/internal/provider/notify"
	"github.com/dineshachuthan/storyteller-backend/internal/provider/video"
	"github.com/dineshachuthan/storyteller-backend/internal/provider/voice"
	"github.com/dineshachuthan/storyteller-backend/internal/queue"
	"github.com/dineshachuthan/storyteller-backend/internal/repository"
	"github.com/dineshachuthan/storyteller-backend/internal/service"
	"github.com/dineshachuthan/storyteller-backend/internal/storage"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	// Job queue: RabbitMQ when configured, in-memory otherwise
	var q queue.Queue
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		rq, err := queue.DialRabbit(url)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ:", err)
		}
		defer rq.Close()
		q = rq
	} else {
		log.Println("⚠️ RABBITMQ_URL not set, using in-memory queue")
		q = queue.NewInMemoryQueue()
	}

	// Narration cache
	var narrationCache cache.NarrationCache = cache.NoopCache{}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rc := cache.NewRedisCache(addr, os.Getenv("REDIS_PASSWORD"), 24*time.Hour)
		defer rc.Close()
		narrationCache = rc
	} else {
		log.Println("⚠️ REDIS_ADDR not set, narration cache disabled")
	}

	// Object storage: S3 when a bucket is configured, local disk otherwise
	var store storage.Store
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), storage.S3Config{
			Bucket:       bucket,
			Region:       os.Getenv("AWS_REGION"),
			UsePathStyle: os.Getenv("S3_USE_PATH_STYLE") == "true",
		})
		if err != nil {
			log.Fatal("Failed to init S3 storage:", err)
		}
		store = s3Store
	} else {
		dir := os.Getenv("STORAGE_DIR")
		if dir == "" {
			dir = "./data"
		}
		local, err := storage.NewLocalStore(dir)
		if err != nil {
			log.Fatal("Failed to init local storage:", err)
		}
		store = local
	}

	// Repositories
	userRepo := &repository.UserRepository{DB: db.DB}
	storyRepo := &repository.StoryRepository{DB: db.DB}
	voiceRepo := &repository.VoiceRepository{DB: db.DB}
	narrationRepo := &repository.NarrationRepository{DB: db.DB}
	videoTaskRepo := &repository.VideoTaskRepository{DB: db.DB}
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	templateRepo := &repository.TemplateRepository{DB: db.DB}
	deliveryRepo := &repository.DeliveryRepository{DB: db.DB}
	collabRepo := &repository.CollaboratorRepository{DB: db.DB}

	// Providers
	llmClient := llm.NewOpenAIClient(os.Getenv("OPENAI_BASE_URL"), os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"))

	var voiceProvider interface {
		voice.TTSProvider
		voice.CloneProvider
	}
	var fallbackTTS voice.TTSProvider
	if key := os.Getenv("ELEVENLABS_API_KEY"); key != "" {
		voiceProvider = voice.NewElevenLabsProvider(os.Getenv("ELEVENLABS_BASE_URL"), key)
		fallbackTTS = voice.MockProvider{}
	} else {
		log.Println("⚠️ ELEVENLABS_API_KEY not set, using mock voice provider")
		voiceProvider = voice.MockProvider{}
	}

	registry, videoProviders := buildVideoProviders()

	// Event bus
	bus := events.NewInMemoryBus()

	// Services
	userService := &service.UserService{UserRepo: userRepo}
	storyService := &service.StoryService{StoryRepo: storyRepo, CollabRepo: collabRepo, Bus: bus}
	analysisService := &service.AnalysisService{StoryRepo: storyRepo, CollabRepo: collabRepo, LLM: llmClient, Bus: bus}
	voiceService := &service.VoiceService{VoiceRepo: voiceRepo, Clone: voiceProvider, Store: store, Bus: bus}
	narrationService := &service.NarrationService{
		NarrationRepo: narrationRepo,
		StoryRepo:     storyRepo,
		VoiceRepo:     voiceRepo,
		CollabRepo:    collabRepo,
		TTS:           voiceProvider,
		FallbackTTS:   fallbackTTS,
		Store:         store,
		Cache:         narrationCache,
		Queue:         q,
		Bus:           bus,
	}
	videoService := &service.VideoService{
		TaskRepo:   videoTaskRepo,
		StoryRepo:  storyRepo,
		CollabRepo: collabRepo,
		Registry:   registry,
		Providers:  videoProviders,
		Queue:      q,
		Bus:        bus,
	}
	notificationService := &service.NotificationService{
		CampaignRepo: campaignRepo,
		TemplateRepo: templateRepo,
		DeliveryRepo: deliveryRepo,
		UserRepo:     userRepo,
		Queue:        q,
	}
	collabService := &service.CollabService{CollabRepo: collabRepo, StoryRepo: storyRepo, UserRepo: userRepo, Bus: bus}

	// Route domain events into the notification dispatcher
	bus.Subscribe(notificationService.HandleEvent)

	// Without RabbitMQ there is no separate worker, so process jobs in-process
	if os.Getenv("RABBITMQ_URL") == "" {
		subscribeJobHandlers(q, narrationService, videoService, service.NewDeliveryWorker(deliveryRepo, buildSenders()...))
	}

	// Controllers
	authController := &controller.AuthController{UserService: userService}
	storyController := &controller.StoryController{
		StoryService:     storyService,
		AnalysisService:  analysisService,
		NarrationService: narrationService,
	}
	voiceController := &controller.VoiceController{VoiceService: voiceService}
	videoController := &controller.VideoController{VideoService: videoService}
	notificationController := &controller.NotificationController{NotificationService: notificationService}
	collabController := &controller.CollabController{CollabService: collabService}

	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler)

	// Public routes
	r.Post("/auth/register", authController.Register)
	r.Post("/auth/login", authController.Login)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/me", authController.GetProfile)
		r.Put("/me", authController.UpdateProfile)
		r.Get("/me/notification-prefs", authController.GetPrefs)
		r.Put("/me/notification-prefs", authController.SetPref)

		// Stories
		r.Post("/stories", storyController.CreateStory)
		r.Get("/stories", storyController.ListStories)
		r.Get("/stories/{id}", storyController.GetStory)
		r.Put("/stories/{id}", storyController.UpdateStory)
		r.Delete("/stories/{id}", storyController.DeleteStory)
		r.Post("/stories/{id}/publish", storyController.PublishStory)
		r.Post("/stories/{id}/analyze", storyController.AnalyzeStory)
		r.Get("/stories/{id}/analysis", storyController.GetAnalysis)

		// Narrations
		r.Post("/stories/{id}/narrations", storyController.RequestNarration)
		r.Get("/stories/{id}/narrations", storyController.ListNarrations)
		r.Get("/narrations/{narrationId}", storyController.GetNarration)

		// Collaboration
		r.Post("/stories/{id}/collaborators", collabController.Invite)
		r.Get("/stories/{id}/collaborators", collabController.ListCollaborators)
		r.Post("/invites/{token}/respond", collabController.RespondToInvite)

		// Voice cloning
		r.Get("/voice/esm-items", voiceController.ListESMItems)
		r.Post("/voice/profiles", voiceController.CreateProfile)
		r.Get("/voice/profiles", voiceController.ListProfiles)
		r.Get("/voice/profiles/{id}", voiceController.GetProfile)
		r.Post("/voice/profiles/{id}/samples", voiceController.UploadSample)
		r.Get("/voice/profiles/{id}/samples/{sampleId}", voiceController.DownloadSample)
		r.Post("/voice/profiles/{id}/train", voiceController.StartTraining)

		// Video generation
		r.Post("/stories/{id}/videos", videoController.CreateTask)
		r.Get("/stories/{id}/videos", videoController.ListTasks)
		r.Get("/videos/{taskId}", videoController.GetTask)
		r.Get("/video-providers", videoController.ListProviders)
		r.Post("/video-providers/switch", videoController.SwitchProvider)
		r.Patch("/video-providers/{name}", videoController.SetProviderEnabled)

		// Notifications admin
		r.Post("/campaigns", notificationController.CreateCampaign)
		r.Get("/campaigns", notificationController.ListCampaigns)
		r.Get("/campaigns/{id}", notificationController.GetCampaignDetails)
		r.Patch("/campaigns/{id}", notificationController.SetCampaignEnabled)
		r.Get("/campaigns/{id}/deliveries", notificationController.ListDeliveries)
		r.Post("/templates", notificationController.CreateTemplate)
		r.Get("/templates", notificationController.ListTemplates)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Server running on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}

// buildVideoProviders loads the provider registry config and constructs a
// client for each known provider.
func buildVideoProviders() (*provider.Registry, map[string]video.Provider) {
	path := os.Getenv("PROVIDERS_FILE")
	if path == "" {
		path = "providers.yaml"
	}

	entries, err := provider.LoadRegistryFile(path)
	if err != nil {
		log.Printf("⚠️ Failed to load %s (%v), enabling kling only", path, err)
		entries = []provider.Entry{{Name: "kling", Enabled: true, Priority: 1}}
	}

	providers := map[string]video.Provider{
		"kling":  video.NewKlingProvider(os.Getenv("KLING_BASE_URL"), os.Getenv("KLING_API_KEY")),
		"runway": video.NewRunwayProvider(os.Getenv("RUNWAY_BASE_URL"), os.Getenv("RUNWAY_API_KEY")),
		"pika":   video.NewPikaProvider(os.Getenv("PIKA_BASE_URL"), os.Getenv("PIKA_API_KEY")),
		"luma":   video.NewLumaProvider(os.Getenv("LUMA_BASE_URL"), os.Getenv("LUMA_API_KEY")),
	}

	return provider.NewRegistry(entries), providers
}

// buildSenders assembles the delivery channel senders from configuration,
// falling back to mocks for local development.
func buildSenders() []notify.Sender {
	var senders []notify.Sender

	if host := os.Getenv("SMTP_HOST"); host != "" {
		senders = append(senders, &notify.SMTPSender{
			Host: host,
			Port: os.Getenv("SMTP_PORT"),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: os.Getenv("SMTP_FROM"),
		})
	} else {
		senders = append(senders, &notify.MockSender{ChannelName: "email"})
	}

	if gateway := os.Getenv("SMS_GATEWAY_URL"); gateway != "" {
		senders = append(senders, notify.NewHTTPSMSSender(gateway, os.Getenv("SMS_API_KEY")))
	} else {
		senders = append(senders, &notify.MockSender{ChannelName: "sms"})
	}

	return senders
}

// subscribeJobHandlers wires the background job topics to their processors
// for single-process (no RabbitMQ) deployments.
func subscribeJobHandlers(q queue.Queue, narrations *service.NarrationService, videos *service.VideoService, deliveries *service.DeliveryWorker) {
	q.Subscribe(queue.TopicNarrationJobs, func(payload any) error {
		id, ok := payload.(int)
		if !ok {
			return fmt.Errorf("unexpected narration job payload: %v", payload)
		}
		return narrations.ProcessNarration(context.Background(), id)
	})
	q.Subscribe(queue.TopicVideoJobs, func(payload any) error {
		id, ok := payload.(string)
		if !ok {
			return fmt.Errorf("unexpected video job payload: %v", payload)
		}
		return videos.SubmitTask(context.Background(), id)
	})
	q.Subscribe(queue.TopicDeliveries, func(payload any) error {
		id, ok := payload.(int)
		if !ok {
			return fmt.Errorf("unexpected delivery job payload: %v", payload)
		}
		return deliveries.ProcessDelivery(context.Background(), id)
	})
}
