package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ai-photoshoot-gateway/internal/chat"
	"ai-photoshoot-gateway/internal/config"
	"ai-photoshoot-gateway/internal/handlers"
	"ai-photoshoot-gateway/internal/logger"
	"ai-photoshoot-gateway/internal/middleware"
	"ai-photoshoot-gateway/internal/services"
	"ai-photoshoot-gateway/internal/studio"
	"ai-photoshoot-gateway/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	studioClient := studio.NewClient(cfg.StudioAPIBaseURL, cfg.StudioRequestTimeout)

	// Realtime events and the design archive need a configured Supabase
	// project; without one the gateway still serves everything else.
	var realtimeClient *supabase.RealtimeClient
	var archiveService *services.ArchiveService
	if cfg.ArchiveEnabled() {
		supabaseClient, err := supabase.NewClient(cfg)
		if err != nil {
			appLog.Fatal("failed to initialize supabase client", "error", err)
		}
		realtimeClient = supabase.NewRealtimeClient(supabaseClient.Supabase)

		storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
		if err != nil {
			appLog.Fatal("failed to initialize storage client", "error", err)
		}
		archiveService = services.NewArchiveService(storageClient, realtimeClient, appLog)
	} else {
		appLog.Warn("supabase not configured, realtime events and design archive disabled")
	}

	sessionStore := chat.NewStore()

	productsHandler := handlers.NewProductsHandler(studioClient, realtimeClient, appLog)
	projectsHandler := handlers.NewProjectsHandler(studioClient, realtimeClient, archiveService, appLog)
	chatHandler := handlers.NewChatHandler(sessionStore, studioClient, appLog)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	api.GET("/products", productsHandler.ListProducts)
	api.POST("/products", productsHandler.CreateProduct)
	api.POST("/products/:product_id/generate", projectsHandler.Generate)

	api.GET("/projects", projectsHandler.ListProjects)

	api.POST("/chat/sessions", chatHandler.CreateSession)
	api.GET("/chat/sessions/:session_id", chatHandler.GetSession)
	api.DELETE("/chat/sessions/:session_id", chatHandler.DeleteSession)
	api.POST("/chat/sessions/:session_id/select", chatHandler.SelectImage)
	api.POST("/chat/sessions/:session_id/messages", chatHandler.SendMessage)

	appLog.Info("server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		appLog.Fatal("server stopped", "error", err)
	}
}
