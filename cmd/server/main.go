package main

import (
	"context"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxhub/backend/internal/application/services"
	"github.com/voxhub/backend/internal/bootstrap"
	"github.com/voxhub/backend/internal/infrastructure/cache"
	"github.com/voxhub/backend/internal/infrastructure/database"
	"github.com/voxhub/backend/internal/infrastructure/stream"
	"github.com/voxhub/backend/internal/interfaces/middleware"
	"github.com/voxhub/backend/internal/interfaces/rest"
	"github.com/voxhub/backend/internal/interfaces/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("📝 No .env file found, using environment variables")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("❌ Failed to initialize schema: %v", err)
	}
	if err := bootstrap.InitializeSystemData(db); err != nil {
		log.Fatalf("❌ Failed to seed system data: %v", err)
	}

	redisClient, err := cache.NewClient()
	if err != nil {
		log.Printf("⚠️ Redis unavailable, rate limiting disabled: %v", err)
		redisClient = nil
	}

	publisher := stream.NewPublisher()

	svcMgr := services.NewServiceManager(db, redisClient, publisher)

	hub := ws.NewHub()
	svcMgr.Executor.SetBroadcaster(hub)

	router := gin.Default()
	router.Use(middleware.Cors())
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if os.Getenv("ENABLE_PPROF") == "true" {
		debug := router.Group("/debug/pprof")
		{
			debug.GET("/", gin.WrapF(pprof.Index))
			debug.GET("/profile", gin.WrapF(pprof.Profile))
			debug.GET("/heap", gin.WrapH(pprof.Handler("heap")))
			debug.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		}
	}

	registerRoutes(router, svcMgr, redisClient, hub)

	svcMgr.StartWorkers()

	printBanner(port)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	svcMgr.StopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server forced to shutdown: %v", err)
	}

	if publisher != nil {
		publisher.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()

	log.Println("Server exiting")
}

func registerRoutes(router *gin.Engine, svcMgr *services.ServiceManager, redisClient *cache.Client, hub *ws.Hub) {
	authHandler := rest.NewAuthHandler(svcMgr)
	userHandler := rest.NewUserHandler(svcMgr)
	tenantHandler := rest.NewTenantHandler(svcMgr)
	contactHandler := rest.NewContactHandler(svcMgr)
	callHandler := rest.NewCallHandler(svcMgr)
	voiceHandler := rest.NewVoiceHandler(svcMgr)
	workflowHandler := rest.NewWorkflowHandler(svcMgr)
	conferenceHandler := rest.NewConferenceHandler(svcMgr)
	transcriptionHandler := rest.NewTranscriptionHandler(svcMgr)
	intentHandler := rest.NewIntentHandler(svcMgr)
	forecastHandler := rest.NewForecastHandler(svcMgr)
	settingHandler := rest.NewSettingHandler(svcMgr)
	notificationHandler := rest.NewNotificationHandler(svcMgr)
	sentinelHandler := rest.NewSentinelHandler(svcMgr)

	requireAuth := middleware.RequireAuth(svcMgr.Auth)
	requireTenantAdmin := middleware.RequireTenantAdmin()
	requirePlatformAdmin := middleware.RequirePlatformAdmin()

	api := router.Group("/api")

	// Public endpoints get a tighter per-IP limit.
	api.POST("/auth/login", middleware.RateLimit(redisClient, 30, time.Minute), authHandler.Login)

	authed := api.Group("")
	// Auth first so the limiter buckets per user rather than per IP.
	authed.Use(requireAuth)
	authed.Use(middleware.RateLimit(redisClient, 300, time.Minute))
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.GET("/auth/me", authHandler.GetMe)
		authed.POST("/auth/change-password", authHandler.ChangePassword)

		users := authed.Group("/users")
		{
			users.POST("", userHandler.Create)
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
		}

		tenants := authed.Group("/tenants", requirePlatformAdmin)
		{
			tenants.POST("", tenantHandler.Create)
			tenants.GET("", tenantHandler.List)
			tenants.GET("/:id", tenantHandler.Get)
			tenants.PUT("/:id", tenantHandler.Update)
			tenants.DELETE("/:id", tenantHandler.Delete)
		}

		contacts := authed.Group("/contacts")
		{
			contacts.POST("", contactHandler.Create)
			contacts.GET("", contactHandler.List)
			contacts.GET("/:id", contactHandler.Get)
			contacts.PUT("/:id", contactHandler.Update)
			contacts.DELETE("/:id", contactHandler.Delete)
			contacts.POST("/:id/activities", contactHandler.AddActivity)
			contacts.GET("/:id/activities", contactHandler.ListActivities)
		}

		calls := authed.Group("/calls")
		{
			calls.POST("", callHandler.Create)
			calls.GET("", callHandler.List)
			calls.GET("/kpi/summary", callHandler.KPISummary)
			calls.GET("/:id", callHandler.Get)
			calls.PUT("/:id", callHandler.Update)
			calls.DELETE("/:id", callHandler.Delete)
			calls.POST("/:id/transcript", callHandler.AttachTranscript)
		}

		voice := authed.Group("/voice-profiles")
		{
			voice.POST("", voiceHandler.Enroll)
			voice.GET("", voiceHandler.List)
			voice.GET("/:id", voiceHandler.Get)
			voice.POST("/:id/samples", voiceHandler.AddSample)
			voice.POST("/:id/verify", voiceHandler.Verify)
			voice.DELETE("/:id", voiceHandler.Delete)
		}

		workflows := authed.Group("/workflows")
		{
			workflows.POST("", workflowHandler.Create)
			workflows.GET("", workflowHandler.List)
			workflows.GET("/:id", workflowHandler.Get)
			workflows.PUT("/:id", workflowHandler.Update)
			workflows.POST("/:id/activate", workflowHandler.Activate)
			workflows.POST("/:id/archive", workflowHandler.Archive)
			workflows.POST("/:id/execute", workflowHandler.Execute)
			workflows.GET("/:id/runs", workflowHandler.ListRuns)
		}
		authed.GET("/workflow-runs/:id", workflowHandler.GetRun)
		authed.POST("/workflow-runs/:id/resume", workflowHandler.ResumeRun)

		conferences := authed.Group("/conferences")
		{
			conferences.POST("", conferenceHandler.Create)
			conferences.GET("", conferenceHandler.List)
			conferences.GET("/:id", conferenceHandler.Get)
			conferences.POST("/:id/join", conferenceHandler.Join)
			conferences.POST("/:id/leave", conferenceHandler.Leave)
			conferences.POST("/:id/end", conferenceHandler.End)
		}

		transcriptions := authed.Group("/transcriptions")
		{
			transcriptions.POST("", transcriptionHandler.Create)
			transcriptions.GET("", transcriptionHandler.List)
			transcriptions.GET("/:id", transcriptionHandler.Get)
		}

		intent := authed.Group("/intent")
		{
			intent.POST("/score", intentHandler.Score)
			intent.POST("/outcome", intentHandler.RecordOutcome)
		}

		forecasts := authed.Group("/forecasts")
		{
			forecasts.GET("", forecastHandler.List)
			forecasts.POST("/refresh", requireTenantAdmin, forecastHandler.Refresh)
		}

		settings := authed.Group("/settings")
		{
			settings.GET("", settingHandler.List)
			settings.GET("/:key", settingHandler.Get)
			settings.PUT("", requireTenantAdmin, settingHandler.Save)
			settings.DELETE("/:key", requireTenantAdmin, settingHandler.Delete)
		}

		notifications := authed.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
		}

		sentinel := authed.Group("/sentinel", requireTenantAdmin)
		{
			sentinel.GET("/events", sentinelHandler.Events)
			sentinel.POST("/query", sentinelHandler.Query)
		}
	}

	// Progress frames for live workflow runs.
	router.GET("/ws/workflow-runs/:id", requireAuth, hub.ServeRunProgress)
}

func printBanner(port string) {
	log.Println("═══════════════════════════════════════════════════")
	log.Printf("🚀 VoxHub API listening on :%s", port)
	log.Println("📍 REST      /api")
	log.Println("🔐 Auth      /api/auth/login")
	log.Println("📐 Sentinel  /api/sentinel/query")
	log.Println("📊 Metrics   /metrics")
	log.Println("🔌 WebSocket /ws/workflow-runs/:id")
	log.Println("💚 Health    /health")
	log.Println("═══════════════════════════════════════════════════")
}
