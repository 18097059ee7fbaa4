package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/veriloan/backend/internal/config"
	"github.com/veriloan/backend/internal/database"
	"github.com/veriloan/backend/internal/database/migrations"
	"github.com/veriloan/backend/internal/jobs"
	"github.com/veriloan/backend/internal/queue"
	"github.com/veriloan/backend/internal/routes"
	"github.com/veriloan/backend/internal/services/notification"
	"github.com/veriloan/backend/internal/services/orchestrator"
	"github.com/veriloan/backend/internal/services/storage"
	"github.com/veriloan/backend/internal/services/verification"
)

func main() {
	// Initialize configuration (loads .env when present)
	cfg := config.LoadConfig()

	// Setup database connection
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed the admin account when configured
	if err := database.EnsureAdminUser(db); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	// Redis is optional; without it the queue falls back to polling
	var redisClient *queue.RedisClient
	if rc, err := queue.NewRedisClient(cfg.Redis); err != nil {
		log.Printf("Warning: redis unavailable, queue will poll: %v", err)
	} else {
		redisClient = rc
		defer redisClient.Close()
	}

	// Initialize job queue and notification workers
	jobQueue := queue.NewQueue(db, redisClient)
	notificationSvc := notification.NewService(cfg)
	jobs.RegisterAllJobHandlers(jobQueue, db, notificationSvc)

	worker := queue.NewWorker(jobQueue, 2)
	worker.Start()
	defer worker.Stop()

	// Wire the verification orchestrator
	store, err := storage.NewDiskStore(cfg.Storage.UploadsDir)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}
	verifier := verification.NewHTTPClient(cfg.Verification)
	notifier := notification.NewQueueNotifier(jobQueue)
	orch := orchestrator.New(db, verifier, store, notifier, cfg.Verification.ConfidenceThreshold)

	// Initialize router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Register routes
	routes.RegisterRoutes(router, db, orch, cfg.JWT)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	fmt.Printf("VeriLoan API server running on port %s\n", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
