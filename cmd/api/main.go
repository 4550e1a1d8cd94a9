package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "purchaseflow/api/swagger" // swagger docs
	"purchaseflow/internal/config"
	"purchaseflow/internal/database"
	"purchaseflow/internal/handler"
	"purchaseflow/internal/lifecycle"
	"purchaseflow/internal/metrics"
	"purchaseflow/internal/middleware"
	"purchaseflow/internal/model"
	"purchaseflow/internal/repository"
	"purchaseflow/internal/rules"
	"purchaseflow/internal/scheduler"
	"purchaseflow/internal/service"
	"purchaseflow/internal/websocket"
	"purchaseflow/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Purchase Request Approval API
// @version         1.0
// @description     Routes purchase requests to approval tiers and tracks their lifecycle.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(middleware.RoleAdmin, middleware.RoleApprover)
	go wsHub.Run()

	// Per-request locking: Redis when configured, otherwise in process
	var locker lifecycle.Locker = lifecycle.NewKeyedMutex()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		defer rdb.Close()
		locker = lifecycle.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		log.Printf("Using Redis locks at %s", cfg.Redis.Addr)
	}

	var starter workflow.Starter = workflow.NoopStarter{}
	if cfg.Workflow.URL != "" {
		starter = workflow.NewCamundaClient(cfg.Workflow.URL, cfg.Workflow.ProcessKey,
			cfg.Workflow.Username, cfg.Workflow.Password, cfg.Workflow.Timeout)
		log.Printf("Starting processes on %s (%s)", cfg.Workflow.URL, cfg.Workflow.ProcessKey)
	} else {
		log.Println("CAMUNDA_URL not set; requests enter approval without an external process")
	}

	var mailer service.Mailer = service.LogMailer{}
	if cfg.Mail.Enabled {
		mailer = service.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	requestRepo := repository.NewPurchaseRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	outboxRepo := repository.NewNotificationRepository(db)

	engine := rules.NewEngine(cfg.Rules)
	m := metrics.New()

	deps := service.Deps{
		TxManager: txManager,
		Requests:  requestRepo,
		Audits:    auditRepo,
		Outbox:    outboxRepo,
		Locker:    locker,
		Engine:    engine,
		Validator: rules.NewValidator(cfg.Rules),
		Contacts:  cfg.Approvers,
		Keys:      model.NewClockKeyGenerator(time.Now),
		Starter:   starter,
		Metrics:   m,
		Publisher: wsHub,
		Now:       time.Now,
		Lenient:   cfg.LenientEnums,
	}

	purchaseService := service.NewPurchaseService(deps)
	signalService := service.NewSignalService(deps)
	reminderService := service.NewReminderService(deps)
	validationService := service.NewValidationService(deps)
	dashboardService := service.NewDashboardService(requestRepo, engine, time.Now)
	auditService := service.NewAuditService(auditRepo)

	// Background jobs
	worker := service.NewNotificationWorker(txManager, outboxRepo, mailer, m, service.OutboxSettings{
		BatchSize:   cfg.Outbox.BatchSize,
		MaxAttempts: cfg.Outbox.MaxAttempts,
		BaseBackoff: cfg.Outbox.BaseBackoff,
		MaxBackoff:  cfg.Outbox.MaxBackoff,
	}, time.Now)
	go worker.Run(ctx, cfg.Outbox.PollInterval)

	sweeps := scheduler.New(reminderService, 0)
	if err := sweeps.Start(cfg.ReminderCron); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
	defer sweeps.Stop()

	// Initialize Handlers
	auth := middleware.NewAuth([]byte(cfg.JWTSecret))
	purchaseHandler := handler.NewPurchaseHandler(purchaseService, auth)
	signalHandler := handler.NewSignalHandler(signalService, auth)
	reminderHandler := handler.NewReminderHandler(reminderService, sweeps, auth)
	validationHandler := handler.NewValidationHandler(validationService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, auth)
	auditHandler := handler.NewAuditHandler(auditService, auth)
	metricsHandler := handler.NewMetricsHandler(m)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigin
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, auth.Secret())
	})

	// API Routing
	purchaseHandler.RegisterRoutes(router.Group(""))
	signalHandler.RegisterRoutes(router.Group(""))
	reminderHandler.RegisterRoutes(router.Group(""))
	validationHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	metricsHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
