package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/config"
	"github.com/homenest/homenest-api/internal/handler"
	"github.com/homenest/homenest-api/internal/jobs"
	"github.com/homenest/homenest-api/internal/middleware"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
	"github.com/homenest/homenest-api/internal/service"
	"github.com/homenest/homenest-api/internal/ws"
	"github.com/homenest/homenest-api/migrations"
	"github.com/homenest/homenest-api/pkg/auth"
	"github.com/homenest/homenest-api/pkg/logger"
	"github.com/homenest/homenest-api/pkg/mailer"
	"github.com/homenest/homenest-api/pkg/metrics"
	"github.com/homenest/homenest-api/pkg/notification"
	"github.com/homenest/homenest-api/pkg/storage"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           HomeNest API
// @version         1.0
// @description     Real estate listings, viewing appointments, email OTP verification and agent-client messaging.

// @contact.name   HomeNest Support
// @contact.email  support@homenest.local

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Config & Logging ====================
	cfg, envLoaded := config.Load()
	logger.Init(cfg.App.Env)
	defer logger.Sync()

	ctx := context.Background()
	logger.Info(ctx, "Starting HomeNest API server",
		zap.String("env", cfg.App.Env),
		zap.Bool("env_file", envLoaded),
	)

	// ==================== Database (PostgreSQL) ====================
	gormLevel := gormlogger.Info
	if cfg.IsProduction() {
		gormLevel = gormlogger.Warn
	}
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLevel),
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to connect to database", zap.Error(err))
	}
	logger.Info(ctx, "Connected to PostgreSQL")

	if err := migrations.Run(cfg.DB.URL()); err != nil {
		logger.Warn(ctx, "Migration failed, falling back to AutoMigrate", zap.Error(err))
		if err := db.AutoMigrate(
			&model.User{},
			&model.UserDevice{},
			&model.OTPRecord{},
			&model.Property{},
			&model.PropertyMedia{},
			&model.Appointment{},
			&model.WishlistItem{},
			&model.Conversation{},
			&model.ConversationMember{},
			&model.Message{},
		); err != nil {
			logger.Fatal(ctx, "Failed to migrate database", zap.Error(err))
		}
	}

	// ==================== Redis ====================
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal(ctx, "Failed to connect to Redis", zap.Error(err))
	}
	logger.Info(ctx, "Connected to Redis", zap.String("addr", cfg.Redis.Addr()))

	// ==================== Outbound integrations ====================
	mailClient := mailer.New(mailer.Config{
		Host:           cfg.SMTP.Host,
		Port:           cfg.SMTP.Port,
		Username:       cfg.SMTP.Username,
		Password:       cfg.SMTP.Password,
		From:           cfg.SMTP.From,
		FromName:       cfg.SMTP.FromName,
		SendGridAPIKey: cfg.SendGrid.APIKey,
	})
	logger.Info(ctx, "Mailer configured", zap.String("transport", mailClient.Transport()))

	var store storage.Storage
	minioStorage, err := storage.NewMinIO(ctx, storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		PublicURL: cfg.MinIO.PublicURL,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		logger.Warn(ctx, "MinIO not available, uploads disabled", zap.Error(err))
	} else {
		store = minioStorage
		logger.Info(ctx, "Connected to MinIO", zap.String("bucket", cfg.MinIO.Bucket))
	}

	// ==================== Repositories ====================
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	pushNotifier := notification.NewFCMNotifier(ctx, cfg.Firebase.CredentialsFile, userRepo)
	appMetrics := metrics.New()
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	blacklist := auth.NewBlacklist(rdb)

	// ==================== WebSocket hub ====================
	hub := ws.NewHub(rdb, func(userID uuid.UUID, online bool) {
		if err := userRepo.UpdateOnlineStatus(context.Background(), userID, online, time.Now().UTC()); err != nil {
			logger.Warn(context.Background(), "Failed to update online status",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	})
	hubCtx, hubCancel := context.WithCancel(ctx)
	defer hubCancel()
	go hub.Run(hubCtx)

	// ==================== Services ====================
	otpService := service.NewOTPService(tx, otpRepo, mailClient, cfg.OTP, appMetrics)
	authService := service.NewAuthService(userRepo, otpService, jwtManager, blacklist, store, cfg.Google.ClientID)
	scheduleService := service.NewScheduleService(
		tx, apptRepo, propertyRepo, userRepo,
		hub, pushNotifier, mailClient, appMetrics,
		cfg.Schedule.SlotWindow,
	)
	propertyService := service.NewPropertyService(propertyRepo, store)
	wishlistService := service.NewWishlistService(wishlistRepo, propertyRepo)
	messagingService := service.NewMessagingService(tx, convRepo, msgRepo, userRepo, propertyRepo, store, hub, pushNotifier)
	adminService := service.NewAdminService(userRepo, propertyRepo, apptRepo, otpService)

	var cleanup *jobs.OTPCleanupJob
	if cfg.OTP.CleanupInterval > 0 {
		cleanup = jobs.NewOTPCleanupJob(otpService, cfg.OTP.CleanupInterval, cfg.OTP.Retention)
		go cleanup.Start(hubCtx)
	}

	// ==================== Handlers ====================
	otpHandler := handler.NewOTPHandler(otpService)
	authHandler := handler.NewAuthHandler(authService)
	propertyHandler := handler.NewPropertyHandler(propertyService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	wishlistHandler := handler.NewWishlistHandler(wishlistService)
	conversationHandler := handler.NewConversationHandler(messagingService)
	adminHandler := handler.NewAdminHandler(adminService)
	wsHandler := handler.NewWSHandler(hub, messagingService, jwtManager, blacklist, cfg.CORS.Origins)

	// ==================== Router ====================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORSMiddleware(cfg.CORS.Origins),
		appMetrics.Middleware(),
	)

	// swagger.json lives outside /swagger/* so it does not clash with the wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/swagger.json")))
	router.GET("/metrics", appMetrics.Handler())
	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": "homenest-api",
			"storage": store != nil,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		otp := api.Group("/OTP")
		otp.POST("/generate", otpHandler.Generate)
		otp.POST("/verify", otpHandler.Verify)
		otp.POST("/resend", otpHandler.Resend)

		authPublic := api.Group("/auth")
		authPublic.POST("/register", authHandler.Register)
		authPublic.POST("/verify-email", authHandler.VerifyEmail)
		authPublic.POST("/resend-otp", authHandler.ResendOTP)
		authPublic.POST("/login", authHandler.Login)
		authPublic.POST("/google", authHandler.GoogleLogin)
		authPublic.POST("/forgot-password", authHandler.ForgotPassword)
		authPublic.POST("/reset-password", authHandler.ResetPassword)

		// Listings are browsable without an account
		api.GET("/properties", propertyHandler.Search)
		api.GET("/properties/:id", propertyHandler.Get)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, blacklist))
		{
			protected.GET("/auth/profile", authHandler.GetProfile)
			protected.PUT("/auth/profile", authHandler.UpdateProfile)
			protected.POST("/auth/profile/avatar", authHandler.UploadAvatar)
			protected.POST("/auth/device", authHandler.RegisterDevice)
			protected.POST("/auth/logout", authHandler.Logout)

			listings := protected.Group("/properties", middleware.RequireRole(model.RoleAgent, model.RoleAdmin))
			listings.POST("", propertyHandler.Create)
			listings.PATCH("/:id", propertyHandler.Update)
			listings.DELETE("/:id", propertyHandler.Delete)
			listings.POST("/:id/media", propertyHandler.UploadMedia)
			listings.DELETE("/:id/media/:mediaId", propertyHandler.DeleteMedia)

			schedules := protected.Group("/schedules")
			schedules.POST("", scheduleHandler.Create)
			schedules.GET("", scheduleHandler.List)
			schedules.GET("/availability", scheduleHandler.Availability)
			schedules.GET("/:id", scheduleHandler.Get)
			schedules.PATCH("/:id", scheduleHandler.Update)
			schedules.POST("/:id/cancel", scheduleHandler.Cancel)
			schedules.POST("/:id/complete", scheduleHandler.Complete)
			schedules.DELETE("/:id", scheduleHandler.Delete)

			wishlist := protected.Group("/wishlist")
			wishlist.GET("", wishlistHandler.List)
			wishlist.POST("", wishlistHandler.Add)
			wishlist.DELETE("/:propertyId", wishlistHandler.Remove)

			conversations := protected.Group("/conversations")
			conversations.GET("", conversationHandler.GetConversations)
			conversations.POST("/direct", conversationHandler.GetOrCreateDirect)
			conversations.GET("/:id/messages", conversationHandler.GetMessages)
			conversations.POST("/:id/messages", conversationHandler.SendMessage)
			conversations.POST("/:id/read", conversationHandler.MarkAsRead)
			conversations.POST("/:id/attachments", conversationHandler.UploadAttachment)

			admin := protected.Group("/admin", middleware.RequireRole(model.RoleAdmin))
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id/active", adminHandler.SetUserActive)
			admin.DELETE("/properties/:id", adminHandler.DeleteProperty)
			admin.DELETE("/otp/:email", adminHandler.PurgeOTP)
		}
	}

	// Browsers cannot set headers on the upgrade, so the token rides in the query
	router.GET("/ws", wsHandler.HandleWebSocket)

	// ==================== Serve ====================
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "Server failed", zap.Error(err))
		}
	}()
	logger.Info(ctx, "HomeNest API listening",
		zap.String("addr", srv.Addr),
		zap.String("docs", "/swagger/index.html"),
		zap.String("websocket", "/ws?token=<jwt>"),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server forced to shutdown", zap.Error(err))
	}

	if cleanup != nil {
		cleanup.Stop()
	}
	hubCancel()
	if err := rdb.Close(); err != nil {
		logger.Warn(ctx, "Failed to close Redis client", zap.Error(err))
	}
	logger.Info(ctx, "Server exited gracefully")
}
