package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"house-swap-app/internal/config"
	"house-swap-app/internal/database"
	"house-swap-app/internal/handlers"
	"house-swap-app/internal/redis"
	"house-swap-app/internal/services"
	"house-swap-app/internal/utils"
	"house-swap-app/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}

	cfg := config.Load()
	configureLogger(log, cfg)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(cfg.DatabaseURL, cfg.GinMode == gin.DebugMode, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	hub := websocket.NewHub(cfg.AllowedOrigins, log)
	go hub.Run(ctx)

	// Outbound channels
	var mailer services.Mailer = services.NewLogMailer(log)
	if cfg.SMTPHost != "" {
		mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	}

	dispatcher := services.NewDispatcher(db, mailer, log)
	dispatcher.AttachRealtime(hub)
	if cfg.FirebaseProjectID != "" {
		pusher, err := services.NewFirebasePusher(ctx, cfg.FirebaseProjectID, cfg.FirebasePrivateKeyPath)
		if err != nil {
			log.WithError(err).Warn("Mobile push disabled")
		} else {
			dispatcher.AttachDevicePush(pusher)
		}
	}

	var events services.EventPublisher = services.NoopPublisher{}
	if cfg.NSQDAddr != "" {
		publisher, err := services.NewNSQPublisher(cfg.NSQDAddr, "house-swap-events", log)
		if err != nil {
			log.WithError(err).Warn("Domain events disabled")
		} else {
			defer publisher.Stop()
			events = publisher
		}
	}

	// Domain services
	accounts := services.NewAccountService(db)
	matches := services.NewMatchService(db, dispatcher, events, log)
	bookings := services.NewBookingService(db, dispatcher, events, log)
	reviews := services.NewReviewService(db, matches)
	messages := services.NewMessageService(db, matches, dispatcher)
	notifications := services.NewNotificationService(db)
	discovery := services.NewDiscoveryService(db)
	feedStore := services.NewRedisFeedStore(redisClient, cfg.FeedSessionTTL)

	profiles := services.NewProfileService(db, matches, bookings, reviews, log)
	storage, err := services.NewStorageService(cfg)
	if err != nil {
		log.WithError(err).Warn("House image uploads disabled")
	} else {
		if err := storage.EnsureBucket(ctx); err != nil {
			log.WithError(err).Warn("Failed to prepare image bucket")
		}
		profiles.AttachImageStore(storage, services.ImagePolicy{
			MaxFileSize:  cfg.MaxFileSize,
			MaxImages:    cfg.MaxHouseImages,
			AllowedTypes: cfg.AllowedImageTypes,
		})
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	router := handlers.NewRouter(handlers.Routes{
		Tokens:         tokens,
		Sessions:       redisClient,
		AllowedOrigins: cfg.AllowedOrigins,
		Auth:           handlers.NewAuthHandler(accounts, tokens, redisClient, cfg.JWTExpiry, log),
		Profiles:       handlers.NewProfileHandler(profiles, log),
		Discovery:      handlers.NewDiscoveryHandler(discovery, feedStore, log),
		Matches:        handlers.NewMatchHandler(matches, log),
		Bookings:       handlers.NewBookingHandler(bookings, matches, log),
		Reviews:        handlers.NewReviewHandler(reviews, log),
		Messages:       handlers.NewMessageHandler(messages, log),
		Notifications:  handlers.NewNotificationHandler(notifications, log),
		Websocket:      hub.HandleWebSocket,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}

func configureLogger(log *logrus.Logger, cfg *config.Config) {
	if cfg.GinMode == gin.ReleaseMode {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}
