package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appoutbox "villabook/internal/app/outbox"
	authsvc "villabook/internal/app/services/auth"
	bookingsvc "villabook/internal/app/services/booking"
	calendarsvc "villabook/internal/app/services/calendar"
	housesvc "villabook/internal/app/services/house"
	domainbooking "villabook/internal/domain/booking"
	domainhouse "villabook/internal/domain/house"
	domainuser "villabook/internal/domain/user"
	"villabook/internal/infra/broker/kafka"
	"villabook/internal/infra/config"
	mongodb "villabook/internal/infra/db/mongo"
	ginserver "villabook/internal/infra/http/gin"
	"villabook/internal/infra/line"
	"villabook/internal/infra/obs"
	"villabook/internal/infra/outbox"
	"villabook/internal/infra/security"
	"villabook/internal/infra/storage/memory"
	"villabook/internal/infra/storage/s3"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	app, cleanup, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	worker   *outbox.Worker
	ready    func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, func(), error) {
	var (
		houses   domainhouse.Repository
		bookings domainbooking.Repository
		users    domainuser.Repository
		events   appoutbox.Outbox
		worker   *outbox.Worker
		ready    = func() error { return nil }
		cleanups []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, cleanup, err
		}
		cleanups = append(cleanups, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		})
		houses = mongodb.NewHouseRepository(client.DB)
		bookings = mongodb.NewBookingRepository(client.DB)
		users = mongodb.NewUserRepository(client.DB)
		store := outbox.NewStore(client.DB)
		events = store
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, cleanup, err
			}
			cleanups = append(cleanups, func() { _ = producer.Close() })
			worker = &outbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
				Logger:      logger,
			}
		} else {
			logger.Warn("kafka brokers not configured, outbox events stay queued")
		}
	} else {
		logger.Warn("mongo not configured, using in-memory storage")
		houses = memory.NewHouseRepository()
		bookings = memory.NewBookingRepository()
		users = memory.NewUserRepository()
		events = memory.NewOutbox()
	}

	var uploader housesvc.Uploader = s3.NoopUploader{}
	if cfg.S3Endpoint != "" {
		s3Client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			logger.Warn("s3 uploader unavailable", "error", err)
		} else {
			uploader = s3Client
		}
	}

	hasher := security.BcryptHasher{}
	adminHash := cfg.AdminPassword
	if adminHash != "" {
		if hashed, err := hasher.Hash(cfg.AdminPassword); err == nil {
			adminHash = hashed
		}
	}
	authService := &authsvc.Service{
		Users:         users,
		Sessions:      memory.NewSessionStore(),
		Passwords:     hasher,
		Tokens:        security.RandomTokenGenerator{},
		AdminUsername: cfg.AdminUsername,
		AdminPassHash: adminHash,
		JWTSecret:     []byte(cfg.JWTSecret),
		Logger:        logger,
	}

	encoder := appoutbox.JSONEventEncoder{}
	calendarService := &calendarsvc.Service{
		Houses:  houses,
		Outbox:  events,
		Encoder: encoder,
		Logger:  logger,
	}
	notifier := &line.Client{
		HTTP:         &http.Client{Timeout: cfg.LineAPITimeout},
		ChannelToken: cfg.LineChannelToken,
		Logger:       logger,
	}
	bookingService := &bookingsvc.Service{
		Bookings: bookings,
		Calendar: calendarService,
		Notifier: notifier,
		Outbox:   events,
		Encoder:  encoder,
		LineOAID: cfg.LineOAID,
		Logger:   logger,
	}
	houseService := &housesvc.Service{
		Houses:   houses,
		Uploader: uploader,
		Logger:   logger,
	}

	return application{
		handlers: ginserver.Handlers{
			Calendar:       ginserver.CalendarHandler{Service: calendarService},
			Booking:        ginserver.BookingHandler{Service: bookingService},
			House:          ginserver.HouseHandler{Service: houseService},
			Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
			AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
			AdminRequired:  ginserver.RequireAdmin,
		},
		worker: worker,
		ready:  ready,
	}, cleanup, nil
}
