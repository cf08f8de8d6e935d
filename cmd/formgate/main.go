package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gatewell-labs/formgate/internal/config"
	"github.com/gatewell-labs/formgate/internal/dispatch"
	"github.com/gatewell-labs/formgate/internal/logging"
	"github.com/gatewell-labs/formgate/internal/metrics"
	"github.com/gatewell-labs/formgate/internal/ratelimit"
	"github.com/gatewell-labs/formgate/internal/repository"
	"github.com/gatewell-labs/formgate/internal/server"
	"github.com/gatewell-labs/formgate/internal/service"
	"github.com/gatewell-labs/formgate/internal/spam"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	)
	logging.SetDefault(logger)

	logger.Info("Starting FormGate",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"dev_mode", cfg.DevMode,
	)
	if *configPath != "" {
		logger.Info("Loaded configuration", "config_path", *configPath)
	}

	// Anti-spam checker, optionally extended from a keyword file.
	spamCfg := spam.Config{
		RequireCSRF:    cfg.Spam.RequireCSRF,
		MinTokenLength: cfg.Spam.MinTokenLength,
	}
	if cfg.Spam.KeywordFile != "" {
		extra, err := spam.LoadKeywordFile(cfg.Spam.KeywordFile)
		if err != nil {
			log.Fatalf("Failed to load keyword file: %v", err)
		}
		spamCfg.ExtraKeywords = extra
		log.Printf("Loaded %d extra spam keywords from %s", len(extra), cfg.Spam.KeywordFile)
	}
	checker, err := spam.NewChecker(spamCfg)
	if err != nil {
		log.Fatalf("Failed to build spam checker: %v", err)
	}

	// Lead store.
	var store repository.LeadStore
	switch cfg.Store.Backend {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		pg, err := repository.NewPostgresStore(ctx, cfg.Store.PostgresURL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		store = pg
		log.Println("Lead store: postgres")
	case "memory", "":
		store = repository.NewInMemoryStore()
		log.Println("Lead store: in-memory (leads are lost on restart)")
	default:
		log.Fatalf("Unknown store backend: %s (supported: memory, postgres)", cfg.Store.Backend)
	}
	defer store.Close()

	// Dispatch channels. The log channel is always present so an accepted
	// submission is never silently dropped.
	channels := []dispatch.Channel{
		dispatch.NewLogChannel(log.Printf),
	}
	if cfg.Dispatch.Mail.Enabled {
		channels = append(channels, dispatch.NewMailChannel(
			cfg.Dispatch.Mail.Host,
			cfg.Dispatch.Mail.Port,
			cfg.Dispatch.Mail.Username,
			cfg.Dispatch.Mail.Password,
			cfg.Dispatch.Mail.From,
			cfg.Dispatch.Mail.To,
		))
		log.Printf("Mail dispatch enabled: %s:%d", cfg.Dispatch.Mail.Host, cfg.Dispatch.Mail.Port)
	}
	if cfg.Dispatch.Webhook.Enabled {
		channels = append(channels, dispatch.NewWebhookChannel(cfg.Dispatch.Webhook.URL, cfg.Dispatch.Timeout))
		log.Printf("Webhook dispatch enabled: %s", cfg.Dispatch.Webhook.URL)
	}
	if cfg.Dispatch.NATS.Enabled {
		nc, err := dispatch.NewNATSChannel(cfg.Dispatch.NATS.URL, cfg.Dispatch.NATS.Subject)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Close()
		channels = append(channels, nc)
		log.Printf("NATS dispatch enabled: %s subject=%s", cfg.Dispatch.NATS.URL, cfg.Dispatch.NATS.Subject)
	}
	channel := dispatch.NewMultiChannel(func(channelType string, err error) {
		metrics.DispatchFailures.WithLabelValues(channelType).Inc()
		logger.Error("dispatch channel failed", "channel", channelType, logging.Err(err))
	}, channels...)

	svc := service.NewSubmissionService(store, channel, cfg.Dispatch.Timeout, logger)

	// Rate-limit store factory. With Redis the quota survives restarts and
	// is shared across instances; otherwise each instance counts alone.
	var newStore server.StoreFactory
	if cfg.RateLimit.Enabled && cfg.RateLimit.Redis.Enabled {
		opt, err := redis.ParseURL(cfg.RateLimit.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid Redis URL: %v", err)
		}
		client := redis.NewClient(opt)
		defer client.Close()

		newStore = func(limit int, window time.Duration) ratelimit.Store {
			return ratelimit.NewRedisStoreWithClient(client, limit, window)
		}
		log.Printf("Rate limiting enabled: redis backend, default %d per %s", cfg.RateLimit.MaxSubmissions, cfg.RateLimit.Window)
	} else {
		newStore = func(limit int, window time.Duration) ratelimit.Store {
			return ratelimit.NewMemoryStore(limit, window)
		}
		if cfg.RateLimit.Enabled {
			log.Printf("Rate limiting enabled: in-memory backend, default %d per %s", cfg.RateLimit.MaxSubmissions, cfg.RateLimit.Window)
		} else {
			log.Println("Rate limiting disabled in configuration")
		}
	}

	router := server.NewRouter(server.Options{
		Config:   cfg,
		Logger:   logger,
		Checker:  checker,
		Executor: svc,
		NewStore: newStore,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("FormGate listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
