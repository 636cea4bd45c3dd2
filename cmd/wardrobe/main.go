package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/yahrour/digital-closet/internal/alerts"
	"github.com/yahrour/digital-closet/internal/app"
	"github.com/yahrour/digital-closet/internal/config"
	"github.com/yahrour/digital-closet/internal/server"
	"github.com/yahrour/digital-closet/internal/session"
	"github.com/yahrour/digital-closet/internal/util"
	"github.com/yahrour/digital-closet/pkg/cache"
	"github.com/yahrour/digital-closet/pkg/mail"
	"github.com/yahrour/digital-closet/pkg/storage"
	"github.com/yahrour/digital-closet/pkg/store"
)

func main() {
	path := os.Getenv("WARDROBE_CONFIG")
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := dataStore.Ping(pingCtx); err != nil {
		cancel()
		log.Fatalf("database unreachable: %v", err)
	}
	cancel()

	objects, err := storage.NewMinioStore(
		cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	tagCache := cache.NewTagCache(cfg.RedisAddr, cfg.RedisPassword, cfg.CachePrefix, cfg.CacheTTL.Std())
	cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := tagCache.Ping(cacheCtx); err != nil {
		cancel()
		log.Fatalf("redis unreachable: %v", err)
	}
	cancel()

	var mailer mail.Mailer = mail.NopMailer{}
	if cfg.MailAPIKey != "" {
		m, err := mail.NewHTTPMailer(cfg.MailAPIBaseURL, cfg.MailAPIKey, cfg.MailFrom)
		if err != nil {
			log.Fatalf("failed to init mailer: %v", err)
		}
		mailer = m
	}

	alerter := alerts.New(alerts.Config{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		Threshold:     cfg.AlertThreshold,
		Window:        cfg.AlertWindow.Std(),
		Recipient:     cfg.AlertRecipient,
		Mailer:        mailer,
	})

	appCore, err := app.New(app.Config{
		Store:      dataStore,
		Objects:    objects,
		Cache:      tagCache,
		Alerter:    alerter,
		PresignTTL: cfg.PresignTTL.Std(),
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	sessions, err := session.NewResolver(session.Config{
		Secret: cfg.SessionSecret,
		Issuer: cfg.SessionIssuer,
	})
	if err != nil {
		log.Fatalf("failed to init session resolver: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:      appCore,
		Sessions: sessions,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("wardrobe server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
