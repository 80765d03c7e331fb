package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"volunteerhub/api/internal/app"
	"volunteerhub/api/internal/cache"
	"volunteerhub/api/internal/config"
	"volunteerhub/api/internal/mailchimp"
	"volunteerhub/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	var profiles *mailchimp.Client
	if cfg.SyncConfigured() {
		profiles = mailchimp.New(cfg.MailchimpDC, cfg.MailchimpAPIKey, cfg.MailchimpListID)
		log.Printf("Profile sync enabled for list %s (%s)", cfg.MailchimpListID, cfg.MailchimpDC)
	} else {
		log.Printf("WARNING: marketing provider not configured; sync requests will fail")
	}

	var service *app.Service
	if strings.TrimSpace(cfg.RedisURL) != "" {
		committeeCache, err := cache.NewCommitteeCache(cfg.RedisURL, cfg.CommitteeCacheTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer committeeCache.Close()
		log.Printf("Using Redis committee cache (ttl %s)", cfg.CommitteeCacheTTL)
		service = app.NewWithCommitteeCache(cfg, dataStore, profiles, committeeCache)
	} else {
		service = app.New(cfg, dataStore, profiles)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Volunteer API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
