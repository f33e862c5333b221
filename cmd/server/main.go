package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/switzbillz/switzbillz/internal/auth"
	"github.com/switzbillz/switzbillz/internal/cache"
	"github.com/switzbillz/switzbillz/internal/config"
	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/events"
	"github.com/switzbillz/switzbillz/internal/handler"
	"github.com/switzbillz/switzbillz/internal/invoice"
	"github.com/switzbillz/switzbillz/internal/links"
	"github.com/switzbillz/switzbillz/internal/shop"
)

func main() {
	// Load .env file if exists
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx := context.Background()

	// Connect to database and apply the schema
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()
	queries := db.New(database)

	// Optional PDF cache
	var pdfCache cache.PDFCache = cache.Nop{}
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.PDFCacheTTL,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		pdfCache = redisCache
		log.Printf("PDF cache: redis %s (ttl %s)", cfg.RedisAddr, cfg.PDFCacheTTL)
	}

	// Optional event stream
	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATS(ctx, cfg.NATSURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		log.Printf("Events: NATS %s", cfg.NATSURL)
	}

	signer, err := links.NewSigner(cfg.LinkSigningKey, cfg.LinkTTL)
	if err != nil {
		log.Fatalf("Failed to create link signer: %v", err)
	}

	renderer := invoice.NewRenderer(cfg.ShopName, cfg.InvoicePrefix)
	documents := invoice.NewService(queries, renderer, pdfCache, publisher, cfg.TmpDir)

	module := shop.NewModule(database, documents, signer, publisher, shop.Options{
		BaseURL:     cfg.BaseURL,
		ShopBaseURL: cfg.ShopBaseURL,
		ShopName:    cfg.ShopName,
	})

	authenticator, err := auth.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create authenticator: %v", err)
	}

	h := handler.New(authenticator, module, documents, signer, cfg)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Static files
	fileServer := http.FileServer(http.Dir(filepath.Join(cfg.WebRoot, "static")))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Auth routes
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", authenticator.LoginHandler)
		r.Get("/callback", authenticator.CallbackHandler)
		r.Get("/logout", authenticator.LogoutHandler)
	})

	h.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		log.Printf("Base URL: %s", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	fmt.Println("Server stopped")
}
