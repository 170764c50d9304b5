package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/assets"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/branch"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/config"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/handler"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/middleware"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/service"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/store"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/worker"
)

// main is the application entrypoint for the Óptica Yolanda catalog API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Strs("sucursales", cfg.Branches).Msg("starting catalog api")

	// 3. Open catalog store backend
	var catalogStore store.Store
	switch cfg.Storage.Backend {
	case "bolt":
		boltStore, err := store.NewBoltStore(cfg.Storage.BoltPath)
		if err != nil {
			log.Error().Err(err).Msg("catalog db open failed")
			fmt.Fprintf(os.Stderr, "catalog db open failed: %v\n", err)
			os.Exit(1)
		}
		defer boltStore.Close()
		catalogStore = boltStore
	default:
		fileStore, err := store.NewFileStore(cfg.Storage.DataDir)
		if err != nil {
			log.Error().Err(err).Msg("catalog dir setup failed")
			fmt.Fprintf(os.Stderr, "catalog dir setup failed: %v\n", err)
			os.Exit(1)
		}
		catalogStore = fileStore
	}
	log.Info().Str("backend", cfg.Storage.Backend).Msg("catalog store ready")

	// 4. Initialize asset manager
	assetMgr, err := assets.New(cfg.Storage.UploadsDir)
	if err != nil {
		log.Error().Err(err).Msg("uploads dir setup failed")
		fmt.Fprintf(os.Stderr, "uploads dir setup failed: %v\n", err)
		os.Exit(1)
	}

	// 5. Initialize branch registry and admin gate
	registry := branch.New(cfg.Branches)
	gate := service.NewAdminGate(cfg.AdminKey)

	// 6. Initialize services
	productSvc := service.NewProductService(registry, catalogStore, assetMgr, gate)
	exportSvc := service.NewExportService(registry, catalogStore)

	// 7. Initialize handlers
	rateLimiter := middleware.NewInvalidAuthRateLimiter()
	handlers := &Handlers{
		Health:  handler.NewHealthHandler(registry, cfg.Storage.Backend),
		Catalog: handler.NewCatalogHandler(productSvc, rateLimiter),
		Export:  handler.NewExportHandler(registry, exportSvc),
	}

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, cfg)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	if cfg.Worker.OrphanSweepInterval > 0 {
		go worker.NewOrphanWorker(registry, catalogStore, assetMgr, cfg.Worker.OrphanSweepInterval, cfg.Worker.OrphanMinAge).Start(ctx)
	}

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health  *handler.HealthHandler
	Catalog *handler.CatalogHandler
	Export  *handler.ExportHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, cfg *config.Config) {
	router.GET("/health", handlers.Health.GetHealth)

	// Per-branch catalog API
	api := router.Group("/api/:sucursal")
	{
		api.GET("/productos", handlers.Catalog.GetCatalog)
		api.POST("/productos", handlers.Catalog.CreateProduct)
		api.PUT("/productos/:id", handlers.Catalog.UpdateProduct)
		api.DELETE("/productos/:id", handlers.Catalog.DeleteProduct)
		api.GET("/export", handlers.Export.Export)
	}

	// Stored product images
	router.Static(strings.TrimSuffix(assets.PublicPrefix, "/"), cfg.Storage.UploadsDir)

	// Storefront: serve files from the public dir, falling back to the SPA
	// entrypoint for client-side routes. API misses stay JSON.
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			utils.Error(c, 404, "NOT_FOUND", "Route not found")
			return
		}
		// Rooted Clean keeps the path inside the public dir.
		file := filepath.Join(cfg.Storage.PublicDir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(cfg.Storage.PublicDir, "index.html"))
	})
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
