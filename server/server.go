package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tunecast/cache"
	"tunecast/config"
	"tunecast/core/acquire"
	"tunecast/core/audio"
	"tunecast/core/auth"
	"tunecast/core/catalog"
	"tunecast/core/extract"
	"tunecast/logger"
	"tunecast/repository"
	"tunecast/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.InfoLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	if cfg.JWTSecret == "" {
		log.Fatal("Missing JWT_SECRET")
	}

	ensureDirExists(cfg.DataDir)

	// All external clients are built once here and injected; nothing is
	// re-created per request.
	manifests := repository.NewFileManifestRepository(cfg.DataDir)
	catalogClient := catalog.NewClient(cfg.CatalogAPIURL)
	extractor := extract.NewClient(cfg.CobaltURL)
	transcoder := audio.NewFFmpegTranscoder(cfg.FFmpegPath)
	orchestrator := acquire.NewOrchestrator(manifests, catalogClient, extractor, transcoder)

	if cfg.RedisAddr != "" {
		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cache.CloseRedis()
		log.Println("Successfully connected to Redis")
	}

	if cfg.MinioEndpoint != "" {
		store, err := storage.NewStore(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}
		orchestrator.SetSegmentMirror(audio.NewSegmentMirror(store))
		log.Println("MinIO artifact mirror enabled")
	}

	tokens := auth.NewTokenAuthority(cfg.JWTSecret)
	apiHandler := NewAPIHandler(catalogClient, orchestrator, manifests, tokens)

	router := mux.NewRouter()

	// CORS middleware
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	router.HandleFunc("/search", apiHandler.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/dl/{id}", apiHandler.AuthMiddleware(apiHandler.AcquireHandler)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/dl/{id}/{filename}", apiHandler.AuthMiddleware(apiHandler.ArtifactHandler)).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
		// Acquisition requests block for the full transcode, so no write
		// timeout is imposed.
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s...", cfg.ListenAddr)
		log.Println("Search tracks via GET /search?query=...")
		log.Println("Trigger acquisition via POST /dl/{id}")
		log.Println("Fetch artifacts via GET /dl/{id}/{filename}")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Creating directory: %s", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", path, err)
		}
	} else if err != nil {
		log.Fatalf("Failed to check directory %s: %v", path, err)
	}
}
