package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"musicify/cache"
	"musicify/config"
	"musicify/core/analysis"
	"musicify/core/asset"
	"musicify/db"
	"musicify/logger"
	"musicify/repository"
	"musicify/storage"
)

// Start initializes all collaborators and runs the HTTP server until a
// termination signal arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	handle, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer handle.Close()

	if err := db.Migrate(cfg); err != nil {
		logger.Fatal("Failed to migrate database schema", logger.ErrorField(err))
	}

	// Redis is an optional read-side cache; run without it on failure.
	var analysisCache *cache.AnalysisCache
	if redisClient, err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, running without analysis cache", logger.ErrorField(err))
	} else {
		defer redisClient.Close()
		analysisCache = cache.NewAnalysisCache(redisClient)
		logger.Info("Successfully connected to Redis")
	}

	// The archive mirror is optional as well.
	var archive storage.ArchiveStore
	if cfg.MinioEnabled {
		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			logger.Warn("MinIO unavailable, running without archive mirror", logger.ErrorField(err))
		} else {
			archive = store
			logger.Info("Archive storage initialized", logger.String("bucket", cfg.MinioBucket))
		}
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		logger.Fatal("Failed to create upload directory", logger.String("dir", cfg.UploadDir), logger.ErrorField(err))
	}

	trackRepo := repository.NewMySQLTrackRepository(handle)
	analysisRepo := repository.NewMySQLAnalysisRepository(handle)
	fetcher := asset.NewYtdlpFetcher(cfg.YtdlpPath, time.Duration(cfg.DownloadTimeoutSeconds)*time.Second)
	acquirer := asset.NewAcquirer(fetcher, cfg.UploadDir)
	analyzer := analysis.NewClient(cfg.AnalyzerURL, time.Duration(cfg.AnalyzerTimeoutSeconds)*time.Second)
	svc := analysis.NewService(trackRepo, analysisRepo, acquirer, analyzer, analysisCache, archive)
	apiHandler := NewAPIHandler(svc, cfg)

	router := NewRouter(apiHandler, cfg)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Minute, // uploads and downloads can be slow
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// NewRouter builds the full route table around the given handler.
func NewRouter(apiHandler *APIHandler, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware(cfg.CORSOrigins))

	router.HandleFunc("/api/audio/analyze", apiHandler.UploadAnalyzeHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/audio/analyze-youtube", apiHandler.YoutubeAnalyzeHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/audio/", apiHandler.ListAnalysesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/audio/{id}", apiHandler.GetAnalysisHandler).Methods(http.MethodGet)

	// Acquired audio files are served straight from the upload directory.
	uploadsFileServer := http.FileServer(http.Dir(cfg.UploadDir))
	router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", uploadsFileServer))

	router.HandleFunc("/", apiHandler.HealthHandler).Methods(http.MethodGet)

	return router
}

// corsMiddleware mirrors the configured allowed origins; "*" allows all.
func corsMiddleware(origins string) mux.MiddlewareFunc {
	allowed := make(map[string]bool)
	allowAll := origins == "" || origins == "*"
	if !allowAll {
		for _, origin := range strings.Split(origins, ",") {
			allowed[strings.TrimSpace(origin)] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
