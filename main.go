package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"habit21API/handlers"
	"habit21API/internal/auth"
	"habit21API/internal/motivation"
	"habit21API/internal/store"
	"habit21API/internal/syncer"
	"habit21API/middleware"
	"habit21API/services"

	_ "net/http/pprof"
)

var (
	dbPool      *pgxpool.Pool
	remoteStore *store.RemoteStore
	sessions    *auth.SessionManager
	appService  *services.AppService
	authService *services.AuthService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	authURL := os.Getenv("AUTH_URL")
	authAnonKey := os.Getenv("AUTH_ANON_KEY")
	if authURL == "" || authAnonKey == "" {
		log.Fatal("AUTH_URL and AUTH_ANON_KEY environment variables are not set")
	}
	provider := auth.NewGoTrueProvider(authURL, authAnonKey)
	sessions = auth.NewSessionManager(provider, os.Getenv("AUTH_JWT_SECRET"))
	log.Println("Auth provider initialized successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The remote store is optional: without DATABASE_URL the app runs
	// local-only and every sync path degrades to the local slot.
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL != "" {
		poolConfig, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			log.Fatal("Failed to parse database URL:", err)
		}

		poolConfig.MaxConns = 10
		poolConfig.MinConns = 2
		poolConfig.MaxConnLifetime = time.Hour
		poolConfig.MaxConnIdleTime = 30 * time.Minute
		poolConfig.HealthCheckPeriod = time.Minute

		dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			log.Fatal("Failed to create connection pool:", err)
		}

		if err := dbPool.Ping(ctx); err != nil {
			log.Fatal("Failed to ping database:", err)
		}

		remoteStore = store.NewRemoteStore(dbPool)
		if err := remoteStore.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare challenges table:", err)
		}
		log.Println("Successfully connected to cloud database")
	} else {
		log.Println("DATABASE_URL not set, running in local-only mode")
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	localStore := store.NewLocalStore(dataDir)

	var remote syncer.RemoteStore
	if remoteStore != nil {
		remote = remoteStore
	}
	coordinator := syncer.NewCoordinator(localStore, remote, sessions)

	motivationClient := motivation.NewClient(os.Getenv("GEMINI_API_KEY"))

	appService = services.NewAppService(coordinator, sessions, motivationClient)
	authService = services.NewAuthService(sessions)

	middleware.InitPrometheus()
	syncer.InitMetrics()
}

func main() {
	defer func() {
		if dbPool != nil {
			log.Println("Closing database connection pool...")
			dbPool.Close()
		}
	}()

	challengeHandler := handlers.NewChallengeHandler(appService)
	authHandler := handlers.NewAuthHandler(authService)
	var challengeDeleter handlers.ChallengeDeleter
	if remoteStore != nil {
		challengeDeleter = remoteStore
	}
	webhookHandler := handlers.NewWebhookHandler(challengeDeleter)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if dbPool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := dbPool.Ping(ctx); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "habit21-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/auth", webhookHandler.HandleAuthWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/presets", challengeHandler.GetPresets).Methods("GET")

	api.HandleFunc("/app", challengeHandler.GetApp).Methods("GET")
	api.HandleFunc("/app/navigate", challengeHandler.Navigate).Methods("POST")

	api.HandleFunc("/challenge", challengeHandler.StartChallenge).Methods("POST")
	api.HandleFunc("/challenge", challengeHandler.GetChallenge).Methods("GET")
	api.HandleFunc("/challenge", challengeHandler.RestartChallenge).Methods("DELETE")
	api.HandleFunc("/challenge/complete-day", challengeHandler.CompleteDay).Methods("POST")
	api.HandleFunc("/challenge/motivation", challengeHandler.GetMotivation).Methods("GET")
	api.HandleFunc("/challenge/share-text", challengeHandler.GetShareText).Methods("GET")

	api.HandleFunc("/auth/state", authHandler.GetState).Methods("GET")
	api.HandleFunc("/auth/mode", authHandler.SetMode).Methods("POST")
	api.HandleFunc("/auth/submit", authHandler.Submit).Methods("POST")
	api.HandleFunc("/auth/verify", authHandler.Verify).Methods("POST")
	api.HandleFunc("/auth/resend", authHandler.Resend).Methods("POST")
	api.HandleFunc("/auth/back", authHandler.Back).Methods("POST")
	api.HandleFunc("/auth/oauth/{provider}", authHandler.OAuth).Methods("POST")
	api.HandleFunc("/auth/session", authHandler.AdoptSession).Methods("POST")
	api.HandleFunc("/auth/signout", authHandler.SignOut).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(sessions))

	protected.HandleFunc("/user", authHandler.GetUser).Methods("GET")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
