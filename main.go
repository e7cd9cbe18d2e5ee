package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/google/generative-ai-go/genai"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/option"

	"tokenTapAPI/handlers"
	"tokenTapAPI/internal/store"
	"tokenTapAPI/middleware"
	"tokenTapAPI/services"

	_ "net/http/pprof"
)

var (
	docStore           store.Store
	dbPool             *pgxpool.Pool
	genaiClient        *genai.Client
	profileService     *services.ProfileService
	claimService       *services.ClaimService
	historyService     *services.HistoryService
	leaderboardService *services.LeaderboardService
	leaderboardFeed    *services.LeaderboardFeed
	gasService         *services.GasService
)

// firebaseCredentials resolves credentials the same way for every Google
// client: base64 JSON from the environment first, local key file second.
func firebaseCredentials() (option.ClientOption, error) {
	if encoded := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, err
		}
		log.Println("Firebase: initializing from FIREBASE_SERVICE_ACCOUNT_JSON environment variable")
		return option.WithCredentialsJSON(decoded), nil
	}
	log.Println("Firebase: initializing from local serviceAccountKey.json")
	return option.WithCredentialsFile("./serviceAccountKey.json"), nil
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if os.Getenv("TOKENTAP_DEV_MODE") == "1" {
		log.Println("Dev mode: using in-memory document store, auth disabled checks will fail closed")
		docStore = store.NewMemoryStore()
	} else {
		opt, err := firebaseCredentials()
		if err != nil {
			log.Fatal("Failed to load Firebase credentials:", err)
		}

		app, err := firebase.NewApp(ctx, nil, opt)
		if err != nil {
			log.Fatal("Failed to initialize Firebase app:", err)
		}

		authClient, err := app.Auth(ctx)
		if err != nil {
			log.Fatal("Failed to initialize Firebase auth:", err)
		}
		middleware.SetAuthClient(authClient)

		fsClient, err := app.Firestore(ctx)
		if err != nil {
			log.Fatal("Failed to initialize Firestore:", err)
		}
		docStore = store.NewFirestoreStore(fsClient)
		log.Println("Firebase auth and Firestore initialized successfully")
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
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

		historyService = services.NewHistoryService(dbPool)
		if err := historyService.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare claim history schema:", err)
		}
		log.Println("Claim history database connected")
	} else {
		log.Println("Warning: DATABASE_URL not set, claim history disabled")
	}

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		var err error
		genaiClient, err = genai.NewClient(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			log.Printf("Warning: could not initialize Gemini client: %v", err)
		} else {
			modelName := os.Getenv("GEMINI_MODEL")
			if modelName == "" {
				modelName = "gemini-1.5-flash"
			}
			gasService = services.NewGasService(genaiClient, modelName)
			log.Printf("Gas estimation initialized with model %s", modelName)
		}
	} else {
		log.Println("Warning: GEMINI_API_KEY not set, gas estimation disabled")
	}

	profileService = services.NewProfileService(docStore)
	claimService = services.NewClaimService(docStore, historyService, claimConfigFromEnv())
	leaderboardService = services.NewLeaderboardService(docStore)
	leaderboardFeed = services.NewLeaderboardFeed(leaderboardService)

	middleware.InitPrometheus()
}

func claimConfigFromEnv() services.ClaimConfig {
	cfg := services.ClaimConfig{}
	if v, err := strconv.ParseInt(os.Getenv("CLAIM_AMOUNT"), 10, 64); err == nil {
		cfg.Amount = v
	}
	if v, err := strconv.Atoi(os.Getenv("COOLDOWN_HOURS")); err == nil {
		cfg.Cooldown = time.Duration(v) * time.Hour
	}
	return cfg
}

func main() {
	defer func() {
		if dbPool != nil {
			log.Println("Closing database connection pool...")
			dbPool.Close()
		}
		if genaiClient != nil {
			genaiClient.Close()
		}
	}()

	userHandler := handlers.NewUserHandler(profileService, historyService)
	claimHandler := handlers.NewClaimHandler(claimService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, leaderboardFeed)
	gasHandler := handlers.NewGasHandler(gasService)

	go leaderboardFeed.Run()

	r := mux.NewRouter()

	// Websocket routes stay on the root router: the monitoring wrapper does
	// not support hijacking, and long-lived connections starve the limiter.
	r.HandleFunc("/api/v1/leaderboard/live", leaderboardHandler.JoinLiveFeed)
	r.Handle("/api/v1/claim/cooldown/live", middleware.FirebaseAuthMiddleware(http.HandlerFunc(claimHandler.CooldownStream)))

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if dbPool != nil {
			if err := dbPool.Ping(ctx); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "tokenTap-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.FirebaseAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/claims", userHandler.GetClaimHistory).Methods("GET")
	protected.HandleFunc("/user/claims/count", userHandler.GetClaimCount).Methods("GET")

	protected.HandleFunc("/claim", claimHandler.Claim).Methods("POST")
	protected.HandleFunc("/claim/status", claimHandler.GetStatus).Methods("GET")

	protected.HandleFunc("/gas/estimate", gasHandler.Estimate).Methods("POST")

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
		WriteTimeout: 35 * time.Second,
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
