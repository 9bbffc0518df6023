package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/mzurek/taskpilot/assistant"
	"github.com/mzurek/taskpilot/db"
	"github.com/mzurek/taskpilot/gcal"
	"github.com/mzurek/taskpilot/handlers"
	"github.com/mzurek/taskpilot/mongodb"
	"github.com/mzurek/taskpilot/tasks"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, relying on environment variables")
	}

	validateEnv()
	store := initStore()
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	mux := initHandlers(store)
	server := initServer(mux)
	startServer(server)
}

func validateEnv() {
	requiredEnvVars := []string{
		"SERVER_PORT", "JWT_SECRET",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URI",
		"OPENAI_API_KEY",
	}
	switch os.Getenv("STORAGE_BACKEND") {
	case "mongodb":
		requiredEnvVars = append(requiredEnvVars, "MONGO_HOST", "MONGO_PORT", "DATABASE_NAME")
	default:
		requiredEnvVars = append(requiredEnvVars,
			"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
			"POSTGRES_HOST", "POSTGRES_PORT")
	}
	for _, env := range requiredEnvVars {
		if os.Getenv(env) == "" {
			log.Fatalf("Environment variable %s must be set", env)
		}
	}
	if len(os.Getenv("JWT_SECRET")) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 characters")
	}
}

func initStore() *db.Store {
	if os.Getenv("STORAGE_BACKEND") == "mongodb" {
		return initMongoStore()
	}
	return initSQLStore()
}

func initSQLStore() *db.Store {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("POSTGRES_HOST"), os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"), os.Getenv("POSTGRES_DB"),
		os.Getenv("POSTGRES_PORT"))

	conn, err := db.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	return db.NewSQLStore(conn)
}

func initMongoStore() *db.Store {
	uri := fmt.Sprintf("mongodb://%s:%s/", os.Getenv("MONGO_HOST"), os.Getenv("MONGO_PORT"))
	if user, password := os.Getenv("MONGO_USER"), os.Getenv("MONGO_PASSWORD"); user != "" && password != "" {
		uri = fmt.Sprintf("mongodb://%s:%s@%s:%s/", user, password,
			os.Getenv("MONGO_HOST"), os.Getenv("MONGO_PORT"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongodb.Connect(ctx, uri)
	if err != nil {
		log.Fatalf("Failed to connect to mongodb: %v", err)
	}
	if err := mongodb.EnsureIndexes(ctx, client, os.Getenv("DATABASE_NAME")); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	return mongodb.NewStore(client, os.Getenv("DATABASE_NAME"))
}

func initHandlers(store *db.Store) *http.ServeMux {
	calendarClient := gcal.NewClient(gcal.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URI"),
	})

	handler := &handlers.Handler{
		Store:       store,
		TaskService: tasks.NewService(store.Tasks, store.Credentials, calendarClient),
		Calendar:    calendarClient,
		Assistant: assistant.NewClient(
			os.Getenv("OPENAI_API_KEY"), os.Getenv("CHAT_MODEL"),
			os.Getenv("CHAT_SYSTEM_PROMPT"), os.Getenv("WHISPER_LANGUAGE")),
		// allow max 5 register/login attempts per 15 minutes from the same IP
		RateLimiter: handlers.NewRateLimiter(5, 15*time.Minute),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.HandleHealth)
	mux.HandleFunc("/auth/register", handler.Register)
	mux.HandleFunc("/auth/login", handler.Login)
	mux.HandleFunc("/auth/refresh", handler.Refresh)
	mux.HandleFunc("/auth/logout", handler.AuthMiddleware(handler.Logout))
	mux.HandleFunc("/auth/me", handler.AuthMiddleware(handler.Me))
	mux.HandleFunc("/tasks", handler.AuthMiddleware(handler.HandleTasks))
	mux.HandleFunc("/tasks/grouped", handler.AuthMiddleware(handler.HandleGroupedTasks))
	mux.HandleFunc("/tasks/", handler.AuthMiddleware(handler.HandleTaskByID))
	mux.HandleFunc("/calendar/auth", handler.AuthMiddleware(handler.HandleCalendarAuth))
	mux.HandleFunc("/calendar/callback", handler.AuthMiddleware(handler.HandleCalendarCallback))
	mux.HandleFunc("/calendar/events", handler.AuthMiddleware(handler.HandleCalendarEvents))
	mux.HandleFunc("/calendar/events/context", handler.AuthMiddleware(handler.HandleCalendarEventsContext))
	mux.HandleFunc("/calendar/events/", handler.AuthMiddleware(handler.HandleCalendarEventByID))
	mux.HandleFunc("/calendar/status", handler.AuthMiddleware(handler.HandleCalendarStatus))
	mux.HandleFunc("/chat", handler.AuthMiddleware(handler.HandleChat))
	mux.HandleFunc("/whisper/transcribe", handler.AuthMiddleware(handler.HandleTranscribe))
	return mux
}

func initServer(mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:    ":" + os.Getenv("SERVER_PORT"),
		Handler: mux,
	}
}

func startServer(server *http.Server) {
	log.Printf("Starting server on %s", server.Addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
