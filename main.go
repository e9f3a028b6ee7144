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

	"gatepass/auth"
	"gatepass/db"
	"gatepass/events"
	"gatepass/imghost"
	"gatepass/media"
	"gatepass/rdx"
	"gatepass/routes"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	auth.Init(jwtSecret)

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	if err := db.Connect(mongoURI); err != nil {
		log.Fatalf("Could not connect to MongoDB: %v", err)
	}
	db.EnsureIndexes()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "localhost:6379"
	}
	redisClient := rdx.Init(redisURL, os.Getenv("REDIS_PASSWORD"))

	imageHost := imghost.New(
		os.Getenv("IMAGE_HOST_URL"),
		os.Getenv("IMAGE_HOST_KEY"),
		os.Getenv("IMAGE_HOST_SECRET"),
	)
	mediaService := media.NewService(imageHost)
	eventHandler := events.NewHandler(mediaService, redisClient)

	router := httprouter.New()
	router.GET("/health", Index)
	routes.AddAuthRoutes(router)
	routes.AddEventRoutes(router, eventHandler)
	routes.AddTicketRoutes(router)
	routes.AddUserRoutes(router)
	routes.AddUploadRoutes(router, mediaService)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := securityHeaders(c.Handler(router))

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	go func() {
		log.Printf("Server started on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on port %s: %v", port, err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	<-shutdownChan
	log.Println("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	if err := db.Disconnect(ctx); err != nil {
		log.Printf("MongoDB disconnect failed: %v", err)
	}
	log.Println("Server stopped")
}

func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}
