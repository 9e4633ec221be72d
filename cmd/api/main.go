package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/example/storefront-view/internal/api"
	"github.com/example/storefront-view/internal/events"
	"github.com/example/storefront-view/internal/session"
	"github.com/example/storefront-view/internal/upstream"
)

func main() {
	// Configuration from environment variables
	baseURL := os.Getenv("UPSTREAM_BASE_URL")
	if baseURL == "" {
		log.Fatal("[API] UPSTREAM_BASE_URL environment variable is required")
	}
	listenAddr := getEnv("LISTEN_ADDR", ":8080")
	timeout := getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 10)
	shippingFee := getEnvInt("SHIPPING_FEE", 50000)
	jwtSecret := os.Getenv("JWT_SECRET")
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	kafkaTopic := getEnv("KAFKA_TOPIC", "storefront-activity")

	log.Println("[API] ========================================")
	log.Println("[API] Storefront View Service")
	log.Println("[API] ========================================")
	log.Printf("[API] Upstream: %s (timeout %ds)", baseURL, timeout)

	// Activity events are optional; without brokers they go nowhere
	var publisher events.Publisher = events.NopPublisher{}
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		publisher = events.NewKafkaPublisher(brokers, kafkaTopic)
		log.Printf("[API] Kafka: %v topic %s", brokers, kafkaTopic)
	} else {
		log.Println("[API] Kafka: disabled (KAFKA_BROKERS not set)")
	}
	defer publisher.Close()

	// Tokens are minted by the external auth service; without a shared
	// secret every shopper browses anonymously
	var verifier *session.Verifier
	if jwtSecret != "" {
		verifier = session.NewVerifier(jwtSecret)
		log.Println("[API] JWT verification enabled")
	} else {
		log.Println("[API] JWT verification disabled (JWT_SECRET not set)")
	}

	source := upstream.NewClient(baseURL, time.Duration(timeout)*time.Second)
	registry := api.NewSessionRegistry(source, publisher, shippingFee)
	handlers := api.NewHandlers(registry, publisher)
	router := api.NewRouter(handlers, verifier)

	server := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", listenAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("[API] %s must be an integer, got %q", key, value)
	}
	return n
}
