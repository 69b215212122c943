package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/bazaarhq/storefront-orders/internal/aws"
	"github.com/bazaarhq/storefront-orders/internal/docstore"
	"github.com/bazaarhq/storefront-orders/internal/handlers"
	"github.com/bazaarhq/storefront-orders/internal/identity"
	"github.com/bazaarhq/storefront-orders/internal/metrics"
	"github.com/bazaarhq/storefront-orders/internal/telemetry"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestID())

	handlers.Register(r, cfg)

	return r
}

func main() {
	telemetry.InitLogger()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	signingKey := os.Getenv("JWT_SIGNING_KEY")
	if signingKey == "" {
		log.Fatal("JWT_SIGNING_KEY must be set")
	}

	docs := docstore.NewDynamoStore(clients.DynamoDB, os.Getenv("DOCUMENTS_TABLE"))

	var publisher *aws.Publisher
	if queueURL := os.Getenv("ORDER_EVENTS_QUEUE_URL"); queueURL != "" {
		publisher = aws.NewPublisher(clients.SQS, queueURL)
	}

	cfg := handlers.HandlerConfig{
		Docs:         docs,
		Identity:     identity.NewJWTProvider(signingKey),
		Publisher:    publisher,
		Metrics:      metrics.NewEmitter(clients.CloudWatch, "StorefrontOrders"),
		ShippingRate: envInt64("SHIPPING_FLAT_RATE", 300),
		ReceiptTTL:   envDuration("CHECKOUT_IDEMPOTENCY_TTL", 48*time.Hour),
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return v
}
