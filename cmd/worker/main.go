package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/bazaarhq/storefront-orders/internal/aws"
	"github.com/bazaarhq/storefront-orders/internal/docstore"
	"github.com/bazaarhq/storefront-orders/internal/metrics"
	"github.com/bazaarhq/storefront-orders/internal/telemetry"
)

func main() {
	telemetry.InitLogger()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	docs := docstore.NewDynamoStore(clients.DynamoDB, os.Getenv("DOCUMENTS_TABLE"))
	p := NewProcessor(docs, metrics.NewEmitter(clients.CloudWatch, "StorefrontOrders"))

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"type":"order.confirmed","order_id":"local-order-1","customer_id":"local-customer-1"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
