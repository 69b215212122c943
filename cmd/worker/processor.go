package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/bazaarhq/storefront-orders/internal/aws"
	"github.com/bazaarhq/storefront-orders/internal/cart"
	"github.com/bazaarhq/storefront-orders/internal/docstore"
	"github.com/bazaarhq/storefront-orders/internal/metrics"
	"github.com/bazaarhq/storefront-orders/internal/orders"
)

// Processor consumes order events from SQS. Its main job is cart
// reconciliation: when a checkout committed the order but could not clear
// the cart in the same operation, the confirmed event lets the worker sweep
// the consumed entries out asynchronously. Sweeping is idempotent, so
// redelivered events and already-clean carts are harmless.
type Processor struct {
	docs    docstore.Store
	metrics *metrics.Emitter
}

// NewProcessor creates a Processor over the given document store.
func NewProcessor(docs docstore.Store, em *metrics.Emitter) *Processor {
	return &Processor{docs: docs, metrics: em}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times,
			// the message goes to the DLQ.
			slog.ErrorContext(ctx, "worker error", "message_id", rec.MessageId, "error", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev aws.OrderEvent
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	slog.InfoContext(ctx, "order event received",
		"type", ev.Type, "order_id", ev.OrderID, "status", ev.Status)

	switch ev.Type {
	case aws.EventOrderConfirmed:
		return p.reconcileCart(ctx, ev)
	case aws.EventOrderStatusChanged:
		// Buyer and seller notification fan-out would hang off this event.
		// Until a notification channel exists, the event is only recorded.
		slog.InfoContext(ctx, "order status changed",
			"order_id", ev.OrderID, "status", ev.Status, "seller_ids", ev.SellerIDs)
		return nil
	default:
		// Unknown types are dropped rather than retried: redelivery cannot
		// make them understood.
		slog.WarnContext(ctx, "unknown event type dropped", "type", ev.Type)
		return nil
	}
}

// reconcileCart removes any cart entry that was consumed by the order but is
// still present, which happens when the commit fell back to a non-atomic
// cart clear and the clear failed partway.
func (p *Processor) reconcileCart(ctx context.Context, ev aws.OrderEvent) error {
	var o orders.Order
	if err := p.docs.Get(ctx, orders.Collection, ev.OrderID, &o); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			// The order vanished after the event was published. Nothing to
			// reconcile against; retrying will not bring it back.
			slog.WarnContext(ctx, "order missing for reconciliation", "order_id", ev.OrderID)
			return nil
		}
		return fmt.Errorf("fetch order %s: %w", ev.OrderID, err)
	}

	customerRef, err := docstore.ParseRef(o.CustomerRef)
	if err != nil {
		return fmt.Errorf("bad customer ref on order %s: %w", ev.OrderID, err)
	}

	consumed := make(map[string]bool, len(o.Items))
	for _, item := range o.Items {
		ref, err := docstore.ParseRef(item.ProductRef)
		if err != nil {
			continue
		}
		consumed[ref.ID] = true
	}

	collection := cart.Collection(customerRef.ID)
	var entries []cart.Entry
	if err := p.docs.Query(ctx, collection, &entries); err != nil {
		return fmt.Errorf("list cart for %s: %w", customerRef.ID, err)
	}

	var stale []docstore.Ref
	for _, e := range entries {
		if consumed[e.ProductID] {
			stale = append(stale, docstore.NewRef(collection, e.ProductID))
		}
	}
	if len(stale) == 0 {
		p.metrics.CountCartReconciliation(ctx, "clean")
		return nil
	}

	if err := p.docs.BatchDelete(ctx, stale); err != nil {
		p.metrics.CountCartReconciliation(ctx, "failed")
		return fmt.Errorf("clear stale cart entries for %s: %w", customerRef.ID, err)
	}

	p.metrics.CountCartReconciliation(ctx, "swept")
	slog.InfoContext(ctx, "stale cart entries swept",
		"order_id", ev.OrderID, "customer_id", customerRef.ID, "count", len(stale))
	return nil
}
